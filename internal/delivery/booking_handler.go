package delivery

import (
	"net/http"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/teetimes/internal/bookings"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
)

type BookingHandler struct {
	svc bookings.Service
	log *logger.ZapLogger
}

func NewBookingHandler(svc bookings.Service, log *logger.ZapLogger) *BookingHandler {
	return &BookingHandler{svc: svc, log: log}
}

// POST /bookings
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req bookings.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	b, payURL, err := h.svc.Create(r.Context(), req)
	if err != nil {
		fail(w, h.log, "failed to create booking", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"booking":    b,
		"paymentUrl": payURL,
	})
}

// GET /bookings/{reference}
func (h *BookingHandler) GetByReference(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.GetByReference(r.Context(), chi.URLParam(r, "reference"))
	if err != nil {
		fail(w, h.log, "failed to load booking", err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// GET /admin/bookings?status=paid
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context(), bookings.Status(r.URL.Query().Get("status")))
	if err != nil {
		fail(w, h.log, "failed to list bookings", err)
		return
	}
	if list == nil {
		list = []*bookings.Booking{}
	}
	writeJSON(w, http.StatusOK, list)
}

// POST /admin/bookings/{booking_id}/cancel
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "booking_id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid booking_id")
		return
	}
	b, err := h.svc.Cancel(r.Context(), id)
	if err != nil {
		fail(w, h.log, "failed to cancel booking", err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}
