package delivery

import (
	"errors"
	"net/http"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/teetimes/internal/bookings"
	"github.com/Vovarama1992/teetimes/internal/courses"
	"github.com/Vovarama1992/teetimes/internal/domain"
	"github.com/Vovarama1992/teetimes/internal/settings"
	"github.com/goccy/go-json"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps service errors to HTTP codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidUpload),
		errors.Is(err, courses.ErrInvalidInput),
		errors.Is(err, bookings.ErrInvalidInput),
		errors.Is(err, settings.ErrInvalidKey):
		return http.StatusBadRequest
	case errors.Is(err, courses.ErrNotFound),
		errors.Is(err, bookings.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, courses.ErrNoCapacity),
		errors.Is(err, bookings.ErrInvalidTransition),
		errors.Is(err, bookings.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, bookings.ErrPaymentFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err with its mapped status. 5xx details stay in the log.
func fail(w http.ResponseWriter, zl *logger.ZapLogger, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		zl.Log(logger.LogEntry{Level: "error", Message: msg, Error: err})
		writeError(w, status, msg)
		return
	}
	writeError(w, status, err.Error())
}
