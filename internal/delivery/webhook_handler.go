package delivery

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/teetimes/internal/bookings"
	"github.com/Vovarama1992/teetimes/internal/foreup"
	"github.com/Vovarama1992/teetimes/internal/notificator"
	"github.com/Vovarama1992/teetimes/internal/payments"
	"github.com/go-chi/chi/v5"
)

const maxWebhookBody = 1 << 20

type paymentApplier interface {
	ApplyPaymentEvent(ctx context.Context, evt *payments.Event) (*bookings.Booking, error)
}

type availabilitySyncer interface {
	ApplyProviderEvent(ctx context.Context, providerRef string, delta int) error
}

type WebhookHandler struct {
	processors map[payments.Provider]payments.Processor
	foreup     *foreup.Parser
	bookings   paymentApplier
	teeTimes   availabilitySyncer
	notifier   notificator.Notificator
	log        *logger.ZapLogger
}

func NewWebhookHandler(
	processors []payments.Processor,
	foreupParser *foreup.Parser,
	bookings paymentApplier,
	teeTimes availabilitySyncer,
	notifier notificator.Notificator,
	log *logger.ZapLogger,
) *WebhookHandler {
	byName := make(map[payments.Provider]payments.Processor, len(processors))
	for _, p := range processors {
		byName[p.Provider()] = p
	}
	return &WebhookHandler{
		processors: byName,
		foreup:     foreupParser,
		bookings:   bookings,
		teeTimes:   teeTimes,
		notifier:   notifier,
		log:        log,
	}
}

// POST /webhooks/{provider}
func (h *WebhookHandler) Payment(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "provider")
	proc, ok := h.processors[payments.Provider(name)]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown provider")
		return
	}

	h.handle(w, r, name, func(ctx context.Context, body []byte) error {
		evt, err := proc.Parse(r.Header, body)
		if err != nil {
			return err
		}
		if _, err := h.bookings.ApplyPaymentEvent(ctx, evt); err != nil {
			return fmt.Errorf("apply %s event %s: %w", evt.Kind, evt.ID, err)
		}
		return nil
	})
}

// POST /webhooks/foreup
func (h *WebhookHandler) ForeUp(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, "foreup", func(ctx context.Context, body []byte) error {
		evt, err := h.foreup.Parse(r.Header, body)
		if err != nil {
			return err
		}
		if evt.Delta == 0 {
			return nil
		}
		if err := h.teeTimes.ApplyProviderEvent(ctx, evt.TeeTimeRef, evt.Delta); err != nil {
			return fmt.Errorf("apply %s event %s: %w", evt.Type, evt.ID, err)
		}
		return nil
	})
}

func (h *WebhookHandler) handle(w http.ResponseWriter, r *http.Request, source string, process func(context.Context, []byte) error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err == nil {
		err = process(r.Context(), body)
	}
	if err != nil {
		h.log.Log(logger.LogEntry{
			Level:   "error",
			Message: source + " webhook failed",
			Service: "webhooks",
			Error:   err,
		})
		h.notifier.Notify(r.Context(), err, source+" webhook failed")
		writeError(w, http.StatusBadRequest, "webhook processing failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
