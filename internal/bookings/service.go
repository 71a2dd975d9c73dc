package bookings

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Vovarama1992/teetimes/internal/courses"
	"github.com/Vovarama1992/teetimes/internal/notificator"
	"github.com/Vovarama1992/teetimes/internal/payments"
	"github.com/Vovarama1992/teetimes/internal/ports"
	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	listLimit   = 200
	expireBatch = 100
)

type service struct {
	repo         Repo
	teeTimes     TeeTimes
	provider     ports.PaymentProvider
	providerName string
	notifier     notificator.Notificator
	validate     *validator.Validate
	now          func() time.Time
	batch        int
	log          *zap.SugaredLogger
}

func NewService(
	repo Repo,
	teeTimes TeeTimes,
	provider ports.PaymentProvider,
	providerName string,
	notifier notificator.Notificator,
	log *zap.SugaredLogger,
) Service {
	return &service{
		repo:         repo,
		teeTimes:     teeTimes,
		provider:     provider,
		providerName: providerName,
		notifier:     notifier,
		validate:     validator.New(),
		now:          time.Now,
		batch:        expireBatch,
		log:          log,
	}
}

// ==================================================
// CREATE
// ==================================================

// Create holds the spots, stores a pending booking and opens a checkout.
// It returns the booking and the URL the customer pays at.
func (s *service) Create(ctx context.Context, req CreateRequest) (*Booking, string, error) {
	req.CustomerEmail = strings.TrimSpace(req.CustomerEmail)
	if err := s.validate.Struct(req); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	tt, err := s.teeTimes.GetTeeTime(ctx, req.TeeTimeID)
	if err != nil {
		return nil, "", err
	}
	if !tt.StartsAt.After(s.now()) {
		return nil, "", fmt.Errorf("%w: tee time has already started", ErrInvalidInput)
	}

	if err := s.teeTimes.Reserve(ctx, tt.ID, req.Players); err != nil {
		return nil, "", err
	}

	b := &Booking{
		Reference:      uuid.NewString(),
		TeeTimeID:      tt.ID,
		CustomerEmail:  req.CustomerEmail,
		TelegramChatID: req.TelegramChatID,
		Players:        req.Players,
		Amount:         tt.Price * int64(req.Players),
		Currency:       tt.Currency,
		Status:         StatusPending,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		s.release(ctx, b)
		return nil, "", fmt.Errorf("create booking: %w", err)
	}

	desc := fmt.Sprintf("Tee time %s, %d player(s)", tt.StartsAt.Format(time.RFC1123), req.Players)
	payURL, paymentID, err := s.provider.CreateBookingPayment(ctx, b.Reference, b.Amount, b.Currency, b.CustomerEmail, desc)
	if err != nil {
		s.notifier.Notify(ctx, err, fmt.Sprintf("checkout failed for booking %s (%s)", b.Reference, money(b.Amount, b.Currency)))
		if _, uerr := s.repo.UpdateStatus(ctx, b.ID, StatusPending, StatusCancelled, nil); uerr != nil {
			s.log.Errorw("[bookings] cancel after checkout failure", "booking", b.Reference, "error", uerr)
		}
		s.release(ctx, b)
		return nil, "", fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}

	if err := s.repo.SetPayment(ctx, b.ID, s.providerName, paymentID); err != nil {
		s.notifier.Notify(ctx, err, fmt.Sprintf("booking %s: payment %s opened but not saved", b.Reference, paymentID))
		return nil, "", fmt.Errorf("save payment: %w", err)
	}
	b.PaymentProvider = s.providerName
	b.PaymentID = &paymentID

	s.log.Infow("[bookings] created", "booking", b.Reference, "tee_time", tt.ID,
		"players", b.Players, "amount", money(b.Amount, b.Currency))
	return b, payURL, nil
}

// ==================================================
// READ
// ==================================================

func (s *service) Get(ctx context.Context, id int64) (*Booking, error) {
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load booking: %w", err)
	}
	if b == nil {
		return nil, ErrNotFound
	}
	return b, nil
}

func (s *service) GetByReference(ctx context.Context, ref string) (*Booking, error) {
	b, err := s.repo.GetByReference(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("load booking: %w", err)
	}
	if b == nil {
		return nil, ErrNotFound
	}
	return b, nil
}

func (s *service) List(ctx context.Context, status Status) ([]*Booking, error) {
	return s.repo.List(ctx, status, listLimit)
}

// ==================================================
// CANCEL
// ==================================================

// Cancel cancels a booking that has not been paid and gives its spots back.
func (s *service) Cancel(ctx context.Context, id int64) (*Booking, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.cancel(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *service) cancel(ctx context.Context, b *Booking) error {
	if !slices.Contains(cancellable, b.Status) {
		return fmt.Errorf("%w: %s", ErrInvalidTransition, b.Status)
	}
	ok, err := s.repo.UpdateStatus(ctx, b.ID, b.Status, StatusCancelled, nil)
	if err != nil {
		return fmt.Errorf("cancel booking: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: status changed concurrently", ErrInvalidTransition)
	}
	s.release(ctx, b)
	b.Status = StatusCancelled
	return nil
}

var cancellable = []Status{StatusPending, StatusPaymentFailed}

// ExpirePending cancels unpaid bookings (pending or payment_failed) older
// than maxAge and gives their spots back, oldest first. It returns how many
// bookings were cancelled.
func (s *service) ExpirePending(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := s.now().Add(-maxAge)
	expired := 0
	for _, status := range cancellable {
		for {
			if err := ctx.Err(); err != nil {
				return expired, err
			}
			stale, err := s.repo.ListStale(ctx, status, cutoff, s.batch)
			if err != nil {
				return expired, fmt.Errorf("list stale bookings: %w", err)
			}

			cancelled := 0
			for _, b := range stale {
				if err := s.cancel(ctx, b); err != nil {
					if errors.Is(err, ErrInvalidTransition) {
						continue
					}
					return expired, err
				}
				cancelled++
			}
			expired += cancelled

			// A short or fruitless batch means nothing older is left.
			if len(stale) < s.batch || cancelled == 0 {
				break
			}
		}
	}
	if expired > 0 {
		s.log.Infow("[bookings] expired unpaid bookings", "count", expired, "max_age", maxAge)
	}
	return expired, nil
}

// ==================================================
// PAYMENT EVENTS
// ==================================================

// transitions lists, per event kind, the statuses the booking may move
// from. Anything else leaves the booking as it is.
var transitions = map[payments.Kind]struct {
	to   Status
	from []Status
}{
	payments.KindSucceeded: {StatusPaid, []Status{StatusPending, StatusPaymentFailed}},
	payments.KindFailed:    {StatusPaymentFailed, []Status{StatusPending}},
	payments.KindRefunded:  {StatusRefunded, []Status{StatusPaid}},
}

// ApplyPaymentEvent moves the booking the event refers to. Replaying an
// event that was already applied changes nothing.
func (s *service) ApplyPaymentEvent(ctx context.Context, evt *payments.Event) (*Booking, error) {
	if evt == nil || evt.Kind == payments.KindIgnored {
		return nil, nil
	}
	rule, ok := transitions[evt.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown event kind %q", ErrInvalidInput, evt.Kind)
	}

	b, err := s.findForEvent(ctx, evt)
	if err != nil {
		return nil, err
	}

	if b.Status == rule.to {
		s.log.Infow("[bookings] duplicate payment event", "booking", b.Reference, "event", evt.ID, "kind", evt.Kind)
		return b, nil
	}
	if !slices.Contains(rule.from, b.Status) {
		s.log.Warnw("[bookings] payment event does not apply",
			"booking", b.Reference, "status", b.Status, "event", evt.ID, "kind", evt.Kind)
		if evt.Kind == payments.KindSucceeded && b.Status == StatusCancelled {
			s.lateSuccess(ctx, b, evt)
		}
		return b, nil
	}

	if b.PaymentID == nil && evt.PaymentID != "" {
		if err := s.repo.SetPayment(ctx, b.ID, string(evt.Provider), evt.PaymentID); err != nil {
			return nil, fmt.Errorf("link payment: %w", err)
		}
		b.PaymentID = &evt.PaymentID
	}

	moved, err := s.repo.UpdateStatus(ctx, b.ID, b.Status, rule.to, evt.Method)
	if err != nil {
		return nil, fmt.Errorf("update booking status: %w", err)
	}
	if !moved {
		// A concurrent delivery of the same event got there first.
		return s.Get(ctx, b.ID)
	}
	b.Status = rule.to
	if evt.Method != nil {
		b.PaymentMethod = evt.Method
	}

	s.log.Infow("[bookings] payment event applied",
		"booking", b.Reference, "provider", evt.Provider, "kind", evt.Kind, "status", b.Status)

	switch b.Status {
	case StatusPaid:
		if evt.Amount != 0 && evt.Amount != b.Amount {
			s.notifier.Notify(ctx, fmt.Errorf("amount mismatch"), fmt.Sprintf(
				"booking %s paid %s, expected %s", b.Reference, money(evt.Amount, evt.Currency), money(b.Amount, b.Currency)))
		}
		s.notifier.UserNotify(ctx, b.TelegramChatID, fmt.Sprintf(
			"Your tee time booking %s is confirmed. Paid %s for %d player(s).",
			b.Reference, money(b.Amount, b.Currency), b.Players))
	case StatusRefunded:
		s.release(ctx, b)
		s.notifier.UserNotify(ctx, b.TelegramChatID, fmt.Sprintf(
			"Booking %s was refunded (%s).", b.Reference, money(b.Amount, b.Currency)))
	}
	return b, nil
}

// lateSuccess reports money taken for a booking whose spots were already
// given back. Someone has to refund or rebook by hand.
func (s *service) lateSuccess(ctx context.Context, b *Booking, evt *payments.Event) {
	amount, currency := evt.Amount, evt.Currency
	if amount == 0 {
		amount, currency = b.Amount, b.Currency
	}
	paymentID := evt.PaymentID
	if paymentID == "" && b.PaymentID != nil {
		paymentID = *b.PaymentID
	}
	s.notifier.Notify(ctx, fmt.Errorf("payment succeeded for cancelled booking"), fmt.Sprintf(
		"booking %s was cancelled but %s payment %s took %s; refund or rebook it manually",
		b.Reference, evt.Provider, paymentID, money(amount, currency)))
}

func (s *service) findForEvent(ctx context.Context, evt *payments.Event) (*Booking, error) {
	var (
		b   *Booking
		err error
	)
	if evt.BookingID != "" {
		b, err = s.repo.GetByReference(ctx, evt.BookingID)
	}
	if err == nil && b == nil && evt.PaymentID != "" {
		b, err = s.repo.GetByPaymentID(ctx, evt.PaymentID)
	}
	if err != nil {
		return nil, fmt.Errorf("load booking: %w", err)
	}
	if b == nil {
		return nil, fmt.Errorf("%w: %s event %s (booking=%q payment=%q)",
			ErrNotFound, evt.Provider, evt.ID, evt.BookingID, evt.PaymentID)
	}
	return b, nil
}

func (s *service) release(ctx context.Context, b *Booking) {
	if err := s.teeTimes.Release(ctx, b.TeeTimeID, b.Players); err != nil && !errors.Is(err, courses.ErrNotFound) {
		s.notifier.Notify(ctx, err, fmt.Sprintf("failed to release %d spot(s) of tee time %d (booking %s)",
			b.Players, b.TeeTimeID, b.Reference))
	}
}

// money formats minor units as "1,290.00 USD".
func money(minor int64, currency string) string {
	return fmt.Sprintf("%s %s", humanize.CommafWithDigits(float64(minor)/100, 2), strings.ToUpper(currency))
}
