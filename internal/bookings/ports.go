package bookings

import (
	"context"
	"errors"
	"time"

	"github.com/Vovarama1992/teetimes/internal/courses"
	"github.com/Vovarama1992/teetimes/internal/payments"
)

var (
	ErrNotFound          = errors.New("booking not found")
	ErrInvalidInput      = errors.New("invalid booking request")
	ErrInvalidTransition = errors.New("booking status does not allow this")
	ErrDuplicate         = errors.New("booking already exists")
	ErrPaymentFailed     = errors.New("payment provider unavailable")
)

type Status string

const (
	StatusPending       Status = "pending"
	StatusPaid          Status = "paid"
	StatusPaymentFailed Status = "payment_failed"
	StatusRefunded      Status = "refunded"
	StatusCancelled     Status = "cancelled"
)

// Booking holds spots on one tee time. Spots are held from creation until
// the booking is cancelled or refunded. A payment_failed booking still holds
// them so the customer can retry; it is cancelled like a pending one.
type Booking struct {
	ID              int64           `json:"id"`
	Reference       string          `json:"reference"`
	TeeTimeID       int64           `json:"teeTimeId"`
	CustomerEmail   string          `json:"customerEmail"`
	TelegramChatID  int64           `json:"telegramChatId,omitempty"`
	Players         int             `json:"players"`
	Amount          int64           `json:"amount"`
	Currency        string          `json:"currency"`
	Status          Status          `json:"status"`
	PaymentProvider string          `json:"paymentProvider,omitempty"`
	PaymentID       *string         `json:"paymentId,omitempty"`
	PaymentMethod   payments.Method `json:"-"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

type CreateRequest struct {
	TeeTimeID      int64  `json:"teeTimeId" validate:"required"`
	CustomerEmail  string `json:"customerEmail" validate:"required,email"`
	Players        int    `json:"players" validate:"min=1,max=4"`
	TelegramChatID int64  `json:"telegramChatId"`
}

type Repo interface {
	Create(ctx context.Context, b *Booking) error
	Get(ctx context.Context, id int64) (*Booking, error)
	GetByReference(ctx context.Context, ref string) (*Booking, error)
	GetByPaymentID(ctx context.Context, paymentID string) (*Booking, error)
	List(ctx context.Context, status Status, limit int) ([]*Booking, error)
	// ListStale returns bookings in status created before the cutoff, oldest first.
	ListStale(ctx context.Context, status Status, before time.Time, limit int) ([]*Booking, error)
	SetPayment(ctx context.Context, id int64, provider, paymentID string) error
	// UpdateStatus moves the booking only if it is still in from.
	UpdateStatus(ctx context.Context, id int64, from, to Status, method payments.Method) (bool, error)
}

// TeeTimes is the part of the course catalogue bookings need.
type TeeTimes interface {
	GetTeeTime(ctx context.Context, id int64) (*courses.TeeTime, error)
	Reserve(ctx context.Context, teeTimeID int64, players int) error
	Release(ctx context.Context, teeTimeID int64, players int) error
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Booking, string, error)
	Get(ctx context.Context, id int64) (*Booking, error)
	GetByReference(ctx context.Context, ref string) (*Booking, error)
	List(ctx context.Context, status Status) ([]*Booking, error)
	Cancel(ctx context.Context, id int64) (*Booking, error)
	ExpirePending(ctx context.Context, maxAge time.Duration) (int, error)
	ApplyPaymentEvent(ctx context.Context, evt *payments.Event) (*Booking, error)
}
