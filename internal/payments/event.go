package payments

import (
	"errors"
	"net/http"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrInvalidPayload   = errors.New("invalid webhook payload")
)

// bookingMetadataKey is the metadata entry checkout sessions carry.
const bookingMetadataKey = "booking_id"

type Provider string

const (
	ProviderStripe      Provider = "stripe"
	ProviderHyperswitch Provider = "hyperswitch"
	ProviderFinix       Provider = "finix"
)

type Kind string

const (
	KindSucceeded Kind = "succeeded"
	KindFailed    Kind = "failed"
	KindRefunded  Kind = "refunded"
	KindIgnored   Kind = "ignored"
)

// Event is a processor webhook reduced to what bookings care about.
// BookingID may be empty; PaymentID is then the only link to a booking.
type Event struct {
	ID        string   `json:"id"`
	Provider  Provider `json:"provider"`
	Kind      Kind     `json:"kind"`
	PaymentID string   `json:"paymentId"`
	BookingID string   `json:"bookingId,omitempty"`
	Amount    int64    `json:"amount"`
	Currency  string   `json:"currency"`
	Method    Method   `json:"-"`
}

// Processor verifies and normalises one provider's webhooks.
type Processor interface {
	Provider() Provider
	Parse(header http.Header, body []byte) (*Event, error)
}
