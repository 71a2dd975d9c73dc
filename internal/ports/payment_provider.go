package ports

import "context"

type PaymentProvider interface {
	// CreateBookingPayment returns the redirect URL and the provider payment id.
	CreateBookingPayment(
		ctx context.Context,
		bookingRef string,
		amountCents int64,
		currency string,
		customerEmail string,
		description string,
	) (payURL string, providerPaymentID string, err error)
}
