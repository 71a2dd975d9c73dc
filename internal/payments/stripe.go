package payments

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

const stripeSignatureHeader = "Stripe-Signature"

type stripeProcessor struct {
	secret string
}

func NewStripeProcessor(secret string) Processor {
	return &stripeProcessor{secret: secret}
}

func (p *stripeProcessor) Provider() Provider { return ProviderStripe }

func (p *stripeProcessor) Parse(header http.Header, body []byte) (*Event, error) {
	evt, err := webhook.ConstructEventWithOptions(body, header.Get(stripeSignatureHeader), p.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &Event{ID: evt.ID, Provider: ProviderStripe, Kind: KindIgnored}
	if evt.Data == nil {
		return out, nil
	}

	switch evt.Type {
	case stripe.EventTypePaymentIntentSucceeded, stripe.EventTypePaymentIntentPaymentFailed:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(evt.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("%w: payment_intent: %v", ErrInvalidPayload, err)
		}
		out.Kind = KindSucceeded
		if evt.Type == stripe.EventTypePaymentIntentPaymentFailed {
			out.Kind = KindFailed
		}
		out.PaymentID = pi.ID
		out.BookingID = pi.Metadata[bookingMetadataKey]
		out.Amount = pi.Amount
		out.Currency = strings.ToUpper(string(pi.Currency))
		out.Method = stripeIntentMethod(&pi)

	case stripe.EventTypeChargeRefunded:
		var ch stripe.Charge
		if err := json.Unmarshal(evt.Data.Raw, &ch); err != nil {
			return nil, fmt.Errorf("%w: charge: %v", ErrInvalidPayload, err)
		}
		out.Kind = KindRefunded
		out.PaymentID = ch.ID
		if ch.PaymentIntent != nil && ch.PaymentIntent.ID != "" {
			out.PaymentID = ch.PaymentIntent.ID
		}
		out.BookingID = ch.Metadata[bookingMetadataKey]
		out.Amount = ch.AmountRefunded
		out.Currency = strings.ToUpper(string(ch.Currency))
		out.Method = stripeChargeMethod(ch.PaymentMethodDetails)
	}

	if out.Kind != KindIgnored && out.PaymentID == "" {
		return nil, fmt.Errorf("%w: %s without object id", ErrInvalidPayload, evt.Type)
	}
	return out, nil
}

func stripeIntentMethod(pi *stripe.PaymentIntent) Method {
	if pi.LatestCharge != nil && pi.LatestCharge.PaymentMethodDetails != nil {
		if m := stripeChargeMethod(pi.LatestCharge.PaymentMethodDetails); m != nil {
			return m
		}
	}
	pm := pi.PaymentMethod
	if pm == nil {
		return nil
	}
	switch {
	case pm.Card != nil && pm.Card.Wallet != nil:
		return completeOrNil(WalletMethod{Wallet: string(pm.Card.Wallet.Type)})
	case pm.Card != nil:
		return completeOrNil(CardMethod{
			Brand:    string(pm.Card.Brand),
			Last4:    pm.Card.Last4,
			ExpMonth: int(pm.Card.ExpMonth),
			ExpYear:  int(pm.Card.ExpYear),
		})
	case pm.USBankAccount != nil:
		return completeOrNil(BankDebitMethod{BankName: pm.USBankAccount.BankName, Last4: pm.USBankAccount.Last4})
	}
	return nil
}

func stripeChargeMethod(d *stripe.ChargePaymentMethodDetails) Method {
	if d == nil {
		return nil
	}
	switch {
	case d.Card != nil && d.Card.Wallet != nil:
		return completeOrNil(WalletMethod{Wallet: string(d.Card.Wallet.Type)})
	case d.Card != nil:
		return completeOrNil(CardMethod{
			Brand:    string(d.Card.Brand),
			Last4:    d.Card.Last4,
			ExpMonth: int(d.Card.ExpMonth),
			ExpYear:  int(d.Card.ExpYear),
		})
	case d.USBankAccount != nil:
		return completeOrNil(BankDebitMethod{BankName: d.USBankAccount.BankName, Last4: d.USBankAccount.Last4})
	}
	return nil
}
