package payments

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"
)

const stripeSecret = "whsec_test_secret"

func signedStripe(t *testing.T, payload string) http.Header {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    stripeSecret,
		Timestamp: time.Now(),
	})
	h := http.Header{}
	h.Set("Stripe-Signature", signed.Header)
	return h
}

const stripeSucceeded = `{
  "id": "evt_1",
  "object": "event",
  "type": "payment_intent.succeeded",
  "data": {"object": {
    "id": "pi_123",
    "object": "payment_intent",
    "amount": 12900,
    "currency": "usd",
    "metadata": {"booking_id": "bk_1"},
    "latest_charge": {
      "id": "ch_1",
      "object": "charge",
      "payment_method_details": {
        "type": "card",
        "card": {"brand": "visa", "last4": "4242", "exp_month": 4, "exp_year": 2031}
      }
    }
  }}
}`

func TestStripe_PaymentSucceeded(t *testing.T) {
	p := NewStripeProcessor(stripeSecret)

	evt, err := p.Parse(signedStripe(t, stripeSucceeded), []byte(stripeSucceeded))
	require.NoError(t, err)

	assert.Equal(t, ProviderStripe, evt.Provider)
	assert.Equal(t, KindSucceeded, evt.Kind)
	assert.Equal(t, "pi_123", evt.PaymentID)
	assert.Equal(t, "bk_1", evt.BookingID)
	assert.EqualValues(t, 12900, evt.Amount)
	assert.Equal(t, "USD", evt.Currency)
	assert.Equal(t, CardMethod{Brand: "visa", Last4: "4242", ExpMonth: 4, ExpYear: 2031}, evt.Method)
}

func TestStripe_PaymentFailedWithoutMethod(t *testing.T) {
	body := `{"id":"evt_2","object":"event","type":"payment_intent.payment_failed",
	  "data":{"object":{"id":"pi_9","object":"payment_intent","amount":500,"currency":"usd","payment_method":"pm_1"}}}`

	evt, err := NewStripeProcessor(stripeSecret).Parse(signedStripe(t, body), []byte(body))
	require.NoError(t, err)
	assert.Equal(t, KindFailed, evt.Kind)
	assert.Equal(t, "pi_9", evt.PaymentID)
	assert.Empty(t, evt.BookingID)
	assert.Nil(t, evt.Method)
}

func TestStripe_ChargeRefunded(t *testing.T) {
	body := `{"id":"evt_3","object":"event","type":"charge.refunded",
	  "data":{"object":{"id":"ch_7","object":"charge","amount":9000,"amount_refunded":9000,"currency":"usd",
	  "payment_intent":"pi_7","metadata":{"booking_id":"bk_7"},
	  "payment_method_details":{"type":"us_bank_account","us_bank_account":{"bank_name":"CHASE","last4":"6789"}}}}}`

	evt, err := NewStripeProcessor(stripeSecret).Parse(signedStripe(t, body), []byte(body))
	require.NoError(t, err)
	assert.Equal(t, KindRefunded, evt.Kind)
	assert.Equal(t, "pi_7", evt.PaymentID)
	assert.Equal(t, "bk_7", evt.BookingID)
	assert.EqualValues(t, 9000, evt.Amount)
	assert.Equal(t, BankDebitMethod{BankName: "CHASE", Last4: "6789"}, evt.Method)
}

func TestStripe_UnknownEventIgnored(t *testing.T) {
	body := `{"id":"evt_4","object":"event","type":"customer.created","data":{"object":{"id":"cus_1","object":"customer"}}}`

	evt, err := NewStripeProcessor(stripeSecret).Parse(signedStripe(t, body), []byte(body))
	require.NoError(t, err)
	assert.Equal(t, KindIgnored, evt.Kind)
	assert.Equal(t, "evt_4", evt.ID)
}

func TestStripe_BadSignature(t *testing.T) {
	h := signedStripe(t, stripeSucceeded)

	_, err := NewStripeProcessor("whsec_other").Parse(h, []byte(stripeSucceeded))
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = NewStripeProcessor(stripeSecret).Parse(http.Header{}, []byte(stripeSucceeded))
	assert.ErrorIs(t, err, ErrInvalidSignature)
}
