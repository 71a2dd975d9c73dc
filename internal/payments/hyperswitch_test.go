package payments

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hsKey = "hs_response_hash_key"

func signedHyperswitch(body string) http.Header {
	mac := hmac.New(sha512.New, []byte(hsKey))
	mac.Write([]byte(body))
	h := http.Header{}
	h.Set("x-webhook-signature-512", hex.EncodeToString(mac.Sum(nil)))
	return h
}

func TestHyperswitch_PaymentSucceeded(t *testing.T) {
	body := `{"merchant_id":"m1","event_id":"evt_hs_1","event_type":"payment_succeeded",
	  "content":{"type":"payment_details","object":{"payment_id":"pay_1","amount":6540,"currency":"usd",
	  "status":"succeeded","metadata":{"booking_id":"bk_1"},"payment_method":"card",
	  "payment_method_data":{"card":{"last4":"1111","card_network":"Visa","card_exp_month":"03","card_exp_year":"30"}}}}}`

	evt, err := NewHyperswitchProcessor(hsKey).Parse(signedHyperswitch(body), []byte(body))
	require.NoError(t, err)

	assert.Equal(t, KindSucceeded, evt.Kind)
	assert.Equal(t, "pay_1", evt.PaymentID)
	assert.Equal(t, "bk_1", evt.BookingID)
	assert.EqualValues(t, 6540, evt.Amount)
	assert.Equal(t, "USD", evt.Currency)
	assert.Equal(t, CardMethod{Brand: "visa", Last4: "1111", ExpMonth: 3, ExpYear: 2030}, evt.Method)
}

func TestHyperswitch_RefundAndWallet(t *testing.T) {
	body := `{"event_id":"evt_hs_2","event_type":"refund_succeeded",
	  "content":{"type":"refund_details","object":{"refund_id":"ref_1","payment_id":"pay_2","refund_amount":100,
	  "currency":"USD","payment_method":"wallet","payment_method_type":"google_pay"}}}`

	evt, err := NewHyperswitchProcessor(hsKey).Parse(signedHyperswitch(body), []byte(body))
	require.NoError(t, err)
	assert.Equal(t, KindRefunded, evt.Kind)
	assert.Equal(t, "pay_2", evt.PaymentID)
	assert.EqualValues(t, 100, evt.Amount)
	assert.Equal(t, WalletMethod{Wallet: "google_pay"}, evt.Method)
}

func TestHyperswitch_IgnoredAndInvalid(t *testing.T) {
	p := NewHyperswitchProcessor(hsKey)

	body := `{"event_id":"evt_hs_3","event_type":"payment_processing","content":{"object":{"payment_id":"pay_3"}}}`
	evt, err := p.Parse(signedHyperswitch(body), []byte(body))
	require.NoError(t, err)
	assert.Equal(t, KindIgnored, evt.Kind)

	body = `{"event_id":"evt_hs_4","event_type":"payment_failed","content":{"object":{}}}`
	_, err = p.Parse(signedHyperswitch(body), []byte(body))
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = p.Parse(signedHyperswitch(body), []byte(body+" "))
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = p.Parse(http.Header{"X-Webhook-Signature-512": {"zz"}}, []byte(body))
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = NewHyperswitchProcessor("").Parse(signedHyperswitch(body), []byte(body))
	assert.ErrorIs(t, err, ErrInvalidSignature)
}
