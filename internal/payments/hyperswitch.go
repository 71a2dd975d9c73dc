package payments

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

const hyperswitchSignatureHeader = "x-webhook-signature-512"

type hyperswitchProcessor struct {
	key []byte
}

// NewHyperswitchProcessor verifies bodies with the payment response hash key.
func NewHyperswitchProcessor(paymentResponseHashKey string) Processor {
	return &hyperswitchProcessor{key: []byte(paymentResponseHashKey)}
}

func (p *hyperswitchProcessor) Provider() Provider { return ProviderHyperswitch }

type hyperswitchWebhook struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Content   struct {
		Type   string            `json:"type"`
		Object hyperswitchObject `json:"object"`
	} `json:"content"`
}

type hyperswitchObject struct {
	PaymentID         string            `json:"payment_id"`
	RefundID          string            `json:"refund_id"`
	Amount            int64             `json:"amount"`
	RefundAmount      int64             `json:"refund_amount"`
	Currency          string            `json:"currency"`
	Metadata          map[string]any    `json:"metadata"`
	PaymentMethod     string            `json:"payment_method"`
	PaymentMethodType string            `json:"payment_method_type"`
	PaymentMethodData hyperswitchPMData `json:"payment_method_data"`
}

type hyperswitchPMData struct {
	Card *struct {
		Last4       string `json:"last4"`
		CardNetwork string `json:"card_network"`
		ExpMonth    string `json:"card_exp_month"`
		ExpYear     string `json:"card_exp_year"`
	} `json:"card"`
	BankDebit *struct {
		BankName string `json:"bank_name"`
		Last4    string `json:"last4"`
	} `json:"bank_debit"`
}

func (p *hyperswitchProcessor) Parse(header http.Header, body []byte) (*Event, error) {
	if err := p.verify(header.Get(hyperswitchSignatureHeader), body); err != nil {
		return nil, err
	}

	var wh hyperswitchWebhook
	if err := json.Unmarshal(body, &wh); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	out := &Event{ID: wh.EventID, Provider: ProviderHyperswitch, Kind: KindIgnored}
	obj := wh.Content.Object

	switch wh.EventType {
	case "payment_succeeded":
		out.Kind = KindSucceeded
		out.Amount = obj.Amount
	case "payment_failed":
		out.Kind = KindFailed
		out.Amount = obj.Amount
	case "refund_succeeded":
		out.Kind = KindRefunded
		out.Amount = obj.RefundAmount
	default:
		return out, nil
	}

	if obj.PaymentID == "" {
		return nil, fmt.Errorf("%w: %s without payment_id", ErrInvalidPayload, wh.EventType)
	}
	out.PaymentID = obj.PaymentID
	out.Currency = strings.ToUpper(obj.Currency)
	if v, ok := obj.Metadata[bookingMetadataKey].(string); ok {
		out.BookingID = v
	}
	out.Method = obj.method()
	return out, nil
}

func (p *hyperswitchProcessor) verify(signature string, body []byte) error {
	if len(p.key) == 0 {
		return fmt.Errorf("%w: hyperswitch key is not configured", ErrInvalidSignature)
	}
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil || len(got) == 0 {
		return fmt.Errorf("%w: malformed %s", ErrInvalidSignature, hyperswitchSignatureHeader)
	}
	mac := hmac.New(sha512.New, p.key)
	mac.Write(body)
	if !hmac.Equal(got, mac.Sum(nil)) {
		return ErrInvalidSignature
	}
	return nil
}

func (o hyperswitchObject) method() Method {
	switch o.PaymentMethod {
	case "card":
		c := o.PaymentMethodData.Card
		if c == nil {
			return nil
		}
		month, _ := strconv.Atoi(c.ExpMonth)
		year, _ := strconv.Atoi(c.ExpYear)
		if year > 0 && year < 100 {
			year += 2000
		}
		return completeOrNil(CardMethod{
			Brand:    strings.ToLower(c.CardNetwork),
			Last4:    c.Last4,
			ExpMonth: month,
			ExpYear:  year,
		})
	case "bank_debit":
		b := o.PaymentMethodData.BankDebit
		if b == nil {
			return nil
		}
		return completeOrNil(BankDebitMethod{BankName: b.BankName, Last4: b.Last4})
	case "wallet":
		return completeOrNil(WalletMethod{Wallet: o.PaymentMethodType})
	}
	return nil
}
