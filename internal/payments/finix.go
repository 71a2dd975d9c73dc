package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
)

const finixSignatureHeader = "Finix-Signature"

type finixProcessor struct {
	secret []byte
}

func NewFinixProcessor(secret string) Processor {
	return &finixProcessor{secret: []byte(secret)}
}

func (p *finixProcessor) Provider() Provider { return ProviderFinix }

type finixWebhook struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Entity   string `json:"entity"`
	Embedded struct {
		Transfers []finixTransfer `json:"transfers"`
	} `json:"_embedded"`
}

type finixTransfer struct {
	ID             string            `json:"id"`
	Amount         int64             `json:"amount"`
	Currency       string            `json:"currency"`
	State          string            `json:"state"`
	Type           string            `json:"type"`
	ParentTransfer string            `json:"parent_transfer"`
	Tags           map[string]string `json:"tags"`
}

func (p *finixProcessor) Parse(header http.Header, body []byte) (*Event, error) {
	if err := p.verify(header.Get(finixSignatureHeader), body); err != nil {
		return nil, err
	}

	var wh finixWebhook
	if err := json.Unmarshal(body, &wh); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	out := &Event{ID: wh.ID, Provider: ProviderFinix, Kind: KindIgnored}
	if wh.Entity != "transfer" || len(wh.Embedded.Transfers) == 0 {
		return out, nil
	}
	tr := wh.Embedded.Transfers[0]

	switch {
	case tr.Type == "REVERSAL" && tr.State == "SUCCEEDED":
		out.Kind = KindRefunded
	case tr.Type == "REVERSAL":
		return out, nil
	case tr.State == "SUCCEEDED":
		out.Kind = KindSucceeded
	case tr.State == "FAILED":
		out.Kind = KindFailed
	default:
		return out, nil
	}

	out.PaymentID = tr.ID
	if out.Kind == KindRefunded && tr.ParentTransfer != "" {
		out.PaymentID = tr.ParentTransfer
	}
	if out.PaymentID == "" {
		return nil, fmt.Errorf("%w: transfer without id", ErrInvalidPayload)
	}
	out.BookingID = tr.Tags[bookingMetadataKey]
	out.Amount = tr.Amount
	out.Currency = strings.ToUpper(tr.Currency)
	return out, nil
}

// verify checks "timestamp=<t>, sig=<hex>" against HMAC-SHA256("<t>.<body>").
func (p *finixProcessor) verify(header string, body []byte) error {
	if len(p.secret) == 0 {
		return fmt.Errorf("%w: finix secret is not configured", ErrInvalidSignature)
	}

	var ts, sig string
	for _, field := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(field), "=")
		if !ok {
			continue
		}
		switch k {
		case "timestamp":
			ts = v
		case "sig":
			sig = v
		}
	}
	if ts == "" || sig == "" {
		return fmt.Errorf("%w: malformed %s", ErrInvalidSignature, finixSignatureHeader)
	}

	got, err := hex.DecodeString(sig)
	if err != nil {
		return fmt.Errorf("%w: malformed %s", ErrInvalidSignature, finixSignatureHeader)
	}
	mac := hmac.New(sha256.New, p.secret)
	mac.Write([]byte(ts + "."))
	mac.Write(body)
	if !hmac.Equal(got, mac.Sum(nil)) {
		return ErrInvalidSignature
	}
	return nil
}
