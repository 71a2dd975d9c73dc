package infra

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Vovarama1992/teetimes/internal/config"
	"github.com/Vovarama1992/teetimes/internal/ports"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

type HyperswitchProvider struct {
	httpClient *http.Client
	apiURL     string
	apiKey     string
	returnURL  string
	log        *zap.SugaredLogger
}

func NewHyperswitchProvider(cfg config.PaymentSettings, log *zap.SugaredLogger) ports.PaymentProvider {
	apiURL := strings.TrimRight(cfg.HyperswitchAPIURL, "/")
	if !strings.HasSuffix(apiURL, "/payments") {
		apiURL += "/payments"
	}
	return &HyperswitchProvider{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiURL:     apiURL,
		apiKey:     cfg.HyperswitchAPIKey,
		returnURL:  cfg.ReturnURL,
		log:        log,
	}
}

func (p *HyperswitchProvider) CreateBookingPayment(
	ctx context.Context,
	bookingRef string,
	amountCents int64,
	currency string,
	customerEmail string,
	description string,
) (string, string, error) {

	if p.apiKey == "" {
		return "", "", fmt.Errorf("hyperswitch api key is not configured")
	}

	p.log.Infow("[HS] create payment", "booking", bookingRef, "amount", amountCents, "currency", currency)

	body := map[string]any{
		"amount":         amountCents,
		"currency":       strings.ToUpper(currency),
		"capture_method": "automatic",
		"email":          customerEmail,
		"description":    description,
		"return_url":     p.returnURL,
		"payment_link":   true,
		"metadata": map[string]any{
			"booking_id": bookingRef,
		},
	}

	reqBody, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewBuffer(reqBody))
	if err != nil {
		return "", "", err
	}

	req.Header.Set("api-key", p.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.log.Warnw("[HS] http error", "booking", bookingRef, "error", err)
		return "", "", err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 300 {
		return "", "", fmt.Errorf("hyperswitch error status=%d body=%s", resp.StatusCode, string(raw))
	}

	var hresp struct {
		PaymentID   string `json:"payment_id"`
		PaymentLink struct {
			Link string `json:"link"`
		} `json:"payment_link"`
	}

	if err := json.Unmarshal(raw, &hresp); err != nil {
		return "", "", fmt.Errorf("decode hyperswitch: %w", err)
	}

	if hresp.PaymentID == "" || hresp.PaymentLink.Link == "" {
		return "", "", fmt.Errorf("invalid hyperswitch response: %s", string(raw))
	}

	p.log.Infow("[HS] payment created", "booking", bookingRef, "payment_id", hresp.PaymentID)

	return hresp.PaymentLink.Link, hresp.PaymentID, nil
}
