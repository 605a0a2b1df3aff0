// File: internal/infra/adapters/payment/paymob_gateway.go
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cairo-metro-ticketing/internal/config"
	"cairo-metro-ticketing/internal/domain"
	"cairo-metro-ticketing/internal/domain/ports/adapter"
	"cairo-metro-ticketing/internal/infra/metrics"

	"github.com/rs/zerolog"
)

var _ adapter.PaymentGateway = (*PaymobGateway)(nil)

const (
	maxAttempts    = 2
	billingFiller  = "NA"
	defaultCity    = "Cairo"
	defaultCountry = "EG"
)

// PaymobGateway implements adapter.PaymentGateway against Paymob Accept:
// auth token, ecommerce order and acceptance payment key, plus iframe checkout.
type PaymobGateway struct {
	cfg    config.PaymobConfig
	client *http.Client
	log    *zerolog.Logger
}

func NewPaymobGateway(cfg config.PaymobConfig, logger *zerolog.Logger) (*PaymobGateway, error) {
	if cfg.APIKey == "" || cfg.HMACSecret == "" {
		return nil, errors.New("paymob: api key and hmac secret are required")
	}
	if cfg.IntegrationID == 0 || cfg.IframeID == 0 {
		return nil, errors.New("paymob: integration id and iframe id are required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://accept.paymob.com/api"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 500 * time.Millisecond
	}
	if cfg.KeyExpiration <= 0 {
		cfg.KeyExpiration = 3600
	}
	l := logger.With().Str("component", "PaymobGateway").Logger()
	return &PaymobGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    &l,
	}, nil
}

func (g *PaymobGateway) Name() string { return "paymob" }

func (g *PaymobGateway) Authenticate(ctx context.Context) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	if err := g.post(ctx, "auth", "/auth/tokens", map[string]any{"api_key": g.cfg.APIKey}, &out); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	if out.Token == "" {
		return "", fmt.Errorf("%w: empty auth token", domain.ErrGatewayUnavailable)
	}
	return out.Token, nil
}

func (g *PaymobGateway) CreateOrder(ctx context.Context, token string, amountCents int64, currency, merchantOrderID string) (string, error) {
	body := map[string]any{
		"auth_token":        token,
		"delivery_needed":   "false",
		"amount_cents":      amountCents,
		"currency":          currency,
		"merchant_order_id": merchantOrderID,
		"items":             []any{},
	}
	var out struct {
		ID json.Number `json:"id"`
	}
	if err := g.post(ctx, "order", "/ecommerce/orders", body, &out); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGatewayOrderFailed, err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("%w: response carried no order id", domain.ErrGatewayOrderFailed)
	}
	return out.ID.String(), nil
}

func (g *PaymobGateway) PaymentKey(ctx context.Context, token, orderID string, amountCents int64, currency string, billing adapter.BillingData) (string, error) {
	oid, err := strconv.ParseInt(orderID, 10, 64)
	if err != nil {
		return "", fmt.Errorf("%w: invalid order id %q", domain.ErrGatewayKeyFailed, orderID)
	}
	body := map[string]any{
		"auth_token":           token,
		"amount_cents":         amountCents,
		"expiration":           g.cfg.KeyExpiration,
		"order_id":             oid,
		"billing_data":         billingData(billing),
		"currency":             currency,
		"integration_id":       g.cfg.IntegrationID,
		"lock_order_when_paid": "true",
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := g.post(ctx, "payment_key", "/acceptance/payment_keys", body, &out); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGatewayKeyFailed, err)
	}
	if out.Token == "" {
		return "", fmt.Errorf("%w: empty payment key", domain.ErrGatewayKeyFailed)
	}
	return out.Token, nil
}

func (g *PaymobGateway) CheckoutURL(paymentToken string) string {
	return fmt.Sprintf("%s/acceptance/iframes/%d?payment_token=%s", g.cfg.BaseURL, g.cfg.IframeID, paymentToken)
}

func (g *PaymobGateway) VerifyCallback(payload []byte, signature string) bool {
	return verify(g.cfg.HMACSecret, payload, signature)
}

func (g *PaymobGateway) ParseCallback(payload []byte) (*adapter.CallbackEvent, error) {
	return parseCallback(payload)
}

// billingData fills every field Paymob marks mandatory; unknown values are "NA".
func billingData(b adapter.BillingData) map[string]string {
	orNA := func(s string) string {
		if s = strings.TrimSpace(s); s == "" {
			return billingFiller
		}
		return s
	}
	return map[string]string{
		"first_name":      orNA(b.FirstName),
		"last_name":       orNA(b.LastName),
		"email":           orNA(b.Email),
		"phone_number":    orNA(b.Phone),
		"apartment":       billingFiller,
		"floor":           billingFiller,
		"street":          billingFiller,
		"building":        billingFiller,
		"shipping_method": billingFiller,
		"postal_code":     billingFiller,
		"city":            defaultCity,
		"country":         defaultCountry,
		"state":           billingFiller,
	}
}

// statusError is a non-2xx answer from Paymob.
type statusError struct {
	Code int
	Body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("paymob http %d: %s", e.Code, e.Body)
}

// retryable reports whether a failed call may be attempted again:
// timeouts, network errors and 5xx answers. 4xx and decode errors are terminal.
func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.Code >= 500
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne)
}

// post sends a JSON request, retrying once with exponential backoff when retryable.
func (g *PaymobGateway) post(ctx context.Context, op, path string, in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	backoff := g.cfg.RetryBackoff
	for attempt := 1; ; attempt++ {
		started := time.Now()
		err = g.do(ctx, path, b, out)
		if err == nil {
			metrics.ObserveGatewayRequest(op, "ok", time.Since(started))
			return nil
		}
		if attempt >= maxAttempts || !retryable(err) || ctx.Err() != nil {
			metrics.ObserveGatewayRequest(op, "fail", time.Since(started))
			g.log.Error().Err(err).Str("op", op).Int("attempt", attempt).Msg("paymob request failed")
			return err
		}
		metrics.ObserveGatewayRequest(op, "retry", time.Since(started))
		g.log.Warn().Err(err).Str("op", op).Dur("backoff", backoff).Msg("paymob request failed; retrying")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

func (g *PaymobGateway) do(ctx context.Context, path string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &statusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
