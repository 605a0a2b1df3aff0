package payment

import (
	"context"
	"strconv"
	"sync"

	"cairo-metro-ticketing/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*NoopPaymentGateway)(nil)

// NoopPaymentGateway is an in-memory gateway for dev mode. Callbacks are
// verified with the same HMAC scheme as Paymob so they can be crafted locally.
type NoopPaymentGateway struct {
	mu     sync.Mutex
	seq    int64
	secret string
	orders map[string]string // order id -> merchant order id
}

func NewNoopPaymentGateway(hmacSecret string) *NoopPaymentGateway {
	if hmacSecret == "" {
		hmacSecret = "dev-secret"
	}
	return &NoopPaymentGateway{
		seq:    1000,
		secret: hmacSecret,
		orders: make(map[string]string),
	}
}

func (g *NoopPaymentGateway) Name() string { return "noop" }

func (g *NoopPaymentGateway) Authenticate(ctx context.Context) (string, error) {
	return "noop-token", nil
}

func (g *NoopPaymentGateway) CreateOrder(ctx context.Context, token string, amountCents int64, currency, merchantOrderID string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	id := strconv.FormatInt(g.seq, 10)
	g.orders[id] = merchantOrderID
	return id, nil
}

func (g *NoopPaymentGateway) PaymentKey(ctx context.Context, token, orderID string, amountCents int64, currency string, billing adapter.BillingData) (string, error) {
	return "noop-key-" + orderID, nil
}

func (g *NoopPaymentGateway) CheckoutURL(paymentToken string) string {
	return "https://example.test/pay?payment_token=" + paymentToken
}

func (g *NoopPaymentGateway) VerifyCallback(payload []byte, signature string) bool {
	return verify(g.secret, payload, signature)
}

func (g *NoopPaymentGateway) ParseCallback(payload []byte) (*adapter.CallbackEvent, error) {
	return parseCallback(payload)
}

// MerchantOrderID returns the correlation id recorded for an order.
func (g *NoopPaymentGateway) MerchantOrderID(orderID string) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id, ok := g.orders[orderID]
	return id, ok
}
