package adapter

import "context"

// BillingData is the customer block the gateway requires for a payment key.
type BillingData struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// CallbackEvent is the provider-agnostic view of a transaction callback.
type CallbackEvent struct {
	TransactionID     string
	GatewayOrderID    string
	MerchantOrderID   string // correlation id we sent when creating the order
	AmountCents       int64
	Currency          string
	Success           bool
	Pending           bool
	ErrorOccured      bool
	IsVoided          bool
	IsRefunded        bool
	SourceDataType    string
	SourceDataSubType string
	MaskedPAN         string
	ResponseCode      string
	Raw               []byte
}

// PaymentGateway is the hex port for the hosted-checkout payment provider.
//
// The three outbound calls map to the provider's auth, order and payment-key
// endpoints. Errors wrap domain.ErrGatewayUnavailable, domain.ErrGatewayOrderFailed
// or domain.ErrGatewayKeyFailed respectively.
type PaymentGateway interface {
	Name() string

	// Authenticate exchanges the static API key for a short-lived token.
	Authenticate(ctx context.Context) (token string, err error)
	// CreateOrder opens a provider order carrying our correlation id; returns the provider order id.
	CreateOrder(ctx context.Context, token string, amountCents int64, currency, merchantOrderID string) (orderID string, err error)
	// PaymentKey requests the token used by the hosted checkout page.
	PaymentKey(ctx context.Context, token, orderID string, amountCents int64, currency string, billing BillingData) (paymentToken string, err error)
	// CheckoutURL renders the hosted checkout URL for a payment token.
	CheckoutURL(paymentToken string) string

	// VerifyCallback checks the signature of a raw callback body.
	VerifyCallback(payload []byte, signature string) bool
	// ParseCallback decodes a callback body. Call it only after VerifyCallback succeeded.
	ParseCallback(payload []byte) (*CallbackEvent, error)
}
