package model

import (
	"time"

	"cairo-metro-ticketing/internal/domain"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"   // created locally; awaiting gateway callback
	PaymentStatusCompleted PaymentStatus = "completed" // reconciled as successful
	PaymentStatusFailed    PaymentStatus = "failed"    // gateway reported failure or expired
	PaymentStatusRefunded  PaymentStatus = "refunded"
	// PaymentStatusRefundReview is a captured payment whose ticket or subscription
	// could no longer be granted; it waits for an operator refund.
	PaymentStatusRefundReview PaymentStatus = "refund_review"
)

// Payment records the money leg of a ticket or subscription purchase.
// Exactly one of TicketID and SubscriptionID is set.
type Payment struct {
	ID             string
	UserID         string
	TicketID       *string
	SubscriptionID *string
	Amount         Money
	Currency       string
	Status         PaymentStatus
	// MerchantOrderID is the correlation id sent to the gateway and echoed in callbacks.
	MerchantOrderID  string
	GatewayOrderID   string
	GatewayReference string // gateway transaction id after reconciliation
	PaymentKey       string
	PaymentMethod    string
	LastFourDigits   string
	ResponseCode     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	PaidAt           *time.Time
}

func newPayment(userID string, amount Money) (*Payment, error) {
	if userID == "" || amount <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Payment{
		ID:              uuid.NewString(),
		UserID:          userID,
		Amount:          amount,
		Currency:        CurrencyEGP,
		Status:          PaymentStatusPending,
		MerchantOrderID: ulid.Make().String(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// NewTicketPayment creates the pending payment for an unpaid ticket; amount equals the ticket fare.
func NewTicketPayment(t *Ticket) (*Payment, error) {
	if t == nil {
		return nil, domain.ErrInvalidArgument
	}
	p, err := newPayment(t.UserID, t.Fare)
	if err != nil {
		return nil, err
	}
	id := t.ID
	p.TicketID = &id
	return p, nil
}

// NewSubscriptionPayment creates the pending payment for a subscription at its plan price.
func NewSubscriptionPayment(s *Subscription) (*Payment, error) {
	if s == nil {
		return nil, domain.ErrInvalidArgument
	}
	p, err := newPayment(s.UserID, s.Price)
	if err != nil {
		return nil, err
	}
	id := s.ID
	p.SubscriptionID = &id
	return p, nil
}

func (p *Payment) IsPending() bool { return p.Status == PaymentStatusPending }

// PaymentTransaction stores the raw gateway result that settled a payment.
type PaymentTransaction struct {
	ID                   string
	PaymentID            string
	GatewayTransactionID string
	Success              bool
	Pending              bool
	AmountCents          int64
	Currency             string
	SourceDataType       string
	SourceDataSubType    string
	MaskedPAN            string
	RawPayload           []byte
	CreatedAt            time.Time
}

// PaymentAuditLog is one status transition of a payment.
type PaymentAuditLog struct {
	ID        string
	PaymentID string
	OldStatus PaymentStatus
	NewStatus PaymentStatus
	ChangedBy string
	Reason    string
	CreatedAt time.Time
}

func NewPaymentAuditLog(paymentID string, from, to PaymentStatus, changedBy, reason string) *PaymentAuditLog {
	return &PaymentAuditLog{
		ID:        uuid.NewString(),
		PaymentID: paymentID,
		OldStatus: from,
		NewStatus: to,
		ChangedBy: changedBy,
		Reason:    reason,
		CreatedAt: time.Now(),
	}
}

// SecurityEvent is persisted for rejected callbacks and similar suspicious input.
type SecurityEvent struct {
	ID        string
	Kind      string
	Source    string
	Detail    string
	Payload   []byte
	CreatedAt time.Time
}

const SecurityEventInvalidSignature = "invalid_callback_signature"
