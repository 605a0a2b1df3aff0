package repository

import (
	"context"
	"time"

	"cairo-metro-ticketing/internal/domain/model"
)

// -----------------------------
// Payments
// -----------------------------

type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	// FindByID, FindByMerchantOrderID and FindByGatewayOrderID lock the row when tx is non-nil.
	FindByID(ctx context.Context, tx Tx, id string) (*model.Payment, error)
	FindByMerchantOrderID(ctx context.Context, tx Tx, merchantOrderID string) (*model.Payment, error)
	FindByGatewayOrderID(ctx context.Context, tx Tx, gatewayOrderID string) (*model.Payment, error)
	// FindPendingByTicket never locks; the caller serializes on the ticket row instead.
	FindPendingByTicket(ctx context.Context, tx Tx, ticketID string) (*model.Payment, error)
	// FindPendingBySubscription locks the row when tx is non-nil.
	FindPendingBySubscription(ctx context.Context, tx Tx, subscriptionID string) (*model.Payment, error)
	CountByTicket(ctx context.Context, tx Tx, ticketID string) (int, error)
	ListByUser(ctx context.Context, tx Tx, userID string, limit, offset int) ([]*model.Payment, error)
	// ListStalePending returns pending payments created before olderThan.
	// withGatewayOrder selects payments that did (true) or did not (false) reach the gateway.
	ListStalePending(ctx context.Context, tx Tx, olderThan time.Time, withGatewayOrder bool, limit int) ([]*model.Payment, error)
	// AttachGatewayOrder records the provider order and payment key on a pending payment.
	AttachGatewayOrder(ctx context.Context, tx Tx, id, gatewayOrderID, paymentKey string) error
	// SettleIfPending writes the final status and gateway details of p; false when it was no longer pending.
	SettleIfPending(ctx context.Context, tx Tx, p *model.Payment) (bool, error)
	// UpdateStatusIfPending returns false when the payment was no longer pending.
	UpdateStatusIfPending(ctx context.Context, tx Tx, id string, status model.PaymentStatus) (bool, error)
	Delete(ctx context.Context, tx Tx, id string) error
}

type PaymentTransactionRepository interface {
	Save(ctx context.Context, tx Tx, pt *model.PaymentTransaction) error
	ListByPayment(ctx context.Context, tx Tx, paymentID string) ([]*model.PaymentTransaction, error)
}

type PaymentAuditRepository interface {
	Save(ctx context.Context, tx Tx, l *model.PaymentAuditLog) error
	ListByPayment(ctx context.Context, tx Tx, paymentID string) ([]*model.PaymentAuditLog, error)
}

type SecurityEventRepository interface {
	Save(ctx context.Context, tx Tx, e *model.SecurityEvent) error
}
