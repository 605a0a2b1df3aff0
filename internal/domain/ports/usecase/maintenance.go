package usecase

import (
	"context"
	"time"
)

// PaymentMaintenance defines the payment housekeeping needed by background workers.
type PaymentMaintenance interface {
	// RollbackOrphaned compensates pending payments that never reached the gateway.
	RollbackOrphaned(ctx context.Context, olderThan time.Time, limit int) (int, error)
	// FailExpired marks pending payments whose checkout window passed as failed.
	FailExpired(ctx context.Context, olderThan time.Time, limit int) (int, error)
}

// TicketMaintenance defines the ticket housekeeping needed by background workers.
type TicketMaintenance interface {
	ExpireTickets(ctx context.Context, now time.Time) (int64, error)
}
