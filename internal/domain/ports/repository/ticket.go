package repository

import (
	"context"
	"time"

	"cairo-metro-ticketing/internal/domain/model"
)

// -----------------------------
// Tickets
// -----------------------------

type TicketFilter struct {
	UserID string
	Status model.TicketStatus
	// CreatedOn restricts to one calendar day (UTC) when non-zero.
	CreatedOn time.Time
	// EnteredOnly keeps tickets that passed an entry gate, newest entry first.
	EnteredOnly bool
	Limit       int
	Offset      int
}

type TicketRepository interface {
	Save(ctx context.Context, tx Tx, t *model.Ticket) error
	// FindByID locks the row when tx is non-nil.
	FindByID(ctx context.Context, tx Tx, id string) (*model.Ticket, error)
	List(ctx context.Context, tx Tx, f TicketFilter) ([]*model.Ticket, error)
	// UpdateStatusIf moves a ticket from one status to another; false when it was not in `from`.
	UpdateStatusIf(ctx context.Context, tx Tx, id string, from, to model.TicketStatus) (bool, error)
	// FareSummary totals the fares of tickets whose entry falls in [from, to).
	FareSummary(ctx context.Context, tx Tx, from, to time.Time) (count int, total model.Money, err error)
	// ExpireBefore marks every non-terminal ticket whose expiry passed as expired.
	ExpireBefore(ctx context.Context, tx Tx, now time.Time) (int64, error)
	// Delete is used only by compensating rollbacks.
	Delete(ctx context.Context, tx Tx, id string) error
}

type ScanLogRepository interface {
	Save(ctx context.Context, tx Tx, l *model.ScanLog) error
	ListByTicket(ctx context.Context, tx Tx, ticketID string) ([]*model.ScanLog, error)
}
