package usecase

import (
	"context"
	"fmt"
	"time"

	"cairo-metro-ticketing/internal/domain"
	"cairo-metro-ticketing/internal/domain/model"
	"cairo-metro-ticketing/internal/domain/ports/repository"
	"cairo-metro-ticketing/internal/infra/logging"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ ReportUseCase = (*reportUC)(nil)

// ReportUseCase serves the operator reports over travelled tickets.
type ReportUseCase interface {
	// FareSummary totals tickets entered between two calendar days, both inclusive.
	FareSummary(ctx context.Context, from, to time.Time) (*FareSummary, error)
	// UserTrips lists a rider's entered tickets, most recent entry first.
	UserTrips(ctx context.Context, userID string, limit, offset int) ([]*model.Ticket, error)
}

type FareSummary struct {
	From        time.Time
	To          time.Time
	TicketCount int
	TotalFare   model.Money
}

type reportUC struct {
	tickets repository.TicketRepository
	users   repository.UserRepository
	log     *zerolog.Logger
}

func NewReportUseCase(tickets repository.TicketRepository, users repository.UserRepository, logger *zerolog.Logger) *reportUC {
	l := logger.With().Str("component", "ReportUC").Logger()
	return &reportUC{tickets: tickets, users: users, log: &l}
}

func (u *reportUC) FareSummary(ctx context.Context, from, to time.Time) (*FareSummary, error) {
	defer logging.TraceDuration(u.log, "ReportUC.FareSummary")()
	from, to = model.Date(from), model.Date(to)
	if to.Before(from) {
		return nil, fmt.Errorf("%w: report ends before it starts", domain.ErrInvalidArgument)
	}
	n, total, err := u.tickets.FareSummary(ctx, repository.NoTX, from, to.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	return &FareSummary{From: from, To: to, TicketCount: n, TotalFare: total}, nil
}

func (u *reportUC) UserTrips(ctx context.Context, userID string, limit, offset int) ([]*model.Ticket, error) {
	if _, err := u.users.FindByID(ctx, repository.NoTX, userID); err != nil {
		return nil, err
	}
	return u.tickets.List(ctx, repository.NoTX, repository.TicketFilter{
		UserID:      userID,
		EnteredOnly: true,
		Limit:       limit,
		Offset:      offset,
	})
}
