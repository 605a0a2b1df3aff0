package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"cairo-metro-ticketing/internal/domain/ports/usecase"
	"cairo-metro-ticketing/internal/infra/metrics"
	red "cairo-metro-ticketing/internal/infra/redis"
)

const ticketExpiryLock = "lock:sched:ticket-expiry"

// TicketExpiryWorker periodically marks tickets past their validity as expired.
type TicketExpiryWorker struct {
	interval time.Duration
	uc       usecase.TicketMaintenance
	locker   red.Locker
	now      func() time.Time
	log      *zerolog.Logger
}

func NewTicketExpiryWorker(interval time.Duration, uc usecase.TicketMaintenance, locker red.Locker, logger *zerolog.Logger) *TicketExpiryWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	l := logger.With().Str("component", "TicketExpiryWorker").Logger()
	return &TicketExpiryWorker{
		interval: interval,
		uc:       uc,
		locker:   locker,
		now:      time.Now,
		log:      &l,
	}
}

func (w *TicketExpiryWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting ticket expiry worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping ticket expiry worker")
			return ctx.Err()
		case <-ticker.C:
			w.Tick(ctx)
		}
	}
}

func (w *TicketExpiryWorker) Tick(ctx context.Context) {
	withLeadership(ctx, w.locker, ticketExpiryLock, w.interval, w.log, func(ctx context.Context) {
		n, err := w.uc.ExpireTickets(ctx, w.now())
		if err != nil {
			metrics.IncJob("ticket_expiry", "error")
			w.log.Error().Err(err).Msg("ticket expiry failed")
			return
		}
		metrics.IncJob("ticket_expiry", "ok")
		if n > 0 {
			w.log.Info().Int64("count", n).Msg("tickets expired")
		}
	})
}
