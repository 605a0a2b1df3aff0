package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"cairo-metro-ticketing/internal/config"
	"cairo-metro-ticketing/internal/domain/ports/usecase"
	"cairo-metro-ticketing/internal/infra/metrics"
	red "cairo-metro-ticketing/internal/infra/redis"
)

const paymentSweepLock = "lock:sched:payment-sweep"

// PaymentSweeper compensates payments that never reached the gateway and fails
// checkouts the rider abandoned. Only one instance sweeps per tick.
type PaymentSweeper struct {
	uc         usecase.PaymentMaintenance
	locker     red.Locker
	interval   time.Duration
	staleAfter time.Duration // orphan age before compensation
	expiry     time.Duration // checkout window before a pending payment fails
	batch      int
	now        func() time.Time
	log        *zerolog.Logger
}

func NewPaymentSweeper(uc usecase.PaymentMaintenance, locker red.Locker, cfg config.WorkerConfig, logger *zerolog.Logger) *PaymentSweeper {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	if cfg.SweepStaleAfter <= 0 {
		cfg.SweepStaleAfter = 5 * time.Minute
	}
	if cfg.PaymentExpiry <= 0 {
		cfg.PaymentExpiry = time.Hour
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	l := logger.With().Str("component", "PaymentSweeper").Logger()
	return &PaymentSweeper{
		uc:         uc,
		locker:     locker,
		interval:   cfg.SweepInterval,
		staleAfter: cfg.SweepStaleAfter,
		expiry:     cfg.PaymentExpiry,
		batch:      cfg.BatchSize,
		now:        time.Now,
		log:        &l,
	}
}

func (w *PaymentSweeper) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting payment sweeper")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping payment sweeper")
			return ctx.Err()
		case <-ticker.C:
			w.Tick(ctx)
		}
	}
}

// Tick runs one sweep if this instance holds the lock.
func (w *PaymentSweeper) Tick(ctx context.Context) {
	withLeadership(ctx, w.locker, paymentSweepLock, w.interval, w.log, w.sweep)
}

func (w *PaymentSweeper) sweep(ctx context.Context) {
	now := w.now()

	n, err := w.uc.RollbackOrphaned(ctx, now.Add(-w.staleAfter), w.batch)
	switch {
	case err != nil:
		metrics.IncJob("payment_orphan_sweep", "error")
		w.log.Error().Err(err).Msg("orphaned payment sweep failed")
	case n > 0:
		metrics.IncJob("payment_orphan_sweep", "ok")
		w.log.Info().Int("count", n).Msg("orphaned payments rolled back")
	}

	n, err = w.uc.FailExpired(ctx, now.Add(-w.expiry), w.batch)
	switch {
	case err != nil:
		metrics.IncJob("payment_expiry_sweep", "error")
		w.log.Error().Err(err).Msg("expired checkout sweep failed")
	case n > 0:
		metrics.IncJob("payment_expiry_sweep", "ok")
		w.log.Info().Int("count", n).Msg("expired checkouts failed")
	}
}
