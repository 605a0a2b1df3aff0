package sched

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	red "cairo-metro-ticketing/internal/infra/redis"
)

// withLeadership runs fn only if this instance wins the lock for key. A nil
// locker means single-instance mode and fn always runs.
func withLeadership(ctx context.Context, locker red.Locker, key string, ttl time.Duration, log *zerolog.Logger, fn func(ctx context.Context)) bool {
	if locker == nil {
		fn(ctx)
		return true
	}
	token, err := locker.TryLock(ctx, key, ttl)
	if err != nil {
		if !errors.Is(err, red.ErrLockHeld) {
			log.Warn().Err(err).Str("lock", key).Msg("leader lock unavailable; skipping tick")
		}
		return false
	}
	defer func() {
		uctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := locker.Unlock(uctx, key, token); err != nil {
			log.Warn().Err(err).Str("lock", key).Msg("leader lock release failed")
		}
	}()
	fn(ctx)
	return true
}
