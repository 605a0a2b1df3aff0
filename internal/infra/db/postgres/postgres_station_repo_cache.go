package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cairo-metro-ticketing/internal/domain/model"
	"cairo-metro-ticketing/internal/domain/ports/repository"
	"cairo-metro-ticketing/internal/infra/metrics"
	red "cairo-metro-ticketing/internal/infra/redis"

	"github.com/rs/zerolog"
)

var _ repository.StationRepository = (*stationRepoCacheDecorator)(nil)

const allStationsKey = "stations:all"

// stationRepoCacheDecorator caches the station directory in Redis. Stations
// change rarely and are read on every quote and purchase.
type stationRepoCacheDecorator struct {
	inner repository.StationRepository
	cache red.RedisClient
	ttl   time.Duration
	log   *zerolog.Logger
}

func NewStationRepoCacheDecorator(inner repository.StationRepository, cache red.RedisClient, ttl time.Duration, logger *zerolog.Logger) repository.StationRepository {
	if ttl <= 0 {
		ttl = 1 * time.Hour
	}
	l := logger.With().Str("component", "StationCache").Logger()
	return &stationRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl, log: &l}
}

func stationKey(id string) string { return fmt.Sprintf("station:%s", id) }

func stationLineKey(lineID string) string {
	if lineID == "" {
		return allStationsKey
	}
	return fmt.Sprintf("stations:line:%s", lineID)
}

// FindByID bypasses the cache inside a transaction so row locks still apply.
func (d *stationRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Station, error) {
	if tx != nil {
		return d.inner.FindByID(ctx, tx, id)
	}
	key := stationKey(id)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		var st model.Station
		if json.Unmarshal([]byte(val), &st) == nil {
			metrics.IncCacheRequest("station", "hit")
			return &st, nil
		}
	} else if !errors.Is(err, red.ErrNil) {
		d.log.Warn().Err(err).Str("key", key).Msg("station cache read failed")
	}

	metrics.IncCacheRequest("station", "miss")
	st, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(st); err == nil {
		_ = d.cache.Set(ctx, key, b, d.ttl)
	}
	return st, nil
}

func (d *stationRepoCacheDecorator) ListByLine(ctx context.Context, tx repository.Tx, lineID string) ([]*model.Station, error) {
	if tx != nil {
		return d.inner.ListByLine(ctx, tx, lineID)
	}
	key := stationLineKey(lineID)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		var list []*model.Station
		if json.Unmarshal([]byte(val), &list) == nil {
			metrics.IncCacheRequest("station_list", "hit")
			return list, nil
		}
	} else if !errors.Is(err, red.ErrNil) {
		d.log.Warn().Err(err).Str("key", key).Msg("station cache read failed")
	}

	metrics.IncCacheRequest("station_list", "miss")
	list, err := d.inner.ListByLine(ctx, tx, lineID)
	if err != nil {
		return nil, err
	}
	if len(list) > 0 {
		if b, err := json.Marshal(list); err == nil {
			_ = d.cache.Set(ctx, key, b, d.ttl)
		}
	}
	return list, nil
}

// Save invalidates the station and both list keys.
func (d *stationRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, st *model.Station) error {
	if err := d.inner.Save(ctx, tx, st); err != nil {
		return err
	}
	if err := d.cache.Del(ctx, stationKey(st.ID), stationLineKey(st.LineID), allStationsKey); err != nil {
		d.log.Warn().Err(err).Str("station_id", st.ID).Msg("station cache invalidation failed")
	}
	return nil
}
