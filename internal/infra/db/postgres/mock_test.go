//go:build !integration

package postgres

import (
	"context"
	"time"

	"cairo-metro-ticketing/internal/domain/model"
	"cairo-metro-ticketing/internal/domain/ports/repository"
	red "cairo-metro-ticketing/internal/infra/redis"
)

// mockInnerStationRepo stands in for the database repository behind the cache.
type mockInnerStationRepo struct {
	SaveFunc       func(ctx context.Context, tx repository.Tx, s *model.Station) error
	FindByIDFunc   func(ctx context.Context, tx repository.Tx, id string) (*model.Station, error)
	ListByLineFunc func(ctx context.Context, tx repository.Tx, lineID string) ([]*model.Station, error)
}

func (m *mockInnerStationRepo) Save(ctx context.Context, tx repository.Tx, s *model.Station) error {
	return m.SaveFunc(ctx, tx, s)
}
func (m *mockInnerStationRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Station, error) {
	return m.FindByIDFunc(ctx, tx, id)
}
func (m *mockInnerStationRepo) ListByLine(ctx context.Context, tx repository.Tx, lineID string) ([]*model.Station, error) {
	return m.ListByLineFunc(ctx, tx, lineID)
}

// mockRedisClient mocks our Redis client wrapper. Unset funcs behave like an empty cache.
type mockRedisClient struct {
	GetFunc func(ctx context.Context, key string) (string, error)
	SetFunc func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc func(ctx context.Context, keys ...string) error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	if m.GetFunc == nil {
		return "", red.ErrNil
	}
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if m.SetFunc == nil {
		return nil
	}
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	if m.DelFunc == nil {
		return nil
	}
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) Ping(ctx context.Context) error { return nil }
func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error) {
	return 0, nil
}
func (m *mockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return nil
}
func (m *mockRedisClient) Close() error { return nil }
