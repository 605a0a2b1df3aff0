package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"cairo-metro-ticketing/internal/domain"
	"cairo-metro-ticketing/internal/domain/model"
	"cairo-metro-ticketing/internal/domain/ports/repository"
)

var _ repository.SubscriptionRepository = (*PostgresSubscriptionRepo)(nil)

type PostgresSubscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresSubscriptionRepo(pool *pgxpool.Pool) *PostgresSubscriptionRepo {
	return &PostgresSubscriptionRepo{pool: pool}
}

const subscriptionColumns = `id, user_id, plan_type, zone_coverage, price_piastres, start_date, end_date, is_active, created_at, cancelled_at`

func (r *PostgresSubscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	const q = `
INSERT INTO subscriptions (id, user_id, plan_type, zone_coverage, price_piastres, start_date, end_date, is_active, created_at, cancelled_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (id) DO UPDATE SET
  zone_coverage=EXCLUDED.zone_coverage, start_date=EXCLUDED.start_date,
  end_date=EXCLUDED.end_date, is_active=EXCLUDED.is_active, cancelled_at=EXCLUDED.cancelled_at;`
	_, err := execSQL(ctx, r.pool, tx, q,
		s.ID, s.UserID, string(s.PlanType), s.ZoneCoverage, int64(s.Price),
		model.Date(s.StartDate), model.Date(s.EndDate), s.IsActive, s.CreatedAt, s.CancelledAt)
	return err
}

func (r *PostgresSubscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	q := forUpdate(`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id=$1`, tx)
	return scanSubscription(pickRow(ctx, r.pool, tx, q, id))
}

func (r *PostgresSubscriptionRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Subscription, error) {
	q := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE user_id=$1 ORDER BY created_at DESC`
	rows, err := queryRows(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PostgresSubscriptionRepo) Activate(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	tag, err := execSQL(ctx, r.pool, tx, `UPDATE subscriptions SET is_active=TRUE WHERE id=$1 AND cancelled_at IS NULL`, id)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}
	var exists bool
	if err := pickRow(ctx, r.pool, tx, `SELECT EXISTS(SELECT 1 FROM subscriptions WHERE id=$1)`, id).Scan(&exists); err != nil {
		return false, scanErr(err)
	}
	if !exists {
		return false, domain.ErrNotFound
	}
	return false, nil
}

func (r *PostgresSubscriptionRepo) Cancel(ctx context.Context, tx repository.Tx, id string, at time.Time) error {
	const q = `UPDATE subscriptions SET is_active=FALSE, cancelled_at=COALESCE(cancelled_at, $2) WHERE id=$1`
	tag, err := execSQL(ctx, r.pool, tx, q, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresSubscriptionRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	tag, err := execSQL(ctx, r.pool, tx, `DELETE FROM subscriptions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanSubscription(row pgx.Row) (*model.Subscription, error) {
	var (
		s     model.Subscription
		plan  string
		price int64
	)
	if err := row.Scan(&s.ID, &s.UserID, &plan, &s.ZoneCoverage, &price, &s.StartDate, &s.EndDate, &s.IsActive, &s.CreatedAt, &s.CancelledAt); err != nil {
		return nil, scanErr(err)
	}
	s.PlanType = model.PlanType(plan)
	s.Price = model.Money(price)
	s.StartDate, s.EndDate = model.Date(s.StartDate), model.Date(s.EndDate)
	return &s, nil
}
