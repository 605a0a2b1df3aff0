package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"cairo-metro-ticketing/internal/domain"
	"cairo-metro-ticketing/internal/domain/model"
	"cairo-metro-ticketing/internal/domain/ports/repository"
)

var _ repository.PaymentRepository = (*PostgresPaymentRepo)(nil)

type PostgresPaymentRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresPaymentRepo(pool *pgxpool.Pool) *PostgresPaymentRepo {
	return &PostgresPaymentRepo{pool: pool}
}

const paymentColumns = `id, user_id, ticket_id, subscription_id, amount_piastres, currency, status,
       merchant_order_id, gateway_order_id, gateway_reference, payment_key, payment_method,
       last_four_digits, response_code, created_at, updated_at, paid_at`

func (r *PostgresPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	const q = `
INSERT INTO payments (
  id, user_id, ticket_id, subscription_id, amount_piastres, currency, status,
  merchant_order_id, gateway_order_id, gateway_reference, payment_key, payment_method,
  last_four_digits, response_code, created_at, updated_at, paid_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
ON CONFLICT (id) DO UPDATE SET
  status=EXCLUDED.status, gateway_order_id=EXCLUDED.gateway_order_id,
  gateway_reference=EXCLUDED.gateway_reference, payment_key=EXCLUDED.payment_key,
  payment_method=EXCLUDED.payment_method, last_four_digits=EXCLUDED.last_four_digits,
  response_code=EXCLUDED.response_code, updated_at=EXCLUDED.updated_at, paid_at=EXCLUDED.paid_at;`
	_, err := execSQL(ctx, r.pool, tx, q,
		p.ID, p.UserID, p.TicketID, p.SubscriptionID, int64(p.Amount), p.Currency, string(p.Status),
		p.MerchantOrderID, p.GatewayOrderID, p.GatewayReference, p.PaymentKey, p.PaymentMethod,
		p.LastFourDigits, p.ResponseCode, p.CreatedAt, p.UpdatedAt, p.PaidAt)
	return err
}

func (r *PostgresPaymentRepo) findOne(ctx context.Context, tx repository.Tx, where string, arg interface{}) (*model.Payment, error) {
	q := forUpdate(`SELECT `+paymentColumns+` FROM payments WHERE `+where, tx)
	return scanPayment(pickRow(ctx, r.pool, tx, q, arg))
}

func (r *PostgresPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	return r.findOne(ctx, tx, `id=$1`, id)
}

func (r *PostgresPaymentRepo) FindByMerchantOrderID(ctx context.Context, tx repository.Tx, merchantOrderID string) (*model.Payment, error) {
	return r.findOne(ctx, tx, `merchant_order_id=$1`, merchantOrderID)
}

func (r *PostgresPaymentRepo) FindByGatewayOrderID(ctx context.Context, tx repository.Tx, gatewayOrderID string) (*model.Payment, error) {
	if gatewayOrderID == "" {
		return nil, domain.ErrNotFound
	}
	return r.findOne(ctx, tx, `gateway_order_id=$1`, gatewayOrderID)
}

// FindPendingByTicket reads without FOR UPDATE so a retry holding the ticket
// lock never waits on a payment row that a callback holds.
func (r *PostgresPaymentRepo) FindPendingByTicket(ctx context.Context, tx repository.Tx, ticketID string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE ticket_id=$1 AND status='pending' ORDER BY created_at DESC LIMIT 1`
	return scanPayment(pickRow(ctx, r.pool, tx, q, ticketID))
}

func (r *PostgresPaymentRepo) FindPendingBySubscription(ctx context.Context, tx repository.Tx, subscriptionID string) (*model.Payment, error) {
	return r.findOne(ctx, tx, `subscription_id=$1 AND status='pending' ORDER BY created_at DESC LIMIT 1`, subscriptionID)
}

func (r *PostgresPaymentRepo) CountByTicket(ctx context.Context, tx repository.Tx, ticketID string) (int, error) {
	var n int
	if err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM payments WHERE ticket_id=$1`, ticketID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count payments: %w", err)
	}
	return n, nil
}

func (r *PostgresPaymentRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit, offset int) ([]*model.Payment, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	return r.list(ctx, tx, q, userID, limit, offset)
}

func (r *PostgresPaymentRepo) ListStalePending(ctx context.Context, tx repository.Tx, olderThan time.Time, withGatewayOrder bool, limit int) ([]*model.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT ` + paymentColumns + ` FROM payments
 WHERE status='pending' AND created_at < $1 AND (gateway_order_id <> '') = $2
 ORDER BY created_at LIMIT $3`
	return r.list(ctx, tx, q, olderThan, withGatewayOrder, limit)
}

func (r *PostgresPaymentRepo) list(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.Payment, error) {
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresPaymentRepo) AttachGatewayOrder(ctx context.Context, tx repository.Tx, id, gatewayOrderID, paymentKey string) error {
	const q = `
UPDATE payments SET gateway_order_id=$2, payment_key=$3, updated_at=NOW()
 WHERE id=$1 AND status='pending'`
	tag, err := execSQL(ctx, r.pool, tx, q, id, gatewayOrderID, paymentKey)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SettleIfPending only touches rows still pending, so a replayed callback
// can never overwrite a final status.
func (r *PostgresPaymentRepo) SettleIfPending(ctx context.Context, tx repository.Tx, p *model.Payment) (bool, error) {
	const q = `
UPDATE payments SET
  status=$2, gateway_reference=$3, payment_method=$4, last_four_digits=$5,
  response_code=$6, paid_at=$7, updated_at=$8
 WHERE id=$1 AND status='pending'`
	tag, err := execSQL(ctx, r.pool, tx, q,
		p.ID, string(p.Status), p.GatewayReference, p.PaymentMethod, p.LastFourDigits,
		p.ResponseCode, p.PaidAt, p.UpdatedAt)
	if err != nil {
		return false, err
	}
	return r.affectedOrMissing(ctx, tx, tag.RowsAffected(), p.ID)
}

func (r *PostgresPaymentRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus) (bool, error) {
	const q = `UPDATE payments SET status=$2, updated_at=NOW() WHERE id=$1 AND status='pending'`
	tag, err := execSQL(ctx, r.pool, tx, q, id, string(status))
	if err != nil {
		return false, err
	}
	return r.affectedOrMissing(ctx, tx, tag.RowsAffected(), id)
}

func (r *PostgresPaymentRepo) affectedOrMissing(ctx context.Context, tx repository.Tx, n int64, id string) (bool, error) {
	if n == 1 {
		return true, nil
	}
	var exists bool
	if err := pickRow(ctx, r.pool, tx, `SELECT EXISTS(SELECT 1 FROM payments WHERE id=$1)`, id).Scan(&exists); err != nil {
		return false, scanErr(err)
	}
	if !exists {
		return false, domain.ErrNotFound
	}
	return false, nil
}

// Delete removes the payment; audit and transaction rows cascade.
func (r *PostgresPaymentRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	tag, err := execSQL(ctx, r.pool, tx, `DELETE FROM payments WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanPayment(row pgx.Row) (*model.Payment, error) {
	var (
		p      model.Payment
		amount int64
		status string
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.TicketID, &p.SubscriptionID, &amount, &p.Currency, &status,
		&p.MerchantOrderID, &p.GatewayOrderID, &p.GatewayReference, &p.PaymentKey, &p.PaymentMethod,
		&p.LastFourDigits, &p.ResponseCode, &p.CreatedAt, &p.UpdatedAt, &p.PaidAt); err != nil {
		return nil, scanErr(err)
	}
	p.Amount = model.Money(amount)
	p.Status = model.PaymentStatus(status)
	return &p, nil
}
