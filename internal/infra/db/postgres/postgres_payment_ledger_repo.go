package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"cairo-metro-ticketing/internal/domain"
	"cairo-metro-ticketing/internal/domain/model"
	"cairo-metro-ticketing/internal/domain/ports/repository"
)

var (
	_ repository.PaymentTransactionRepository = (*PostgresPaymentTransactionRepo)(nil)
	_ repository.PaymentAuditRepository       = (*PostgresPaymentAuditRepo)(nil)
	_ repository.SecurityEventRepository      = (*PostgresSecurityEventRepo)(nil)
)

// PostgresPaymentTransactionRepo stores raw gateway results. The unique
// gateway_transaction_id makes a replayed callback fail with ErrAlreadyExists.
type PostgresPaymentTransactionRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresPaymentTransactionRepo(pool *pgxpool.Pool) *PostgresPaymentTransactionRepo {
	return &PostgresPaymentTransactionRepo{pool: pool}
}

func (r *PostgresPaymentTransactionRepo) Save(ctx context.Context, tx repository.Tx, pt *model.PaymentTransaction) error {
	const q = `
INSERT INTO payment_transactions (
  id, payment_id, gateway_transaction_id, success, pending, amount_cents, currency,
  source_data_type, source_data_sub_type, masked_pan, raw_payload, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12);`
	var raw interface{}
	if len(pt.RawPayload) > 0 {
		raw = string(pt.RawPayload)
	}
	_, err := execSQL(ctx, r.pool, tx, q,
		pt.ID, pt.PaymentID, pt.GatewayTransactionID, pt.Success, pt.Pending, pt.AmountCents, pt.Currency,
		pt.SourceDataType, pt.SourceDataSubType, pt.MaskedPAN, raw, pt.CreatedAt)
	return err
}

func (r *PostgresPaymentTransactionRepo) ListByPayment(ctx context.Context, tx repository.Tx, paymentID string) ([]*model.PaymentTransaction, error) {
	const q = `
SELECT id, payment_id, gateway_transaction_id, success, pending, amount_cents, currency,
       source_data_type, source_data_sub_type, masked_pan, COALESCE(raw_payload::text, ''), created_at
  FROM payment_transactions WHERE payment_id=$1 ORDER BY created_at`
	rows, err := queryRows(ctx, r.pool, tx, q, paymentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.PaymentTransaction
	for rows.Next() {
		var (
			pt  model.PaymentTransaction
			raw string
		)
		if err := rows.Scan(&pt.ID, &pt.PaymentID, &pt.GatewayTransactionID, &pt.Success, &pt.Pending, &pt.AmountCents, &pt.Currency,
			&pt.SourceDataType, &pt.SourceDataSubType, &pt.MaskedPAN, &raw, &pt.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
		}
		if raw != "" {
			pt.RawPayload = []byte(raw)
		}
		out = append(out, &pt)
	}
	return out, rows.Err()
}

type PostgresPaymentAuditRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresPaymentAuditRepo(pool *pgxpool.Pool) *PostgresPaymentAuditRepo {
	return &PostgresPaymentAuditRepo{pool: pool}
}

func (r *PostgresPaymentAuditRepo) Save(ctx context.Context, tx repository.Tx, l *model.PaymentAuditLog) error {
	const q = `
INSERT INTO payment_audit_log (id, payment_id, old_status, new_status, changed_by, reason, changed_at)
VALUES ($1,$2,$3,$4,$5,$6,$7);`
	_, err := execSQL(ctx, r.pool, tx, q,
		l.ID, l.PaymentID, string(l.OldStatus), string(l.NewStatus), l.ChangedBy, l.Reason, l.CreatedAt)
	return err
}

func (r *PostgresPaymentAuditRepo) ListByPayment(ctx context.Context, tx repository.Tx, paymentID string) ([]*model.PaymentAuditLog, error) {
	const q = `
SELECT id, payment_id, old_status, new_status, changed_by, reason, changed_at
  FROM payment_audit_log WHERE payment_id=$1 ORDER BY changed_at, id`
	rows, err := queryRows(ctx, r.pool, tx, q, paymentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.PaymentAuditLog
	for rows.Next() {
		var (
			l             model.PaymentAuditLog
			oldSt, newSt string
		)
		if err := rows.Scan(&l.ID, &l.PaymentID, &oldSt, &newSt, &l.ChangedBy, &l.Reason, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
		}
		l.OldStatus, l.NewStatus = model.PaymentStatus(oldSt), model.PaymentStatus(newSt)
		out = append(out, &l)
	}
	return out, rows.Err()
}

type PostgresSecurityEventRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresSecurityEventRepo(pool *pgxpool.Pool) *PostgresSecurityEventRepo {
	return &PostgresSecurityEventRepo{pool: pool}
}

func (r *PostgresSecurityEventRepo) Save(ctx context.Context, tx repository.Tx, e *model.SecurityEvent) error {
	const q = `
INSERT INTO security_events (id, kind, source, detail, payload, created_at)
VALUES ($1,$2,$3,$4,$5,$6);`
	_, err := execSQL(ctx, r.pool, tx, q, e.ID, e.Kind, e.Source, e.Detail, e.Payload, e.CreatedAt)
	return err
}
