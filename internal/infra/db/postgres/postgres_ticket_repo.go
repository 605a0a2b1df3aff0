package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"cairo-metro-ticketing/internal/domain"
	"cairo-metro-ticketing/internal/domain/model"
	"cairo-metro-ticketing/internal/domain/ports/repository"
)

var (
	_ repository.TicketRepository  = (*PostgresTicketRepo)(nil)
	_ repository.ScanLogRepository = (*PostgresScanLogRepo)(nil)
)

type PostgresTicketRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresTicketRepo(pool *pgxpool.Pool) *PostgresTicketRepo {
	return &PostgresTicketRepo{pool: pool}
}

const ticketColumns = `id, user_id, start_station_id, end_station_id, station_count, fare_piastres,
       status, qr_payload, created_at, entry_time, exit_time, expires_at`

func (r *PostgresTicketRepo) Save(ctx context.Context, tx repository.Tx, t *model.Ticket) error {
	const q = `
INSERT INTO tickets (
  id, user_id, start_station_id, end_station_id, station_count, fare_piastres,
  status, qr_payload, created_at, entry_time, exit_time, expires_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (id) DO UPDATE SET
  status=EXCLUDED.status, entry_time=EXCLUDED.entry_time,
  exit_time=EXCLUDED.exit_time, expires_at=EXCLUDED.expires_at;`
	_, err := execSQL(ctx, r.pool, tx, q,
		t.ID, t.UserID, t.StartStationID, t.EndStationID, t.StationCount, int64(t.Fare),
		string(t.Status), t.QRPayload, t.CreatedAt, t.EntryTime, t.ExitTime, t.ExpiresAt)
	return err
}

func (r *PostgresTicketRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Ticket, error) {
	q := forUpdate(`SELECT `+ticketColumns+` FROM tickets WHERE id=$1`, tx)
	return scanTicket(pickRow(ctx, r.pool, tx, q, id))
}

func (r *PostgresTicketRepo) List(ctx context.Context, tx repository.Tx, f repository.TicketFilter) ([]*model.Ticket, error) {
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.UserID != "" {
		where = append(where, "user_id = "+arg(f.UserID))
	}
	if f.Status != "" {
		where = append(where, "status = "+arg(string(f.Status)))
	}
	if !f.CreatedOn.IsZero() {
		day := model.Date(f.CreatedOn)
		where = append(where, "created_at >= "+arg(day)+" AND created_at < "+arg(day.AddDate(0, 0, 1)))
	}
	order := " ORDER BY created_at DESC"
	if f.EnteredOnly {
		where = append(where, "entry_time IS NOT NULL")
		order = " ORDER BY entry_time DESC"
	}

	var sb strings.Builder
	sb.WriteString(`SELECT ` + ticketColumns + ` FROM tickets`)
	if len(where) > 0 {
		sb.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	sb.WriteString(order)
	if f.Limit > 0 {
		sb.WriteString(" LIMIT " + arg(f.Limit))
	}
	if f.Offset > 0 {
		sb.WriteString(" OFFSET " + arg(f.Offset))
	}

	rows, err := queryRows(ctx, r.pool, tx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *PostgresTicketRepo) UpdateStatusIf(ctx context.Context, tx repository.Tx, id string, from, to model.TicketStatus) (bool, error) {
	const q = `UPDATE tickets SET status=$3 WHERE id=$1 AND status=$2`
	tag, err := execSQL(ctx, r.pool, tx, q, id, string(from), string(to))
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}
	var exists bool
	if err := pickRow(ctx, r.pool, tx, `SELECT EXISTS(SELECT 1 FROM tickets WHERE id=$1)`, id).Scan(&exists); err != nil {
		return false, scanErr(err)
	}
	if !exists {
		return false, domain.ErrNotFound
	}
	return false, nil
}

func (r *PostgresTicketRepo) FareSummary(ctx context.Context, tx repository.Tx, from, to time.Time) (int, model.Money, error) {
	const q = `
SELECT COUNT(*), COALESCE(SUM(fare_piastres), 0)
  FROM tickets WHERE entry_time >= $1 AND entry_time < $2`
	var (
		n     int
		total int64
	)
	if err := pickRow(ctx, r.pool, tx, q, from, to).Scan(&n, &total); err != nil {
		return 0, 0, scanErr(err)
	}
	return n, model.Money(total), nil
}

func (r *PostgresTicketRepo) ExpireBefore(ctx context.Context, tx repository.Tx, now time.Time) (int64, error) {
	const q = `
UPDATE tickets SET status='expired'
 WHERE status IN ('active', 'paid', 'used_entry') AND expires_at <= $1`
	tag, err := execSQL(ctx, r.pool, tx, q, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PostgresTicketRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	tag, err := execSQL(ctx, r.pool, tx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanTicket(row pgx.Row) (*model.Ticket, error) {
	var (
		t      model.Ticket
		fare   int64
		status string
	)
	if err := row.Scan(&t.ID, &t.UserID, &t.StartStationID, &t.EndStationID, &t.StationCount, &fare,
		&status, &t.QRPayload, &t.CreatedAt, &t.EntryTime, &t.ExitTime, &t.ExpiresAt); err != nil {
		return nil, scanErr(err)
	}
	t.Fare = model.Money(fare)
	t.Status = model.TicketStatus(status)
	return &t, nil
}

type PostgresScanLogRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresScanLogRepo(pool *pgxpool.Pool) *PostgresScanLogRepo {
	return &PostgresScanLogRepo{pool: pool}
}

func (r *PostgresScanLogRepo) Save(ctx context.Context, tx repository.Tx, l *model.ScanLog) error {
	const q = `
INSERT INTO scan_logs (id, ticket_id, station_id, scan_type, scan_time, success, failure_reason, device_id, operator_id)
VALUES ($1,$2,NULLIF($3,''),$4,$5,$6,$7,$8,$9);`
	_, err := execSQL(ctx, r.pool, tx, q,
		l.ID, l.TicketID, l.StationID, string(l.ScanType), l.ScanTime, l.Success, l.FailureReason, l.DeviceID, l.OperatorID)
	return err
}

func (r *PostgresScanLogRepo) ListByTicket(ctx context.Context, tx repository.Tx, ticketID string) ([]*model.ScanLog, error) {
	const q = `
SELECT id, ticket_id, COALESCE(station_id, ''), scan_type, scan_time, success, failure_reason, device_id, operator_id
  FROM scan_logs WHERE ticket_id=$1 ORDER BY scan_time`
	rows, err := queryRows(ctx, r.pool, tx, q, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.ScanLog
	for rows.Next() {
		var (
			l        model.ScanLog
			scanType string
		)
		if err := rows.Scan(&l.ID, &l.TicketID, &l.StationID, &scanType, &l.ScanTime, &l.Success, &l.FailureReason, &l.DeviceID, &l.OperatorID); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
		}
		l.ScanType = model.ScanType(scanType)
		out = append(out, &l)
	}
	return out, rows.Err()
}
