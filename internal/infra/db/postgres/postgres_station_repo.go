package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"cairo-metro-ticketing/internal/domain/model"
	"cairo-metro-ticketing/internal/domain/ports/repository"
)

var (
	_ repository.LineRepository    = (*PostgresLineRepo)(nil)
	_ repository.StationRepository = (*PostgresStationRepo)(nil)
)

type PostgresLineRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresLineRepo(pool *pgxpool.Pool) *PostgresLineRepo {
	return &PostgresLineRepo{pool: pool}
}

const lineColumns = `id, name, color, description, is_active, created_at`

func (r *PostgresLineRepo) Save(ctx context.Context, tx repository.Tx, l *model.Line) error {
	const q = `
INSERT INTO lines (id, name, color, description, is_active, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO UPDATE SET
  name=EXCLUDED.name, color=EXCLUDED.color, description=EXCLUDED.description, is_active=EXCLUDED.is_active;`
	_, err := execSQL(ctx, r.pool, tx, q, l.ID, l.Name, l.Color, l.Description, l.IsActive, l.CreatedAt)
	return err
}

func (r *PostgresLineRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Line, error) {
	q := `SELECT ` + lineColumns + ` FROM lines WHERE id=$1`
	return scanLine(pickRow(ctx, r.pool, tx, q, id))
}

func (r *PostgresLineRepo) FindByName(ctx context.Context, tx repository.Tx, name string) (*model.Line, error) {
	q := `SELECT ` + lineColumns + ` FROM lines WHERE name=$1`
	return scanLine(pickRow(ctx, r.pool, tx, q, name))
}

func (r *PostgresLineRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Line, error) {
	q := `SELECT ` + lineColumns + ` FROM lines WHERE is_active ORDER BY name`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Line
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func scanLine(row pgx.Row) (*model.Line, error) {
	var l model.Line
	if err := row.Scan(&l.ID, &l.Name, &l.Color, &l.Description, &l.IsActive, &l.CreatedAt); err != nil {
		return nil, scanErr(err)
	}
	return &l, nil
}

type PostgresStationRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresStationRepo(pool *pgxpool.Pool) *PostgresStationRepo {
	return &PostgresStationRepo{pool: pool}
}

const stationColumns = `id, name, zone, line_id, station_order, is_active, created_at`

// Save returns domain.ErrAlreadyExists when the order is taken on the line.
func (r *PostgresStationRepo) Save(ctx context.Context, tx repository.Tx, s *model.Station) error {
	const q = `
INSERT INTO stations (id, name, zone, line_id, station_order, is_active, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET
  name=EXCLUDED.name, zone=EXCLUDED.zone, line_id=EXCLUDED.line_id,
  station_order=EXCLUDED.station_order, is_active=EXCLUDED.is_active;`
	_, err := execSQL(ctx, r.pool, tx, q, s.ID, s.Name, s.Zone, s.LineID, s.Order, s.IsActive, s.CreatedAt)
	return err
}

func (r *PostgresStationRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Station, error) {
	q := `SELECT ` + stationColumns + ` FROM stations WHERE id=$1`
	return scanStation(pickRow(ctx, r.pool, tx, q, id))
}

func (r *PostgresStationRepo) ListByLine(ctx context.Context, tx repository.Tx, lineID string) ([]*model.Station, error) {
	q := `SELECT ` + stationColumns + ` FROM stations
 WHERE ($1 = '' OR line_id = $1)
 ORDER BY line_id, station_order`
	rows, err := queryRows(ctx, r.pool, tx, q, lineID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Station
	for rows.Next() {
		s, err := scanStation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanStation(row pgx.Row) (*model.Station, error) {
	var s model.Station
	if err := row.Scan(&s.ID, &s.Name, &s.Zone, &s.LineID, &s.Order, &s.IsActive, &s.CreatedAt); err != nil {
		return nil, scanErr(err)
	}
	return &s, nil
}
