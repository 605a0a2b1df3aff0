package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"cairo-metro-ticketing/internal/domain/model"
	"cairo-metro-ticketing/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*PostgresUserRepo)(nil)

type PostgresUserRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{pool: pool}
}

const userColumns = `id, username, first_name, last_name, phone, email, password_hash, is_admin, is_active,
       failed_login_attempts, is_locked, last_login_at, registered_at`

func (r *PostgresUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	const q = `
INSERT INTO users (
  id, username, first_name, last_name, phone, email, password_hash, is_admin, is_active,
  failed_login_attempts, is_locked, last_login_at, registered_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
ON CONFLICT (id) DO UPDATE SET
  username=EXCLUDED.username, first_name=EXCLUDED.first_name, last_name=EXCLUDED.last_name,
  phone=EXCLUDED.phone, email=EXCLUDED.email, password_hash=EXCLUDED.password_hash,
  is_admin=EXCLUDED.is_admin, is_active=EXCLUDED.is_active,
  failed_login_attempts=EXCLUDED.failed_login_attempts, is_locked=EXCLUDED.is_locked,
  last_login_at=EXCLUDED.last_login_at;`
	_, err := execSQL(ctx, r.pool, tx, q,
		u.ID, u.Username, u.FirstName, u.LastName, u.Phone, u.Email, u.PasswordHash, u.IsAdmin, u.IsActive,
		u.FailedLoginAttempts, u.IsLocked, u.LastLoginAt, u.RegisteredAt)
	return err
}

func (r *PostgresUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	q := forUpdate(`SELECT `+userColumns+` FROM users WHERE id=$1`, tx)
	return scanUser(pickRow(ctx, r.pool, tx, q, id))
}

// FindByUsername matches case-insensitively, like the unique index.
func (r *PostgresUserRepo) FindByUsername(ctx context.Context, tx repository.Tx, username string) (*model.User, error) {
	q := forUpdate(`SELECT `+userColumns+` FROM users WHERE LOWER(username)=LOWER($1)`, tx)
	return scanUser(pickRow(ctx, r.pool, tx, q, username))
}

func (r *PostgresUserRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	var n int
	if err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM users;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (r *PostgresUserRepo) List(ctx context.Context, tx repository.Tx, limit, offset int) ([]*model.User, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `SELECT ` + userColumns + ` FROM users ORDER BY registered_at, id LIMIT $1 OFFSET $2`
	rows, err := queryRows(ctx, r.pool, tx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.Phone, &u.Email, &u.PasswordHash,
		&u.IsAdmin, &u.IsActive, &u.FailedLoginAttempts, &u.IsLocked, &u.LastLoginAt, &u.RegisteredAt); err != nil {
		return nil, scanErr(err)
	}
	return &u, nil
}
