package repository

import (
	"context"

	"cairo-metro-ticketing/internal/domain/model"
)

// -----------------------------
// Users
// -----------------------------

type UserRepository interface {
	// Save returns domain.ErrAlreadyExists on a username, phone or email collision.
	Save(ctx context.Context, tx Tx, u *model.User) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
	FindByUsername(ctx context.Context, tx Tx, username string) (*model.User, error)
	CountUsers(ctx context.Context, tx Tx) (int, error)
	// List returns users in registration order.
	List(ctx context.Context, tx Tx, limit, offset int) ([]*model.User, error)
}
