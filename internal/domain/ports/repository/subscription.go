package repository

import (
	"context"
	"time"

	"cairo-metro-ticketing/internal/domain/model"
)

// SubscriptionRepository is the port for rider subscriptions.
type SubscriptionRepository interface {
	Save(ctx context.Context, tx Tx, s *model.Subscription) error
	// FindByID locks the row when tx is non-nil.
	FindByID(ctx context.Context, tx Tx, id string) (*model.Subscription, error)
	// ListByUser returns the user's subscriptions, most recent first.
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.Subscription, error)
	// Activate switches a paid subscription on; false when it was cancelled meanwhile.
	Activate(ctx context.Context, tx Tx, id string) (bool, error)
	// Cancel switches the subscription off for good and records when.
	Cancel(ctx context.Context, tx Tx, id string, at time.Time) error
	Delete(ctx context.Context, tx Tx, id string) error
}
