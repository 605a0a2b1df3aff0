package usecase

import (
	"context"
	"time"

	"cairo-metro-ticketing/internal/domain"
	"cairo-metro-ticketing/internal/domain/model"
	"cairo-metro-ticketing/internal/domain/ports/repository"
	"cairo-metro-ticketing/internal/infra/logging"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ EntitlementUseCase = (*entitlementUC)(nil)

// EntitlementUseCase decides whether a rider travels on a subscription instead of paying.
type EntitlementUseCase interface {
	HasEntitlement(ctx context.Context, userID string, start, end *model.Station) (bool, error)
	// Current returns the most recent subscription entitling the user today, or domain.ErrNotFound.
	Current(ctx context.Context, userID string) (*model.Subscription, error)
}

type entitlementUC struct {
	subs repository.SubscriptionRepository
	now  func() time.Time
	log  *zerolog.Logger
}

func NewEntitlementUseCase(subs repository.SubscriptionRepository, logger *zerolog.Logger) *entitlementUC {
	l := logger.With().Str("component", "EntitlementUC").Logger()
	return &entitlementUC{subs: subs, now: time.Now, log: &l}
}

// HasEntitlement is true iff any subscription is active, covers today inclusively
// and reaches the highest zone of the trip.
func (u *entitlementUC) HasEntitlement(ctx context.Context, userID string, start, end *model.Station) (bool, error) {
	defer logging.TraceDuration(u.log, "EntitlementUC.HasEntitlement")()
	if start == nil || end == nil {
		return false, domain.ErrInvalidArgument
	}
	sub, err := u.find(ctx, userID, model.MaxZone(start, end))
	if err != nil {
		return false, err
	}
	return sub != nil, nil
}

func (u *entitlementUC) Current(ctx context.Context, userID string) (*model.Subscription, error) {
	sub, err := u.find(ctx, userID, 0)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, domain.ErrNotFound
	}
	return sub, nil
}

func (u *entitlementUC) find(ctx context.Context, userID string, zone int) (*model.Subscription, error) {
	subs, err := u.subs.ListByUser(ctx, repository.NoTX, userID)
	if err != nil {
		return nil, err
	}
	today := u.now()
	for _, s := range subs {
		if s.Entitles(today, zone) {
			return s, nil
		}
	}
	return nil, nil
}
