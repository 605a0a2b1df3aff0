// File: internal/usecase/subscription_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"cairo-metro-ticketing/internal/domain"
	"cairo-metro-ticketing/internal/domain/model"
	"cairo-metro-ticketing/internal/domain/ports/adapter"
	"cairo-metro-ticketing/internal/domain/ports/repository"
	"cairo-metro-ticketing/internal/infra/logging"
	"cairo-metro-ticketing/internal/infra/metrics"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ SubscriptionUseCase = (*subscriptionUC)(nil)

type SubscriptionUseCase interface {
	// Purchase creates an inactive subscription and opens a checkout for it.
	Purchase(ctx context.Context, userID, plan string, zoneCoverage int) (*SubscriptionPurchase, error)
	// Renew opens a checkout for the period following an existing subscription.
	Renew(ctx context.Context, actor Actor, id string, in RenewInput) (*SubscriptionPurchase, error)
	List(ctx context.Context, userID string) ([]*model.Subscription, error)
	// Active returns the subscription entitling the user today.
	Active(ctx context.Context, userID string) (*model.Subscription, error)
	// Cancel switches a subscription off for good and fails its open payment.
	Cancel(ctx context.Context, actor Actor, id string) (*model.Subscription, error)
}

// RenewInput overrides the renewed subscription's plan or zones; zero values keep them.
type RenewInput struct {
	Plan         string
	ZoneCoverage int
}

type SubscriptionPurchase struct {
	Subscription *model.Subscription
	Payment      *model.Payment
	Checkout     *CheckoutSession
}

type subscriptionUC struct {
	subs        repository.SubscriptionRepository
	payments    repository.PaymentRepository
	audit       repository.PaymentAuditRepository
	entitlement EntitlementUseCase
	checkout    *checkout
	tm          repository.TransactionManager
	now         func() time.Time
	log         *zerolog.Logger
}

func NewSubscriptionUseCase(
	subs repository.SubscriptionRepository,
	payments repository.PaymentRepository,
	audit repository.PaymentAuditRepository,
	users repository.UserRepository,
	entitlement EntitlementUseCase,
	gateway adapter.PaymentGateway,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *subscriptionUC {
	l := logger.With().Str("component", "SubscriptionUC").Logger()
	return &subscriptionUC{
		subs:        subs,
		payments:    payments,
		audit:       audit,
		entitlement: entitlement,
		checkout:    newCheckout(payments, users, gateway, tm, &l),
		tm:          tm,
		now:         time.Now,
		log:         &l,
	}
}

func (u *subscriptionUC) Purchase(ctx context.Context, userID, plan string, zoneCoverage int) (*SubscriptionPurchase, error) {
	defer logging.TraceDuration(u.log, "SubscriptionUC.Purchase")()

	p, err := model.LookupPlan(plan)
	if err != nil {
		return nil, err
	}
	sub, err := model.NewSubscription(userID, p, zoneCoverage, u.now())
	if err != nil {
		return nil, err
	}
	return u.open(ctx, sub, userID, "subscription purchase", "new")
}

func (u *subscriptionUC) Renew(ctx context.Context, actor Actor, id string, in RenewInput) (*SubscriptionPurchase, error) {
	defer logging.TraceDuration(u.log, "SubscriptionUC.Renew")()

	prev, err := u.subs.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if !actor.canAccess(prev.UserID) {
		return nil, domain.ErrForbidden
	}
	planName := in.Plan
	if planName == "" {
		planName = string(prev.PlanType)
	}
	p, err := model.LookupPlan(planName)
	if err != nil {
		return nil, err
	}
	zones := in.ZoneCoverage
	if zones == 0 {
		zones = prev.ZoneCoverage
	}
	sub, err := model.NewSubscription(prev.UserID, p, zones, prev.RenewalStart(u.now()))
	if err != nil {
		return nil, err
	}
	return u.open(ctx, sub, actor.UserID, "subscription renewal of "+prev.ID, "renewal")
}

// open commits sub with its pending payment, then starts the gateway checkout.
// A gateway failure removes both again.
func (u *subscriptionUC) open(ctx context.Context, sub *model.Subscription, changedBy, reason, kind string) (*SubscriptionPurchase, error) {
	payment, err := model.NewSubscriptionPayment(sub)
	if err != nil {
		return nil, err
	}

	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := u.subs.Save(ctx, tx, sub); err != nil {
			return err
		}
		if err := u.payments.Save(ctx, tx, payment); err != nil {
			return err
		}
		return u.audit.Save(ctx, tx, model.NewPaymentAuditLog(payment.ID, "", model.PaymentStatusPending, changedBy, reason))
	})
	if err != nil {
		return nil, err
	}

	session, err := u.checkout.begin(ctx, payment)
	if err != nil {
		return nil, u.checkout.compensate(ctx, "subscription", err, func(ctx context.Context, tx repository.Tx) error {
			if err := deleteIfExists(u.payments.Delete(ctx, tx, payment.ID)); err != nil {
				return err
			}
			return deleteIfExists(u.subs.Delete(ctx, tx, sub.ID))
		})
	}

	metrics.IncSubscriptionPurchase(string(sub.PlanType), kind)
	metrics.IncPayment(string(model.PaymentStatusPending))
	logging.With(ctx, u.log).Info().
		Str("subscription_id", sub.ID).
		Str("plan", string(sub.PlanType)).
		Str("kind", kind).
		Time("start", sub.StartDate).
		Str("payment_id", payment.ID).
		Msg("subscription created; awaiting payment")
	return &SubscriptionPurchase{Subscription: sub, Payment: payment, Checkout: session}, nil
}

func (u *subscriptionUC) List(ctx context.Context, userID string) ([]*model.Subscription, error) {
	return u.subs.ListByUser(ctx, repository.NoTX, userID)
}

func (u *subscriptionUC) Active(ctx context.Context, userID string) (*model.Subscription, error) {
	return u.entitlement.Current(ctx, userID)
}

func (u *subscriptionUC) Cancel(ctx context.Context, actor Actor, id string) (*model.Subscription, error) {
	defer logging.TraceDuration(u.log, "SubscriptionUC.Cancel")()

	var (
		sub    *model.Subscription
		failed string
	)
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		// Payment row before subscription row, the order reconciliation locks in.
		pending, err := u.payments.FindPendingBySubscription(ctx, tx, id)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		s, err := u.subs.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if !actor.canAccess(s.UserID) {
			return domain.ErrForbidden
		}
		sub = s
		if s.IsCancelled() {
			return nil
		}
		if pending != nil {
			ok, err := u.payments.UpdateStatusIfPending(ctx, tx, pending.ID, model.PaymentStatusFailed)
			if err != nil {
				return err
			}
			if ok {
				failed = pending.ID
				if err := u.audit.Save(ctx, tx, model.NewPaymentAuditLog(pending.ID, model.PaymentStatusPending, model.PaymentStatusFailed, actor.UserID, "subscription cancelled")); err != nil {
					return err
				}
			}
		}
		now := u.now()
		if err := u.subs.Cancel(ctx, tx, s.ID, now); err != nil {
			return err
		}
		s.IsActive, s.CancelledAt = false, &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	if failed != "" {
		metrics.IncPayment(string(model.PaymentStatusFailed))
	}
	u.log.Info().Str("subscription_id", id).Str("by", actor.UserID).Str("failed_payment", failed).Msg("subscription cancelled")
	return sub, nil
}
