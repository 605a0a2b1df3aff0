package usecase

import (
	"context"
	"errors"
	"fmt"
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

const rollbackTimeout = 15 * time.Second

// CheckoutSession is what the rider needs to pay on the gateway's hosted page.
type CheckoutSession struct {
	PaymentID      string
	GatewayOrderID string
	PaymentToken   string
	URL            string
}

// checkout runs the gateway leg shared by ticket, retry and subscription purchases
// and the compensating rollback that follows a failed leg.
type checkout struct {
	payments repository.PaymentRepository
	users    repository.UserRepository
	gateway  adapter.PaymentGateway
	tm       repository.TransactionManager
	log      *zerolog.Logger
}

func newCheckout(payments repository.PaymentRepository, users repository.UserRepository, gateway adapter.PaymentGateway, tm repository.TransactionManager, log *zerolog.Logger) *checkout {
	return &checkout{payments: payments, users: users, gateway: gateway, tm: tm, log: log}
}

// begin authenticates, opens a gateway order carrying the payment's correlation id
// and requests a payment key. The token lives only for this call.
func (c *checkout) begin(ctx context.Context, p *model.Payment) (*CheckoutSession, error) {
	defer logging.TraceDuration(c.log, "Checkout.begin")()

	billing, err := c.billingFor(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	token, err := c.gateway.Authenticate(ctx)
	if err != nil {
		return nil, err
	}
	orderID, err := c.gateway.CreateOrder(ctx, token, p.Amount.MinorUnits(), p.Currency, p.MerchantOrderID)
	if err != nil {
		return nil, err
	}
	key, err := c.gateway.PaymentKey(ctx, token, orderID, p.Amount.MinorUnits(), p.Currency, billing)
	if err != nil {
		return nil, err
	}
	if err := c.payments.AttachGatewayOrder(ctx, repository.NoTX, p.ID, orderID, key); err != nil {
		return nil, fmt.Errorf("record gateway order: %w", err)
	}
	p.GatewayOrderID = orderID
	p.PaymentKey = key

	return &CheckoutSession{
		PaymentID:      p.ID,
		GatewayOrderID: orderID,
		PaymentToken:   key,
		URL:            c.gateway.CheckoutURL(key),
	}, nil
}

func (c *checkout) billingFor(ctx context.Context, userID string) (adapter.BillingData, error) {
	u, err := c.users.FindByID(ctx, repository.NoTX, userID)
	if err != nil {
		return adapter.BillingData{}, err
	}
	return adapter.BillingData{
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Phone:     u.Phone,
	}, nil
}

// compensate undoes the records committed before a failed gateway leg in a second
// transaction. It always returns an error for the caller: the initialization
// failure, or the rollback failure when undo itself fails.
func (c *checkout) compensate(ctx context.Context, target string, cause error, undo func(ctx context.Context, tx repository.Tx) error) error {
	// The caller may have gone away; the undo must still run.
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()

	log := logging.With(ctx, c.log)
	if err := c.tm.WithTx(rctx, pgx.TxOptions{}, undo); err != nil {
		metrics.IncCompensatingRollback("failed")
		log.WithLevel(zerolog.FatalLevel).
			Bool("alert", true).
			Str("target", target).
			AnErr("cause", cause).
			Err(err).
			Msg("compensating rollback failed; orphaned pending payment left behind")
		return fmt.Errorf("%w: %w: %v", domain.ErrPaymentInitializationFailed, domain.ErrRollbackFailed, err)
	}
	metrics.IncCompensatingRollback("ok")
	log.Warn().Str("target", target).Err(cause).Msg("payment initialization failed; records rolled back")
	return fmt.Errorf("%w: %w", domain.ErrPaymentInitializationFailed, cause)
}

// deleteIfExists treats an already-missing row as undone.
func deleteIfExists(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return err
}
