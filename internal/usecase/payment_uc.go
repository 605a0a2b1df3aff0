package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cairo-metro-ticketing/internal/domain"
	"cairo-metro-ticketing/internal/domain/model"
	"cairo-metro-ticketing/internal/domain/ports/adapter"
	"cairo-metro-ticketing/internal/domain/ports/repository"
	uc "cairo-metro-ticketing/internal/domain/ports/usecase"
	"cairo-metro-ticketing/internal/infra/logging"
	"cairo-metro-ticketing/internal/infra/metrics"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

// Compile-time check
var (
	_ PaymentUseCase        = (*paymentUC)(nil)
	_ uc.PaymentMaintenance = (*paymentUC)(nil)
)

const changedBySystem = "system"

type PaymentUseCase interface {
	// HandleCallback verifies and reconciles one gateway callback. Replays are no-ops.
	HandleCallback(ctx context.Context, payload []byte, signature string) (*CallbackResult, error)
	ListMine(ctx context.Context, userID string, limit, offset int) ([]*model.Payment, error)
	RollbackOrphaned(ctx context.Context, olderThan time.Time, limit int) (int, error)
	FailExpired(ctx context.Context, olderThan time.Time, limit int) (int, error)
}

// CallbackResult reports the payment's status after reconciliation.
type CallbackResult struct {
	PaymentID string
	Status    model.PaymentStatus
	// Replayed is set when the payment had already left pending before this callback.
	Replayed bool
}

type PaymentDeps struct {
	Payments     repository.PaymentRepository
	Transactions repository.PaymentTransactionRepository
	Audit        repository.PaymentAuditRepository
	Security     repository.SecurityEventRepository
	Tickets      repository.TicketRepository
	Subs         repository.SubscriptionRepository
	Gateway      adapter.PaymentGateway
	TM           repository.TransactionManager
}

type paymentUC struct {
	payments     repository.PaymentRepository
	transactions repository.PaymentTransactionRepository
	audit        repository.PaymentAuditRepository
	security     repository.SecurityEventRepository
	tickets      repository.TicketRepository
	subs         repository.SubscriptionRepository
	gateway      adapter.PaymentGateway
	tm           repository.TransactionManager
	log          *zerolog.Logger
}

func NewPaymentUseCase(d PaymentDeps, logger *zerolog.Logger) *paymentUC {
	l := logger.With().Str("component", "PaymentUC").Logger()
	return &paymentUC{
		payments:     d.Payments,
		transactions: d.Transactions,
		audit:        d.Audit,
		security:     d.Security,
		tickets:      d.Tickets,
		subs:         d.Subs,
		gateway:      d.Gateway,
		tm:           d.TM,
		log:          &l,
	}
}

func (u *paymentUC) HandleCallback(ctx context.Context, payload []byte, signature string) (*CallbackResult, error) {
	defer logging.TraceDuration(u.log, "PaymentUC.HandleCallback")()
	started := time.Now()
	log := logging.With(ctx, u.log)

	// Nothing in the payload is read before the signature checks out.
	if !u.gateway.VerifyCallback(payload, signature) {
		u.recordInvalidSignature(ctx, log, payload)
		metrics.IncPaymentCallback("fail", "invalid_signature")
		return nil, domain.ErrInvalidSignature
	}

	evt, err := u.gateway.ParseCallback(payload)
	if err != nil {
		metrics.IncPaymentCallback("fail", "bad_payload")
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}

	var result *CallbackResult
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		p, err := u.match(ctx, tx, evt)
		if err != nil {
			return err
		}
		result = &CallbackResult{PaymentID: p.ID, Status: p.Status}

		switch {
		case !p.IsPending():
			result.Replayed = true
			return nil
		case evt.Pending:
			return nil
		case evt.Success:
			if evt.AmountCents != p.Amount.MinorUnits() || !strings.EqualFold(evt.Currency, p.Currency) {
				log.Warn().
					Str("payment_id", p.ID).
					Int64("expected_cents", p.Amount.MinorUnits()).
					Int64("callback_cents", evt.AmountCents).
					Str("callback_currency", evt.Currency).
					Msg("callback amount mismatch; payment left pending for review")
				return domain.ErrAmountMismatch
			}
			return u.settle(ctx, tx, p, evt, model.PaymentStatusCompleted, result)
		default:
			return u.settle(ctx, tx, p, evt, model.PaymentStatusFailed, result)
		}
	})
	elapsed := time.Since(started).Seconds()
	if err != nil {
		reason := "error"
		switch {
		case errors.Is(err, domain.ErrAmountMismatch):
			reason = "amount_mismatch"
		case errors.Is(err, domain.ErrNotFound):
			reason = "not_found"
		}
		metrics.IncPaymentCallback("fail", reason)
		metrics.ObservePaymentCallback("fail", elapsed)
		return nil, err
	}

	reason := string(result.Status)
	switch {
	case result.Replayed:
		reason = "replay"
	case result.Status == model.PaymentStatusCompleted:
		metrics.IncPayment(string(model.PaymentStatusCompleted))
		metrics.AddPaymentRevenue(model.CurrencyEGP, evt.AmountCents)
	case result.Status == model.PaymentStatusRefundReview:
		metrics.IncPayment(string(model.PaymentStatusRefundReview))
		metrics.AddPaymentRevenue(model.CurrencyEGP, evt.AmountCents)
	case result.Status == model.PaymentStatusFailed:
		metrics.IncPayment(string(model.PaymentStatusFailed))
	}
	metrics.IncPaymentCallback("ok", reason)
	metrics.ObservePaymentCallback("ok", elapsed)
	log.Info().
		Str("payment_id", result.PaymentID).
		Str("status", string(result.Status)).
		Bool("replayed", result.Replayed).
		Str("gateway_txn", evt.TransactionID).
		Msg("payment callback reconciled")
	return result, nil
}

// match locates the payment by the correlation id we sent, falling back to the
// gateway order id. Amount is never used for matching.
func (u *paymentUC) match(ctx context.Context, tx repository.Tx, evt *adapter.CallbackEvent) (*model.Payment, error) {
	var (
		p   *model.Payment
		err error
	)
	switch {
	case evt.MerchantOrderID != "":
		p, err = u.payments.FindByMerchantOrderID(ctx, tx, evt.MerchantOrderID)
		if errors.Is(err, domain.ErrNotFound) && evt.GatewayOrderID != "" {
			p, err = u.payments.FindByGatewayOrderID(ctx, tx, evt.GatewayOrderID)
		}
	case evt.GatewayOrderID != "":
		p, err = u.payments.FindByGatewayOrderID(ctx, tx, evt.GatewayOrderID)
	default:
		return nil, fmt.Errorf("%w: callback carries no order reference", domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if p.GatewayOrderID != "" && evt.GatewayOrderID != "" && p.GatewayOrderID != evt.GatewayOrderID {
		return nil, fmt.Errorf("%w: gateway order %s does not belong to payment %s", domain.ErrInvalidArgument, evt.GatewayOrderID, p.ID)
	}
	return p, nil
}

// settle moves a locked pending payment to its final status and propagates a
// completion to the linked ticket or subscription in the same transaction.
// A captured payment whose purchase can no longer be granted goes to refund review.
func (u *paymentUC) settle(ctx context.Context, tx repository.Tx, p *model.Payment, evt *adapter.CallbackEvent, status model.PaymentStatus, result *CallbackResult) error {
	now := time.Now()
	reason := "callback " + evt.TransactionID
	if status == model.PaymentStatusCompleted {
		why, err := u.ungrantable(ctx, tx, p, now)
		if err != nil {
			return err
		}
		if why != "" {
			status = model.PaymentStatusRefundReview
			reason += "; " + why
			u.log.WithLevel(zerolog.ErrorLevel).
				Bool("alert", true).
				Str("payment_id", p.ID).
				Str("gateway_txn", evt.TransactionID).
				Str("reason", why).
				Msg("captured payment needs refund")
		}
	}
	p.Status = status
	p.GatewayReference = evt.TransactionID
	p.PaymentMethod = evt.SourceDataType
	p.LastFourDigits = lastFour(evt.MaskedPAN)
	p.ResponseCode = evt.ResponseCode
	p.UpdatedAt = now
	if status == model.PaymentStatusCompleted {
		p.PaidAt = &now
	}

	ok, err := u.payments.SettleIfPending(ctx, tx, p)
	if err != nil {
		return err
	}
	if !ok {
		cur, err := u.payments.FindByID(ctx, tx, p.ID)
		if err != nil {
			return err
		}
		result.Status, result.Replayed = cur.Status, true
		return nil
	}

	if err := u.transactions.Save(ctx, tx, &model.PaymentTransaction{
		ID:                   uuid.NewString(),
		PaymentID:            p.ID,
		GatewayTransactionID: evt.TransactionID,
		Success:              evt.Success,
		Pending:              evt.Pending,
		AmountCents:          evt.AmountCents,
		Currency:             evt.Currency,
		SourceDataType:       evt.SourceDataType,
		SourceDataSubType:    evt.SourceDataSubType,
		MaskedPAN:            evt.MaskedPAN,
		RawPayload:           evt.Raw,
		CreatedAt:            now,
	}); err != nil {
		return err
	}
	if err := u.audit.Save(ctx, tx, model.NewPaymentAuditLog(p.ID, model.PaymentStatusPending, status, "gateway", reason)); err != nil {
		return err
	}

	if status == model.PaymentStatusCompleted {
		if p.TicketID != nil {
			moved, err := u.tickets.UpdateStatusIf(ctx, tx, *p.TicketID, model.TicketStatusActive, model.TicketStatusPaid)
			if err != nil {
				return err
			}
			if !moved {
				return fmt.Errorf("%w: ticket %s changed while locked", domain.ErrOperationFailed, *p.TicketID)
			}
		}
		if p.SubscriptionID != nil {
			on, err := u.subs.Activate(ctx, tx, *p.SubscriptionID)
			if err != nil {
				return err
			}
			if !on {
				return fmt.Errorf("%w: subscription %s cancelled while locked", domain.ErrOperationFailed, *p.SubscriptionID)
			}
			metrics.IncSubscriptionActivated()
		}
	}
	result.Status = status
	return nil
}

// ungrantable locks the purchase behind p (always after the payment row) and
// says why a successful capture can no longer be honoured, or "" when it can.
func (u *paymentUC) ungrantable(ctx context.Context, tx repository.Tx, p *model.Payment, now time.Time) (string, error) {
	switch {
	case p.TicketID != nil:
		t, err := u.tickets.FindByID(ctx, tx, *p.TicketID)
		if errors.Is(err, domain.ErrNotFound) {
			return "ticket no longer exists", nil
		}
		if err != nil {
			return "", err
		}
		if !t.AwaitingPayment(now) {
			return "ticket no longer awaiting payment (" + string(t.Status) + ")", nil
		}
	case p.SubscriptionID != nil:
		s, err := u.subs.FindByID(ctx, tx, *p.SubscriptionID)
		if errors.Is(err, domain.ErrNotFound) {
			return "subscription no longer exists", nil
		}
		if err != nil {
			return "", err
		}
		if s.IsCancelled() {
			return "subscription was cancelled", nil
		}
	}
	return "", nil
}

func (u *paymentUC) recordInvalidSignature(ctx context.Context, log *zerolog.Logger, payload []byte) {
	metrics.IncSecurityEvent(model.SecurityEventInvalidSignature)
	log.Warn().Str("event", "security").Int("payload_bytes", len(payload)).Msg("payment callback rejected: invalid signature")
	ev := &model.SecurityEvent{
		ID:        uuid.NewString(),
		Kind:      model.SecurityEventInvalidSignature,
		Source:    u.gateway.Name(),
		Detail:    "hmac mismatch on payment callback",
		Payload:   payload,
		CreatedAt: time.Now(),
	}
	if err := u.security.Save(ctx, repository.NoTX, ev); err != nil {
		log.Error().Err(err).Msg("failed to persist security event")
	}
}

func (u *paymentUC) ListMine(ctx context.Context, userID string, limit, offset int) ([]*model.Payment, error) {
	return u.payments.ListByUser(ctx, repository.NoTX, userID, limit, offset)
}

// RollbackOrphaned compensates pending payments that never got a gateway order,
// i.e. the process died between the first commit and the gateway call.
func (u *paymentUC) RollbackOrphaned(ctx context.Context, olderThan time.Time, limit int) (int, error) {
	defer logging.TraceDuration(u.log, "PaymentUC.RollbackOrphaned")()
	stale, err := u.payments.ListStalePending(ctx, repository.NoTX, olderThan, false, limit)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, s := range stale {
		err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			p, err := u.payments.FindByID(ctx, tx, s.ID)
			if err != nil {
				return deleteIfExists(err)
			}
			if !p.IsPending() || p.GatewayOrderID != "" {
				return nil
			}
			if err := u.payments.Delete(ctx, tx, p.ID); err != nil {
				return err
			}
			if p.TicketID != nil {
				return u.dropUnpaidTicket(ctx, tx, *p.TicketID)
			}
			if p.SubscriptionID != nil {
				return u.dropInactiveSubscription(ctx, tx, *p.SubscriptionID)
			}
			return nil
		})
		if err != nil {
			metrics.IncCompensatingRollback("failed")
			u.log.WithLevel(zerolog.FatalLevel).Bool("alert", true).Str("payment_id", s.ID).Err(err).Msg("orphaned payment rollback failed")
			continue
		}
		metrics.IncCompensatingRollback("ok")
		n++
	}
	return n, nil
}

func (u *paymentUC) dropUnpaidTicket(ctx context.Context, tx repository.Tx, ticketID string) error {
	t, err := u.tickets.FindByID(ctx, tx, ticketID)
	if err != nil {
		return deleteIfExists(err)
	}
	if t.Status != model.TicketStatusActive {
		return nil
	}
	// A retried ticket keeps its earlier payment history.
	others, err := u.payments.CountByTicket(ctx, tx, ticketID)
	if err != nil {
		return err
	}
	if others > 0 {
		return nil
	}
	return u.tickets.Delete(ctx, tx, ticketID)
}

func (u *paymentUC) dropInactiveSubscription(ctx context.Context, tx repository.Tx, subID string) error {
	s, err := u.subs.FindByID(ctx, tx, subID)
	if err != nil {
		return deleteIfExists(err)
	}
	if s.IsActive {
		return nil
	}
	return u.subs.Delete(ctx, tx, subID)
}

// FailExpired marks pending payments whose hosted checkout expired as failed.
func (u *paymentUC) FailExpired(ctx context.Context, olderThan time.Time, limit int) (int, error) {
	defer logging.TraceDuration(u.log, "PaymentUC.FailExpired")()
	stale, err := u.payments.ListStalePending(ctx, repository.NoTX, olderThan, true, limit)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, s := range stale {
		var moved bool
		err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			ok, err := u.payments.UpdateStatusIfPending(ctx, tx, s.ID, model.PaymentStatusFailed)
			if err != nil || !ok {
				return err
			}
			moved = true
			return u.audit.Save(ctx, tx, model.NewPaymentAuditLog(s.ID, model.PaymentStatusPending, model.PaymentStatusFailed, changedBySystem, "checkout expired"))
		})
		if err != nil {
			u.log.Error().Err(err).Str("payment_id", s.ID).Msg("failed to expire pending payment")
			continue
		}
		if moved {
			metrics.IncPayment(string(model.PaymentStatusFailed))
			n++
		}
	}
	return n, nil
}

func lastFour(pan string) string {
	digits := make([]byte, 0, len(pan))
	for i := 0; i < len(pan); i++ {
		if pan[i] >= '0' && pan[i] <= '9' {
			digits = append(digits, pan[i])
		}
	}
	if len(digits) < 4 {
		return string(digits)
	}
	return string(digits[len(digits)-4:])
}
