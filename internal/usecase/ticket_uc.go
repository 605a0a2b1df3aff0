package usecase

import (
	"context"
	"errors"
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
	_ TicketUseCase        = (*ticketUC)(nil)
	_ uc.TicketMaintenance = (*ticketUC)(nil)
)

const qrSize = 256

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID  string
	IsAdmin bool
}

func (a Actor) canAccess(ownerID string) bool { return a.IsAdmin || a.UserID == ownerID }

type TicketUseCase interface {
	// Purchase issues a ticket; unless the rider is entitled it also opens a checkout.
	Purchase(ctx context.Context, userID, startStationID, endStationID string) (*TicketPurchase, error)
	// RetryPayment opens a new checkout for an unpaid ticket whose earlier payment failed.
	RetryPayment(ctx context.Context, userID, ticketID string) (*TicketPurchase, error)
	Get(ctx context.Context, actor Actor, id string) (*model.Ticket, error)
	ListMine(ctx context.Context, userID string, limit, offset int) ([]*model.Ticket, error)
	ListAll(ctx context.Context, f repository.TicketFilter) ([]*model.Ticket, error)
	QRCode(ctx context.Context, actor Actor, id string) ([]byte, error)
	Scan(ctx context.Context, in ScanInput) (*model.Ticket, error)
	// ScanLogs lists every gate scan attempt on a ticket, oldest first.
	ScanLogs(ctx context.Context, ticketID string) ([]*model.ScanLog, error)
	ExpireTickets(ctx context.Context, now time.Time) (int64, error)
}

type TicketPurchase struct {
	Ticket          *model.Ticket
	PaymentRequired bool
	Payment         *model.Payment
	Checkout        *CheckoutSession
}

type ScanInput struct {
	TicketID   string
	StationID  string
	ScanType   model.ScanType
	DeviceID   string
	OperatorID string
}

type ticketUC struct {
	tickets     repository.TicketRepository
	scans       repository.ScanLogRepository
	payments    repository.PaymentRepository
	audit       repository.PaymentAuditRepository
	stations    StationUseCase
	entitlement EntitlementUseCase
	qr          adapter.QREncoder
	checkout    *checkout
	tm          repository.TransactionManager
	validFor    time.Duration
	log         *zerolog.Logger
}

type TicketDeps struct {
	Tickets     repository.TicketRepository
	Scans       repository.ScanLogRepository
	Payments    repository.PaymentRepository
	Audit       repository.PaymentAuditRepository
	Users       repository.UserRepository
	Stations    StationUseCase
	Entitlement EntitlementUseCase
	Gateway     adapter.PaymentGateway
	QR          adapter.QREncoder
	TM          repository.TransactionManager
	ValidFor    time.Duration
}

func NewTicketUseCase(d TicketDeps, logger *zerolog.Logger) *ticketUC {
	l := logger.With().Str("component", "TicketUC").Logger()
	validFor := d.ValidFor
	if validFor <= 0 {
		validFor = 2 * time.Hour
	}
	return &ticketUC{
		tickets:     d.Tickets,
		scans:       d.Scans,
		payments:    d.Payments,
		audit:       d.Audit,
		stations:    d.Stations,
		entitlement: d.Entitlement,
		qr:          d.QR,
		checkout:    newCheckout(d.Payments, d.Users, d.Gateway, d.TM, &l),
		tm:          d.TM,
		validFor:    validFor,
		log:         &l,
	}
}

func (u *ticketUC) Purchase(ctx context.Context, userID, startStationID, endStationID string) (*TicketPurchase, error) {
	defer logging.TraceDuration(u.log, "TicketUC.Purchase")()
	log := logging.With(ctx, u.log)

	start, end, err := u.stations.Route(ctx, startStationID, endStationID)
	if err != nil {
		return nil, err
	}
	fare, err := model.CalculateFare(start, end)
	if err != nil {
		return nil, err
	}
	entitled, err := u.entitlement.HasEntitlement(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	ticket, err := model.NewTicket(userID, start, end, fare, entitled, u.validFor)
	if err != nil {
		return nil, err
	}

	if entitled {
		if err := u.tickets.Save(ctx, repository.NoTX, ticket); err != nil {
			return nil, err
		}
		metrics.IncTicketPurchase("subscription")
		log.Info().Str("ticket_id", ticket.ID).Msg("ticket issued on subscription")
		return &TicketPurchase{Ticket: ticket}, nil
	}

	payment, err := model.NewTicketPayment(ticket)
	if err != nil {
		return nil, err
	}
	// Ticket and pending payment are committed before the gateway is contacted.
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := u.tickets.Save(ctx, tx, ticket); err != nil {
			return err
		}
		if err := u.payments.Save(ctx, tx, payment); err != nil {
			return err
		}
		return u.audit.Save(ctx, tx, model.NewPaymentAuditLog(payment.ID, "", model.PaymentStatusPending, userID, "ticket purchase"))
	})
	if err != nil {
		return nil, err
	}

	session, err := u.checkout.begin(ctx, payment)
	if err != nil {
		metrics.IncTicketPurchase("failed")
		return nil, u.checkout.compensate(ctx, "ticket", err, func(ctx context.Context, tx repository.Tx) error {
			if err := deleteIfExists(u.payments.Delete(ctx, tx, payment.ID)); err != nil {
				return err
			}
			return deleteIfExists(u.tickets.Delete(ctx, tx, ticket.ID))
		})
	}

	metrics.IncTicketPurchase("payment")
	metrics.IncPayment(string(model.PaymentStatusPending))
	log.Info().
		Str("ticket_id", ticket.ID).
		Str("payment_id", payment.ID).
		Str("merchant_order_id", payment.MerchantOrderID).
		Str("fare", ticket.Fare.String()).
		Msg("ticket issued; awaiting payment")
	return &TicketPurchase{Ticket: ticket, PaymentRequired: true, Payment: payment, Checkout: session}, nil
}

func (u *ticketUC) RetryPayment(ctx context.Context, userID, ticketID string) (*TicketPurchase, error) {
	defer logging.TraceDuration(u.log, "TicketUC.RetryPayment")()

	var (
		ticket  *model.Ticket
		payment *model.Payment
	)
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		t, err := u.tickets.FindByID(ctx, tx, ticketID)
		if err != nil {
			return err
		}
		if t.UserID != userID {
			return domain.ErrForbidden
		}
		if !t.AwaitingPayment(time.Now()) {
			if t.Status == model.TicketStatusActive {
				return domain.ErrTicketExpired
			}
			return domain.ErrTicketNotUsable
		}
		// The ticket row lock serializes concurrent retries; payment rows are
		// only read here, never locked, so a callback holding one cannot deadlock us.
		if _, err := u.payments.FindPendingByTicket(ctx, tx, t.ID); err == nil {
			return domain.ErrPaymentPending
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		p, err := model.NewTicketPayment(t)
		if err != nil {
			return err
		}
		if err := u.payments.Save(ctx, tx, p); err != nil {
			return err
		}
		ticket, payment = t, p
		return u.audit.Save(ctx, tx, model.NewPaymentAuditLog(p.ID, "", model.PaymentStatusPending, userID, "payment retry"))
	})
	if err != nil {
		return nil, err
	}

	session, err := u.checkout.begin(ctx, payment)
	if err != nil {
		return nil, u.checkout.compensate(ctx, "ticket_retry", err, func(ctx context.Context, tx repository.Tx) error {
			return deleteIfExists(u.payments.Delete(ctx, tx, payment.ID))
		})
	}
	metrics.IncPayment(string(model.PaymentStatusPending))
	return &TicketPurchase{Ticket: ticket, PaymentRequired: true, Payment: payment, Checkout: session}, nil
}

func (u *ticketUC) Get(ctx context.Context, actor Actor, id string) (*model.Ticket, error) {
	t, err := u.tickets.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if !actor.canAccess(t.UserID) {
		return nil, domain.ErrForbidden
	}
	return t, nil
}

func (u *ticketUC) ListMine(ctx context.Context, userID string, limit, offset int) ([]*model.Ticket, error) {
	return u.tickets.List(ctx, repository.NoTX, repository.TicketFilter{UserID: userID, Limit: limit, Offset: offset})
}

func (u *ticketUC) ListAll(ctx context.Context, f repository.TicketFilter) ([]*model.Ticket, error) {
	return u.tickets.List(ctx, repository.NoTX, f)
}

func (u *ticketUC) QRCode(ctx context.Context, actor Actor, id string) ([]byte, error) {
	t, err := u.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return u.qr.Encode(t.QRPayload, qrSize)
}

// Scan applies a gate scan under a row lock. The scan log is written for
// refused scans too, so the transaction commits and the refusal is returned after.
func (u *ticketUC) Scan(ctx context.Context, in ScanInput) (*model.Ticket, error) {
	defer logging.TraceDuration(u.log, "TicketUC.Scan")()

	var (
		ticket  *model.Ticket
		scanErr error
	)
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		t, err := u.tickets.FindByID(ctx, tx, in.TicketID)
		if err != nil {
			return err
		}
		at := time.Now()
		entry := &model.ScanLog{
			ID:         uuid.NewString(),
			TicketID:   t.ID,
			StationID:  in.StationID,
			ScanType:   in.ScanType,
			ScanTime:   at,
			DeviceID:   in.DeviceID,
			OperatorID: in.OperatorID,
		}
		from := t.Status
		scanErr = t.ApplyScan(in.ScanType, at)
		if scanErr == nil {
			if err := u.tickets.Save(ctx, tx, t); err != nil {
				return err
			}
			entry.Success = true
		} else {
			entry.FailureReason = scanErr.Error()
		}
		ticket = t
		u.log.Debug().Str("ticket_id", t.ID).Str("from", string(from)).Str("to", string(t.Status)).Msg("scan applied")
		return u.scans.Save(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}
	if scanErr != nil {
		metrics.IncTicketScan(string(in.ScanType), "refused")
		return nil, scanErr
	}
	metrics.IncTicketScan(string(in.ScanType), "ok")
	return ticket, nil
}

func (u *ticketUC) ScanLogs(ctx context.Context, ticketID string) ([]*model.ScanLog, error) {
	if _, err := u.tickets.FindByID(ctx, repository.NoTX, ticketID); err != nil {
		return nil, err
	}
	return u.scans.ListByTicket(ctx, repository.NoTX, ticketID)
}

func (u *ticketUC) ExpireTickets(ctx context.Context, now time.Time) (int64, error) {
	n, err := u.tickets.ExpireBefore(ctx, repository.NoTX, now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.AddTicketsExpired(n)
	}
	return n, nil
}
