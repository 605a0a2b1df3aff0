//go:build !integration

package api_test

import (
	"context"
	"time"

	"cairo-metro-ticketing/internal/domain/model"
	"cairo-metro-ticketing/internal/domain/ports/repository"
	"cairo-metro-ticketing/internal/usecase"
)

// Each stub embeds its interface; calling a method without a hook panics,
// which the Recover middleware turns into a 500.

type stubUsers struct {
	usecase.UserUseCase
	register func(ctx context.Context, in usecase.RegisterInput) (*model.User, error)
	login    func(ctx context.Context, username, password string) (*usecase.LoginResult, error)
	get      func(ctx context.Context, id string) (*model.User, error)
	list     func(ctx context.Context, limit, offset int) ([]*model.User, error)
	count    func(ctx context.Context) (int, error)
	promote  func(ctx context.Context, actor usecase.Actor, id string) (*model.User, error)
}

func (s *stubUsers) Register(ctx context.Context, in usecase.RegisterInput) (*model.User, error) {
	return s.register(ctx, in)
}

func (s *stubUsers) Login(ctx context.Context, username, password string) (*usecase.LoginResult, error) {
	return s.login(ctx, username, password)
}

func (s *stubUsers) Get(ctx context.Context, id string) (*model.User, error) {
	return s.get(ctx, id)
}

func (s *stubUsers) List(ctx context.Context, limit, offset int) ([]*model.User, error) {
	return s.list(ctx, limit, offset)
}

func (s *stubUsers) Count(ctx context.Context) (int, error) {
	return s.count(ctx)
}

func (s *stubUsers) Promote(ctx context.Context, actor usecase.Actor, id string) (*model.User, error) {
	return s.promote(ctx, actor, id)
}

type stubStations struct {
	usecase.StationUseCase
	listStations func(ctx context.Context, lineID string) ([]*model.Station, error)
	quote        func(ctx context.Context, startID, endID string) (*usecase.FareQuote, error)
	createLine   func(ctx context.Context, name, color, description string) (*model.Line, error)
}

func (s *stubStations) ListStations(ctx context.Context, lineID string) ([]*model.Station, error) {
	return s.listStations(ctx, lineID)
}

func (s *stubStations) Quote(ctx context.Context, startID, endID string) (*usecase.FareQuote, error) {
	return s.quote(ctx, startID, endID)
}

func (s *stubStations) CreateLine(ctx context.Context, name, color, description string) (*model.Line, error) {
	return s.createLine(ctx, name, color, description)
}

type stubTickets struct {
	usecase.TicketUseCase
	purchase func(ctx context.Context, userID, start, end string) (*usecase.TicketPurchase, error)
	get      func(ctx context.Context, actor usecase.Actor, id string) (*model.Ticket, error)
	listAll  func(ctx context.Context, f repository.TicketFilter) ([]*model.Ticket, error)
	qr       func(ctx context.Context, actor usecase.Actor, id string) ([]byte, error)
	scan     func(ctx context.Context, in usecase.ScanInput) (*model.Ticket, error)
	scanLogs func(ctx context.Context, ticketID string) ([]*model.ScanLog, error)
}

func (s *stubTickets) Purchase(ctx context.Context, userID, start, end string) (*usecase.TicketPurchase, error) {
	return s.purchase(ctx, userID, start, end)
}

func (s *stubTickets) Get(ctx context.Context, actor usecase.Actor, id string) (*model.Ticket, error) {
	return s.get(ctx, actor, id)
}

func (s *stubTickets) ListAll(ctx context.Context, f repository.TicketFilter) ([]*model.Ticket, error) {
	return s.listAll(ctx, f)
}

func (s *stubTickets) QRCode(ctx context.Context, actor usecase.Actor, id string) ([]byte, error) {
	return s.qr(ctx, actor, id)
}

func (s *stubTickets) Scan(ctx context.Context, in usecase.ScanInput) (*model.Ticket, error) {
	return s.scan(ctx, in)
}

func (s *stubTickets) ScanLogs(ctx context.Context, ticketID string) ([]*model.ScanLog, error) {
	return s.scanLogs(ctx, ticketID)
}

type stubSubscriptions struct {
	usecase.SubscriptionUseCase
	purchase func(ctx context.Context, userID, plan string, zone int) (*usecase.SubscriptionPurchase, error)
	renew    func(ctx context.Context, actor usecase.Actor, id string, in usecase.RenewInput) (*usecase.SubscriptionPurchase, error)
}

func (s *stubSubscriptions) Purchase(ctx context.Context, userID, plan string, zone int) (*usecase.SubscriptionPurchase, error) {
	return s.purchase(ctx, userID, plan, zone)
}

func (s *stubSubscriptions) Renew(ctx context.Context, actor usecase.Actor, id string, in usecase.RenewInput) (*usecase.SubscriptionPurchase, error) {
	return s.renew(ctx, actor, id, in)
}

type stubReports struct {
	usecase.ReportUseCase
	fareSummary func(ctx context.Context, from, to time.Time) (*usecase.FareSummary, error)
	userTrips   func(ctx context.Context, userID string, limit, offset int) ([]*model.Ticket, error)
}

func (s *stubReports) FareSummary(ctx context.Context, from, to time.Time) (*usecase.FareSummary, error) {
	return s.fareSummary(ctx, from, to)
}

func (s *stubReports) UserTrips(ctx context.Context, userID string, limit, offset int) ([]*model.Ticket, error) {
	return s.userTrips(ctx, userID, limit, offset)
}

type stubPayments struct {
	usecase.PaymentUseCase
	callback func(ctx context.Context, payload []byte, sig string) (*usecase.CallbackResult, error)
}

func (s *stubPayments) HandleCallback(ctx context.Context, payload []byte, sig string) (*usecase.CallbackResult, error) {
	return s.callback(ctx, payload, sig)
}

func sampleTicket(userID string, status model.TicketStatus) *model.Ticket {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return &model.Ticket{
		ID:             "tk-1",
		UserID:         userID,
		StartStationID: "st-1",
		EndStationID:   "st-8",
		StationCount:   8,
		Fare:           model.Money(1000),
		Status:         status,
		QRPayload:      "tk-1|qr",
		CreatedAt:      now,
		ExpiresAt:      now.Add(24 * time.Hour),
	}
}
