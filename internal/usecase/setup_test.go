//go:build !integration

package usecase_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"cairo-metro-ticketing/internal/domain/model"
	"cairo-metro-ticketing/internal/usecase"
)

const (
	lineOne = "line-1"
	lineTwo = "line-2"
	riderID = "user-1"
)

// testEnv wires every use case onto one in-memory store.
type testEnv struct {
	store   *memStore
	gateway *MockPaymentGateway
	tm      *MockTxManager
	limiter *fakeLimiter

	lineRepo    *memLineRepo
	stationRepo *memStationRepo
	userRepo    *memUserRepo
	ticketRepo  *memTicketRepo
	scanRepo    *memScanRepo
	paymentRepo *memPaymentRepo
	txnRepo     *memTxnRepo
	auditRepo   *memAuditRepo
	subRepo     *memSubRepo

	stations      usecase.StationUseCase
	entitlement   usecase.EntitlementUseCase
	tickets       usecase.TicketUseCase
	subscriptions usecase.SubscriptionUseCase
	payments      usecase.PaymentUseCase
	users         usecase.UserUseCase
	reports       usecase.ReportUseCase
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	s := newMemStore()
	e := &testEnv{
		store:       s,
		gateway:     &MockPaymentGateway{},
		tm:          &MockTxManager{s: s},
		limiter:     &fakeLimiter{},
		lineRepo:    &memLineRepo{s: s},
		stationRepo: &memStationRepo{s: s},
		userRepo:    &memUserRepo{s: s},
		ticketRepo:  &memTicketRepo{s: s},
		scanRepo:    &memScanRepo{s: s},
		paymentRepo: &memPaymentRepo{s: s},
		txnRepo:     &memTxnRepo{s: s},
		auditRepo:   &memAuditRepo{s: s},
		subRepo:     &memSubRepo{s: s},
	}
	log := newTestLogger()

	e.stations = usecase.NewStationUseCase(e.lineRepo, e.stationRepo, log)
	e.entitlement = usecase.NewEntitlementUseCase(e.subRepo, log)
	e.tickets = usecase.NewTicketUseCase(usecase.TicketDeps{
		Tickets:     e.ticketRepo,
		Scans:       e.scanRepo,
		Payments:    e.paymentRepo,
		Audit:       e.auditRepo,
		Users:       e.userRepo,
		Stations:    e.stations,
		Entitlement: e.entitlement,
		Gateway:     e.gateway,
		QR:          fakeQR{},
		TM:          e.tm,
		ValidFor:    2 * time.Hour,
	}, log)
	e.subscriptions = usecase.NewSubscriptionUseCase(e.subRepo, e.paymentRepo, e.auditRepo, e.userRepo, e.entitlement, e.gateway, e.tm, log)
	e.payments = usecase.NewPaymentUseCase(usecase.PaymentDeps{
		Payments:     e.paymentRepo,
		Transactions: e.txnRepo,
		Audit:        e.auditRepo,
		Security:     &memSecurityRepo{s: s},
		Tickets:      e.ticketRepo,
		Subs:         e.subRepo,
		Gateway:      e.gateway,
		TM:           e.tm,
	}, log)
	e.users = usecase.NewUserUseCase(e.userRepo, e.tm, fakeHasher{}, fakeTokens{}, e.limiter, 10, log)
	e.reports = usecase.NewReportUseCase(e.ticketRepo, e.userRepo, log)

	e.seed(t)
	return e
}

// seed creates line-1 with 30 stations (st-1..st-30, zone rising every 5 stops),
// line-2 with one station and a rider.
func (e *testEnv) seed(t *testing.T) {
	ctx := context.Background()
	for _, id := range []string{lineOne, lineTwo} {
		l, _ := model.NewLine(id, id, "", "")
		if err := e.lineRepo.Save(ctx, nil, l); err != nil {
			t.Fatalf("seed line: %v", err)
		}
	}
	for i := 1; i <= 30; i++ {
		zone := (i-1)/5 + 1
		st, _ := model.NewStation(fmt.Sprintf("st-%d", i), fmt.Sprintf("Station %d", i), zone, lineOne, i)
		if err := e.stationRepo.Save(ctx, nil, st); err != nil {
			t.Fatalf("seed station: %v", err)
		}
	}
	other, _ := model.NewStation("other-1", "Other 1", 1, lineTwo, 1)
	_ = e.stationRepo.Save(ctx, nil, other)

	u, _ := model.NewUser(riderID, "rider", "Mona", "Adel", "+201000000001", "mona@example.com", "hashed:password1")
	if err := e.userRepo.Save(ctx, nil, u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

// activeSubscription stores an active subscription covering today.
func (e *testEnv) activeSubscription(t *testing.T, userID string, zones int) *model.Subscription {
	t.Helper()
	plan, _ := model.LookupPlan("monthly")
	sub, err := model.NewSubscription(userID, plan, zones, time.Now())
	if err != nil {
		t.Fatalf("subscription: %v", err)
	}
	sub.IsActive = true
	if err := e.subRepo.Save(context.Background(), nil, sub); err != nil {
		t.Fatalf("save subscription: %v", err)
	}
	return sub
}

func (e *testEnv) paymentsFor(ticketID string) []*model.Payment {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	var out []*model.Payment
	for _, p := range e.store.payments {
		if p.TicketID != nil && *p.TicketID == ticketID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out
}

func (e *testEnv) counts() (tickets, payments, subs int) {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	return len(e.store.tickets), len(e.store.payments), len(e.store.subs)
}
