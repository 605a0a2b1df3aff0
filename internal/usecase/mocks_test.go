//go:build !integration

package usecase_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"cairo-metro-ticketing/internal/domain"
	"cairo-metro-ticketing/internal/domain/model"
	"cairo-metro-ticketing/internal/domain/ports/adapter"
	"cairo-metro-ticketing/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

// =============================
// In-memory store
// =============================

// memStore backs every in-memory repository. WithTx holds txMu for the whole
// transaction, which gives the same single-writer guarantee as a row lock,
// and restores a snapshot when fn fails.
type memStore struct {
	mu   sync.Mutex
	txMu sync.Mutex

	lines    map[string]*model.Line
	stations map[string]*model.Station
	users    map[string]*model.User
	tickets  map[string]*model.Ticket
	payments map[string]*model.Payment
	subs     map[string]*model.Subscription
	scans    []*model.ScanLog
	txns     []*model.PaymentTransaction
	audits   []*model.PaymentAuditLog
	security []*model.SecurityEvent

	// DeleteErr is returned by every Delete, to simulate a failing rollback.
	DeleteErr error
}

func newMemStore() *memStore {
	return &memStore{
		lines:    map[string]*model.Line{},
		stations: map[string]*model.Station{},
		users:    map[string]*model.User{},
		tickets:  map[string]*model.Ticket{},
		payments: map[string]*model.Payment{},
		subs:     map[string]*model.Subscription{},
	}
}

type memSnapshot struct {
	tickets  map[string]model.Ticket
	payments map[string]model.Payment
	subs     map[string]model.Subscription
	users    map[string]model.User
	scans    []*model.ScanLog
	txns     []*model.PaymentTransaction
	audits   []*model.PaymentAuditLog
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := memSnapshot{
		tickets:  map[string]model.Ticket{},
		payments: map[string]model.Payment{},
		subs:     map[string]model.Subscription{},
		users:    map[string]model.User{},
		scans:    append([]*model.ScanLog(nil), s.scans...),
		txns:     append([]*model.PaymentTransaction(nil), s.txns...),
		audits:   append([]*model.PaymentAuditLog(nil), s.audits...),
	}
	for k, v := range s.tickets {
		snap.tickets[k] = *v
	}
	for k, v := range s.payments {
		snap.payments[k] = *v
	}
	for k, v := range s.subs {
		snap.subs[k] = *v
	}
	for k, v := range s.users {
		snap.users[k] = *v
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets = map[string]*model.Ticket{}
	for k, v := range snap.tickets {
		v := v
		s.tickets[k] = &v
	}
	s.payments = map[string]*model.Payment{}
	for k, v := range snap.payments {
		v := v
		s.payments[k] = &v
	}
	s.subs = map[string]*model.Subscription{}
	for k, v := range snap.subs {
		v := v
		s.subs[k] = &v
	}
	s.users = map[string]*model.User{}
	for k, v := range snap.users {
		v := v
		s.users[k] = &v
	}
	s.scans, s.txns, s.audits = snap.scans, snap.txns, snap.audits
}

// ---- Transaction manager ----

type memTx struct{}

type MockTxManager struct {
	s *memStore
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func (m *MockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.s.txMu.Lock()
	defer m.s.txMu.Unlock()
	snap := m.s.snapshot()
	if err := fn(ctx, memTx{}); err != nil {
		m.s.restore(snap)
		return err
	}
	return nil
}

// ---- Lines & stations ----

type memLineRepo struct{ s *memStore }

var _ repository.LineRepository = (*memLineRepo)(nil)

func (r *memLineRepo) Save(ctx context.Context, tx repository.Tx, l *model.Line) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *l
	r.s.lines[l.ID] = &cp
	return nil
}

func (r *memLineRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Line, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.lines[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *memLineRepo) FindByName(ctx context.Context, tx repository.Tx, name string) (*model.Line, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, l := range r.s.lines {
		if l.Name == name {
			cp := *l
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memLineRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Line, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.Line
	for _, l := range r.s.lines {
		if l.IsActive {
			cp := *l
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type memStationRepo struct{ s *memStore }

var _ repository.StationRepository = (*memStationRepo)(nil)

func (r *memStationRepo) Save(ctx context.Context, tx repository.Tx, st *model.Station) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.stations {
		if o.ID != st.ID && o.LineID == st.LineID && o.Order == st.Order {
			return domain.ErrAlreadyExists
		}
	}
	cp := *st
	r.s.stations[st.ID] = &cp
	return nil
}

func (r *memStationRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Station, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st, ok := r.s.stations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *st
	return &cp, nil
}

func (r *memStationRepo) ListByLine(ctx context.Context, tx repository.Tx, lineID string) ([]*model.Station, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.Station
	for _, st := range r.s.stations {
		if lineID == "" || st.LineID == lineID {
			cp := *st
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LineID != out[j].LineID {
			return out[i].LineID < out[j].LineID
		}
		return out[i].Order < out[j].Order
	})
	return out, nil
}

// ---- Users ----

type memUserRepo struct{ s *memStore }

var _ repository.UserRepository = (*memUserRepo)(nil)

func (r *memUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.users {
		if o.ID != u.ID && (strings.EqualFold(o.Username, u.Username) || o.Phone == u.Phone) {
			return domain.ErrAlreadyExists
		}
	}
	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

func (r *memUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) FindByUsername(ctx context.Context, tx repository.Tx, username string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Username, username) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memUserRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.users), nil
}

func (r *memUserRepo) List(ctx context.Context, tx repository.Tx, limit, offset int) ([]*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.User
	for _, u := range r.s.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ---- Tickets & scans ----

type memTicketRepo struct{ s *memStore }

var _ repository.TicketRepository = (*memTicketRepo)(nil)

func (r *memTicketRepo) Save(ctx context.Context, tx repository.Tx, t *model.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *t
	r.s.tickets[t.ID] = &cp
	return nil
}

func (r *memTicketRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tickets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *memTicketRepo) List(ctx context.Context, tx repository.Tx, f repository.TicketFilter) ([]*model.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.Ticket
	for _, t := range r.s.tickets {
		if f.UserID != "" && t.UserID != f.UserID {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if !f.CreatedOn.IsZero() && !model.Date(t.CreatedAt).Equal(model.Date(f.CreatedOn)) {
			continue
		}
		if f.EnteredOnly && t.EntryTime == nil {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	if f.EnteredOnly {
		sort.Slice(out, func(i, j int) bool { return out[i].EntryTime.After(*out[j].EntryTime) })
	} else {
		sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	}
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *memTicketRepo) UpdateStatusIf(ctx context.Context, tx repository.Tx, id string, from, to model.TicketStatus) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tickets[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if t.Status != from {
		return false, nil
	}
	t.Status = to
	return true, nil
}

func (r *memTicketRepo) FareSummary(ctx context.Context, tx repository.Tx, from, to time.Time) (int, model.Money, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var (
		n     int
		total model.Money
	)
	for _, t := range r.s.tickets {
		if t.EntryTime != nil && !t.EntryTime.Before(from) && t.EntryTime.Before(to) {
			n++
			total += t.Fare
		}
	}
	return n, total, nil
}

func (r *memTicketRepo) ExpireBefore(ctx context.Context, tx repository.Tx, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, t := range r.s.tickets {
		switch t.Status {
		case model.TicketStatusActive, model.TicketStatusPaid, model.TicketStatusUsedEntry:
			if !now.Before(t.ExpiresAt) {
				t.Status = model.TicketStatusExpired
				n++
			}
		}
	}
	return n, nil
}

func (r *memTicketRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.DeleteErr != nil {
		return r.s.DeleteErr
	}
	if _, ok := r.s.tickets[id]; !ok {
		return domain.ErrNotFound
	}
	for _, p := range r.s.payments {
		if p.TicketID != nil && *p.TicketID == id {
			return fmt.Errorf("%w: ticket %s still referenced by payment %s", domain.ErrOperationFailed, id, p.ID)
		}
	}
	delete(r.s.tickets, id)
	return nil
}

type memScanRepo struct{ s *memStore }

var _ repository.ScanLogRepository = (*memScanRepo)(nil)

func (r *memScanRepo) Save(ctx context.Context, tx repository.Tx, l *model.ScanLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *l
	r.s.scans = append(r.s.scans, &cp)
	return nil
}

func (r *memScanRepo) ListByTicket(ctx context.Context, tx repository.Tx, ticketID string) ([]*model.ScanLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.ScanLog
	for _, l := range r.s.scans {
		if l.TicketID == ticketID {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ---- Payments ----

type memPaymentRepo struct{ s *memStore }

var _ repository.PaymentRepository = (*memPaymentRepo)(nil)

func (r *memPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *p
	r.s.payments[p.ID] = &cp
	return nil
}

func (r *memPaymentRepo) findBy(match func(p *model.Payment) bool) (*model.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.payments {
		if match(p) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	return r.findBy(func(p *model.Payment) bool { return p.ID == id })
}

func (r *memPaymentRepo) FindByMerchantOrderID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	return r.findBy(func(p *model.Payment) bool { return p.MerchantOrderID == id })
}

func (r *memPaymentRepo) FindByGatewayOrderID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	return r.findBy(func(p *model.Payment) bool { return p.GatewayOrderID != "" && p.GatewayOrderID == id })
}

func (r *memPaymentRepo) FindPendingByTicket(ctx context.Context, tx repository.Tx, ticketID string) (*model.Payment, error) {
	return r.findBy(func(p *model.Payment) bool {
		return p.TicketID != nil && *p.TicketID == ticketID && p.Status == model.PaymentStatusPending
	})
}

func (r *memPaymentRepo) FindPendingBySubscription(ctx context.Context, tx repository.Tx, subID string) (*model.Payment, error) {
	return r.findBy(func(p *model.Payment) bool {
		return p.SubscriptionID != nil && *p.SubscriptionID == subID && p.Status == model.PaymentStatusPending
	})
}

func (r *memPaymentRepo) CountByTicket(ctx context.Context, tx repository.Tx, ticketID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, p := range r.s.payments {
		if p.TicketID != nil && *p.TicketID == ticketID {
			n++
		}
	}
	return n, nil
}

func (r *memPaymentRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit, offset int) ([]*model.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.Payment
	for _, p := range r.s.payments {
		if p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memPaymentRepo) ListStalePending(ctx context.Context, tx repository.Tx, olderThan time.Time, withGatewayOrder bool, limit int) ([]*model.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.Payment
	for _, p := range r.s.payments {
		if p.Status == model.PaymentStatusPending && p.CreatedAt.Before(olderThan) && (p.GatewayOrderID != "") == withGatewayOrder {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memPaymentRepo) AttachGatewayOrder(ctx context.Context, tx repository.Tx, id, gatewayOrderID, paymentKey string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.payments[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.GatewayOrderID, p.PaymentKey = gatewayOrderID, paymentKey
	return nil
}

func (r *memPaymentRepo) SettleIfPending(ctx context.Context, tx repository.Tx, in *model.Payment) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.payments[in.ID]
	if !ok {
		return false, domain.ErrNotFound
	}
	if p.Status != model.PaymentStatusPending {
		return false, nil
	}
	cp := *in
	r.s.payments[in.ID] = &cp
	return true, nil
}

func (r *memPaymentRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.payments[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if p.Status != model.PaymentStatusPending {
		return false, nil
	}
	p.Status = status
	return true, nil
}

// Delete cascades to audit rows the way the schema does.
func (r *memPaymentRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.DeleteErr != nil {
		return r.s.DeleteErr
	}
	if _, ok := r.s.payments[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.payments, id)
	kept := r.s.audits[:0:0]
	for _, a := range r.s.audits {
		if a.PaymentID != id {
			kept = append(kept, a)
		}
	}
	r.s.audits = kept
	return nil
}

type memTxnRepo struct{ s *memStore }

var _ repository.PaymentTransactionRepository = (*memTxnRepo)(nil)

func (r *memTxnRepo) Save(ctx context.Context, tx repository.Tx, pt *model.PaymentTransaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *pt
	r.s.txns = append(r.s.txns, &cp)
	return nil
}

func (r *memTxnRepo) ListByPayment(ctx context.Context, tx repository.Tx, paymentID string) ([]*model.PaymentTransaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.PaymentTransaction
	for _, t := range r.s.txns {
		if t.PaymentID == paymentID {
			out = append(out, t)
		}
	}
	return out, nil
}

type memAuditRepo struct{ s *memStore }

var _ repository.PaymentAuditRepository = (*memAuditRepo)(nil)

func (r *memAuditRepo) Save(ctx context.Context, tx repository.Tx, l *model.PaymentAuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *l
	r.s.audits = append(r.s.audits, &cp)
	return nil
}

func (r *memAuditRepo) ListByPayment(ctx context.Context, tx repository.Tx, paymentID string) ([]*model.PaymentAuditLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.PaymentAuditLog
	for _, a := range r.s.audits {
		if a.PaymentID == paymentID {
			out = append(out, a)
		}
	}
	return out, nil
}

type memSecurityRepo struct{ s *memStore }

var _ repository.SecurityEventRepository = (*memSecurityRepo)(nil)

func (r *memSecurityRepo) Save(ctx context.Context, tx repository.Tx, e *model.SecurityEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.security = append(r.s.security, e)
	return nil
}

// ---- Subscriptions ----

type memSubRepo struct{ s *memStore }

var _ repository.SubscriptionRepository = (*memSubRepo)(nil)

func (r *memSubRepo) Save(ctx context.Context, tx repository.Tx, sub *model.Subscription) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *sub
	r.s.subs[sub.ID] = &cp
	return nil
}

func (r *memSubRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	s, ok := r.s.subs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *memSubRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Subscription, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.Subscription
	for _, s := range r.s.subs {
		if s.UserID == userID {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memSubRepo) Activate(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	s, ok := r.s.subs[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if s.CancelledAt != nil {
		return false, nil
	}
	s.IsActive = true
	return true, nil
}

func (r *memSubRepo) Cancel(ctx context.Context, tx repository.Tx, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	s, ok := r.s.subs[id]
	if !ok {
		return domain.ErrNotFound
	}
	s.IsActive = false
	if s.CancelledAt == nil {
		s.CancelledAt = &at
	}
	return nil
}

func (r *memSubRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.DeleteErr != nil {
		return r.s.DeleteErr
	}
	if _, ok := r.s.subs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.subs, id)
	return nil
}

// =============================
// Adapters
// =============================

// ---- Mock PaymentGateway ----

type MockPaymentGateway struct {
	mu sync.Mutex

	AuthErr  error
	OrderErr error
	KeyErr   error

	Orders map[string]string // gateway order id -> merchant order id
	Calls  int
}

var _ adapter.PaymentGateway = (*MockPaymentGateway)(nil)

func (m *MockPaymentGateway) Name() string { return "mock" }

func (m *MockPaymentGateway) Authenticate(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.AuthErr != nil {
		return "", m.AuthErr
	}
	return "auth-token", nil
}

func (m *MockPaymentGateway) CreateOrder(ctx context.Context, token string, amountCents int64, currency, merchantOrderID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.OrderErr != nil {
		return "", m.OrderErr
	}
	if m.Orders == nil {
		m.Orders = map[string]string{}
	}
	id := fmt.Sprintf("%d", 1000+len(m.Orders))
	m.Orders[id] = merchantOrderID
	return id, nil
}

func (m *MockPaymentGateway) PaymentKey(ctx context.Context, token, orderID string, amountCents int64, currency string, billing adapter.BillingData) (string, error) {
	if m.KeyErr != nil {
		return "", m.KeyErr
	}
	return "pay-key-" + orderID, nil
}

func (m *MockPaymentGateway) CheckoutURL(paymentToken string) string {
	return "https://checkout.example/iframe?payment_token=" + paymentToken
}

func (m *MockPaymentGateway) VerifyCallback(payload []byte, signature string) bool {
	return signature == signPayload(payload)
}

func (m *MockPaymentGateway) ParseCallback(payload []byte) (*adapter.CallbackEvent, error) {
	var evt adapter.CallbackEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return nil, err
	}
	evt.Raw = payload
	return &evt, nil
}

func signPayload(payload []byte) string {
	sum := sha256.Sum256(append([]byte("test-secret:"), payload...))
	return hex.EncodeToString(sum[:])
}

// callbackFor builds a signed callback body for a payment.
func callbackFor(p *model.Payment, success bool, mutate ...func(e *adapter.CallbackEvent)) ([]byte, string) {
	evt := adapter.CallbackEvent{
		TransactionID:     "txn-" + p.ID[:8],
		GatewayOrderID:    p.GatewayOrderID,
		MerchantOrderID:   p.MerchantOrderID,
		AmountCents:       p.Amount.MinorUnits(),
		Currency:          "EGP",
		Success:           success,
		SourceDataType:    "card",
		SourceDataSubType: "MasterCard",
		MaskedPAN:         "xxxx-xxxx-xxxx-2346",
		ResponseCode:      "APPROVED",
	}
	for _, fn := range mutate {
		fn(&evt)
	}
	b, _ := json.Marshal(evt)
	return b, signPayload(b)
}

// ---- Identity fakes ----

type fakeHasher struct{}

func (fakeHasher) Hash(pw string) (string, error) { return "hashed:" + pw, nil }
func (fakeHasher) Compare(hash, pw string) error {
	if hash != "hashed:"+pw {
		return errors.New("mismatch")
	}
	return nil
}

type fakeTokens struct{}

func (fakeTokens) Issue(c adapter.Claims) (string, time.Time, error) {
	return "token-" + c.UserID, time.Now().Add(time.Hour), nil
}

func (fakeTokens) Parse(token string) (*adapter.Claims, error) {
	return &adapter.Claims{UserID: strings.TrimPrefix(token, "token-")}, nil
}

type fakeLimiter struct {
	mu     sync.Mutex
	counts map[string]int
}

func (f *fakeLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.counts == nil {
		f.counts = map[string]int{}
	}
	f.counts[key]++
	return f.counts[key] <= limit, nil
}

type fakeQR struct{}

func (fakeQR) Encode(payload string, size int) ([]byte, error) { return []byte(payload), nil }
