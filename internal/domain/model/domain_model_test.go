//go:build !integration

package model

import (
	"errors"
	"strings"
	"testing"
	"time"

	"cairo-metro-ticketing/internal/domain"
)

func station(id, line string, order, zone int) *Station {
	return &Station{ID: id, Name: id, LineID: line, Order: order, Zone: zone, IsActive: true}
}

// --- Fare Tests ---

func TestCalculateFare(t *testing.T) {
	t.Run("should price tiers by station count", func(t *testing.T) {
		testCases := []struct {
			count int
			want  Money
		}{
			{1, 800},
			{9, 800},
			{10, 1000},
			{16, 1000},
			{17, 1500},
			{23, 1500},
			{24, 2000},
			{35, 2000},
		}
		for _, tc := range testCases {
			a := station("a", "L1", 1, 1)
			b := station("b", "L1", tc.count, 1)
			fare, err := CalculateFare(a, b)
			if err != nil {
				t.Fatalf("count %d: unexpected error: %v", tc.count, err)
			}
			if fare.StationCount != tc.count {
				t.Errorf("expected station count %d, got %d", tc.count, fare.StationCount)
			}
			if fare.Amount != tc.want {
				t.Errorf("count %d: expected fare %s, got %s", tc.count, tc.want, fare.Amount)
			}
		}
	})

	t.Run("should be symmetric", func(t *testing.T) {
		for i := 1; i <= 30; i++ {
			for j := 1; j <= 30; j++ {
				a := station("a", "L1", i, 1)
				b := station("b", "L1", j, 2)
				ab, err1 := CalculateFare(a, b)
				ba, err2 := CalculateFare(b, a)
				if err1 != nil || err2 != nil {
					t.Fatalf("unexpected errors: %v %v", err1, err2)
				}
				if ab != ba {
					t.Fatalf("fare(%d,%d)=%v but fare(%d,%d)=%v", i, j, ab, j, i, ba)
				}
			}
		}
	})

	t.Run("should reject stations on different lines", func(t *testing.T) {
		_, err := CalculateFare(station("a", "L1", 1, 1), station("b", "L2", 2, 1))
		if !errors.Is(err, domain.ErrInvalidRoute) {
			t.Errorf("expected ErrInvalidRoute, got %v", err)
		}
	})

	t.Run("should allow a same-station trip", func(t *testing.T) {
		s := station("a", "L1", 4, 1)
		fare, err := CalculateFare(s, s)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if fare.StationCount != 1 || fare.Amount != 800 {
			t.Errorf("unexpected fare %+v", fare)
		}
	})
}

// --- Money Tests ---

func TestMoney(t *testing.T) {
	if got := MoneyFromEGP(8); got != 800 {
		t.Errorf("expected 800, got %d", got)
	}
	if got := MoneyFromEGP(0.125); got != 12 {
		t.Errorf("expected half-even rounding to 12, got %d", got)
	}
	if got := Money(1050).String(); got != "10.50" {
		t.Errorf("expected 10.50, got %s", got)
	}
	if got := Money(-5).String(); got != "-0.05" {
		t.Errorf("expected -0.05, got %s", got)
	}
}

// --- Ticket Tests ---

func TestNewTicket(t *testing.T) {
	a := station("s1", "L1", 1, 1)
	b := station("s2", "L1", 5, 2)
	fare, _ := CalculateFare(a, b)

	t.Run("should create an active ticket at the computed fare", func(t *testing.T) {
		tk, err := NewTicket("u1", a, b, fare, false, 2*time.Hour)
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if tk.Status != TicketStatusActive {
			t.Errorf("expected status active, got %s", tk.Status)
		}
		if tk.Fare != 800 {
			t.Errorf("expected fare 800, got %d", tk.Fare)
		}
		want := "metro:" + tk.ID + ":u1:s1:s2"
		if tk.QRPayload != want {
			t.Errorf("expected QR payload %q, got %q", want, tk.QRPayload)
		}
		if d := tk.ExpiresAt.Sub(tk.CreatedAt); d != 2*time.Hour {
			t.Errorf("expected 2h validity, got %s", d)
		}
	})

	t.Run("should create a paid zero-fare ticket when entitled", func(t *testing.T) {
		tk, err := NewTicket("u1", a, b, fare, true, 2*time.Hour)
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if tk.Status != TicketStatusPaid || tk.Fare != 0 {
			t.Errorf("expected paid ticket with zero fare, got %s/%d", tk.Status, tk.Fare)
		}
	})

	t.Run("should await payment only while active and unexpired", func(t *testing.T) {
		tk, _ := NewTicket("u1", a, b, fare, false, time.Hour)
		now := time.Now()
		if !tk.AwaitingPayment(now) {
			t.Error("fresh unpaid ticket should await payment")
		}
		if tk.AwaitingPayment(now.Add(2 * time.Hour)) {
			t.Error("expired ticket must not await payment")
		}
		tk.Status = TicketStatusPaid
		if tk.AwaitingPayment(now) {
			t.Error("paid ticket must not await payment")
		}
	})

	t.Run("should fail without user", func(t *testing.T) {
		_, err := NewTicket("", a, b, fare, false, time.Hour)
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestTicketApplyScan(t *testing.T) {
	now := time.Now()
	newTicket := func(status TicketStatus) *Ticket {
		return &Ticket{ID: "t1", Status: status, ExpiresAt: now.Add(time.Hour)}
	}

	t.Run("entry then exit", func(t *testing.T) {
		tk := newTicket(TicketStatusPaid)
		if err := tk.ApplyScan(ScanEntry, now); err != nil {
			t.Fatalf("entry: %v", err)
		}
		if tk.Status != TicketStatusUsedEntry || tk.EntryTime == nil {
			t.Fatalf("expected used_entry with entry time, got %s", tk.Status)
		}
		if err := tk.ApplyScan(ScanExit, now.Add(time.Minute)); err != nil {
			t.Fatalf("exit: %v", err)
		}
		if tk.Status != TicketStatusCompleted || tk.ExitTime == nil {
			t.Fatalf("expected completed with exit time, got %s", tk.Status)
		}
	})

	t.Run("entry on unpaid ticket is refused", func(t *testing.T) {
		tk := newTicket(TicketStatusActive)
		if err := tk.ApplyScan(ScanEntry, now); !errors.Is(err, domain.ErrTicketNotUsable) {
			t.Errorf("expected ErrTicketNotUsable, got %v", err)
		}
		if tk.Status != TicketStatusActive {
			t.Errorf("status must not change, got %s", tk.Status)
		}
	})

	t.Run("entry after expiry is refused", func(t *testing.T) {
		tk := newTicket(TicketStatusPaid)
		if err := tk.ApplyScan(ScanEntry, now.Add(2*time.Hour)); !errors.Is(err, domain.ErrTicketExpired) {
			t.Errorf("expected ErrTicketExpired, got %v", err)
		}
	})

	t.Run("exit without entry is refused", func(t *testing.T) {
		tk := newTicket(TicketStatusPaid)
		if err := tk.ApplyScan(ScanExit, now); !errors.Is(err, domain.ErrTicketNotUsable) {
			t.Errorf("expected ErrTicketNotUsable, got %v", err)
		}
	})

	t.Run("unknown scan type", func(t *testing.T) {
		if _, err := ParseScanType("teleport"); !errors.Is(err, domain.ErrInvalidScan) {
			t.Errorf("expected ErrInvalidScan, got %v", err)
		}
	})
}

// --- Subscription Tests ---

func TestSubscriptionEntitles(t *testing.T) {
	plan, err := LookupPlan("Monthly")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	start := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)
	sub, err := NewSubscription("u1", plan, 3, start)
	if err != nil {
		t.Fatalf("expected no error, but got: %v", err)
	}
	if sub.IsActive {
		t.Fatal("new subscription must start inactive")
	}
	if sub.Price != 18000 {
		t.Errorf("expected monthly price 18000, got %d", sub.Price)
	}
	if !sub.EndDate.Equal(time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected end date %s", sub.EndDate)
	}

	if sub.Entitles(start, 1) {
		t.Error("inactive subscription must not entitle")
	}
	sub.IsActive = true

	testCases := []struct {
		name string
		day  time.Time
		zone int
		want bool
	}{
		{"first day", start, 3, true},
		{"last day inclusive", time.Date(2024, 3, 31, 23, 0, 0, 0, time.UTC), 1, true},
		{"after end", time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), 1, false},
		{"before start", time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), 1, false},
		{"zone above coverage", start, 4, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := sub.Entitles(tc.day, tc.zone); got != tc.want {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestNewSubscriptionValidation(t *testing.T) {
	plan, _ := LookupPlan("yearly")
	if _, err := NewSubscription("u1", plan, 7, time.Now()); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for zone 7, got %v", err)
	}
	sub, err := NewSubscription("u1", plan, 0, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.ZoneCoverage != MaxZoneCoverage {
		t.Errorf("expected default coverage %d, got %d", MaxZoneCoverage, sub.ZoneCoverage)
	}
	if _, err := LookupPlan("weekly"); !errors.Is(err, domain.ErrInvalidPlan) {
		t.Errorf("expected ErrInvalidPlan, got %v", err)
	}
}

func TestSubscriptionCancelledNeverEntitles(t *testing.T) {
	plan, _ := LookupPlan("monthly")
	now := time.Now()
	sub, _ := NewSubscription("u1", plan, 6, now)
	sub.IsActive = true
	sub.CancelledAt = &now

	if sub.Entitles(now, 1) {
		t.Error("cancelled subscription must not entitle even when flagged active")
	}
}

func TestSubscriptionRenewalStart(t *testing.T) {
	plan, _ := LookupPlan("monthly")
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	sub, _ := NewSubscription("u1", plan, 6, start)
	sub.IsActive = true
	cancelled := start

	testCases := []struct {
		name   string
		today  time.Time
		mutate func(s *Subscription)
		want   time.Time
	}{
		{"running period extends from its end", time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC), nil, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)},
		{"last day still extends", time.Date(2024, 3, 31, 22, 0, 0, 0, time.UTC), nil, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)},
		{"lapsed period restarts today", time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC), nil, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)},
		{"unpaid period restarts today", time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC), func(s *Subscription) { s.IsActive = false }, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)},
		{"cancelled period restarts today", time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC), func(s *Subscription) { s.CancelledAt = &cancelled }, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := *sub
			if tc.mutate != nil {
				tc.mutate(&s)
			}
			if got := s.RenewalStart(tc.today); !got.Equal(tc.want) {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

// --- Payment Tests ---

func TestNewTicketPayment(t *testing.T) {
	tk := &Ticket{ID: "t1", UserID: "u1", Fare: 1500}
	p, err := NewTicketPayment(tk)
	if err != nil {
		t.Fatalf("expected no error, but got: %v", err)
	}
	if p.Status != PaymentStatusPending || p.Amount != tk.Fare || p.Currency != CurrencyEGP {
		t.Errorf("unexpected payment %+v", p)
	}
	if p.TicketID == nil || *p.TicketID != "t1" || p.SubscriptionID != nil {
		t.Errorf("payment must link only the ticket")
	}
	if len(p.MerchantOrderID) != 26 {
		t.Errorf("expected ULID correlation id, got %q", p.MerchantOrderID)
	}

	other, _ := NewTicketPayment(tk)
	if other.MerchantOrderID == p.MerchantOrderID {
		t.Error("correlation ids must be unique per payment")
	}

	if _, err := NewTicketPayment(&Ticket{ID: "t2", UserID: "u1"}); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("zero-fare ticket must not get a payment, got %v", err)
	}
}

// --- User Tests ---

func TestUserLockout(t *testing.T) {
	u, err := NewUser("", "rider", "Mona", "Adel", "+201000000000", "", "hash")
	if err != nil {
		t.Fatalf("expected no error, but got: %v", err)
	}
	for i := 0; i < MaxFailedLoginAttempts-1; i++ {
		u.RecordFailedLogin()
	}
	if u.IsLocked {
		t.Fatal("account locked too early")
	}
	u.RecordFailedLogin()
	if !u.IsLocked {
		t.Fatal("expected account to be locked")
	}

	u2, _ := NewUser("", "rider2", "", "", "+201000000001", "", "hash")
	u2.RecordFailedLogin()
	u2.RecordLogin(time.Now())
	if u2.FailedLoginAttempts != 0 || u2.LastLoginAt == nil {
		t.Errorf("successful login must reset counter")
	}

	if _, err := NewUser("", "  ", "", "", "+20", "", "hash"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
	if !strings.HasPrefix(u.Phone, "+20") {
		t.Errorf("phone not stored")
	}
}
