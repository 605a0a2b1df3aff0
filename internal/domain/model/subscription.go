package model

import (
	"time"

	"cairo-metro-ticketing/internal/domain"

	"github.com/google/uuid"
)

const (
	MinZone         = 1
	MaxZoneCoverage = 6
)

// Subscription grants travel without per-ride payment inside its zone coverage.
// It is created inactive and activated once its payment is reconciled.
type Subscription struct {
	ID           string
	UserID       string
	PlanType     PlanType
	ZoneCoverage int
	Price        Money
	StartDate    time.Time // date only, UTC midnight
	EndDate      time.Time // inclusive
	IsActive     bool
	CreatedAt    time.Time
	// CancelledAt is set once the rider cancels; a cancelled subscription is never reactivated.
	CancelledAt *time.Time
}

// NewSubscription starts on the given day and ends DurationDays later.
// A zero zoneCoverage means full coverage.
func NewSubscription(userID string, plan SubscriptionPlan, zoneCoverage int, start time.Time) (*Subscription, error) {
	if userID == "" || plan.DurationDays <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	if zoneCoverage == 0 {
		zoneCoverage = MaxZoneCoverage
	}
	if zoneCoverage < MinZone || zoneCoverage > MaxZoneCoverage {
		return nil, domain.ErrInvalidArgument
	}
	day := Date(start)
	return &Subscription{
		ID:           uuid.NewString(),
		UserID:       userID,
		PlanType:     plan.Type,
		ZoneCoverage: zoneCoverage,
		Price:        plan.Price,
		StartDate:    day,
		EndDate:      day.AddDate(0, 0, plan.DurationDays),
		IsActive:     false,
		CreatedAt:    time.Now(),
	}, nil
}

func (s *Subscription) IsCancelled() bool { return s.CancelledAt != nil }

// RenewalStart is the first day of a renewal of s: the day after the current
// period when that period still runs today, otherwise today.
func (s *Subscription) RenewalStart(today time.Time) time.Time {
	d := Date(today)
	if s.IsActive && !s.IsCancelled() && !s.EndDate.Before(d) {
		return s.EndDate.AddDate(0, 0, 1)
	}
	return d
}

// Entitles reports whether the subscription covers a trip touching maxZone on the given day.
func (s *Subscription) Entitles(today time.Time, maxZone int) bool {
	if s == nil || !s.IsActive || s.IsCancelled() {
		return false
	}
	d := Date(today)
	if d.Before(s.StartDate) || d.After(s.EndDate) {
		return false
	}
	return s.ZoneCoverage >= maxZone
}

// Date truncates t to midnight UTC of its calendar day in UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
