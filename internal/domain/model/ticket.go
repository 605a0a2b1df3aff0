package model

import (
	"fmt"
	"time"

	"cairo-metro-ticketing/internal/domain"

	"github.com/google/uuid"
)

type TicketStatus string

const (
	TicketStatusActive    TicketStatus = "active"     // created, awaiting payment
	TicketStatusPaid      TicketStatus = "paid"       // covered by subscription or payment reconciled
	TicketStatusUsedEntry TicketStatus = "used_entry" // entry gate scanned
	TicketStatusCompleted TicketStatus = "completed"  // exit gate scanned
	TicketStatusExpired   TicketStatus = "expired"
)

type Ticket struct {
	ID             string
	UserID         string
	StartStationID string
	EndStationID   string
	StationCount   int
	Fare           Money
	Status         TicketStatus
	QRPayload      string
	CreatedAt      time.Time
	EntryTime      *time.Time
	ExitTime       *time.Time
	ExpiresAt      time.Time
}

// NewTicket builds a ticket for a priced trip. Entitled riders get a zero fare and
// a ticket that is already paid; everyone else starts active at the computed fare.
func NewTicket(userID string, start, end *Station, fare Fare, entitled bool, validFor time.Duration) (*Ticket, error) {
	if userID == "" || start == nil || end == nil || validFor <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	t := &Ticket{
		ID:             uuid.NewString(),
		UserID:         userID,
		StartStationID: start.ID,
		EndStationID:   end.ID,
		StationCount:   fare.StationCount,
		Fare:           fare.Amount,
		Status:         TicketStatusActive,
		CreatedAt:      now,
		ExpiresAt:      now.Add(validFor),
	}
	if entitled {
		t.Fare = 0
		t.Status = TicketStatusPaid
	}
	t.QRPayload = fmt.Sprintf("metro:%s:%s:%s:%s", t.ID, userID, start.ID, end.ID)
	return t, nil
}

func (t *Ticket) IsExpired(now time.Time) bool { return !now.Before(t.ExpiresAt) }

// AwaitingPayment reports whether a payment may still be started for this ticket.
func (t *Ticket) AwaitingPayment(now time.Time) bool {
	return t.Status == TicketStatusActive && !t.IsExpired(now)
}

type ScanType string

const (
	ScanEntry ScanType = "entry"
	ScanExit  ScanType = "exit"
)

func ParseScanType(s string) (ScanType, error) {
	switch ScanType(s) {
	case ScanEntry, ScanExit:
		return ScanType(s), nil
	}
	return "", domain.ErrInvalidScan
}

// ApplyScan moves the ticket through its gate state machine:
// paid -> used_entry on entry, used_entry -> completed on exit.
func (t *Ticket) ApplyScan(scan ScanType, at time.Time) error {
	switch scan {
	case ScanEntry:
		if t.Status != TicketStatusPaid {
			return domain.ErrTicketNotUsable
		}
		if t.IsExpired(at) {
			return domain.ErrTicketExpired
		}
		t.EntryTime = &at
		t.Status = TicketStatusUsedEntry
	case ScanExit:
		if t.Status != TicketStatusUsedEntry {
			return domain.ErrTicketNotUsable
		}
		t.ExitTime = &at
		t.Status = TicketStatusCompleted
	default:
		return domain.ErrInvalidScan
	}
	return nil
}

// ScanLog records every gate scan attempt, successful or not.
type ScanLog struct {
	ID            string
	TicketID      string
	StationID     string
	ScanType      ScanType
	ScanTime      time.Time
	Success       bool
	FailureReason string
	DeviceID      string
	OperatorID    string
}
