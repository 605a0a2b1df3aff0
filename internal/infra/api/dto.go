package api

import (
	"time"

	"cairo-metro-ticketing/internal/domain/model"
	"cairo-metro-ticketing/internal/usecase"
)

const dateLayout = "2006-01-02"

// requests

type registerRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=50"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
	Phone     string `json:"phone" validate:"required,e164"`
	Email     string `json:"email" validate:"omitempty,email,max=254"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type routeRequest struct {
	StartStationID string `json:"start_station_id" validate:"required"`
	EndStationID   string `json:"end_station_id" validate:"required"`
}

type scanRequest struct {
	StationID string `json:"station_id" validate:"max=64"`
	ScanType  string `json:"scan_type" validate:"required,oneof=entry exit"`
	DeviceID  string `json:"device_id" validate:"max=64"`
}

type subscriptionRequest struct {
	PlanType     string `json:"plan_type" validate:"required,oneof=monthly quarterly yearly"`
	ZoneCoverage int    `json:"zone_coverage" validate:"omitempty,min=1,max=6"`
}

type renewRequest struct {
	PlanType     string `json:"plan_type" validate:"omitempty,oneof=monthly quarterly yearly"`
	ZoneCoverage int    `json:"zone_coverage" validate:"omitempty,min=1,max=6"`
}

type createLineRequest struct {
	Name        string `json:"name" validate:"required,max=50"`
	Color       string `json:"color" validate:"max=20"`
	Description string `json:"description" validate:"max=500"`
}

type createStationRequest struct {
	Name   string `json:"name" validate:"required,max=100"`
	Zone   int    `json:"zone" validate:"required,min=1,max=6"`
	LineID string `json:"line_id" validate:"required"`
	Order  int    `json:"order" validate:"required,min=1"`
}

// views

type userView struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name,omitempty"`
	Phone        string    `json:"phone"`
	Email        string    `json:"email,omitempty"`
	IsAdmin      bool      `json:"is_admin"`
	RegisteredAt time.Time `json:"registered_at"`
}

func toUserView(u *model.User) userView {
	return userView{
		ID:           u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Phone:        u.Phone,
		Email:        u.Email,
		IsAdmin:      u.IsAdmin,
		RegisteredAt: u.RegisteredAt,
	}
}

type userListResponse struct {
	Total int        `json:"total"`
	Users []userView `json:"users"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      userView  `json:"user"`
}

type lineView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color,omitempty"`
	Description string `json:"description,omitempty"`
}

func toLineView(l *model.Line) lineView {
	return lineView{ID: l.ID, Name: l.Name, Color: l.Color, Description: l.Description}
}

type stationView struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Zone   int    `json:"zone"`
	LineID string `json:"line_id"`
	Order  int    `json:"order"`
}

func toStationView(s *model.Station) stationView {
	return stationView{ID: s.ID, Name: s.Name, Zone: s.Zone, LineID: s.LineID, Order: s.Order}
}

type quoteView struct {
	Start        stationView `json:"start"`
	End          stationView `json:"end"`
	Line         lineView    `json:"line"`
	StationCount int         `json:"station_count"`
	Fare         string      `json:"fare"`
	Currency     string      `json:"currency"`
}

func toQuoteView(q *usecase.FareQuote) quoteView {
	return quoteView{
		Start:        toStationView(q.Start),
		End:          toStationView(q.End),
		Line:         toLineView(q.Line),
		StationCount: q.Fare.StationCount,
		Fare:         q.Fare.Amount.String(),
		Currency:     model.CurrencyEGP,
	}
}

type ticketView struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	StartStationID string     `json:"start_station_id"`
	EndStationID   string     `json:"end_station_id"`
	StationCount   int        `json:"station_count"`
	Fare           string     `json:"fare"`
	Status         string     `json:"status"`
	QRPayload      string     `json:"qr_payload"`
	CreatedAt      time.Time  `json:"created_at"`
	EntryTime      *time.Time `json:"entry_time,omitempty"`
	ExitTime       *time.Time `json:"exit_time,omitempty"`
	ExpiresAt      time.Time  `json:"expires_at"`
}

func toTicketView(t *model.Ticket) ticketView {
	return ticketView{
		ID:             t.ID,
		UserID:         t.UserID,
		StartStationID: t.StartStationID,
		EndStationID:   t.EndStationID,
		StationCount:   t.StationCount,
		Fare:           t.Fare.String(),
		Status:         string(t.Status),
		QRPayload:      t.QRPayload,
		CreatedAt:      t.CreatedAt,
		EntryTime:      t.EntryTime,
		ExitTime:       t.ExitTime,
		ExpiresAt:      t.ExpiresAt,
	}
}

func toTicketViews(ts []*model.Ticket) []ticketView {
	out := make([]ticketView, 0, len(ts))
	for _, t := range ts {
		out = append(out, toTicketView(t))
	}
	return out
}

type ticketPurchaseResponse struct {
	TicketID        string     `json:"ticket_id"`
	Fare            string     `json:"fare"`
	PaymentRequired bool       `json:"payment_required"`
	PaymentID       string     `json:"payment_id,omitempty"`
	PaymentURL      string     `json:"payment_url,omitempty"`
	PaymentToken    string     `json:"payment_token,omitempty"`
	Ticket          ticketView `json:"ticket"`
}

func toTicketPurchaseResponse(p *usecase.TicketPurchase) ticketPurchaseResponse {
	resp := ticketPurchaseResponse{
		TicketID:        p.Ticket.ID,
		Fare:            p.Ticket.Fare.String(),
		PaymentRequired: p.PaymentRequired,
		Ticket:          toTicketView(p.Ticket),
	}
	if p.Checkout != nil {
		resp.PaymentID = p.Checkout.PaymentID
		resp.PaymentURL = p.Checkout.URL
		resp.PaymentToken = p.Checkout.PaymentToken
	}
	return resp
}

type subscriptionView struct {
	ID           string    `json:"id"`
	PlanType     string    `json:"plan_type"`
	ZoneCoverage int       `json:"zone_coverage"`
	Price        string    `json:"price"`
	StartDate    string    `json:"start_date"`
	EndDate      string    `json:"end_date"`
	IsActive     bool       `json:"is_active"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func toSubscriptionView(s *model.Subscription) subscriptionView {
	return subscriptionView{
		ID:           s.ID,
		PlanType:     string(s.PlanType),
		ZoneCoverage: s.ZoneCoverage,
		Price:        s.Price.String(),
		StartDate:    s.StartDate.Format(dateLayout),
		EndDate:      s.EndDate.Format(dateLayout),
		IsActive:     s.IsActive,
		CancelledAt:  s.CancelledAt,
		CreatedAt:    s.CreatedAt,
	}
}

type scanLogView struct {
	ID            string    `json:"id"`
	TicketID      string    `json:"ticket_id"`
	StationID     string    `json:"station_id,omitempty"`
	ScanType      string    `json:"scan_type"`
	ScanTime      time.Time `json:"scan_time"`
	DeviceID      string    `json:"device_id,omitempty"`
	OperatorID    string    `json:"operator_id,omitempty"`
	Success       bool      `json:"success"`
	FailureReason string    `json:"failure_reason,omitempty"`
}

func toScanLogView(l *model.ScanLog) scanLogView {
	return scanLogView{
		ID:            l.ID,
		TicketID:      l.TicketID,
		StationID:     l.StationID,
		ScanType:      string(l.ScanType),
		ScanTime:      l.ScanTime,
		DeviceID:      l.DeviceID,
		OperatorID:    l.OperatorID,
		Success:       l.Success,
		FailureReason: l.FailureReason,
	}
}

type fareSummaryView struct {
	From        string `json:"from"`
	To          string `json:"to"`
	TicketCount int    `json:"ticket_count"`
	TotalFare   string `json:"total_fare"`
	Currency    string `json:"currency"`
}

func toFareSummaryView(s *usecase.FareSummary) fareSummaryView {
	return fareSummaryView{
		From:        s.From.Format(dateLayout),
		To:          s.To.Format(dateLayout),
		TicketCount: s.TicketCount,
		TotalFare:   s.TotalFare.String(),
		Currency:    model.CurrencyEGP,
	}
}

type subscriptionPurchaseResponse struct {
	SubscriptionID string           `json:"subscription_id"`
	Price          string           `json:"price"`
	StartDate      string           `json:"start_date"`
	EndDate        string           `json:"end_date"`
	PaymentID      string           `json:"payment_id"`
	PaymentURL     string           `json:"payment_url"`
	PaymentToken   string           `json:"payment_token"`
	Subscription   subscriptionView `json:"subscription"`
}

func toSubscriptionPurchaseResponse(p *usecase.SubscriptionPurchase) subscriptionPurchaseResponse {
	v := toSubscriptionView(p.Subscription)
	resp := subscriptionPurchaseResponse{
		SubscriptionID: v.ID,
		Price:          v.Price,
		StartDate:      v.StartDate,
		EndDate:        v.EndDate,
		Subscription:   v,
	}
	if p.Checkout != nil {
		resp.PaymentID = p.Checkout.PaymentID
		resp.PaymentURL = p.Checkout.URL
		resp.PaymentToken = p.Checkout.PaymentToken
	}
	return resp
}

type paymentView struct {
	ID              string     `json:"id"`
	TicketID        *string    `json:"ticket_id,omitempty"`
	SubscriptionID  *string    `json:"subscription_id,omitempty"`
	Amount          string     `json:"amount"`
	Currency        string     `json:"currency"`
	Status          string     `json:"status"`
	MerchantOrderID string     `json:"merchant_order_id"`
	PaymentMethod   string     `json:"payment_method,omitempty"`
	LastFourDigits  string     `json:"last_four_digits,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	PaidAt          *time.Time `json:"paid_at,omitempty"`
}

func toPaymentView(p *model.Payment) paymentView {
	return paymentView{
		ID:              p.ID,
		TicketID:        p.TicketID,
		SubscriptionID:  p.SubscriptionID,
		Amount:          p.Amount.String(),
		Currency:        p.Currency,
		Status:          string(p.Status),
		MerchantOrderID: p.MerchantOrderID,
		PaymentMethod:   p.PaymentMethod,
		LastFourDigits:  p.LastFourDigits,
		CreatedAt:       p.CreatedAt,
		PaidAt:          p.PaidAt,
	}
}

type callbackResponse struct {
	Status    string `json:"status"`
	PaymentID string `json:"payment_id,omitempty"`
	Replayed  bool   `json:"replayed,omitempty"`
}

// callbackStatus collapses payment states to what the gateway callback contract exposes.
func callbackStatus(s model.PaymentStatus) string {
	switch s {
	case model.PaymentStatusCompleted:
		return "success"
	case model.PaymentStatusPending:
		return "pending"
	case model.PaymentStatusRefundReview:
		return "refund_review"
	default:
		return "failed"
	}
}
