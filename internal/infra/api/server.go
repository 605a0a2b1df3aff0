package api

import (
	"net/http"
	"time"

	"cairo-metro-ticketing/internal/domain/ports/adapter"
	"cairo-metro-ticketing/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Deps are the use cases and collaborators the HTTP layer dispatches to.
type Deps struct {
	Users         usecase.UserUseCase
	Stations      usecase.StationUseCase
	Tickets       usecase.TicketUseCase
	Subscriptions usecase.SubscriptionUseCase
	Payments      usecase.PaymentUseCase
	Reports       usecase.ReportUseCase
	Tokens        adapter.TokenManager

	RequestTimeout time.Duration
	// Metrics is served at /metrics; nil uses the default Prometheus registry.
	Metrics http.Handler
}

// Server maps the /api/v1 surface onto the use cases.
type Server struct {
	d   Deps
	log *zerolog.Logger
}

func NewServer(d Deps, logger *zerolog.Logger) *Server {
	if d.Metrics == nil {
		d.Metrics = promhttp.Handler()
	}
	l := logger.With().Str("component", "HTTPServer").Logger()
	return &Server{d: d, log: &l}
}

// Router builds the full handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(
		TraceID(),
		RequestLog(s.log),
		Recover(s.log),
	)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", s.d.Metrics)

	authn := Authenticate(s.d.Tokens, s.log)
	admin := RequireAdmin(s.log)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(Timeout(s.d.RequestTimeout))

		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		r.Get("/lines", s.handleListLines)
		r.Get("/stations", s.handleListStations)
		r.Get("/stations/{id}", s.handleGetStation)
		r.Post("/fares/quote", s.handleQuote)

		r.Post("/payments/callback", s.handlePaymentCallback)
		r.Get("/payments/return", s.handlePaymentReturn)

		r.Group(func(r chi.Router) {
			r.Use(authn)

			r.Get("/me", s.handleMe)

			r.Post("/tickets", s.handlePurchaseTicket)
			r.Get("/tickets", s.handleListMyTickets)
			r.Get("/tickets/{id}", s.handleGetTicket)
			r.Get("/tickets/{id}/qr", s.handleTicketQR)
			r.Post("/tickets/{id}/pay", s.handleRetryPayment)
			r.With(admin).Post("/tickets/{id}/scan", s.handleScan)

			r.Post("/subscriptions", s.handlePurchaseSubscription)
			r.Get("/subscriptions", s.handleListSubscriptions)
			r.Get("/subscriptions/active", s.handleActiveSubscription)
			r.Post("/subscriptions/{id}/cancel", s.handleCancelSubscription)
			r.Post("/subscriptions/{id}/renew", s.handleRenewSubscription)

			r.Get("/payments", s.handleListPayments)

			r.Route("/admin", func(r chi.Router) {
				r.Use(admin)
				r.Post("/lines", s.handleCreateLine)
				r.Post("/stations", s.handleCreateStation)
				r.Get("/tickets", s.handleAdminListTickets)
				r.Get("/tickets/{id}/scans", s.handleTicketScans)
				r.Get("/users", s.handleListUsers)
				r.Post("/users/{id}/promote", s.handlePromoteUser)
				r.Get("/reports/fare-summary", s.handleFareSummary)
				r.Get("/reports/users/{id}/trips", s.handleUserTrips)
			})
		})
	})
	return r
}

// NewHTTPServer wraps h with the listener timeouts used in production.
func NewHTTPServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
