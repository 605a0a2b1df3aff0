package api

import (
	"net/http"

	"cairo-metro-ticketing/internal/usecase"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handlePurchaseSubscription(w http.ResponseWriter, r *http.Request) {
	var req subscriptionRequest
	if bad := decodeValid(r, &req); bad != nil {
		writeBadRequest(w, bad)
		return
	}
	p, err := s.d.Subscriptions.Purchase(r.Context(), actorFrom(r.Context()).UserID, req.PlanType, req.ZoneCoverage)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSubscriptionPurchaseResponse(p))
}

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := s.d.Subscriptions.List(r.Context(), actorFrom(r.Context()).UserID)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	out := make([]subscriptionView, 0, len(subs))
	for _, sub := range subs {
		out = append(out, toSubscriptionView(sub))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleActiveSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := s.d.Subscriptions.Active(r.Context(), actorFrom(r.Context()).UserID)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubscriptionView(sub))
}

func (s *Server) handleCancelSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := s.d.Subscriptions.Cancel(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubscriptionView(sub))
}

// handleRenewSubscription opens a checkout for the next period. An empty body
// keeps the current plan and zone coverage.
func (s *Server) handleRenewSubscription(w http.ResponseWriter, r *http.Request) {
	var req renewRequest
	if r.ContentLength != 0 {
		if bad := decodeValid(r, &req); bad != nil {
			writeBadRequest(w, bad)
			return
		}
	}
	p, err := s.d.Subscriptions.Renew(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "id"), usecase.RenewInput{
		Plan:         req.PlanType,
		ZoneCoverage: req.ZoneCoverage,
	})
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSubscriptionPurchaseResponse(p))
}
