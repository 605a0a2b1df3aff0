package api

import (
	"net/http"
	"time"

	"cairo-metro-ticketing/internal/domain/model"
	"cairo-metro-ticketing/internal/domain/ports/repository"
	"cairo-metro-ticketing/internal/usecase"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handlePurchaseTicket(w http.ResponseWriter, r *http.Request) {
	var req routeRequest
	if bad := decodeValid(r, &req); bad != nil {
		writeBadRequest(w, bad)
		return
	}
	actor := actorFrom(r.Context())
	p, err := s.d.Tickets.Purchase(r.Context(), actor.UserID, req.StartStationID, req.EndStationID)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTicketPurchaseResponse(p))
}

func (s *Server) handleRetryPayment(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())
	p, err := s.d.Tickets.RetryPayment(r.Context(), actor.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTicketPurchaseResponse(p))
}

func (s *Server) handleListMyTickets(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	ts, err := s.d.Tickets.ListMine(r.Context(), actorFrom(r.Context()).UserID, limit, offset)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toTicketViews(ts))
}

func (s *Server) handleGetTicket(w http.ResponseWriter, r *http.Request) {
	t, err := s.d.Tickets.Get(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toTicketView(t))
}

func (s *Server) handleTicketQR(w http.ResponseWriter, r *http.Request) {
	png, err := s.d.Tickets.QRCode(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if bad := decodeValid(r, &req); bad != nil {
		writeBadRequest(w, bad)
		return
	}
	t, err := s.d.Tickets.Scan(r.Context(), usecase.ScanInput{
		TicketID:   chi.URLParam(r, "id"),
		StationID:  req.StationID,
		ScanType:   model.ScanType(req.ScanType),
		DeviceID:   req.DeviceID,
		OperatorID: actorFrom(r.Context()).UserID,
	})
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toTicketView(t))
}

// handleAdminListTickets supports ?status=, ?date=YYYY-MM-DD and ?user_id= filters.
func (s *Server) handleAdminListTickets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := pageParams(r)
	f := repository.TicketFilter{
		UserID: q.Get("user_id"),
		Status: model.TicketStatus(q.Get("status")),
		Limit:  limit,
		Offset: offset,
	}
	if f.Status != "" && !validTicketStatus(f.Status) {
		writeBadRequest(w, &badRequest{status: http.StatusBadRequest, body: errorBody{Code: "bad_request", Message: "unknown ticket status"}})
		return
	}
	if d := q.Get("date"); d != "" {
		day, err := time.Parse(dateLayout, d)
		if err != nil {
			writeBadRequest(w, &badRequest{status: http.StatusBadRequest, body: errorBody{Code: "bad_request", Message: "date must be YYYY-MM-DD"}})
			return
		}
		f.CreatedOn = day
	}
	ts, err := s.d.Tickets.ListAll(r.Context(), f)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toTicketViews(ts))
}

func (s *Server) handleTicketScans(w http.ResponseWriter, r *http.Request) {
	logs, err := s.d.Tickets.ScanLogs(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	out := make([]scanLogView, 0, len(logs))
	for _, l := range logs {
		out = append(out, toScanLogView(l))
	}
	writeJSON(w, http.StatusOK, out)
}

func validTicketStatus(st model.TicketStatus) bool {
	switch st {
	case model.TicketStatusActive, model.TicketStatusPaid, model.TicketStatusUsedEntry,
		model.TicketStatusCompleted, model.TicketStatusExpired:
		return true
	}
	return false
}
