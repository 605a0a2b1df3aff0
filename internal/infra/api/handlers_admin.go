package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	users, err := s.d.Users.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	total, err := s.d.Users.Count(r.Context())
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	resp := userListResponse{Total: total, Users: make([]userView, 0, len(users))}
	for _, u := range users {
		resp.Users = append(resp.Users, toUserView(u))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePromoteUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.d.Users.Promote(r.Context(), actorFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserView(u))
}

// handleFareSummary totals entered trips for ?from= and ?to= (YYYY-MM-DD,
// inclusive). Both default to today.
func (s *Server) handleFareSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	today := time.Now()
	from, ok := dateParam(w, q.Get("from"), today)
	if !ok {
		return
	}
	to, ok := dateParam(w, q.Get("to"), today)
	if !ok {
		return
	}
	sum, err := s.d.Reports.FareSummary(r.Context(), from, to)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toFareSummaryView(sum))
}

func (s *Server) handleUserTrips(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	ts, err := s.d.Reports.UserTrips(r.Context(), chi.URLParam(r, "id"), limit, offset)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toTicketViews(ts))
}

func dateParam(w http.ResponseWriter, v string, def time.Time) (time.Time, bool) {
	if v == "" {
		return def, true
	}
	d, err := time.Parse(dateLayout, v)
	if err != nil {
		writeBadRequest(w, &badRequest{status: http.StatusBadRequest, body: errorBody{Code: "bad_request", Message: "dates must be YYYY-MM-DD"}})
		return time.Time{}, false
	}
	return d, true
}
