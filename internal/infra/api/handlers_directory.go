package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListLines(w http.ResponseWriter, r *http.Request) {
	lines, err := s.d.Stations.ListLines(r.Context())
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	out := make([]lineView, 0, len(lines))
	for _, l := range lines {
		out = append(out, toLineView(l))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListStations(w http.ResponseWriter, r *http.Request) {
	stations, err := s.d.Stations.ListStations(r.Context(), r.URL.Query().Get("line_id"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	out := make([]stationView, 0, len(stations))
	for _, st := range stations {
		out = append(out, toStationView(st))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetStation(w http.ResponseWriter, r *http.Request) {
	st, err := s.d.Stations.GetStation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toStationView(st))
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req routeRequest
	if bad := decodeValid(r, &req); bad != nil {
		writeBadRequest(w, bad)
		return
	}
	q, err := s.d.Stations.Quote(r.Context(), req.StartStationID, req.EndStationID)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuoteView(q))
}

func (s *Server) handleCreateLine(w http.ResponseWriter, r *http.Request) {
	var req createLineRequest
	if bad := decodeValid(r, &req); bad != nil {
		writeBadRequest(w, bad)
		return
	}
	l, err := s.d.Stations.CreateLine(r.Context(), req.Name, req.Color, req.Description)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLineView(l))
}

func (s *Server) handleCreateStation(w http.ResponseWriter, r *http.Request) {
	var req createStationRequest
	if bad := decodeValid(r, &req); bad != nil {
		writeBadRequest(w, bad)
		return
	}
	st, err := s.d.Stations.CreateStation(r.Context(), req.Name, req.Zone, req.LineID, req.Order)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toStationView(st))
}
