package api

import (
	"net/http"

	"cairo-metro-ticketing/internal/usecase"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if bad := decodeValid(r, &req); bad != nil {
		writeBadRequest(w, bad)
		return
	}
	u, err := s.d.Users.Register(r.Context(), usecase.RegisterInput{
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserView(u))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if bad := decodeValid(r, &req); bad != nil {
		writeBadRequest(w, bad)
		return
	}
	res, err := s.d.Users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		User:      toUserView(res.User),
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := s.d.Users.Get(r.Context(), actorFrom(r.Context()).UserID)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserView(u))
}
