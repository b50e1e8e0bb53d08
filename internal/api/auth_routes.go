package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/kjannette/tradejournal/internal/auth"
	"github.com/kjannette/tradejournal/internal/datamode"
	"github.com/kjannette/tradejournal/internal/models"
	"github.com/kjannette/tradejournal/internal/repository"
)

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if msg, ok := s.decodeAndValidate(w, r, &req); !ok {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	user, err := s.users.Create(r.Context(), strings.TrimSpace(req.Name), req.Email, hash)
	if errors.Is(err, repository.ErrDuplicateEmail) {
		writeError(w, http.StatusBadRequest, "Email already registered")
		return
	}
	if err != nil {
		s.internalError(w, r, err, "create user")
		return
	}
	log.Info().Int64("user_id", user.ID).Msg("user signed up")
	s.respondWithToken(w, r, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.Credentials
	if msg, ok := s.decodeAndValidate(w, r, &req); !ok {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	user, err := s.users.GetByEmail(r.Context(), req.Email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.internalError(w, r, err, "load user")
		return
	}
	if user == nil || !auth.VerifyPassword(user.HashedPassword, req.Password) {
		s.metrics.AuthFailure("bad_credentials")
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	s.respondWithToken(w, r, user)
}

func (s *Server) respondWithToken(w http.ResponseWriter, r *http.Request, user *models.User) {
	token, err := s.issuer.Issue(user.Email)
	if err != nil {
		s.internalError(w, r, err, "issue token")
		return
	}
	writeJSON(w, http.StatusOK, models.AuthResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user,
	})
}

// handleMe returns the caller, or the canned profile in test and seed mode.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	if u := datamode.FixtureUser(s.mode.Get()); u != nil {
		writeJSON(w, http.StatusOK, u)
		return
	}
	writeJSON(w, http.StatusOK, currentUser(r))
}
