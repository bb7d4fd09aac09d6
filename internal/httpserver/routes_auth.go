package httpserver

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/conniptions/internal/account"
)

// credentials is the signup/login payload.
type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenRes struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// mountAuthRoutes registers /signup, /login, /logout and the gated /me.
func (s *Server) mountAuthRoutes(r chi.Router) {
	r.Post("/signup", s.handleSignup)
	r.Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)
	r.With(s.requireAuth()).Get("/me", s.handleMe)
}

// handleSignup creates a user and returns a signed token (201).
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if body.Username == "" || body.Password == "" {
		writeError(w, http.StatusBadRequest, "Missing fields")
		return
	}
	u, err := s.users.Create(r.Context(), body.Username, body.Password)
	if err != nil {
		var ve *account.ValidationError
		switch {
		case errors.Is(err, account.ErrUsernameTaken):
			writeError(w, http.StatusConflict, "Username taken")
		case errors.As(err, &ve):
			writeError(w, http.StatusBadRequest, ve.Error())
		default:
			hlog.FromRequest(r).Error().Err(err).Msg("create user")
			writeError(w, http.StatusInternalServerError, "server_error")
		}
		return
	}
	s.issueToken(w, r, u, http.StatusCreated)
}

// handleLogin authenticates and returns a signed token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if body.Username == "" || body.Password == "" {
		writeError(w, http.StatusBadRequest, "Missing fields")
		return
	}
	u, err := s.users.Authenticate(r.Context(), body.Username, body.Password)
	if errors.Is(err, account.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("authenticate")
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	s.issueToken(w, r, u, http.StatusOK)
}

func (s *Server) issueToken(w http.ResponseWriter, r *http.Request, u *account.User, status int) {
	tok, exp, err := s.tokens.Sign(u)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("sign token")
		writeError(w, http.StatusInternalServerError, "sign_failed")
		return
	}
	s.setAuthCookie(w, tok, exp)
	writeJSON(w, status, tokenRes{Token: tok, Username: u.Username})
}

// handleLogout clears the auth cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearAuthCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	if me == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, me)
}
