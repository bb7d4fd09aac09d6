// internal/httpserver/server.go
//
// HTTP server wiring for the puzzle backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs, access logs).
//   - Public endpoints: "/", "/health", "/puzzle".
//   - Account endpoints: POST /signup, POST /login, POST /logout, GET /me.
//   - Progress endpoints (require auth): POST /progress, GET /progress.
//   - Hosted sessions (optional auth): /game/* including a websocket stream.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Optional auth decorates requests with user context when a valid token is present;
//     routes can still run for guests.
//   - The websocket route sits outside the request timeout.

package httpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/conniptions/internal/account"
	"github.com/robalobadob/conniptions/internal/game"
	"github.com/robalobadob/conniptions/internal/progress"
	"github.com/robalobadob/conniptions/internal/puzzle"
	"github.com/robalobadob/conniptions/internal/store"
)

// Server bundles router, session store and the account/progress stores.
type Server struct {
	r        *chi.Mux
	cfg      Config
	sessions store.Store
	users    *account.Store
	tokens   *account.Tokens
	progress *progress.Store
	puzzle   puzzle.Puzzle

	engineOpts []game.Option
}

// Option customizes a Server.
type Option func(*Server)

// WithEngineOptions appends options used for every hosted engine.
func WithEngineOptions(opts ...game.Option) Option {
	return func(s *Server) { s.engineOpts = append(s.engineOpts, opts...) }
}

// WithPasswordCost sets the bcrypt cost for new accounts.
func WithPasswordCost(cost int) Option {
	return func(s *Server) { s.users = s.users.WithCost(cost) }
}

// New constructs a Server, installs middleware, and registers routes.
func New(cfg Config, st store.Store, db *sql.DB, p puzzle.Puzzle, opts ...Option) *Server {
	s := &Server{
		r:        chi.NewRouter(),
		cfg:      cfg,
		sessions: st,
		users:    account.NewStore(db),
		tokens:   account.NewTokens(cfg.JWTSecret, cfg.TokenTTL),
		progress: progress.NewStore(db),
		puzzle:   p,
	}
	for _, o := range opts {
		o(s)
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(hlog.NewHandler(log.Logger))
	s.r.Use(hlog.AccessHandler(accessLog))
	s.r.Use(chimw.Recoverer)
	s.r.Use(jsonContentType)
	s.r.Use(s.cors)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(cfg.RequestTimeout))

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"service":   "conniptions",
				"endpoints": []string{"/health", "/puzzle", "POST /signup", "POST /login", "/me", "/progress", "POST /game/new", "/game/{id}"},
			})
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
		})

		s.mountAuthRoutes(r)
		s.mountProgressRoutes(r)
		s.mountGameRoutes(r.With(s.withOptionalAuth()))
	})

	// Websocket stream: no request timeout.
	s.r.With(s.withOptionalAuth()).Get("/game/{id}/ws", s.handleGameWS)

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ServeHTTP lets a Server be mounted directly.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.r.ServeHTTP(w, r) }

// Run serves on addr until ctx is cancelled, sweeping idle sessions meanwhile.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go store.Janitor(ctx, s.sessions, s.cfg.SessionIdle, func(n int) {
		log.Info().Int("sessions", n).Msg("swept idle sessions")
	})

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// ----------------------------- middleware ----------------------------------

func accessLog(r *http.Request, status, size int, d time.Duration) {
	hlog.FromRequest(r).Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("req_id", chimw.GetReqID(r.Context())).
		Int("status", status).
		Int("size", size).
		Dur("duration", d).
		Msg("request")
}

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	origin := s.cfg.ClientOrigin
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------- helpers -----------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(v)
}
