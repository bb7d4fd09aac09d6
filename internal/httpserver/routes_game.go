package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/conniptions/internal/account"
	"github.com/robalobadob/conniptions/internal/game"
	"github.com/robalobadob/conniptions/internal/puzzle"
	"github.com/robalobadob/conniptions/internal/store"
)

// command is one player action, shared by the REST routes and the websocket.
type command struct {
	Type string `json:"type"`
	Word string `json:"word,omitempty"`
}

const (
	cmdToggle   = "toggle"
	cmdSubmit   = "submit"
	cmdShuffle  = "shuffle"
	cmdDeselect = "deselect"
)

var errForbidden = errors.New("forbidden")

type puzzleRes struct {
	Key    string `json:"key"`
	Date   string `json:"date"`
	Groups int    `json:"groups"`
}

type viewRes struct {
	GameID  string        `json:"gameId,omitempty"`
	Outcome *game.Outcome `json:"outcome,omitempty"`
	View    game.View     `json:"view"`
}

// frame is a server-to-client websocket message.
type frame struct {
	Type    string        `json:"type"`
	Outcome *game.Outcome `json:"outcome,omitempty"`
	View    *game.View    `json:"view,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// mountGameRoutes registers /puzzle and the hosted-session REST endpoints.
func (s *Server) mountGameRoutes(r chi.Router) {
	r.Get("/puzzle", s.handlePuzzle)
	r.Post("/game/new", s.handleNewGame)
	r.Route("/game/{id}", func(r chi.Router) {
		r.Get("/", s.handleGetGame)
		r.Post("/toggle", s.handleCommand(cmdToggle))
		r.Post("/submit", s.handleCommand(cmdSubmit))
		r.Post("/shuffle", s.handleCommand(cmdShuffle))
		r.Post("/deselect", s.handleCommand(cmdDeselect))
	})
}

// handlePuzzle describes the active puzzle without its answers.
func (s *Server) handlePuzzle(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, puzzleRes{
		Key:    s.puzzle.Key(),
		Date:   s.puzzle.Date,
		Groups: len(s.puzzle.Groups),
	})
}

// handleNewGame creates a session on the active puzzle, owned by the caller if authenticated.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	owner := ""
	if me := currentUser(r); me != nil {
		owner = me.ID
	}
	sess, err := store.NewSession(account.NewID(), owner, func(sch game.Scheduler) (*game.Engine, error) {
		opts := append([]game.Option{game.WithScheduler(sch)}, s.engineOpts...)
		return game.New(s.puzzle, opts...)
	})
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("new session")
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if err := s.sessions.Save(r.Context(), sess); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("save session")
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	hlog.FromRequest(r).Info().Str("game", sess.ID).Str("owner", owner).Msg("session created")
	writeJSON(w, http.StatusCreated, viewRes{GameID: sess.ID, View: sess.View()})
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, viewRes{View: sess.View()})
}

// handleCommand adapts one command type to a REST endpoint.
func (s *Server) handleCommand(typ string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.loadSession(w, r)
		if !ok {
			return
		}
		cmd := command{Type: typ}
		if typ == cmdToggle {
			if err := decodeJSON(w, r, &cmd); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_json")
				return
			}
			cmd.Type = typ
		}
		out, v := s.apply(r.Context(), sess, cmd)
		res := viewRes{View: v}
		if typ == cmdSubmit {
			res.Outcome = &out
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// loadSession fetches the session named in the URL, writing 404/403 on failure.
func (s *Server) loadSession(w http.ResponseWriter, r *http.Request) (*store.Session, bool) {
	sess, err := s.session(r)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "game_not_found")
		return nil, false
	case errors.Is(err, errForbidden):
		writeError(w, http.StatusForbidden, "not_your_game")
		return nil, false
	case err != nil:
		writeError(w, http.StatusInternalServerError, "server_error")
		return nil, false
	}
	return sess, true
}

// session resolves {id}; sessions with an owner only accept that owner.
func (s *Server) session(r *http.Request) (*store.Session, error) {
	sess, err := s.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return nil, err
	}
	if sess.OwnerID != "" {
		if me := currentUser(r); me == nil || me.ID != sess.OwnerID {
			return nil, errForbidden
		}
	}
	return sess, nil
}

// apply runs cmd against the session and records progress when it wins an owned session.
func (s *Server) apply(ctx context.Context, sess *store.Session, cmd command) (game.Outcome, game.View) {
	out := game.OutcomeNone
	v := sess.Do(func(e *game.Engine) {
		switch cmd.Type {
		case cmdToggle:
			e.ToggleWord(puzzle.NormalizeWord(cmd.Word))
		case cmdSubmit:
			out = e.SubmitGuess()
		case cmdShuffle:
			e.Shuffle()
		case cmdDeselect:
			e.Deselect()
		}
	})
	if out == game.OutcomeSolved && v.Status == game.Won && sess.OwnerID != "" {
		s.recordWin(ctx, sess)
	}
	return out, v
}

func (s *Server) recordWin(ctx context.Context, sess *store.Session) {
	l := log.Ctx(ctx)
	if err := s.progress.Record(ctx, sess.OwnerID, sess.PuzzleID, true); err != nil {
		l.Error().Err(err).Str("game", sess.ID).Str("user", sess.OwnerID).Msg("record win")
		return
	}
	l.Info().Str("game", sess.ID).Str("user", sess.OwnerID).Str("puzzle", sess.PuzzleID).Msg("puzzle solved")
}

// ----------------------------- websocket -----------------------------------

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

func (s *Server) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || origin == s.cfg.ClientOrigin {
				return true
			}
			u, err := url.Parse(origin)
			return err == nil && u.Host == r.Host
		},
	}
}

// handleGameWS streams views for a session and accepts commands as JSON frames.
func (s *Server) handleGameWS(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	conn, err := s.upgrader().Upgrade(w, r, nil)
	if err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("websocket upgrade")
		return
	}

	// Subscribe before reading the initial view so no change is missed.
	views, unsubscribe := sess.Subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(log.Ctx(r.Context()).WithContext(context.Background()))
	defer cancel()

	replies := make(chan frame, 8)
	initial := sess.View()
	replies <- frame{Type: "view", View: &initial}

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.wsWritePump(ctx, conn, views, replies)
		_ = conn.Close() // unblocks the read pump
	}()

	s.wsReadPump(ctx, conn, sess, replies)
	cancel()
	<-done
}

func (s *Server) wsReadPump(ctx context.Context, conn *websocket.Conn, sess *store.Session, replies chan<- frame) {
	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		var cmd command
		if err := conn.ReadJSON(&cmd); err != nil {
			return
		}
		switch cmd.Type {
		case cmdToggle, cmdShuffle, cmdDeselect:
			// The resulting view arrives through the subscription.
			s.apply(ctx, sess, cmd)
		case cmdSubmit:
			out, _ := s.apply(ctx, sess, cmd)
			reply(ctx, replies, frame{Type: "outcome", Outcome: &out})
		default:
			reply(ctx, replies, frame{Type: "error", Error: "unknown command"})
		}
	}
}

func reply(ctx context.Context, replies chan<- frame, f frame) {
	select {
	case replies <- f:
	case <-ctx.Done():
	}
}

func (s *Server) wsWritePump(ctx context.Context, conn *websocket.Conn, views <-chan game.View, replies <-chan frame) {
	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()
	write := func(f frame) error {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		return conn.WriteJSON(f)
	}
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-replies:
			if err := write(f); err != nil {
				return
			}
		case v, ok := <-views:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"),
					time.Now().Add(wsWriteWait))
				return
			}
			if err := write(frame{Type: "view", View: &v}); err != nil {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
