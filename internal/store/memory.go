// internal/store/memory.go
//
// In-memory registry of server-hosted puzzle sessions.
// This is a lightweight persistence layer: state is lost when the process
// restarts, which is fine for single-attempt sessions.
//
// Characteristics:
//   - Sessions keyed by ID in a map guarded by an RWMutex.
//   - Each Session serializes access to its engine with its own mutex.
//   - Idle sessions are removed by Sweep.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robalobadob/conniptions/internal/game"
)

var ErrNotFound = errors.New("not found")

// Store defines the persistence interface for hosted sessions.
type Store interface {
	// Save persists or replaces a session.
	Save(ctx context.Context, s *Session) error

	// Get retrieves a session by ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*Session, error)

	// Sweep removes sessions idle since before cutoff and reports how many.
	Sweep(ctx context.Context, cutoff time.Time) int
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{sessions: make(map[string]*Session)}
}

func (m *memory) Save(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, ErrNotFound
}

func (m *memory) Sweep(ctx context.Context, cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if s.LastActive().Before(cutoff) {
			delete(m.sessions, id)
			s.Close()
			n++
		}
	}
	return n
}

// Janitor sweeps st every interval until ctx is done.
func Janitor(ctx context.Context, st Store, idle time.Duration, onSweep func(n int)) {
	if idle <= 0 {
		return
	}
	ticker := time.NewTicker(idle / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := st.Sweep(ctx, now.Add(-idle)); n > 0 && onSweep != nil {
				onSweep(n)
			}
		}
	}
}

// Session wraps one engine for concurrent callers.
type Session struct {
	ID       string
	OwnerID  string // empty for guests
	PuzzleID string

	mu         sync.Mutex
	engine     *game.Engine
	subs       map[chan game.View]struct{}
	lastActive time.Time
	closed     bool
}

// NewSession builds an engine for the session. The engine's notices and
// shakes expire under the session lock and are pushed to subscribers.
func NewSession(id, ownerID string, build func(game.Scheduler) (*game.Engine, error)) (*Session, error) {
	s := &Session{
		ID:         id,
		OwnerID:    ownerID,
		subs:       make(map[chan game.View]struct{}),
		lastActive: time.Now(),
	}
	e, err := build(game.SchedulerFunc(s.afterFunc))
	if err != nil {
		return nil, err
	}
	s.engine = e
	s.PuzzleID = e.Puzzle().Key()
	return s, nil
}

func (s *Session) afterFunc(d time.Duration, f func()) game.Timer {
	return time.AfterFunc(d, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			return
		}
		f()
		s.broadcastLocked()
	})
}

// Do runs fn against the engine under the session lock, broadcasts the
// resulting view and returns it.
func (s *Session) Do(fn func(e *game.Engine)) game.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn != nil && !s.closed {
		fn(s.engine)
		s.lastActive = time.Now()
		s.broadcastLocked()
	}
	return s.engine.View()
}

// View returns the current view without mutating anything.
func (s *Session) View() game.View { return s.Do(nil) }

// Subscribe returns a channel of views pushed after every change. The
// returned func unsubscribes and closes the channel.
func (s *Session) Subscribe() (<-chan game.View, func()) {
	ch := make(chan game.View, 8)
	s.mu.Lock()
	if s.closed {
		close(ch)
		s.mu.Unlock()
		return ch, func() {}
	}
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.subs[ch]; ok {
				delete(s.subs, ch)
				close(ch)
			}
		})
	}
}

func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Close drops all subscribers; later Do calls only read.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for ch := range s.subs {
		delete(s.subs, ch)
		close(ch)
	}
}

// broadcastLocked delivers the current view, dropping it for subscribers
// whose buffer is full.
func (s *Session) broadcastLocked() {
	if len(s.subs) == 0 {
		return
	}
	v := s.engine.View()
	for ch := range s.subs {
		select {
		case ch <- v:
		default:
		}
	}
}
