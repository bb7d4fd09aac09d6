package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/conniptions/internal/game"
	"github.com/robalobadob/conniptions/internal/puzzle"
)

func newSession(t *testing.T, id string) *Session {
	t.Helper()
	p, err := puzzle.Default()
	require.NoError(t, err)
	s, err := NewSession(id, "", func(sched game.Scheduler) (*game.Engine, error) {
		return game.New(p, game.WithSeed(7), game.WithScheduler(sched))
	})
	require.NoError(t, err)
	return s
}

func TestSaveGet(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	s := newSession(t, "abc")

	require.NoError(t, st.Save(ctx, s))
	got, err := st.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Equal(t, "2025-07-29", got.PuzzleID)

	_, err = st.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewSessionPropagatesBuildError(t *testing.T) {
	_, err := NewSession("x", "", func(game.Scheduler) (*game.Engine, error) {
		return game.New(puzzle.Puzzle{})
	})
	assert.ErrorIs(t, err, puzzle.ErrInvalid)
}

func TestDoBroadcastsToSubscribers(t *testing.T) {
	s := newSession(t, "abc")
	views, unsubscribe := s.Subscribe()
	defer unsubscribe()

	v := s.Do(func(e *game.Engine) { e.ToggleWord("RED") })
	assert.Equal(t, []string{"RED"}, v.Selected)

	select {
	case got := <-views:
		assert.Equal(t, []string{"RED"}, got.Selected)
	case <-time.After(time.Second):
		t.Fatal("no view broadcast")
	}

	// Reads do not broadcast.
	_ = s.View()
	select {
	case <-views:
		t.Fatal("unexpected broadcast on read")
	default:
	}
}

func TestNoticeExpiresAndIsPushed(t *testing.T) {
	s := newSession(t, "abc")
	views, unsubscribe := s.Subscribe()
	defer unsubscribe()

	v := s.Do(func(e *game.Engine) {
		for _, w := range []string{"RED", "BLUE", "YELLOW", "PYTHON"} {
			e.ToggleWord(w)
		}
		e.SubmitGuess()
	})
	require.Equal(t, game.NoticeOneAway, v.Notice)
	<-views

	select {
	case got := <-views:
		assert.Empty(t, got.Notice)
	case <-time.After(game.NoticeTTL + 2*time.Second):
		t.Fatal("notice never expired")
	}
	assert.Empty(t, s.View().Notice)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	s := newSession(t, "abc")
	views, unsubscribe := s.Subscribe()
	unsubscribe()
	unsubscribe()

	_, ok := <-views
	assert.False(t, ok)
}

func TestSweepRemovesIdleSessions(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	idle := newSession(t, "idle")
	fresh := newSession(t, "fresh")
	require.NoError(t, st.Save(ctx, idle))
	require.NoError(t, st.Save(ctx, fresh))

	views, _ := idle.Subscribe()
	cutoff := time.Now()
	fresh.Do(func(e *game.Engine) { e.Shuffle() })

	// idle was last touched at construction, before cutoff.
	idle.mu.Lock()
	idle.lastActive = cutoff.Add(-time.Minute)
	idle.mu.Unlock()

	assert.Equal(t, 1, st.Sweep(ctx, cutoff))
	_, err := st.Get(ctx, "idle")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = st.Get(ctx, "fresh")
	assert.NoError(t, err)

	_, ok := <-views
	assert.False(t, ok, "closing a session closes subscriber channels")
}

func TestJanitorStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		Janitor(ctx, NewMemoryStore(), 20*time.Millisecond, nil)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}
