package tui

import (
	"context"
	"slices"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/conniptions/internal/game"
	"github.com/robalobadob/conniptions/internal/puzzle"
)

type stubTimer struct{}

func (stubTimer) Stop() bool { return true }

type recordingReporter struct {
	calls []string
	err   error
}

func (r *recordingReporter) RecordProgress(_ context.Context, id string, solved bool) error {
	if solved {
		r.calls = append(r.calls, id)
	}
	return r.err
}

// newModel returns a model plus the timer callbacks its engine scheduled.
func newModel(t *testing.T, opts ...Option) (Model, *[]func()) {
	t.Helper()
	p, err := puzzle.Default()
	require.NoError(t, err)
	var fired []func()
	sched := game.SchedulerFunc(func(_ time.Duration, f func()) game.Timer {
		fired = append(fired, f)
		return stubTimer{}
	})
	e, err := game.New(p, game.WithSeed(3), game.WithScheduler(sched))
	require.NoError(t, err)
	return New(e, opts...), &fired
}

func send(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var enter = tea.KeyMsg{Type: tea.KeyEnter}

// pick moves the cursor onto each word and toggles it.
func pick(t *testing.T, m Model, words ...string) Model {
	t.Helper()
	for _, w := range words {
		i := slices.Index(m.engine.Order(), w)
		require.GreaterOrEqual(t, i, 0, w)
		m.cursor = i
		m, _ = send(m, enter)
	}
	return m
}

func TestCursorStaysOnBoard(t *testing.T) {
	m, _ := newModel(t)

	m, _ = send(m, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, 0, m.cursor)
	m, _ = send(m, runes("j"))
	assert.Equal(t, 4, m.cursor)
	for range 3 {
		m, _ = send(m, runes("l"))
	}
	assert.Equal(t, 7, m.cursor)
	m, _ = send(m, tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, 8, m.cursor)
	m, _ = send(m, runes("k"))
	assert.Equal(t, 4, m.cursor)
	for range 5 {
		m, _ = send(m, tea.KeyMsg{Type: tea.KeyDown})
	}
	assert.Equal(t, 12, m.cursor)
}

func TestToggleSubmitAndDeselect(t *testing.T) {
	m, _ := newModel(t)

	m = pick(t, m, "RED", "BLUE")
	assert.ElementsMatch(t, []string{"RED", "BLUE"}, m.engine.Selected())
	m, _ = send(m, runes("d"))
	assert.Empty(t, m.engine.Selected())

	m = pick(t, m, "RED", "BLUE", "YELLOW", "GREEN")
	m.cursor = 15
	m, cmd := send(m, runes("s"))
	assert.Nil(t, cmd)
	require.Len(t, m.engine.Solved(), 1)
	assert.Len(t, m.engine.Order(), 12)
	assert.Equal(t, 11, m.cursor)
	assert.Contains(t, m.View(), "COLORS")
}

func TestShuffleKeepsWords(t *testing.T) {
	m, _ := newModel(t)
	before := m.engine.Order()
	m, _ = send(m, runes("r"))
	assert.ElementsMatch(t, before, m.engine.Order())
}

func TestTimerMsgExpiresNotice(t *testing.T) {
	m, fired := newModel(t)

	m = pick(t, m, "RED", "BLUE", "YELLOW", "PYTHON")
	m, _ = send(m, runes("s"))
	assert.Equal(t, game.NoticeOneAway, m.engine.Notice().Text)
	assert.Contains(t, m.View(), game.NoticeOneAway)
	require.Len(t, *fired, 1)

	m, _ = send(m, timerMsg{fire: (*fired)[0]})
	assert.Empty(t, m.engine.Notice().Text)
	assert.NotContains(t, m.View(), game.NoticeOneAway)
}

func TestWinReportsProgressOnce(t *testing.T) {
	rep := &recordingReporter{}
	m, _ := newModel(t, WithReporter(rep))

	var cmd tea.Cmd
	for _, g := range m.engine.Puzzle().Groups {
		m = pick(t, m, g.Words...)
		m, cmd = send(m, runes("s"))
	}
	assert.Equal(t, game.Won, m.engine.Status())
	require.NotNil(t, cmd)

	msg := cmd()
	assert.Equal(t, reportedMsg{}, msg)
	assert.Equal(t, []string{"2025-07-29"}, rep.calls)

	m, _ = send(m, msg)
	view := m.View()
	assert.Contains(t, view, "You solved it!")
	assert.Contains(t, view, "Progress saved.")

	// Frozen: further submits do nothing and report nothing.
	_, cmd = send(m, runes("s"))
	assert.Nil(t, cmd)
	assert.Len(t, rep.calls, 1)
}

func TestWinWithoutReporter(t *testing.T) {
	m, _ := newModel(t)
	var cmd tea.Cmd
	for _, g := range m.engine.Puzzle().Groups {
		m = pick(t, m, g.Words...)
		m, cmd = send(m, runes("s"))
	}
	assert.Equal(t, game.Won, m.engine.Status())
	assert.Nil(t, cmd)
}

func TestLostViewRevealsGroups(t *testing.T) {
	m, _ := newModel(t)
	for _, guess := range [][]string{
		{"RED", "PYTHON", "PENNE", "MERCURY"},
		{"BLUE", "RUST", "LINGUINE", "VENUS"},
		{"YELLOW", "GO", "FARFALLE", "EARTH"},
		{"GREEN", "SWIFT", "FETTUCCINE", "PLUTO"},
	} {
		m = pick(t, m, guess...)
		m, _ = send(m, runes("s"))
	}
	require.Equal(t, game.Lost, m.engine.Status())

	view := m.View()
	assert.Contains(t, view, "Out of mistakes")
	for _, g := range m.engine.Puzzle().Groups {
		assert.Contains(t, view, g.Name)
	}
	assert.Contains(t, view, "Mistakes remaining: ○ ○ ○ ○")
}

func TestQuit(t *testing.T) {
	m, _ := newModel(t)
	m, cmd := send(m, runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Empty(t, m.View())
}
