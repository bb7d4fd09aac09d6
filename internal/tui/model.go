// internal/tui/model.go
//
// Terminal client for one puzzle attempt.
// The model drives a local game.Engine from key presses and renders it with
// lipgloss. Engine timers arrive as timerMsg through a Scheduler, so every
// engine call happens on the bubbletea update loop.
//
// When the session is won and a Reporter is configured, the result is sent
// to the progress service once.

package tui

import (
	"context"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/conniptions/internal/game"
	"github.com/robalobadob/conniptions/internal/puzzle"
)

const columns = puzzle.GroupSize

// Reporter records a finished puzzle. *client.Client satisfies it.
type Reporter interface {
	RecordProgress(ctx context.Context, puzzleID string, solved bool) error
}

// reportedMsg is the result of the win report.
type reportedMsg struct{ err error }

type Model struct {
	engine   *game.Engine
	keys     keyMap
	cursor   int
	reporter Reporter
	report   string // status line for the win report
	quitting bool
}

type Option func(*Model)

// WithReporter sends wins to r.
func WithReporter(r Reporter) Option {
	return func(m *Model) { m.reporter = r }
}

// New wraps an engine. The engine's scheduler should deliver timerMsg to the
// same program, see Run.
func New(e *game.Engine, opts ...Option) Model {
	m := Model{engine: e, keys: defaultKeyMap()}
	for _, o := range opts {
		o(&m)
	}
	return m
}

// Run plays p in the terminal until the user quits.
func Run(ctx context.Context, p puzzle.Puzzle, engineOpts []game.Option, opts ...Option) error {
	sched := &Scheduler{}
	e, err := game.New(p, append(slices.Clone(engineOpts), game.WithScheduler(sched))...)
	if err != nil {
		return err
	}
	prog := tea.NewProgram(New(e, opts...), tea.WithAltScreen(), tea.WithContext(ctx))
	sched.Attach(prog)
	_, err = prog.Run()
	return err
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case timerMsg:
		msg.fire()
		return m, nil

	case reportedMsg:
		if msg.err != nil {
			log.Warn().Err(msg.err).Msg("report progress")
			m.report = "Could not save progress: " + msg.err.Error()
		} else {
			m.report = "Progress saved."
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	e := m.engine
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Left):
		m.move(-1)
	case key.Matches(msg, m.keys.Right):
		m.move(1)
	case key.Matches(msg, m.keys.Up):
		m.move(-columns)
	case key.Matches(msg, m.keys.Down):
		m.move(columns)
	case key.Matches(msg, m.keys.Toggle):
		if w, ok := m.wordAtCursor(); ok {
			e.ToggleWord(w)
		}
	case key.Matches(msg, m.keys.Shuffle):
		e.Shuffle()
	case key.Matches(msg, m.keys.Deselect):
		e.Deselect()
	case key.Matches(msg, m.keys.Submit):
		if e.SubmitGuess() == game.OutcomeSolved {
			m.clampCursor()
			if e.Status() == game.Won {
				return m, m.reportWin()
			}
		}
	}
	return m, nil
}

// move shifts the cursor by delta cells, staying on the board.
func (m *Model) move(delta int) {
	n := len(m.engine.Order())
	next := m.cursor + delta
	if next < 0 || next >= n {
		return
	}
	m.cursor = next
}

func (m *Model) clampCursor() {
	if n := len(m.engine.Order()); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
}

func (m Model) wordAtCursor() (string, bool) {
	order := m.engine.Order()
	if m.cursor < 0 || m.cursor >= len(order) {
		return "", false
	}
	return order[m.cursor], true
}

func (m Model) reportWin() tea.Cmd {
	if m.reporter == nil {
		return nil
	}
	id := m.engine.Puzzle().Key()
	r := m.reporter
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return reportedMsg{err: r.RecordProgress(ctx, id, true)}
	}
}
