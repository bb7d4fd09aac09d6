package tui

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/robalobadob/conniptions/internal/game"
)

// timerMsg carries an engine timer callback onto the update loop.
type timerMsg struct{ fire func() }

// Scheduler turns engine timers into tea messages so callbacks never run
// concurrently with Update. Fires before Attach are dropped.
type Scheduler struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

// Attach routes future timer fires to p.
func (s *Scheduler) Attach(p *tea.Program) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.send = p.Send
}

func (s *Scheduler) AfterFunc(d time.Duration, f func()) game.Timer {
	return time.AfterFunc(d, func() {
		s.mu.Lock()
		send := s.send
		s.mu.Unlock()
		if send != nil {
			send(timerMsg{fire: f})
		}
	})
}
