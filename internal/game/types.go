// internal/game/types.go
//
// Core type definitions for the grouping-puzzle session engine.
// Defines:
//   - Status: derived session state (playing/won/lost).
//   - Outcome: result of a single SubmitGuess call.
//   - Notice/Shake: transient UI-facing signals keyed by instance ID.
//   - View: a copy of the session state for rendering or JSON.

package game

import (
	"fmt"
	"time"

	"github.com/robalobadob/conniptions/internal/puzzle"
)

const (
	MaxMistakes = 4
	NoticeTTL   = 1500 * time.Millisecond
	ShakeTTL    = 500 * time.Millisecond

	NoticeAlreadyGuessed = "Already guessed"
	NoticeOneAway        = "One away..."
)

// Status is the derived state of a session.
// Playing can move to Won or Lost; neither terminal state moves again.
type Status int

const (
	Playing Status = iota
	Won
	Lost
)

func (s Status) String() string {
	switch s {
	case Playing:
		return "playing"
	case Won:
		return "won"
	case Lost:
		return "lost"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// MarshalText renders the status as its lowercase name in JSON.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Status) UnmarshalText(b []byte) error {
	for _, c := range []Status{Playing, Won, Lost} {
		if c.String() == string(b) {
			*s = c
			return nil
		}
	}
	return fmt.Errorf("game: unknown status %q", b)
}

// Outcome reports what a SubmitGuess call did.
type Outcome int

const (
	OutcomeNone    Outcome = iota // precondition failed, nothing happened
	OutcomeRepeat                 // guess-key already seen
	OutcomeSolved                 // exact group match
	OutcomeOneAway                // 3 of 4 words share an unsolved group
	OutcomeMiss                   // anything else
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomeRepeat:
		return "repeat"
	case OutcomeSolved:
		return "solved"
	case OutcomeOneAway:
		return "one_away"
	case OutcomeMiss:
		return "miss"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

func (o *Outcome) UnmarshalText(b []byte) error {
	for c := OutcomeNone; c <= OutcomeMiss; c++ {
		if c.String() == string(b) {
			*o = c
			return nil
		}
	}
	return fmt.Errorf("game: unknown outcome %q", b)
}

// Notice is a short-lived advisory message. ID is zero when no notice is set.
type Notice struct {
	ID   uint64
	Text string
}

// Shake marks the words of a no-match guess. ID is zero when idle.
type Shake struct {
	ID    uint64
	Words []string
}

// View is a snapshot of a session for rendering.
// Revealed is only populated once the session is Lost.
type View struct {
	PuzzleKey         string         `json:"puzzleKey,omitempty"`
	Order             []string       `json:"order"`
	Selected          []string       `json:"selected"`
	Solved            []puzzle.Group `json:"solved"`
	Mistakes          int            `json:"mistakes"`
	MistakesRemaining int            `json:"mistakesRemaining"`
	Status            Status         `json:"status"`
	Notice            string         `json:"notice,omitempty"`
	Shaking           []string       `json:"shaking,omitempty"`
	Revealed          []puzzle.Group `json:"revealed,omitempty"`
}

// Timer is a scheduled callback that can be cancelled. *time.Timer satisfies it.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d. Implementations decide which goroutine f
// runs on; the engine itself takes no locks.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// SchedulerFunc adapts a function to Scheduler.
type SchedulerFunc func(d time.Duration, f func()) Timer

func (fn SchedulerFunc) AfterFunc(d time.Duration, f func()) Timer { return fn(d, f) }
