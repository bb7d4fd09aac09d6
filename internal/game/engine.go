// internal/game/engine.go
//
// Session engine for a single puzzle attempt.
// Responsibilities:
//   - Track the shuffled word order, the current selection (0..4 words),
//     solved groups, mistakes and previously submitted guess-keys.
//   - Evaluate guesses: exact group match first, then one-away, else miss.
//   - Freeze once the session is won or lost.
//   - Raise transient notices/shakes and expire them through a Scheduler,
//     keyed by instance ID so a stale timer never clears a newer signal.
//
// Notes:
//   - Every operation silently ignores calls whose preconditions fail.
//   - The engine is not safe for concurrent use; callers serialize access.

package game

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"slices"
	"sort"
	"strings"

	"github.com/robalobadob/conniptions/internal/puzzle"
)

const guessKeySep = "|"

// Engine owns all mutable state of one puzzle attempt.
type Engine struct {
	puzzle    puzzle.Puzzle
	remaining []puzzle.Group // unsolved groups, puzzle order
	order     []string
	selected  []string
	solved    []puzzle.Group
	mistakes  int
	seen      map[string]struct{}

	rng   *rand.Rand
	sched Scheduler

	seq         uint64
	notice      Notice
	noticeTimer Timer
	shake       Shake
	shakeTimer  Timer
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand injects the random source used for the initial order and Shuffle.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// WithSeed gives each engine its own PCG seeded with seed, so one Option
// value can build many engines without sharing a source.
func WithSeed(seed uint64) Option {
	return func(e *Engine) { e.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

// WithScheduler sets the timer facility used to auto-clear notices and shakes.
func WithScheduler(s Scheduler) Option {
	return func(e *Engine) { e.sched = s }
}

// New validates p and starts a session with a random word order.
func New(p puzzle.Puzzle, opts ...Option) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("game: %w", err)
	}
	p = p.Clone()
	e := &Engine{
		puzzle:    p,
		remaining: p.Clone().Groups,
		order:     p.Words(),
		seen:      make(map[string]struct{}),
	}
	for _, o := range opts {
		o(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewPCG(cryptoSeed(), cryptoSeed()))
	}
	e.permute()
	return e, nil
}

// ToggleWord adds word to the selection, or removes it if already selected.
// A fifth word is ignored, as are words that are not on the board.
func (e *Engine) ToggleWord(word string) {
	if e.Status() != Playing || !slices.Contains(e.order, word) {
		return
	}
	if i := slices.Index(e.selected, word); i >= 0 {
		e.selected = slices.Delete(e.selected, i, i+1)
		return
	}
	if len(e.selected) < puzzle.GroupSize {
		e.selected = append(e.selected, word)
	}
}

// SubmitGuess evaluates the current 4-word selection.
func (e *Engine) SubmitGuess() Outcome {
	if e.Status() != Playing || len(e.selected) != puzzle.GroupSize {
		return OutcomeNone
	}

	key := GuessKey(e.selected)
	if _, dup := e.seen[key]; dup {
		e.setNotice(NoticeAlreadyGuessed)
		return OutcomeRepeat
	}
	e.seen[key] = struct{}{}

	// Exact match wins over one-away.
	for i, g := range e.remaining {
		if overlap(g, e.selected) == puzzle.GroupSize {
			e.solve(i)
			return OutcomeSolved
		}
	}

	e.mistakes++
	if e.oneAway() {
		// Selection stays so the player can adjust, or inspect it after a loss.
		if e.mistakes < MaxMistakes {
			e.setNotice(NoticeOneAway)
		}
		return OutcomeOneAway
	}

	e.setShake(e.selected)
	e.selected = nil
	return OutcomeMiss
}

// Shuffle permutes the words still on the board.
func (e *Engine) Shuffle() {
	if e.Status() != Playing {
		return
	}
	e.permute()
}

// Deselect clears the selection. It does nothing once the session is Won
// or Lost, so the final selection stays visible.
func (e *Engine) Deselect() {
	if e.Status() != Playing {
		return
	}
	e.selected = nil
}

// ExpireNotice clears the notice if id still identifies it.
func (e *Engine) ExpireNotice(id uint64) {
	if id != 0 && e.notice.ID == id {
		e.notice = Notice{}
		e.noticeTimer = nil
	}
}

// ExpireShake clears the shake if id still identifies it.
func (e *Engine) ExpireShake(id uint64) {
	if id != 0 && e.shake.ID == id {
		e.shake = Shake{}
		e.shakeTimer = nil
	}
}

// Status is derived from mistakes and solved groups.
func (e *Engine) Status() Status {
	switch {
	case e.mistakes >= MaxMistakes:
		return Lost
	case len(e.solved) == len(e.puzzle.Groups):
		return Won
	default:
		return Playing
	}
}

func (e *Engine) Puzzle() puzzle.Puzzle { return e.puzzle.Clone() }
func (e *Engine) Order() []string       { return slices.Clone(e.order) }
func (e *Engine) Selected() []string    { return slices.Clone(e.selected) }
func (e *Engine) Mistakes() int         { return e.mistakes }
func (e *Engine) Notice() Notice        { return e.notice }

func (e *Engine) MistakesRemaining() int { return MaxMistakes - e.mistakes }

func (e *Engine) IsSelected(word string) bool { return slices.Contains(e.selected, word) }

// Solved returns deep copies of the groups in the order they were solved.
func (e *Engine) Solved() []puzzle.Group {
	if e.solved == nil {
		return nil
	}
	out := make([]puzzle.Group, len(e.solved))
	for i, g := range e.solved {
		out[i] = g.Clone()
	}
	return out
}

func (e *Engine) Shake() Shake {
	return Shake{ID: e.shake.ID, Words: slices.Clone(e.shake.Words)}
}

// View copies the current state.
func (e *Engine) View() View {
	v := View{
		PuzzleKey:         e.puzzle.Key(),
		Order:             e.Order(),
		Selected:          e.Selected(),
		Solved:            e.Solved(),
		Mistakes:          e.mistakes,
		MistakesRemaining: e.MistakesRemaining(),
		Status:            e.Status(),
		Notice:            e.notice.Text,
		Shaking:           slices.Clone(e.shake.Words),
	}
	if v.Selected == nil {
		v.Selected = []string{}
	}
	if v.Solved == nil {
		v.Solved = []puzzle.Group{}
	}
	if v.Status == Lost {
		v.Revealed = e.puzzle.ByDifficulty()
	}
	return v
}

// GuessKey is the order-independent identity of a selection.
func GuessKey(words []string) string {
	sorted := slices.Clone(words)
	sort.Strings(sorted)
	return strings.Join(sorted, guessKeySep)
}

// solve moves remaining[i] into solved and removes its words from the board.
func (e *Engine) solve(i int) {
	g := e.remaining[i]
	e.remaining = slices.Delete(e.remaining, i, i+1)
	e.solved = append(e.solved, g)
	e.order = slices.DeleteFunc(e.order, g.Contains)
	e.selected = nil
}

func (e *Engine) oneAway() bool {
	for _, g := range e.remaining {
		if overlap(g, e.selected) == puzzle.GroupSize-1 {
			return true
		}
	}
	return false
}

// permute is a Fisher-Yates shuffle of order driven by the engine's source.
func (e *Engine) permute() {
	for i := len(e.order) - 1; i > 0; i-- {
		j := e.rng.IntN(i + 1)
		e.order[i], e.order[j] = e.order[j], e.order[i]
	}
}

func (e *Engine) setNotice(text string) {
	e.seq++
	id := e.seq
	if e.noticeTimer != nil {
		e.noticeTimer.Stop()
		e.noticeTimer = nil
	}
	e.notice = Notice{ID: id, Text: text}
	if e.sched != nil {
		e.noticeTimer = e.sched.AfterFunc(NoticeTTL, func() { e.ExpireNotice(id) })
	}
}

func (e *Engine) setShake(words []string) {
	e.seq++
	id := e.seq
	if e.shakeTimer != nil {
		e.shakeTimer.Stop()
		e.shakeTimer = nil
	}
	e.shake = Shake{ID: id, Words: slices.Clone(words)}
	if e.sched != nil {
		e.shakeTimer = e.sched.AfterFunc(ShakeTTL, func() { e.ExpireShake(id) })
	}
}

// overlap counts how many of words belong to g.
func overlap(g puzzle.Group, words []string) int {
	n := 0
	for _, w := range words {
		if g.Contains(w) {
			n++
		}
	}
	return n
}

func cryptoSeed() uint64 {
	var b [8]byte
	_, _ = crand.Read(b[:])
	return binary.LittleEndian.Uint64(b[:])
}
