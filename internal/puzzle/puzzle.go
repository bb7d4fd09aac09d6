// internal/puzzle/puzzle.go
//
// Puzzle definitions for the grouping game.
// Responsibilities:
//   - Decode a puzzle from YAML (file on disk or the embedded default).
//   - Normalize words (trimmed, upper-case) so lookups are exact.
//   - Validate the puzzle contract: an id or date, 4 groups x 4 words,
//     unique words, unique difficulty ranks 0..3.
//
// A Puzzle is immutable once loaded; the session engine only reads it.

package puzzle

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/robalobadob/conniptions/assets"
)

const (
	GroupCount    = 4
	GroupSize     = 4
	MaxDifficulty = GroupCount - 1
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid puzzle")

// Group is one hidden category.
type Group struct {
	Name       string   `yaml:"name" json:"name"`
	Difficulty int      `yaml:"difficulty" json:"difficulty"`
	Words      []string `yaml:"words" json:"words"`
}

// Contains reports whether w is one of the group's words.
func (g Group) Contains(w string) bool {
	for _, x := range g.Words {
		if x == w {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no memory with g.
func (g Group) Clone() Group {
	g.Words = slices.Clone(g.Words)
	return g
}

// Puzzle is a complete definition: exactly GroupCount groups.
type Puzzle struct {
	ID     string  `yaml:"id" json:"id,omitempty"`
	Date   string  `yaml:"date" json:"date,omitempty"`
	Groups []Group `yaml:"groups" json:"groups"`
}

// Key identifies the puzzle for progress tracking: the ID, else the date.
func (p Puzzle) Key() string {
	if p.ID != "" {
		return p.ID
	}
	return p.Date
}

// Clone returns a deep copy; mutating it never reaches p.
func (p Puzzle) Clone() Puzzle {
	out := Puzzle{ID: p.ID, Date: p.Date}
	if p.Groups != nil {
		out.Groups = make([]Group, len(p.Groups))
		for i, g := range p.Groups {
			out.Groups[i] = g.Clone()
		}
	}
	return out
}

// Words returns every word in group order.
func (p Puzzle) Words() []string {
	out := make([]string, 0, GroupCount*GroupSize)
	for _, g := range p.Groups {
		out = append(out, g.Words...)
	}
	return out
}

// ByDifficulty returns a deep copy of the groups sorted easiest first.
func (p Puzzle) ByDifficulty() []Group {
	out := p.Clone().Groups
	sort.SliceStable(out, func(i, j int) bool { return out[i].Difficulty < out[j].Difficulty })
	return out
}

// Validate checks the puzzle contract.
func (p Puzzle) Validate() error {
	if p.Key() == "" {
		return fmt.Errorf("%w: puzzle needs an id or a date", ErrInvalid)
	}
	if len(p.Groups) != GroupCount {
		return fmt.Errorf("%w: want %d groups, got %d", ErrInvalid, GroupCount, len(p.Groups))
	}
	seenWords := make(map[string]string, GroupCount*GroupSize)
	seenRanks := make(map[int]string, GroupCount)
	for i, g := range p.Groups {
		if strings.TrimSpace(g.Name) == "" {
			return fmt.Errorf("%w: group %d has no name", ErrInvalid, i)
		}
		if g.Difficulty < 0 || g.Difficulty > MaxDifficulty {
			return fmt.Errorf("%w: group %q difficulty %d out of range 0-%d", ErrInvalid, g.Name, g.Difficulty, MaxDifficulty)
		}
		if other, dup := seenRanks[g.Difficulty]; dup {
			return fmt.Errorf("%w: groups %q and %q share difficulty %d", ErrInvalid, other, g.Name, g.Difficulty)
		}
		seenRanks[g.Difficulty] = g.Name
		if len(g.Words) != GroupSize {
			return fmt.Errorf("%w: group %q has %d words, want %d", ErrInvalid, g.Name, len(g.Words), GroupSize)
		}
		for _, w := range g.Words {
			if w == "" {
				return fmt.Errorf("%w: group %q has an empty word", ErrInvalid, g.Name)
			}
			if other, dup := seenWords[w]; dup {
				return fmt.Errorf("%w: word %q appears in %q and %q", ErrInvalid, w, other, g.Name)
			}
			seenWords[w] = g.Name
		}
	}
	return nil
}

// Parse decodes YAML, normalizes words and validates the result.
func Parse(data []byte) (Puzzle, error) {
	var p Puzzle
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Puzzle{}, fmt.Errorf("puzzle: decode: %w", err)
	}
	p = normalize(p)
	if err := p.Validate(); err != nil {
		return Puzzle{}, err
	}
	return p, nil
}

// Load reads and parses a puzzle file.
func Load(path string) (Puzzle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Puzzle{}, fmt.Errorf("puzzle: load %s: %w", path, err)
	}
	return Parse(data)
}

// Default parses the embedded puzzle.
func Default() (Puzzle, error) {
	data, err := assets.DefaultPuzzle()
	if err != nil {
		return Puzzle{}, fmt.Errorf("puzzle: read embedded default: %w", err)
	}
	return Parse(data)
}

// Resolve loads path when set, otherwise falls back to the embedded default.
func Resolve(path string) (Puzzle, error) {
	if path != "" {
		return Load(path)
	}
	return Default()
}

// normalize trims and upper-cases every word, returning a copy.
func normalize(p Puzzle) Puzzle {
	out := Puzzle{ID: strings.TrimSpace(p.ID), Date: strings.TrimSpace(p.Date)}
	out.Groups = make([]Group, len(p.Groups))
	for i, g := range p.Groups {
		ng := Group{Name: strings.TrimSpace(g.Name), Difficulty: g.Difficulty}
		ng.Words = make([]string, len(g.Words))
		for j, w := range g.Words {
			ng.Words[j] = NormalizeWord(w)
		}
		out.Groups[i] = ng
	}
	return out
}

// NormalizeWord applies the same normalization used when loading puzzles.
func NormalizeWord(w string) string {
	return strings.ToUpper(strings.TrimSpace(w))
}
