// Package assets bundles the puzzle definitions shipped with the binary.
package assets

import (
	"embed"
)

//go:embed puzzles/*.yaml
var FS embed.FS

// DefaultPuzzle returns the raw YAML of the puzzle served when no file is
// configured.
func DefaultPuzzle() ([]byte, error) {
	return FS.ReadFile("puzzles/default.yaml")
}
