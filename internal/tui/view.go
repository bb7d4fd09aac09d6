package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/robalobadob/conniptions/internal/game"
	"github.com/robalobadob/conniptions/internal/puzzle"
)

const cellWidth = 12

// Difficulty colors, easiest first.
var difficultyColors = [puzzle.MaxDifficulty + 1]lipgloss.Color{"#F9DF6D", "#A0C35A", "#B0C4EF", "#BA81C5"}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	cellStyle     = lipgloss.NewStyle().Padding(0, 1).Margin(0, 1, 0, 0).Background(lipgloss.Color("#EFEFE6")).Foreground(lipgloss.Color("#000000"))
	selectedStyle = cellStyle.Background(lipgloss.Color("#5A594E")).Foreground(lipgloss.Color("#FFFFFF"))
	shakeStyle    = cellStyle.Background(lipgloss.Color("1")).Foreground(lipgloss.Color("#FFFFFF"))
	cursorStyle   = lipgloss.NewStyle().Underline(true).Bold(true)
	noticeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	bannerStyle   = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	groupStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#000000")).Padding(0, 1).Width(4*(cellWidth+3) - 1)
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	v := m.engine.View()
	var b strings.Builder

	title := "Conniptions"
	if v.PuzzleKey != "" {
		title += "  " + v.PuzzleKey
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")

	groups := v.Solved
	if v.Status == game.Lost {
		groups = v.Revealed
	}
	for _, g := range groups {
		b.WriteString(renderGroup(g))
		b.WriteString("\n")
	}

	b.WriteString(m.renderGrid(v))
	b.WriteString("\n")
	b.WriteString(renderMistakes(v.MistakesRemaining))
	b.WriteString("\n")

	if v.Notice != "" {
		b.WriteString(noticeStyle.Render(v.Notice))
	}
	b.WriteString("\n")

	switch v.Status {
	case game.Won:
		b.WriteString(bannerStyle.Background(difficultyColors[1]).Foreground(lipgloss.Color("#000000")).Render("You solved it!"))
		b.WriteString("\n")
	case game.Lost:
		b.WriteString(bannerStyle.Background(lipgloss.Color("1")).Render("Out of mistakes. Better luck next time."))
		b.WriteString("\n")
	}
	if m.report != "" {
		b.WriteString(helpStyle.Render(m.report))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.keys.help()))
	return b.String()
}

func renderGroup(g puzzle.Group) string {
	c := difficultyColors[min(max(g.Difficulty, 0), puzzle.MaxDifficulty)]
	body := lipgloss.NewStyle().Bold(true).Render(g.Name) + "\n" + strings.Join(g.Words, ", ")
	return groupStyle.Background(c).Render(body)
}

func (m Model) renderGrid(v game.View) string {
	if v.Status == game.Lost {
		return ""
	}
	var rows []string
	for start := 0; start < len(v.Order); start += columns {
		end := min(start+columns, len(v.Order))
		var cells []string
		for i := start; i < end; i++ {
			cells = append(cells, m.renderCell(v, i))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) renderCell(v game.View, i int) string {
	w := v.Order[i]
	label := runewidth.FillRight(runewidth.Truncate(w, cellWidth, "…"), cellWidth)
	if i == m.cursor && v.Status == game.Playing {
		label = cursorStyle.Render(label)
	}
	switch {
	case slices.Contains(v.Shaking, w):
		return shakeStyle.Render(label)
	case slices.Contains(v.Selected, w):
		return selectedStyle.Render(label)
	default:
		return cellStyle.Render(label)
	}
}

func renderMistakes(remaining int) string {
	dots := strings.Repeat("● ", remaining) + strings.Repeat("○ ", game.MaxMistakes-remaining)
	return fmt.Sprintf("Mistakes remaining: %s", strings.TrimSpace(dots))
}
