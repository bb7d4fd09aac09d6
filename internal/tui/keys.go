package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Toggle   key.Binding
	Submit   key.Binding
	Shuffle  key.Binding
	Deselect key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
		Right:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
		Toggle:   key.NewBinding(key.WithKeys(" ", "space", "enter"), key.WithHelp("space", "select")),
		Submit:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "submit")),
		Shuffle:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "shuffle")),
		Deselect: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "deselect all")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// help renders the one-line key legend.
func (k keyMap) help() string {
	var out string
	for i, b := range []key.Binding{k.Up, k.Down, k.Left, k.Right, k.Toggle, k.Submit, k.Shuffle, k.Deselect, k.Quit} {
		if i > 0 {
			out += "  "
		}
		h := b.Help()
		out += h.Key + " " + h.Desc
	}
	return out
}
