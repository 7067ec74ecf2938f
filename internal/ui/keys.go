package ui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/dori/todo/internal/ui/views"
)

// KeyMap defines all keybindings for the application
type KeyMap struct {
	List views.ListKeyMap

	Help       key.Binding
	ThemeCycle key.Binding
	Quit       key.Binding
}

// DefaultKeyMap returns the default keybindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		List: views.DefaultListKeys(),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		ThemeCycle: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "theme"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns short help bindings (for status bar)
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns full help bindings (for help view)
func (k KeyMap) FullHelp() [][]key.Binding {
	l := k.List
	return [][]key.Binding{
		{l.Up, l.Down, l.Top, l.Bottom},
		{l.Add, l.Edit, l.Toggle, l.Delete},
		{l.Sort, l.Mic, l.Reload, l.Dismiss},
		{k.ThemeCycle, k.Help, k.Quit},
	}
}
