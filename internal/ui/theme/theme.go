// Package theme holds the color palettes and derived lipgloss styles.
package theme

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color scheme for the UI
type Theme struct {
	Name string

	Foreground lipgloss.Color
	Subtle     lipgloss.Color
	Highlight  lipgloss.Color
	Border     lipgloss.Color

	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Info      lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
}

// Styles holds pre-computed lipgloss styles based on theme
type Styles struct {
	Header lipgloss.Style
	Badge  lipgloss.Style

	// Rows
	Item         lipgloss.Style
	ItemSelected lipgloss.Style
	ItemDone     lipgloss.Style
	Check        lipgloss.Style
	Date         lipgloss.Style

	Input        lipgloss.Style
	InputFocused lipgloss.Style
	Recording    lipgloss.Style

	Confirm lipgloss.Style
	Notice  lipgloss.Style
	Toast   lipgloss.Style
	Status  lipgloss.Style
	Empty   lipgloss.Style

	HelpKey       lipgloss.Style
	HelpDesc      lipgloss.Style
	HelpSeparator lipgloss.Style
}

// NewStyles creates styles from a theme
func NewStyles(t Theme) Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true).
			Padding(0, 1),

		Badge: lipgloss.NewStyle().
			Foreground(t.Subtle).
			Padding(0, 1),

		Item: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Padding(0, 1),

		ItemSelected: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Background(t.Highlight).
			Padding(0, 1),

		ItemDone: lipgloss.NewStyle().
			Foreground(t.Subtle).
			Strikethrough(true).
			Padding(0, 1),

		Check: lipgloss.NewStyle().
			Foreground(t.Success),

		Date: lipgloss.NewStyle().
			Foreground(t.Secondary),

		Input: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),

		InputFocused: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(t.Primary).
			Padding(0, 1),

		Recording: lipgloss.NewStyle().
			Foreground(t.Error).
			Bold(true),

		Confirm: lipgloss.NewStyle().
			Foreground(t.Warning).
			Bold(true),

		Notice: lipgloss.NewStyle().
			Foreground(t.Warning).
			Italic(true),

		Toast: lipgloss.NewStyle().
			Foreground(t.Error),

		Status: lipgloss.NewStyle().
			Foreground(t.Info).
			Italic(true),

		Empty: lipgloss.NewStyle().
			Foreground(t.Subtle).
			Italic(true).
			Padding(1, 0),

		HelpKey: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true),

		HelpDesc: lipgloss.NewStyle().
			Foreground(t.Subtle),

		HelpSeparator: lipgloss.NewStyle().
			Foreground(t.Border),
	}
}

// Current holds the current active theme and styles
var Current = struct {
	Theme  Theme
	Styles Styles
}{
	Theme:  Nord,
	Styles: NewStyles(Nord),
}

// SetTheme changes the current theme
func SetTheme(t Theme) {
	Current.Theme = t
	Current.Styles = NewStyles(t)
}

// Available returns all available themes
func Available() []Theme {
	return []Theme{Nord, Dracula, Gruvbox, Catppuccin}
}

// ByName returns a theme by its name
func ByName(name string) (Theme, bool) {
	for _, t := range Available() {
		if t.Name == name {
			return t, true
		}
	}
	return Theme{}, false
}

// Next returns the theme after the one called name, wrapping around.
func Next(name string) Theme {
	themes := Available()
	for i, t := range themes {
		if t.Name == name {
			return themes[(i+1)%len(themes)]
		}
	}
	return themes[0]
}
