// Package ui is the terminal front end.
package ui

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dori/todo/internal/app"
	"github.com/dori/todo/internal/ui/theme"
	"github.com/dori/todo/internal/ui/views"
)

// RootModel is the main application model
type RootModel struct {
	app    *app.App
	keys   KeyMap
	help   help.Model
	width  int
	height int

	listView    views.ListView
	helpVisible bool

	statusMsg string
}

// NewRootModel creates a new root model
func NewRootModel(ctx context.Context, application *app.App) RootModel {
	h := help.New()
	h.ShowAll = true

	return RootModel{
		app:      application,
		keys:     DefaultKeyMap(),
		help:     h,
		listView: views.NewListView(ctx, application.Controller),
	}
}

// Init initializes the model
func (m RootModel) Init() tea.Cmd {
	return m.listView.Init()
}

// Close releases the list view's subscription
func (m RootModel) Close() {
	m.listView.Close()
}

// Update handles messages
func (m RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		// Header takes one line, footer up to three
		m.listView = m.listView.SetSize(m.width, m.height-4)

	case tea.KeyMsg:
		m.statusMsg = ""
		if m.listView.Toast() != "" {
			m.app.Controller.DismissToast()
		}

		isInputMode := m.listView.IsInputMode()

		switch {
		case key.Matches(msg, m.keys.Quit):
			// ctrl+c always quits, but 'q' only quits when not in input mode
			if msg.String() == "ctrl+c" || !isInputMode {
				return m, tea.Quit
			}

		case key.Matches(msg, m.keys.ThemeCycle):
			m.cycleTheme()
			return m, nil
		}

		if !isInputMode && key.Matches(msg, m.keys.Help) {
			m.helpVisible = !m.helpVisible
			return m, nil
		}
		if m.helpVisible && msg.String() == "esc" {
			m.helpVisible = false
			return m, nil
		}
	}

	newListView, cmd := m.listView.Update(msg)
	m.listView = newListView.(views.ListView)
	return m, cmd
}

func (m *RootModel) cycleTheme() {
	next := theme.Next(theme.Current.Theme.Name)
	theme.SetTheme(next)
	m.statusMsg = fmt.Sprintf("Theme: %s", next.Name)
}

// View renders the UI
func (m RootModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var sections []string
	sections = append(sections, m.renderHeader())

	footer := m.renderFooter()
	contentHeight := m.height - 1 - lipgloss.Height(footer)

	var content string
	if m.helpVisible {
		content = m.help.View(m.keys)
	} else {
		content = m.listView.View()
	}

	// Ensure content fills available space
	contentLines := strings.Count(content, "\n") + 1
	if contentLines < contentHeight {
		content += strings.Repeat("\n", contentHeight-contentLines)
	}
	sections = append(sections, content, footer)

	return strings.Join(sections, "\n")
}

// storeLabel names where todos are kept
func (m RootModel) storeLabel() string {
	cfg := m.app.Config
	if cfg.UsesLocalStore() {
		return "local"
	}
	if u, err := url.Parse(cfg.ServerURL); err == nil && u.Host != "" {
		return u.Host
	}
	return "remote"
}

// renderHeader renders the header bar
func (m RootModel) renderHeader() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	title := styles.Header.Render("todo")
	sortIndicator := styles.Badge.Render(fmt.Sprintf("[%s]", m.listView.SortLabel()))
	storeIndicator := styles.Badge.Render(m.storeLabel())
	themeIndicator := styles.Badge.Render(fmt.Sprintf("theme: %s", t.Name))

	leftSide := lipgloss.JoinHorizontal(lipgloss.Center, title, sortIndicator, storeIndicator)
	rightSide := themeIndicator

	gap := m.width - lipgloss.Width(leftSide) - lipgloss.Width(rightSide)
	if gap < 0 {
		gap = 0
	}

	return leftSide + strings.Repeat(" ", gap) + rightSide
}

// renderFooter renders the footer/status bar
func (m RootModel) renderFooter() string {
	styles := theme.Current.Styles

	key := func(k, desc string) string {
		return styles.HelpKey.Render(k) + styles.HelpDesc.Render(" "+desc)
	}
	sep := styles.HelpSeparator.Render(" │ ")

	var lines []string
	if toast := m.listView.Toast(); toast != "" {
		lines = append(lines, styles.Toast.Render(toast))
	} else if m.statusMsg != "" {
		lines = append(lines, styles.Status.Render(m.statusMsg))
	}

	if m.listView.IsInputMode() {
		lines = append(lines, key("enter", "confirm")+sep+key("esc", "cancel")+sep+key("ctrl+s", "speak"))
		return strings.Join(lines, "\n")
	}

	lines = append(lines,
		key("a", "add")+sep+
			key("enter", "edit")+sep+
			key("tab", "done")+sep+
			key("d", "del")+sep+
			key("s", "sort")+sep+
			key("m", "speak"),
		key("r", "reload")+sep+
			key("ctrl+t", "theme")+sep+
			key("?", "help")+sep+
			key("q", "quit"),
	)
	return strings.Join(lines, "\n")
}
