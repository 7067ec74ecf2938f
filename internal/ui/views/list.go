package views

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dori/todo/internal/model"
	"github.com/dori/todo/internal/todolist"
	"github.com/dori/todo/internal/ui/theme"
)

// ListMode represents the current input mode of the list view
type ListMode int

const (
	ListModeNormal ListMode = iota
	ListModeAdd
)

// ListKeyMap holds the list view's normal-mode bindings
type ListKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Top     key.Binding
	Bottom  key.Binding
	Add     key.Binding
	Edit    key.Binding
	Toggle  key.Binding
	Delete  key.Binding
	Sort    key.Binding
	Mic     key.Binding
	Reload  key.Binding
	Dismiss key.Binding
}

// DefaultListKeys returns the default list bindings
func DefaultListKeys() ListKeyMap {
	return ListKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G"),
			key.WithHelp("G", "bottom"),
		),
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add"),
		),
		Edit: key.NewBinding(
			key.WithKeys("enter", "e"),
			key.WithHelp("enter", "edit"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("tab", "x"),
			key.WithHelp("tab", "done"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Sort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sort"),
		),
		Mic: key.NewBinding(
			key.WithKeys("m", "ctrl+s"),
			key.WithHelp("m", "speak"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "dismiss"),
		),
	}
}

// stateChangedMsg is sent when the controller published a new snapshot.
type stateChangedMsg struct{}

// opDoneMsg reports the end of a controller call run as a command.
type opDoneMsg struct {
	op  string
	err error
}

// ListView renders the to-do list and forwards input to the controller.
type ListView struct {
	ctx  context.Context
	ctrl *todolist.Controller
	keys ListKeyMap

	changes     chan struct{}
	unsubscribe func()

	state todolist.State
	items []model.Todo

	width        int
	height       int
	cursor       int
	scrollOffset int

	mode      ListMode
	input     textinput.Model
	editInput textinput.Model
	editingID model.ID

	statusMsg string
}

// NewListView creates a list view over ctrl. Controller calls that reach the
// store run with ctx.
func NewListView(ctx context.Context, ctrl *todolist.Controller) ListView {
	ti := textinput.New()
	ti.Placeholder = "New todo..."
	ti.CharLimit = 256

	ei := textinput.New()
	ei.CharLimit = 256

	changes := make(chan struct{}, 1)
	unsubscribe := ctrl.Subscribe(func(todolist.State) {
		select {
		case changes <- struct{}{}:
		default:
		}
	})

	v := ListView{
		ctx:         ctx,
		ctrl:        ctrl,
		keys:        DefaultListKeys(),
		changes:     changes,
		unsubscribe: unsubscribe,
		input:       ti,
		editInput:   ei,
	}
	v.refresh()
	return v
}

// Init loads the list and starts listening for state changes
func (v ListView) Init() tea.Cmd {
	return tea.Batch(v.run("load", v.ctrl.Load), v.waitForChange())
}

// Close stops listening for state changes
func (v ListView) Close() {
	v.unsubscribe()
}

// Keys returns the view's bindings
func (v ListView) Keys() ListKeyMap {
	return v.keys
}

// IsInputMode returns true when the view is capturing text input
func (v ListView) IsInputMode() bool {
	return v.mode == ListModeAdd || v.state.PendingEdit != nil || v.state.PendingDelete != nil
}

// SetSize updates the view dimensions
func (v ListView) SetSize(width, height int) ListView {
	v.width = width
	v.height = height
	v.input.Width = width - 6
	v.editInput.Width = width - 20
	return v
}

func (v ListView) waitForChange() tea.Cmd {
	changes, ctx := v.changes, v.ctx
	return func() tea.Msg {
		select {
		case <-changes:
			return stateChangedMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}

// run executes a blocking controller call off the update loop.
func (v ListView) run(op string, fn func(ctx context.Context) error) tea.Cmd {
	ctx := v.ctx
	return func() tea.Msg {
		return opDoneMsg{op: op, err: fn(ctx)}
	}
}

// refresh copies the controller state into the view.
func (v *ListView) refresh() {
	v.state = v.ctrl.State()
	v.items = v.state.View()

	if v.cursor >= len(v.items) {
		v.cursor = max(0, len(v.items)-1)
	}
	v.ensureCursorVisible()

	if v.input.Value() != v.state.Draft {
		v.input.SetValue(v.state.Draft)
	}

	switch edit := v.state.PendingEdit; {
	case edit == nil:
		v.editingID = ""
		v.editInput.Blur()
	case edit.ID != v.editingID:
		v.editingID = edit.ID
		v.editInput.SetValue(edit.Text)
		v.editInput.Focus()
	case v.editInput.Value() != edit.Text:
		v.editInput.SetValue(edit.Text)
	}
}

func (v ListView) visibleTaskCount() int {
	// Reserve lines for the input box, prompts and status
	available := v.height - 6
	if available < 1 {
		available = 1
	}
	return available
}

// ensureCursorVisible adjusts scrollOffset to keep cursor in view
func (v *ListView) ensureCursorVisible() {
	visible := v.visibleTaskCount()

	if v.cursor < v.scrollOffset {
		v.scrollOffset = v.cursor
	}
	if v.cursor >= v.scrollOffset+visible {
		v.scrollOffset = v.cursor - visible + 1
	}

	maxOffset := max(0, len(v.items)-visible)
	v.scrollOffset = min(max(v.scrollOffset, 0), maxOffset)
}

func (v ListView) selected() (model.Todo, bool) {
	if v.cursor < 0 || v.cursor >= len(v.items) {
		return model.Todo{}, false
	}
	return v.items[v.cursor], true
}

// Update handles messages for the list view
func (v ListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateChangedMsg:
		v.refresh()
		return v, v.waitForChange()

	case opDoneMsg:
		switch {
		case errors.Is(msg.err, todolist.ErrBusy):
			v.statusMsg = "Still saving, try again in a moment"
		case msg.err != nil && msg.op == "sort":
			v.statusMsg = msg.err.Error()
		}
		v.refresh()
		return v, nil

	case tea.KeyMsg:
		switch {
		case v.state.PendingDelete != nil:
			return v.handleDeleteConfirm(msg)
		case v.state.PendingEdit != nil:
			return v.handleEditMode(msg)
		case v.mode == ListModeAdd:
			return v.handleAddMode(msg)
		default:
			return v.handleNormalMode(msg)
		}
	}

	var cmd tea.Cmd
	switch {
	case v.state.PendingEdit != nil:
		v.editInput, cmd = v.editInput.Update(msg)
	case v.mode == ListModeAdd:
		v.input, cmd = v.input.Update(msg)
	}
	return v, cmd
}

// SortLabel returns the active sort mode's display name
func (v ListView) SortLabel() string {
	return v.state.SortMode.Label()
}

// Toast returns the last failure reported by the controller
func (v ListView) Toast() string {
	return v.state.Toast
}

// handleNormalMode handles keypresses in normal mode
func (v ListView) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v.statusMsg = ""

	switch {
	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
		}
		v.ensureCursorVisible()

	case key.Matches(msg, v.keys.Down):
		if v.cursor < len(v.items)-1 {
			v.cursor++
		}
		v.ensureCursorVisible()

	case key.Matches(msg, v.keys.Top):
		v.cursor = 0
		v.ensureCursorVisible()

	case key.Matches(msg, v.keys.Bottom):
		v.cursor = max(0, len(v.items)-1)
		v.ensureCursorVisible()

	case key.Matches(msg, v.keys.Add):
		v.mode = ListModeAdd
		cmd := v.input.Focus()
		return v, cmd

	case key.Matches(msg, v.keys.Edit):
		if todo, ok := v.selected(); ok {
			v.ctrl.BeginEdit(todo.ID, todo.Text)
			v.refresh()
			return v, textinput.Blink
		}

	case key.Matches(msg, v.keys.Toggle):
		if todo, ok := v.selected(); ok {
			id := todo.ID
			return v, v.run("toggle", func(ctx context.Context) error {
				return v.ctrl.ToggleCompleted(ctx, id)
			})
		}

	case key.Matches(msg, v.keys.Delete):
		if todo, ok := v.selected(); ok {
			v.ctrl.RequestDelete(todo.ID, todo.Text)
			v.refresh()
		}

	case key.Matches(msg, v.keys.Sort):
		next := v.state.SortMode.Next()
		v.statusMsg = "Sort: " + next.Label()
		return v, v.run("sort", func(ctx context.Context) error {
			return v.ctrl.SetSortMode(ctx, next)
		})

	case key.Matches(msg, v.keys.Mic):
		return v.toggleMic()

	case key.Matches(msg, v.keys.Reload):
		return v, v.run("load", v.ctrl.Load)

	case key.Matches(msg, v.keys.Dismiss):
		v.ctrl.DismissNotice()
		v.ctrl.DismissToast()
		v.refresh()
	}

	return v, nil
}

// toggleMic starts or stops capture. The draft input is shown while capturing.
func (v ListView) toggleMic() (tea.Model, tea.Cmd) {
	if !v.state.MicActive {
		v.mode = ListModeAdd
		v.input.Focus()
	}
	return v, v.run("mic", v.ctrl.ToggleMic)
}

// handleAddMode handles keypresses while the add input has focus
func (v ListView) handleAddMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		text := v.input.Value()
		if model.IsBlank(text) {
			return v, nil
		}
		return v, v.run("add", func(ctx context.Context) error {
			return v.ctrl.Add(ctx, text)
		})
	case "esc":
		v.mode = ListModeNormal
		v.input.Blur()
		return v, nil
	case "ctrl+s":
		return v.toggleMic()
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	if v.input.Value() != v.state.Draft {
		v.ctrl.SetDraft(v.input.Value())
		v.refresh()
	}
	return v, cmd
}

// handleEditMode handles keypresses in the inline edit field
func (v ListView) handleEditMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return v, v.run("save", func(ctx context.Context) error {
			return v.ctrl.HandleEditKey(ctx, todolist.KeyConfirm)
		})
	case "esc":
		_ = v.ctrl.HandleEditKey(v.ctx, todolist.KeyCancel)
		v.refresh()
		return v, nil
	case "up", "down":
		// Moving off the row leaves the field.
		v.ctrl.BlurEdit()
		v.refresh()
		return v.handleNormalMode(msg)
	}

	var cmd tea.Cmd
	v.editInput, cmd = v.editInput.Update(msg)
	if v.editInput.Value() != v.state.PendingEdit.Text {
		v.ctrl.UpdateEditDraft(v.editInput.Value())
		v.refresh()
	}
	return v, cmd
}

// handleDeleteConfirm handles the delete prompt
func (v ListView) handleDeleteConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		return v, v.run("delete", v.ctrl.ConfirmDelete)
	case "n", "N", "esc":
		v.ctrl.CancelDelete()
		v.refresh()
	}
	return v, nil
}

// View renders the list view
func (v ListView) View() string {
	styles := theme.Current.Styles

	var b strings.Builder

	if v.mode == ListModeAdd || v.state.MicActive {
		box := v.input.View()
		if v.state.MicActive {
			box = styles.Recording.Render("● REC ") + box
		}
		b.WriteString(styles.InputFocused.Render(box))
		b.WriteString("\n")
	}

	if v.state.UnsupportedNotice {
		b.WriteString(styles.Notice.Render("Speech recognition is not supported here."))
		b.WriteString("\n")
	}

	if target := v.state.PendingDelete; target != nil {
		b.WriteString(styles.Confirm.Render(fmt.Sprintf("Delete %q? (y/n)", target.Text)))
		b.WriteString("\n")
	}

	if v.statusMsg != "" {
		b.WriteString(styles.Status.Render(v.statusMsg))
		b.WriteString("\n")
	}

	if len(v.items) == 0 {
		if v.state.Loading {
			b.WriteString(styles.Empty.Render("Loading..."))
		} else {
			b.WriteString(styles.Empty.Render("Nothing to do. Press 'a' to add a todo."))
		}
		return b.String()
	}

	end := min(v.scrollOffset+v.visibleTaskCount(), len(v.items))
	if v.scrollOffset > 0 {
		b.WriteString(styles.Badge.Render(fmt.Sprintf("↑ %d more", v.scrollOffset)))
		b.WriteString("\n")
	}
	for i := v.scrollOffset; i < end; i++ {
		b.WriteString(v.renderTodo(v.items[i], i == v.cursor))
		b.WriteString("\n")
	}
	if end < len(v.items) {
		b.WriteString(styles.Badge.Render(fmt.Sprintf("↓ %d more", len(v.items)-end)))
	}

	return strings.TrimRight(b.String(), "\n")
}

// renderTodo renders a single row
func (v ListView) renderTodo(todo model.Todo, isCursor bool) string {
	styles := theme.Current.Styles

	check := "[ ]"
	if todo.Completed {
		check = styles.Check.Render("[x]")
	}

	date := styles.Date.Render(todo.Date())

	if v.state.IsEditing(todo.ID) {
		return fmt.Sprintf(" %s %s %s", check, v.editInput.View(), date)
	}

	textStyle := styles.Item
	switch {
	case isCursor:
		textStyle = styles.ItemSelected
	case todo.Completed:
		textStyle = styles.ItemDone
	}
	if isCursor && todo.Completed {
		textStyle = textStyle.Strikethrough(true)
	}

	return fmt.Sprintf(" %s%s %s", check, textStyle.Render(todo.Text), date)
}
