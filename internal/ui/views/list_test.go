package views

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/dori/todo/internal/model"
	"github.com/dori/todo/internal/store/storetest"
	"github.com/dori/todo/internal/todolist"
)

func newTestList(t *testing.T) (ListView, *storetest.FakeStore, *todolist.Controller) {
	t.Helper()
	fs := storetest.NewFakeStore()
	fs.Seed(
		model.Todo{ID: "1", Text: "one", CreatedAt: "2025-06-01"},
		model.Todo{ID: "2", Text: "two", Completed: true, CreatedAt: "2025-06-03"},
		model.Todo{ID: "3", Text: "three", CreatedAt: "2025-06-02"},
	)
	ctrl := todolist.New(fs, nil)
	t.Cleanup(func() { _ = ctrl.Close() })
	require.NoError(t, ctrl.Load(context.Background()))

	v := NewListView(context.Background(), ctrl).SetSize(80, 24)
	t.Cleanup(v.Close)
	return v, fs, ctrl
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends msg and discards any command.
func press(v ListView, msg tea.KeyMsg) ListView {
	m, _ := v.Update(msg)
	return m.(ListView)
}

// pressRun sends msg and feeds the resulting controller call back in.
func pressRun(t *testing.T, v ListView, msg tea.KeyMsg) (ListView, error) {
	t.Helper()
	m, cmd := v.Update(msg)
	require.NotNil(t, cmd)
	done, ok := cmd().(opDoneMsg)
	require.True(t, ok)
	m, _ = m.(ListView).Update(done)
	return m.(ListView), done.err
}

func typeText(v ListView, s string) ListView {
	for _, r := range s {
		v = press(v, runes(string(r)))
	}
	return v
}

func TestListRendersLoadedTodos(t *testing.T) {
	v, _, _ := newTestList(t)

	out := v.View()
	require.Contains(t, out, "one")
	require.Contains(t, out, "two")
	require.Contains(t, out, "2025-06-03")
	require.False(t, v.IsInputMode())
}

func TestListEmptyState(t *testing.T) {
	ctrl := todolist.New(storetest.NewFakeStore(), nil)
	defer ctrl.Close()
	v := NewListView(context.Background(), ctrl).SetSize(80, 24)
	defer v.Close()

	require.Contains(t, v.View(), "Nothing to do")
}

func TestListAddFromInput(t *testing.T) {
	v, fs, ctrl := newTestList(t)

	v = press(v, runes("a"))
	require.True(t, v.IsInputMode())
	v = typeText(v, "milk")
	require.Equal(t, "milk", ctrl.State().Draft)

	v, err := pressRun(t, v, tea.KeyMsg{Type: tea.KeyEnter})
	require.NoError(t, err)
	require.Len(t, fs.Todos(), 4)
	require.Equal(t, "", v.input.Value())
	require.Equal(t, ListModeAdd, v.mode)
	require.Contains(t, v.View(), "milk")

	v = press(v, tea.KeyMsg{Type: tea.KeyEsc})
	require.Equal(t, ListModeNormal, v.mode)
}

func TestListAddBlankIsIgnored(t *testing.T) {
	v, fs, _ := newTestList(t)

	v = press(v, runes("a"))
	v = typeText(v, "   ")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Nil(t, cmd)
	require.Equal(t, 0, fs.Calls("Create"))
}

func TestListToggleSelected(t *testing.T) {
	v, fs, _ := newTestList(t)

	v = press(v, runes("j"))
	require.Equal(t, 1, v.cursor)

	v, err := pressRun(t, v, tea.KeyMsg{Type: tea.KeyTab})
	require.NoError(t, err)
	require.False(t, fs.Todos()[1].Completed)
	require.False(t, v.items[1].Completed)
}

func TestListCursorStaysInRange(t *testing.T) {
	v, _, _ := newTestList(t)

	v = press(v, runes("k"))
	require.Equal(t, 0, v.cursor)
	v = press(v, runes("G"))
	require.Equal(t, 2, v.cursor)
	v = press(v, runes("j"))
	require.Equal(t, 2, v.cursor)
	v = press(v, runes("g"))
	require.Equal(t, 0, v.cursor)
}

func TestListDeleteConfirm(t *testing.T) {
	v, fs, _ := newTestList(t)

	v = press(v, runes("d"))
	require.True(t, v.IsInputMode())
	require.Contains(t, v.View(), `Delete "one"? (y/n)`)

	v, err := pressRun(t, v, runes("y"))
	require.NoError(t, err)
	require.Len(t, fs.Todos(), 2)
	require.Nil(t, v.state.PendingDelete)
	require.NotContains(t, v.View(), "one")
}

func TestListDeleteCancel(t *testing.T) {
	v, fs, _ := newTestList(t)

	v = press(v, runes("d"))
	v = press(v, runes("n"))
	require.Nil(t, v.state.PendingDelete)
	require.False(t, v.IsInputMode())
	require.Equal(t, 0, fs.Calls("Remove"))
}

func TestListEditSave(t *testing.T) {
	v, fs, ctrl := newTestList(t)

	v = press(v, runes("e"))
	require.True(t, v.state.IsEditing("1"))
	require.Equal(t, "one", v.editInput.Value())

	v = typeText(v, "!")
	require.Equal(t, "one!", ctrl.State().PendingEdit.Text)

	v, err := pressRun(t, v, tea.KeyMsg{Type: tea.KeyEnter})
	require.NoError(t, err)
	require.Equal(t, "one!", fs.Todos()[0].Text)
	require.Nil(t, v.state.PendingEdit)
	require.False(t, v.IsInputMode())
}

func TestListEditEscCancels(t *testing.T) {
	v, fs, _ := newTestList(t)

	v = press(v, runes("e"))
	v = typeText(v, "xx")
	v = press(v, tea.KeyMsg{Type: tea.KeyEsc})
	require.Nil(t, v.state.PendingEdit)
	require.Equal(t, 0, fs.Calls("Update"))
	require.Equal(t, "one", v.items[0].Text)
}

func TestListEditAbandonedOnMove(t *testing.T) {
	v, _, _ := newTestList(t)

	v = press(v, runes("e"))
	v = press(v, tea.KeyMsg{Type: tea.KeyDown})
	require.Nil(t, v.state.PendingEdit)
	require.Equal(t, 1, v.cursor)
}

func TestListSortCycles(t *testing.T) {
	v, _, _ := newTestList(t)

	v, err := pressRun(t, v, runes("s"))
	require.NoError(t, err)
	require.Equal(t, model.SortLatest, v.state.SortMode)
	require.Equal(t, model.ID("2"), v.items[0].ID)
	require.Contains(t, v.statusMsg, "Latest")
}

func TestListBusyShowsStatus(t *testing.T) {
	v, _, _ := newTestList(t)

	m, _ := v.Update(opDoneMsg{op: "toggle", err: todolist.ErrBusy})
	require.Contains(t, m.(ListView).View(), "Still saving")
}

func TestListUnsupportedMicShowsNotice(t *testing.T) {
	v, _, _ := newTestList(t)

	v, err := pressRun(t, v, runes("m"))
	require.NoError(t, err)
	require.True(t, v.state.UnsupportedNotice)
	require.Contains(t, v.View(), "not supported")

	v = press(v, tea.KeyMsg{Type: tea.KeyEsc})
	v = press(v, tea.KeyMsg{Type: tea.KeyEsc})
	require.False(t, v.state.UnsupportedNotice)
}

func TestListWaitsForStateChanges(t *testing.T) {
	v, _, ctrl := newTestList(t)

	ctrl.SetDraft("from elsewhere")

	msgc := make(chan tea.Msg, 1)
	go func() { msgc <- v.waitForChange()() }()

	select {
	case msg := <-msgc:
		require.IsType(t, stateChangedMsg{}, msg)
		m, cmd := v.Update(msg)
		require.NotNil(t, cmd)
		require.Equal(t, "from elsewhere", m.(ListView).input.Value())
	case <-time.After(time.Second):
		t.Fatal("no state change delivered")
	}
}

func TestListWaitEndsWithContext(t *testing.T) {
	ctrl := todolist.New(storetest.NewFakeStore(), nil)
	defer ctrl.Close()
	ctx, cancel := context.WithCancel(context.Background())
	v := NewListView(ctx, ctrl)
	defer v.Close()

	cancel()
	require.Nil(t, v.waitForChange()())
}
