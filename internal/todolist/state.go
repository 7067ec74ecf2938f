package todolist

import (
	"github.com/dori/todo/internal/model"
)

// Target identifies the record a pending prompt or edit refers to.
// For an edit, Text is the draft being edited.
type Target struct {
	ID   model.ID
	Text string
}

// State is a snapshot of everything the presentation layer renders.
type State struct {
	Items    []model.Todo
	SortMode model.SortMode

	PendingDelete *Target
	PendingEdit   *Target

	// Draft is the text in the add input.
	Draft string

	MicActive         bool
	UnsupportedNotice bool

	// Toast is the last failure to show the user, if any.
	Toast   string
	Loading bool
}

// EditKey is a key the edit field reacts to
type EditKey int

const (
	KeyConfirm EditKey = iota
	KeyCancel
)

func (s State) clone() State {
	out := s
	out.Items = append([]model.Todo(nil), s.Items...)
	if s.PendingDelete != nil {
		t := *s.PendingDelete
		out.PendingDelete = &t
	}
	if s.PendingEdit != nil {
		t := *s.PendingEdit
		out.PendingEdit = &t
	}
	return out
}

// IsEditing reports whether id is the record being edited.
func (s State) IsEditing(id model.ID) bool {
	return s.PendingEdit != nil && s.PendingEdit.ID == id
}

// View returns the derived view of the snapshot.
func (s State) View() []model.Todo {
	return Derive(s.Items, s.SortMode)
}
