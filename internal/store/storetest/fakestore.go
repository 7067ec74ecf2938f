// Package storetest provides an in-memory store.Store for tests.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dori/todo/internal/model"
	"github.com/dori/todo/internal/store"
)

// FakeStore is an in-memory implementation of store.Store.
// Returned records go through Normalize so tests can check that callers
// use the server's copy rather than their own payload.
type FakeStore struct {
	mu     sync.Mutex
	todos  []model.Todo
	nextID int
	calls  map[string]int

	// Date stamped on created todos.
	Today string

	// Normalize rewrites text on the way in, like a server might. Defaults to trimming.
	Normalize func(string) string

	// Error injection
	ListErr            error
	CreateErr          error
	UpdateErr          error
	UpdateCompletedErr error
	RemoveErr          error

	// Before runs ahead of every call, e.g. to block on a channel.
	// A non-nil error is returned from the call as is.
	Before func(ctx context.Context, method string) error
}

// NewFakeStore creates an empty FakeStore.
func NewFakeStore() *FakeStore {
	return &FakeStore{
		calls:     make(map[string]int),
		Today:     "2025-06-08",
		Normalize: strings.TrimSpace,
	}
}

// Seed replaces the contents of the store.
func (f *FakeStore) Seed(todos ...model.Todo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.todos = append([]model.Todo(nil), todos...)
}

// Todos returns a copy of the stored records in insertion order.
func (f *FakeStore) Todos() []model.Todo {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Todo(nil), f.todos...)
}

// Calls returns how many times method was called.
func (f *FakeStore) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *FakeStore) record(ctx context.Context, method string) error {
	f.mu.Lock()
	f.calls[method]++
	f.mu.Unlock()
	if f.Before != nil {
		return f.Before(ctx, method)
	}
	return nil
}

// List implements store.Store.
func (f *FakeStore) List(ctx context.Context, mode model.SortMode) ([]model.Todo, error) {
	if err := f.record(ctx, "List"); err != nil {
		return nil, err
	}
	if f.ListErr != nil {
		return nil, f.ListErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]model.Todo, 0, len(f.todos))
	for _, t := range f.todos {
		switch mode {
		case model.SortCompleted:
			if !t.Completed {
				continue
			}
		case model.SortNotCompleted:
			if t.Completed {
				continue
			}
		}
		out = append(out, t)
	}
	switch mode {
	case model.SortLatest:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Date() > out[j].Date() })
	case model.SortOldest:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Date() < out[j].Date() })
	}
	return out, nil
}

// Create implements store.Store.
func (f *FakeStore) Create(ctx context.Context, draft model.Draft) (model.Todo, error) {
	if err := f.record(ctx, "Create"); err != nil {
		return model.Todo{}, err
	}
	if f.CreateErr != nil {
		return model.Todo{}, f.CreateErr
	}
	text := f.normalize(draft.Text)
	if text == "" {
		return model.Todo{}, store.ErrInvalid
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	todo := model.Todo{
		ID:        model.ID(fmt.Sprintf("fake-%d", f.nextID)),
		Text:      text,
		CreatedAt: f.Today,
	}
	if draft.Completed != nil {
		todo.Completed = *draft.Completed
	}
	f.todos = append(f.todos, todo)
	return todo, nil
}

// Update implements store.Store.
func (f *FakeStore) Update(ctx context.Context, id model.ID, draft model.Draft) (model.Todo, error) {
	if err := f.record(ctx, "Update"); err != nil {
		return model.Todo{}, err
	}
	if f.UpdateErr != nil {
		return model.Todo{}, f.UpdateErr
	}
	text := f.normalize(draft.Text)
	if text == "" {
		return model.Todo{}, store.ErrInvalid
	}
	return f.modify(id, func(t *model.Todo) { t.Text = text })
}

// UpdateCompleted implements store.Store.
func (f *FakeStore) UpdateCompleted(ctx context.Context, id model.ID, todo model.Todo) (model.Todo, error) {
	if err := f.record(ctx, "UpdateCompleted"); err != nil {
		return model.Todo{}, err
	}
	if f.UpdateCompletedErr != nil {
		return model.Todo{}, f.UpdateCompletedErr
	}
	return f.modify(id, func(t *model.Todo) { t.Completed = todo.Completed })
}

// Remove implements store.Store.
func (f *FakeStore) Remove(ctx context.Context, id model.ID) error {
	if err := f.record(ctx, "Remove"); err != nil {
		return err
	}
	if f.RemoveErr != nil {
		return f.RemoveErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.todos {
		if t.ID == id {
			f.todos = append(f.todos[:i], f.todos[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *FakeStore) modify(id model.ID, fn func(*model.Todo)) (model.Todo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.todos {
		if f.todos[i].ID == id {
			fn(&f.todos[i])
			return f.todos[i], nil
		}
	}
	return model.Todo{}, store.ErrNotFound
}

func (f *FakeStore) normalize(text string) string {
	if f.Normalize == nil {
		return text
	}
	return f.Normalize(text)
}

var _ store.Store = (*FakeStore)(nil)
