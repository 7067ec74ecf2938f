// Package store defines the persistence contract the todo controller depends on.
package store

import (
	"context"
	"errors"

	"github.com/dori/todo/internal/model"
)

var (
	// ErrNotFound is returned when no todo has the requested id.
	ErrNotFound = errors.New("todo not found")

	// ErrInvalid is returned when a request is rejected as invalid, e.g. blank text.
	ErrInvalid = errors.New("invalid todo")

	// ErrMalformed is returned when a response does not have the expected shape.
	ErrMalformed = errors.New("malformed response")
)

// Store is the remote to-do collection.
// Every mutating call returns the store's canonical record; callers must
// treat it as authoritative rather than their own request payload.
type Store interface {
	// List returns the collection filtered and ordered by mode.
	List(ctx context.Context, mode model.SortMode) ([]model.Todo, error)

	// Create adds a todo and returns the stored record.
	Create(ctx context.Context, draft model.Draft) (model.Todo, error)

	// Update changes a todo's text.
	Update(ctx context.Context, id model.ID, draft model.Draft) (model.Todo, error)

	// UpdateCompleted stores todo, whose Completed flag the caller has already flipped.
	UpdateCompleted(ctx context.Context, id model.ID, todo model.Todo) (model.Todo, error)

	// Remove deletes a todo.
	Remove(ctx context.Context, id model.ID) error
}
