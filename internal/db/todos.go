package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dori/todo/internal/model"
	"github.com/dori/todo/internal/store"
	"github.com/google/uuid"
)

const todoColumns = `id, text, completed, created_at`

// List returns todos filtered and ordered by mode.
// Ties on the calendar date keep insertion order.
func (db *DB) List(ctx context.Context, mode model.SortMode) ([]model.Todo, error) {
	where, order, err := listClauses(mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalid, err)
	}

	rows, err := db.QueryContext(ctx, `SELECT `+todoColumns+` FROM todos `+where+` ORDER BY `+order)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTodos(rows)
}

func listClauses(mode model.SortMode) (where, order string, err error) {
	switch mode {
	case model.SortAll, "":
		return "", "seq", nil
	case model.SortLatest:
		return "", "substr(created_at, 1, 10) DESC, seq", nil
	case model.SortOldest:
		return "", "substr(created_at, 1, 10) ASC, seq", nil
	case model.SortCompleted:
		return "WHERE completed = 1", "seq", nil
	case model.SortNotCompleted:
		return "WHERE completed = 0", "seq", nil
	default:
		return "", "", fmt.Errorf("unknown sort mode %q", mode)
	}
}

// GetTodo returns a single todo by ID
func (db *DB) GetTodo(ctx context.Context, id model.ID) (model.Todo, error) {
	return db.getTodo(ctx, db.DB, id)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func (db *DB) getTodo(ctx context.Context, q queryer, id model.ID) (model.Todo, error) {
	row := q.QueryRowContext(ctx, `SELECT `+todoColumns+` FROM todos WHERE id = ?`, id.String())
	t, err := scanTodo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Todo{}, store.ErrNotFound
	}
	return t, err
}

// Create creates a new todo stamped with today's KST date
func (db *DB) Create(ctx context.Context, draft model.Draft) (model.Todo, error) {
	text := strings.TrimSpace(draft.Text)
	if text == "" {
		return model.Todo{}, store.ErrInvalid
	}

	now := db.now()
	todo := model.Todo{
		ID:        model.ID(uuid.New().String()),
		Text:      text,
		CreatedAt: model.CreationDate(now),
	}
	if draft.Completed != nil {
		todo.Completed = *draft.Completed
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO todos (id, text, completed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, todo.ID.String(), todo.Text, todo.Completed, todo.CreatedAt, now)
	if err != nil {
		return model.Todo{}, err
	}

	return todo, nil
}

// Update changes a todo's text
func (db *DB) Update(ctx context.Context, id model.ID, draft model.Draft) (model.Todo, error) {
	text := strings.TrimSpace(draft.Text)
	if text == "" {
		return model.Todo{}, store.ErrInvalid
	}
	return db.updateAndGet(ctx, id, `UPDATE todos SET text = ?, updated_at = ? WHERE id = ?`, text)
}

// UpdateCompleted stores the completed flag of todo
func (db *DB) UpdateCompleted(ctx context.Context, id model.ID, todo model.Todo) (model.Todo, error) {
	return db.updateAndGet(ctx, id, `UPDATE todos SET completed = ?, updated_at = ? WHERE id = ?`, todo.Completed)
}

func (db *DB) updateAndGet(ctx context.Context, id model.ID, query string, value interface{}) (model.Todo, error) {
	var updated model.Todo
	err := db.Transaction(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, value, db.now(), id.String())
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return store.ErrNotFound
		}

		updated, err = db.getTodo(ctx, tx, id)
		return err
	})
	return updated, err
}

// Remove deletes a todo
func (db *DB) Remove(ctx context.Context, id model.ID) error {
	res, err := db.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Helper functions

func scanTodos(rows *sql.Rows) ([]model.Todo, error) {
	todos := []model.Todo{}
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, t)
	}
	return todos, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTodo(s scanner) (model.Todo, error) {
	var t model.Todo
	var id string
	var completed int

	if err := s.Scan(&id, &t.Text, &completed, &t.CreatedAt); err != nil {
		return model.Todo{}, err
	}
	t.ID = model.ID(id)
	t.Completed = completed == 1
	return t, nil
}

var _ store.Store = (*DB)(nil)
