package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dori/todo/internal/model"
	"github.com/dori/todo/internal/store"
)

type recorded struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   string
}

func newTestServer(t *testing.T, status int, response string) (*Client, *[]recorded) {
	t.Helper()
	var reqs []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		reqs = append(reqs, recorded{
			Method: r.Method,
			Path:   r.URL.EscapedPath(),
			Query:  r.URL.RawQuery,
			Auth:   r.Header.Get("Authorization"),
			Body:   string(b),
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL)
	require.NoError(t, err)
	return c, &reqs
}

func TestListSendsSortOption(t *testing.T) {
	c, reqs := newTestServer(t, http.StatusOK,
		`[{"id":1,"text":"a","completed":false,"createdAt":"2025-06-08"},
		  {"id":"b2","text":"b","completed":true,"createdAt":"2025-06-07T10:00:00Z"}]`)

	todos, err := c.List(context.Background(), model.SortLatest)
	require.NoError(t, err)
	require.Len(t, todos, 2)
	require.Equal(t, model.ID("1"), todos[0].ID)
	require.Equal(t, model.ID("b2"), todos[1].ID)
	require.Equal(t, "2025-06-07", todos[1].Date())

	require.Len(t, *reqs, 1)
	got := (*reqs)[0]
	require.Equal(t, http.MethodGet, got.Method)
	require.Equal(t, "/api/todoList", got.Path)
	require.Equal(t, "sortOption=latest", got.Query)
}

func TestListEmptyArray(t *testing.T) {
	c, _ := newTestServer(t, http.StatusOK, `[]`)

	todos, err := c.List(context.Background(), model.SortAll)
	require.NoError(t, err)
	require.NotNil(t, todos)
	require.Empty(t, todos)
}

func TestCreatePostsDraftAndReturnsServerRecord(t *testing.T) {
	c, reqs := newTestServer(t, http.StatusCreated,
		`{"id":"srv-1","text":"buy milk","completed":false,"createdAt":"2025-06-08"}`)

	todo, err := c.Create(context.Background(), model.NewDraft("  buy milk  "))
	require.NoError(t, err)
	require.Equal(t, "buy milk", todo.Text)
	require.Equal(t, model.ID("srv-1"), todo.ID)

	got := (*reqs)[0]
	require.Equal(t, http.MethodPost, got.Method)
	require.Equal(t, "/api/todoList", got.Path)
	require.JSONEq(t, `{"text":"  buy milk  ","completed":false}`, got.Body)
}

func TestUpdateSendsOnlyText(t *testing.T) {
	c, reqs := newTestServer(t, http.StatusOK,
		`{"id":"7","text":"new","completed":true,"createdAt":"2025-06-08"}`)

	done := true
	todo, err := c.Update(context.Background(), "7", model.Draft{Text: "new", Completed: &done})
	require.NoError(t, err)
	require.Equal(t, "new", todo.Text)

	got := (*reqs)[0]
	require.Equal(t, http.MethodPut, got.Method)
	require.Equal(t, "/api/todoList/7", got.Path)
	require.JSONEq(t, `{"text":"new"}`, got.Body)
}

func TestUpdateCompletedSendsFullTodo(t *testing.T) {
	c, reqs := newTestServer(t, http.StatusOK,
		`{"id":"7","text":"a","completed":true,"createdAt":"2025-06-08"}`)

	in := model.Todo{ID: "7", Text: "a", Completed: true, CreatedAt: "2025-06-08"}
	todo, err := c.UpdateCompleted(context.Background(), in.ID, in)
	require.NoError(t, err)
	require.True(t, todo.Completed)

	got := (*reqs)[0]
	require.Equal(t, "/api/todoList/7/completed", got.Path)

	var sent model.Todo
	require.NoError(t, json.Unmarshal([]byte(got.Body), &sent))
	require.Equal(t, in, sent)
}

func TestIDsAreEscaped(t *testing.T) {
	c, reqs := newTestServer(t, http.StatusNoContent, ``)

	require.NoError(t, c.Remove(context.Background(), "a/b c"))
	require.Equal(t, "/api/todoList/a%2Fb%20c", (*reqs)[0].Path)
	require.Equal(t, http.MethodDelete, (*reqs)[0].Method)
}

func TestStatusErrorsMapToSentinels(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"not found", http.StatusNotFound, store.ErrNotFound},
		{"bad request", http.StatusBadRequest, store.ErrInvalid},
		{"unprocessable", http.StatusUnprocessableEntity, store.ErrInvalid},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newTestServer(t, tc.status, `{"error":"nope"}`)

			err := c.Remove(context.Background(), "1")
			require.ErrorIs(t, err, tc.want)
			require.True(t, isStatus(err, tc.status))
			require.Contains(t, err.Error(), "nope")
		})
	}
}

func TestServerErrorIsNotASentinel(t *testing.T) {
	c, _ := newTestServer(t, http.StatusInternalServerError, `boom`)

	_, err := c.Create(context.Background(), model.NewDraft("x"))
	require.Error(t, err)
	require.False(t, errors.Is(err, store.ErrNotFound))
	require.False(t, errors.Is(err, store.ErrInvalid))
	require.True(t, isStatus(err, http.StatusInternalServerError))
}

func TestMalformedPayloadsAreRejected(t *testing.T) {
	tests := []struct {
		name string
		body string
		path string
	}{
		{"missing completed", `{"id":"1","text":"a","createdAt":"2025-06-08"}`, ""},
		{"blank text", `{"id":"1","text":"   ","completed":false,"createdAt":"2025-06-08"}`, "text"},
		{"bad date", `{"id":"1","text":"a","completed":false,"createdAt":"yesterday"}`, "createdAt"},
		{"bool id", `{"id":true,"text":"a","completed":false,"createdAt":"2025-06-08"}`, "id"},
		{"not json", `<html>`, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newTestServer(t, http.StatusOK, tc.body)

			_, err := c.Create(context.Background(), model.NewDraft("a"))
			require.ErrorIs(t, err, store.ErrMalformed)

			var se *SchemaError
			require.ErrorAs(t, err, &se)
			if tc.path != "" {
				require.Equal(t, tc.path, se.Path)
			}
		})
	}
}

func TestMalformedListItemReportsIndex(t *testing.T) {
	c, _ := newTestServer(t, http.StatusOK,
		`[{"id":"1","text":"a","completed":false,"createdAt":"2025-06-08"},
		  {"id":"2","text":"b","completed":"yes","createdAt":"2025-06-08"}]`)

	_, err := c.List(context.Background(), model.SortAll)
	var se *SchemaError
	require.ErrorAs(t, err, &se)
	require.Equal(t, "[1].completed", se.Path)
}

func TestTokenIsSentAsBearer(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	c, err := New(srv.URL, WithToken("s3cret"))
	require.NoError(t, err)

	_, err = c.List(context.Background(), model.SortAll)
	require.NoError(t, err)
	require.Equal(t, "Bearer s3cret", auth)
}

func TestTimeoutOption(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c, err := New(srv.URL, WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	_, err = c.List(context.Background(), model.SortAll)
	require.Error(t, err)
}

func TestContextCancellation(t *testing.T) {
	c, _ := newTestServer(t, http.StatusOK, `[]`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.List(ctx, model.SortAll)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewRejectsBadURLs(t *testing.T) {
	_, err := New("localhost:8080")
	require.Error(t, err)

	_, err = New("ftp://example.com")
	require.Error(t, err)

	c, err := New("http://example.com/")
	require.NoError(t, err)
	require.Equal(t, "http://example.com", c.base.String())
}

func TestPointerToPath(t *testing.T) {
	require.Equal(t, "", pointerToPath(""))
	require.Equal(t, "text", pointerToPath("/text"))
	require.Equal(t, "[0].createdAt", pointerToPath("/0/createdAt"))
}
