// Package remote implements store.Store over the /api/todoList REST endpoint.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/dori/todo/internal/logging"
	"github.com/dori/todo/internal/model"
	"github.com/dori/todo/internal/store"
)

// BasePath is the collection path on the server.
const BasePath = "/api/todoList"

// maxBody caps how much of a response is read.
const maxBody = 4 << 20

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Unwrap maps well-known statuses onto the store sentinels.
func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return store.ErrNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return store.ErrInvalid
	default:
		return nil
	}
}

// Client implements store.Store using HTTP.
type Client struct {
	base    *url.URL
	http    *http.Client
	timeout time.Duration
	token   string
	schemas *schemas
	log     logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client (for testing).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout overrides the transport default timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithToken sends token as a bearer credential on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a client for the server at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid server url %q: scheme must be http or https", baseURL)
	}

	sc, err := compileSchemas()
	if err != nil {
		return nil, err
	}

	c := &Client{
		base:    base,
		http:    http.DefaultClient,
		schemas: sc,
		log:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, c.http)
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.token, TokenType: "Bearer"})
		c.http = oauth2.NewClient(ctx, src)
	}
	if c.timeout > 0 {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	c.log = c.log.With("component", "remote", "server", base.String())

	return c, nil
}

// List implements store.Store.
func (c *Client) List(ctx context.Context, mode model.SortMode) ([]model.Todo, error) {
	query := url.Values{"sortOption": {string(mode)}}
	body, err := c.do(ctx, http.MethodGet, nil, query, nil)
	if err != nil {
		return nil, err
	}
	if err := validate(c.schemas.list, body); err != nil {
		return nil, err
	}

	var todos []model.Todo
	if err := json.Unmarshal(body, &todos); err != nil {
		return nil, fmt.Errorf("decode todo list: %w", err)
	}
	if todos == nil {
		todos = []model.Todo{}
	}
	return todos, nil
}

// Create implements store.Store.
func (c *Client) Create(ctx context.Context, draft model.Draft) (model.Todo, error) {
	return c.send(ctx, http.MethodPost, nil, draft)
}

// Update implements store.Store.
// Only the text is sent.
func (c *Client) Update(ctx context.Context, id model.ID, draft model.Draft) (model.Todo, error) {
	return c.send(ctx, http.MethodPut, idPath(id), model.Draft{Text: draft.Text})
}

// UpdateCompleted implements store.Store.
func (c *Client) UpdateCompleted(ctx context.Context, id model.ID, todo model.Todo) (model.Todo, error) {
	return c.send(ctx, http.MethodPut, idPath(id, "completed"), todo)
}

// Remove implements store.Store.
func (c *Client) Remove(ctx context.Context, id model.ID) error {
	_, err := c.do(ctx, http.MethodDelete, idPath(id), nil, nil)
	return err
}

// send performs a mutating request that answers with a single todo.
func (c *Client) send(ctx context.Context, method string, segments []string, payload any) (model.Todo, error) {
	body, err := c.do(ctx, method, segments, nil, payload)
	if err != nil {
		return model.Todo{}, err
	}
	if err := validate(c.schemas.todo, body); err != nil {
		return model.Todo{}, err
	}

	var todo model.Todo
	if err := json.Unmarshal(body, &todo); err != nil {
		return model.Todo{}, fmt.Errorf("decode todo: %w", err)
	}
	return todo, nil
}

func (c *Client) do(ctx context.Context, method string, segments []string, query url.Values, payload any) ([]byte, error) {
	u := c.base.JoinPath(append([]string{BasePath}, segments...)...)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, u.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", method, u.Path, err)
	}
	c.log.Debug(ctx, "request done", "method", method, "path", u.Path,
		"status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			Method:     method,
			Path:       u.Path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}
	return body, nil
}

// idPath returns the escaped path segments for a todo resource.
func idPath(id model.ID, rest ...string) []string {
	return append([]string{url.PathEscape(id.String())}, rest...)
}

// isStatus reports whether err is a StatusError with the given code.
func isStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

var _ store.Store = (*Client)(nil)
