// Package todolist holds the state of the to-do screen and the operations
// that change it. Every store call happens outside the controller lock and
// its outcome is applied when it resolves.
package todolist

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dori/todo/internal/logging"
	"github.com/dori/todo/internal/model"
	"github.com/dori/todo/internal/speech"
	"github.com/dori/todo/internal/store"
)

// DefaultNoticeDuration is how long the unsupported-speech notice stays up.
const DefaultNoticeDuration = 2000 * time.Millisecond

// maxLoadAttempts bounds how often Load refetches when a mutation lands while
// the list request is in flight.
const maxLoadAttempts = 3

var (
	// ErrBusy is returned when a record already has a mutation in flight.
	ErrBusy = errors.New("todo has a pending change")

	// ErrSuperseded is returned by a Load that a newer Load replaced.
	ErrSuperseded = errors.New("load superseded by a newer one")
)

// AfterFunc schedules f after d and returns a function that cancels it.
type AfterFunc func(d time.Duration, f func()) (stop func() bool)

func timeAfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// Option configures a Controller
type Option func(*Controller)

// WithLogger sets the logger
func WithLogger(log logging.Logger) Option {
	return func(c *Controller) { c.log = log }
}

// WithNoticeDuration sets how long the unsupported-speech notice is shown.
func WithNoticeDuration(d time.Duration) Option {
	return func(c *Controller) { c.noticeDuration = d }
}

// WithLocale sets the speech capture language.
func WithLocale(locale string) Option {
	return func(c *Controller) { c.locale = locale }
}

// WithClientSideSort makes the controller fetch everything once and derive
// each sort mode locally instead of asking the store.
func WithClientSideSort(enabled bool) Option {
	return func(c *Controller) { c.clientSort = enabled }
}

// WithAfterFunc replaces the timer used for the notice.
func WithAfterFunc(fn AfterFunc) Option {
	return func(c *Controller) { c.afterFunc = fn }
}

// WithErrorHook registers fn to run after a failure is surfaced as a toast.
func WithErrorHook(fn func(op string, err error)) Option {
	return func(c *Controller) { c.onError = fn }
}

// Controller owns the to-do list state.
type Controller struct {
	store store.Store
	rec   speech.Recognizer
	log   logging.Logger

	locale         string
	noticeDuration time.Duration
	clientSort     bool
	afterFunc      AfterFunc
	onError        func(op string, err error)

	// ctx scopes work the controller starts on its own, like speech-driven adds.
	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	state      State
	inflight   map[model.ID]bool
	mutations  uint64
	loadSeq    uint64
	loadCancel context.CancelFunc
	micStop    chan struct{}
	// micStarting is set while Start runs without the lock.
	micStarting bool
	noticeGen   uint64
	noticeStop  func() bool
	subs        map[int]func(State)
	nextSub     int
}

// New creates a Controller backed by st. rec may be nil when speech capture
// is not available.
func New(st store.Store, rec speech.Recognizer, opts ...Option) *Controller {
	if rec == nil {
		rec = speech.Unsupported{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		store:          st,
		rec:            rec,
		log:            logging.Discard(),
		locale:         speech.DefaultLocale,
		noticeDuration: DefaultNoticeDuration,
		afterFunc:      timeAfterFunc,
		ctx:            ctx,
		cancel:         cancel,
		state:          State{Items: []model.Todo{}, SortMode: model.SortAll},
		inflight:       make(map[model.ID]bool),
		subs:           make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// DerivedView returns the items as they should be displayed.
func (c *Controller) DerivedView() []model.Todo {
	c.mu.Lock()
	items, mode := c.state.Items, c.state.SortMode
	c.mu.Unlock()
	return Derive(items, mode)
}

// Subscribe registers fn to receive a snapshot after every state change.
// fn is called without the controller lock held and may be called from any
// goroutine.
func (c *Controller) Subscribe(fn func(State)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}

// update applies fn under the lock and notifies subscribers.
func (c *Controller) update(fn func(s *State)) {
	c.mu.Lock()
	fn(&c.state)
	c.unlockAndNotify()
}

// unlockAndNotify releases c.mu, which must be held, then notifies.
func (c *Controller) unlockAndNotify() {
	snap := c.state.clone()
	subs := make([]func(State), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

// fail logs err and surfaces it to the user.
func (c *Controller) fail(ctx context.Context, op string, err error, args ...any) {
	c.log.Error(ctx, op+" failed", append(args, "error", err)...)
	c.update(func(s *State) { s.Toast = fmt.Sprintf("Could not %s: %v", op, err) })
	if c.onError != nil {
		c.onError(op, err)
	}
}

// acquire marks id as having a mutation in flight.
func (c *Controller) acquire(id model.ID) bool {
	if c.inflight[id] {
		return false
	}
	c.inflight[id] = true
	return true
}

func (c *Controller) release(id model.ID) {
	c.mu.Lock()
	delete(c.inflight, id)
	c.mu.Unlock()
}

// replaceLocked swaps the record with todo's id for todo, if still present.
func (c *Controller) replaceLocked(id model.ID, todo model.Todo) {
	items := append([]model.Todo(nil), c.state.Items...)
	for i := range items {
		if items[i].ID == id {
			items[i] = todo
			c.state.Items = items
			return
		}
	}
}

// Load fetches the list for the current sort mode and replaces the items.
// A Load started while another is in flight cancels the older one, whose
// result is discarded.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	if c.loadCancel != nil {
		c.loadCancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.loadSeq++
	seq := c.loadSeq
	c.loadCancel = cancel
	mode := c.state.SortMode
	if c.clientSort {
		mode = model.SortAll
	}
	c.state.Loading = true
	c.unlockAndNotify()

	for attempt := 1; ; attempt++ {
		c.mu.Lock()
		startMutations := c.mutations
		c.mu.Unlock()

		todos, err := c.store.List(ctx, mode)

		c.mu.Lock()
		if seq != c.loadSeq {
			c.mu.Unlock()
			c.log.Debug(ctx, "discarding superseded load", "seq", seq)
			return ErrSuperseded
		}
		if err == nil && c.mutations != startMutations {
			if attempt < maxLoadAttempts {
				c.mu.Unlock()
				c.log.Debug(ctx, "list changed during load, refetching", "attempt", attempt)
				continue
			}
			// The store's answer wins; the next load picks up anything it missed.
			c.log.Warn(ctx, "list kept changing during load, applying last response", "attempts", attempt)
		}

		c.loadCancel = nil
		c.state.Loading = false
		if err != nil {
			c.unlockAndNotify()
			if errors.Is(err, context.Canceled) {
				c.log.Debug(ctx, "load canceled", "seq", seq)
				return err
			}
			c.fail(ctx, "load todos", err, "sort", mode)
			return err
		}
		if todos == nil {
			todos = []model.Todo{}
		}
		c.state.Items = todos
		c.unlockAndNotify()
		c.log.Debug(ctx, "todos loaded", "count", len(todos), "sort", mode)
		return nil
	}
}

// SetDraft overwrites the add input text.
func (c *Controller) SetDraft(text string) {
	c.update(func(s *State) { s.Draft = text })
}

// Add creates a todo from text. Blank text is ignored.
func (c *Controller) Add(ctx context.Context, text string) error {
	if model.IsBlank(text) {
		return nil
	}

	todo, err := c.store.Create(ctx, model.NewDraft(text))
	if err != nil {
		c.fail(ctx, "add todo", err)
		return err
	}

	c.mu.Lock()
	c.mutations++
	c.state.Items = append(append([]model.Todo(nil), c.state.Items...), todo)
	c.state.Draft = ""
	c.unlockAndNotify()
	c.log.Info(ctx, "todo created", "id", todo.ID)
	return nil
}

// ToggleCompleted flips the completed flag of id. Unknown ids are ignored.
func (c *Controller) ToggleCompleted(ctx context.Context, id model.ID) error {
	c.mu.Lock()
	var (
		current model.Todo
		found   bool
	)
	for _, t := range c.state.Items {
		if t.ID == id {
			current, found = t, true
			break
		}
	}
	if !found {
		c.mu.Unlock()
		return nil
	}
	if !c.acquire(id) {
		c.mu.Unlock()
		return ErrBusy
	}
	c.mu.Unlock()
	defer c.release(id)

	flipped := current
	flipped.Completed = !current.Completed
	updated, err := c.store.UpdateCompleted(ctx, id, flipped)
	if err != nil {
		c.fail(ctx, "update todo", err, "id", id)
		return err
	}

	c.mu.Lock()
	c.mutations++
	c.replaceLocked(id, updated)
	c.unlockAndNotify()
	return nil
}

// RequestDelete opens the delete prompt for id.
func (c *Controller) RequestDelete(id model.ID, text string) {
	c.update(func(s *State) { s.PendingDelete = &Target{ID: id, Text: text} })
}

// CancelDelete closes the delete prompt.
func (c *Controller) CancelDelete() {
	c.update(func(s *State) { s.PendingDelete = nil })
}

// ConfirmDelete removes the pending target. The prompt closes whatever the
// outcome.
func (c *Controller) ConfirmDelete(ctx context.Context) error {
	c.mu.Lock()
	target := c.state.PendingDelete
	if target == nil {
		c.mu.Unlock()
		return nil
	}
	c.state.PendingDelete = nil
	if !c.acquire(target.ID) {
		c.unlockAndNotify()
		return ErrBusy
	}
	c.unlockAndNotify()
	defer c.release(target.ID)

	if err := c.store.Remove(ctx, target.ID); err != nil {
		c.fail(ctx, "delete todo", err, "id", target.ID)
		return err
	}

	c.mu.Lock()
	c.mutations++
	items := make([]model.Todo, 0, len(c.state.Items))
	for _, t := range c.state.Items {
		if t.ID != target.ID {
			items = append(items, t)
		}
	}
	c.state.Items = items
	c.unlockAndNotify()
	c.log.Info(ctx, "todo deleted", "id", target.ID)
	return nil
}

// BeginEdit starts editing id, abandoning any other edit.
func (c *Controller) BeginEdit(id model.ID, currentText string) {
	c.update(func(s *State) { s.PendingEdit = &Target{ID: id, Text: currentText} })
}

// UpdateEditDraft replaces the text being edited.
func (c *Controller) UpdateEditDraft(text string) {
	c.update(func(s *State) {
		if s.PendingEdit != nil {
			s.PendingEdit.Text = text
		}
	})
}

// CancelEdit abandons the edit without saving.
func (c *Controller) CancelEdit() {
	c.update(func(s *State) { s.PendingEdit = nil })
}

// BlurEdit is called when the edit field loses focus; the edit is abandoned.
func (c *Controller) BlurEdit() {
	c.CancelEdit()
}

// HandleEditKey applies a key pressed in the edit field.
func (c *Controller) HandleEditKey(ctx context.Context, key EditKey) error {
	switch key {
	case KeyConfirm:
		return c.SaveEdit(ctx)
	case KeyCancel:
		c.CancelEdit()
	}
	return nil
}

// SaveEdit sends the edit draft. A blank draft is not sent and the edit stays
// open; so does a failed save, with its draft intact.
func (c *Controller) SaveEdit(ctx context.Context) error {
	c.mu.Lock()
	edit := c.state.PendingEdit
	if edit == nil || model.IsBlank(edit.Text) {
		c.mu.Unlock()
		return nil
	}
	id, text := edit.ID, edit.Text
	if !c.acquire(id) {
		c.mu.Unlock()
		return ErrBusy
	}
	c.mu.Unlock()
	defer c.release(id)

	updated, err := c.store.Update(ctx, id, model.Draft{Text: text})
	if err != nil {
		c.fail(ctx, "save todo", err, "id", id)
		return err
	}

	c.mu.Lock()
	c.mutations++
	c.replaceLocked(id, updated)
	// Leave a newer edit alone.
	if c.state.PendingEdit == edit {
		c.state.PendingEdit = nil
	}
	c.unlockAndNotify()
	c.log.Info(ctx, "todo updated", "id", id)
	return nil
}

// SetSortMode switches the sort mode and reloads, or only re-derives the view
// when sorting client side.
func (c *Controller) SetSortMode(ctx context.Context, mode model.SortMode) error {
	mode, err := model.ParseSortMode(string(mode))
	if err != nil {
		return err
	}
	c.update(func(s *State) { s.SortMode = mode })
	if c.clientSort {
		return nil
	}
	return c.Load(ctx)
}

// DismissNotice hides the unsupported-speech notice.
func (c *Controller) DismissNotice() {
	c.mu.Lock()
	c.noticeGen++
	if c.noticeStop != nil {
		c.noticeStop()
		c.noticeStop = nil
	}
	c.state.UnsupportedNotice = false
	c.unlockAndNotify()
}

// DismissToast clears the last failure.
func (c *Controller) DismissToast() {
	c.update(func(s *State) { s.Toast = "" })
}

// Close stops speech capture, cancels any load and stops timers.
func (c *Controller) Close() error {
	c.cancel()

	c.mu.Lock()
	if c.loadCancel != nil {
		c.loadCancel()
		c.loadCancel = nil
	}
	if c.noticeStop != nil {
		c.noticeStop()
		c.noticeStop = nil
	}
	stop := c.micStop
	c.micStop = nil
	c.state.MicActive = false
	c.mu.Unlock()

	if stop != nil {
		close(stop)
		return c.rec.Stop()
	}
	return nil
}
