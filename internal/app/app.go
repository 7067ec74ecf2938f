// Package app wires configuration, stores, speech capture, and the
// controller into a running application.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/dori/todo/internal/config"
	"github.com/dori/todo/internal/db"
	"github.com/dori/todo/internal/logging"
	"github.com/dori/todo/internal/notify"
	"github.com/dori/todo/internal/speech"
	"github.com/dori/todo/internal/store"
	"github.com/dori/todo/internal/store/remote"
	"github.com/dori/todo/internal/todolist"
)

// notifyTimeout bounds a single desktop notification.
const notifyTimeout = 2 * time.Second

// ErrLocked is returned when another instance holds the data directory.
var ErrLocked = errors.New("another instance of todo is already running")

// App holds the application state and dependencies
type App struct {
	Config     *config.Config
	Store      store.Store
	Controller *todolist.Controller
	Notifier   *notify.Notifier
	Log        logging.Logger

	db       *db.DB
	logFile  io.Closer
	lockFile *flock.Flock

	sendFailure func(ctx context.Context, op string, err error) error
	notifying   sync.WaitGroup
}

type options struct {
	exclusive bool
	logOutput io.Writer
}

// Option configures New
type Option func(*options)

// Exclusive takes the data directory lock so only one instance uses the
// local database at a time.
func Exclusive() Option {
	return func(o *options) { o.exclusive = true }
}

// WithLogOutput writes logs to w instead of the configured log file.
func WithLogOutput(w io.Writer) Option {
	return func(o *options) { o.logOutput = w }
}

// New creates a new application instance
func New(cfg *config.Config, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	a := &App{Config: cfg}

	out := o.logOutput
	if out == nil {
		f, err := logging.OpenFile(cfg.LogFile)
		if err != nil {
			return nil, err
		}
		a.logFile = f
		out = f
	}
	a.Log = logging.New(out, cfg.Debug)

	if err := a.openStore(o.exclusive); err != nil {
		a.Close()
		return nil, err
	}

	a.Notifier = notify.NewNotifier("todo")
	a.Notifier.SetEnabled(cfg.Notifications)
	a.sendFailure = a.Notifier.SendFailure

	var rec speech.Recognizer = speech.Unsupported{}
	if cfg.SpeechCommand != "" {
		rec = speech.NewCommandRecognizer(cfg.SpeechCommand, cfg.SpeechArgs, a.Log)
	}

	a.Controller = todolist.New(a.Store, rec,
		todolist.WithLogger(a.Log.With("component", "todolist")),
		todolist.WithLocale(cfg.Locale),
		todolist.WithNoticeDuration(cfg.NoticeDuration),
		todolist.WithClientSideSort(cfg.UsesLocalStore()),
		todolist.WithErrorHook(a.notifyFailure),
	)
	return a, nil
}

func (a *App) openStore(exclusive bool) error {
	cfg := a.Config
	if !cfg.UsesLocalStore() {
		client, err := remote.New(cfg.ServerURL,
			remote.WithToken(cfg.Token),
			remote.WithTimeout(cfg.Timeout),
			remote.WithLogger(a.Log),
		)
		if err != nil {
			return err
		}
		a.Store = client
		a.Log.Info(context.Background(), "using remote store", "server", cfg.ServerURL)
		return nil
	}

	if exclusive {
		if err := a.acquireLock(); err != nil {
			return err
		}
	}
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	a.db = database
	a.Store = database
	a.Log.Info(context.Background(), "using local store", "db", cfg.DBPath)
	return nil
}

// notifyFailure runs on the controller's calling goroutine, so the
// notification is sent in the background.
func (a *App) notifyFailure(op string, err error) {
	a.notifying.Add(1)
	go func() {
		defer a.notifying.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := a.sendFailure(ctx, op, err); err != nil {
			a.Log.Warn(ctx, "desktop notification failed", "op", op, "error", err)
		}
	}()
}

// acquireLock acquires an exclusive file lock to prevent multiple instances
func (a *App) acquireLock() error {
	lockPath := filepath.Join(a.Config.DataDir, "todo.lock")
	a.lockFile = flock.New(lockPath)

	locked, err := a.lockFile.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return ErrLocked
	}
	return nil
}

// releaseLock releases the file lock
func (a *App) releaseLock() {
	if a.lockFile != nil {
		a.lockFile.Unlock()
	}
}

// Close cleans up application resources
func (a *App) Close() error {
	var errs []error

	if a.Controller != nil {
		if err := a.Controller.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop controller: %w", err))
		}
	}
	a.notifying.Wait()
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	a.releaseLock()

	if a.logFile != nil {
		a.logFile.Close()
	}
	return errors.Join(errs...)
}
