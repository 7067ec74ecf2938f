package speech

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/dori/todo/internal/logging"
)

// CommandRecognizer runs an external speech-to-text program.
//
// The program writes one JSON object per line on stdout:
//
//	{"type":"partial","text":"buy"}
//	{"type":"final","text":"buy milk"}
//
// The placeholders {locale} and {continuous} in args are substituted on Start.
type CommandRecognizer struct {
	name     string
	args     []string
	log      logging.Logger
	lookPath func(string) (string, error)

	events chan Event

	mu         sync.Mutex
	cancel     context.CancelFunc
	done       chan struct{}
	transcript string
}

// NewCommandRecognizer creates a recognizer for the given program.
func NewCommandRecognizer(name string, args []string, log logging.Logger) *CommandRecognizer {
	if log == nil {
		log = logging.Discard()
	}
	return &CommandRecognizer{
		name:     name,
		args:     args,
		log:      log.With("component", "speech"),
		lookPath: exec.LookPath,
		events:   make(chan Event, 16),
	}
}

// Supported reports whether the program is configured and on PATH.
func (r *CommandRecognizer) Supported() bool {
	if r.name == "" {
		return false
	}
	_, err := r.lookPath(r.name)
	return err == nil
}

// Start launches the program.
func (r *CommandRecognizer) Start(ctx context.Context, opts Options) error {
	if !r.Supported() {
		return ErrUnsupported
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return nil
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(sessionCtx, r.name, expandArgs(r.args, opts)...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("speech stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("start speech command: %w", err)
	}

	done := make(chan struct{})
	r.cancel = cancel
	r.done = done
	r.transcript = ""

	r.log.Info(ctx, "capture started", "command", r.name, "locale", opts.Locale)
	go r.read(sessionCtx, cmd, stdout, done)
	return nil
}

func (r *CommandRecognizer) read(ctx context.Context, cmd *exec.Cmd, stdout io.Reader, done chan struct{}) {
	defer close(done)
	defer func() {
		r.mu.Lock()
		if r.done == done {
			r.cancel()
			r.cancel, r.done = nil, nil
		}
		r.mu.Unlock()
	}()

	// Wait runs once, either after EOF or as soon as the session is cancelled.
	// Wait closes stdout, which unblocks the scanner even when a child of the
	// program still holds the write end.
	eof := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		select {
		case <-ctx.Done():
		case <-eof:
		}
		if err := cmd.Wait(); err != nil && ctx.Err() == nil {
			r.log.Warn(ctx, "speech command exited", "err", err)
		}
	}()
	defer func() {
		close(eof)
		<-exited
	}()

	sc := bufio.NewScanner(stdout)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		ev, err := parseEvent([]byte(line))
		if err != nil {
			r.log.Warn(ctx, "skipping transcript line", "line", line, "err", err)
			continue
		}

		r.mu.Lock()
		r.transcript = ev.Text
		r.mu.Unlock()

		select {
		case r.events <- ev:
		case <-ctx.Done():
			return
		}
	}
	if err := sc.Err(); err != nil && ctx.Err() == nil {
		r.log.Warn(ctx, "reading speech command output", "err", err)
	}

	// The program exited by itself.
	if ctx.Err() == nil {
		select {
		case r.events <- Event{Kind: End}:
		case <-ctx.Done():
		}
	}
}

// Stop terminates the program and waits for it to exit.
func (r *CommandRecognizer) Stop() error {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}

// Reset clears the transcript and drops undelivered events.
func (r *CommandRecognizer) Reset() {
	r.mu.Lock()
	r.transcript = ""
	r.mu.Unlock()

	for {
		select {
		case <-r.events:
		default:
			return
		}
	}
}

// currentTranscript returns the latest text seen in the current session.
func (r *CommandRecognizer) currentTranscript() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.transcript
}

// Events implements Recognizer.
func (r *CommandRecognizer) Events() <-chan Event {
	return r.events
}

type wireEvent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func parseEvent(line []byte) (Event, error) {
	var w wireEvent
	if err := json.Unmarshal(line, &w); err != nil {
		return Event{}, err
	}
	switch w.Type {
	case "partial":
		return Event{Kind: Partial, Text: w.Text}, nil
	case "final":
		return Event{Kind: Final, Text: w.Text}, nil
	default:
		return Event{}, errors.New("unknown event type " + strconv.Quote(w.Type))
	}
}

func expandArgs(args []string, opts Options) []string {
	r := strings.NewReplacer(
		"{locale}", opts.Locale,
		"{continuous}", strconv.FormatBool(opts.Continuous),
	)
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = r.Replace(a)
	}
	return out
}

var _ Recognizer = (*CommandRecognizer)(nil)
