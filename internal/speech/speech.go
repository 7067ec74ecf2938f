// Package speech adapts a continuous speech-to-text capability to a small
// start/stop/reset interface with an ordered transcript event stream.
package speech

import (
	"context"
	"errors"
)

// DefaultLocale is the language tag capture runs with.
const DefaultLocale = "ko-KR"

// ErrUnsupported is returned by Start when no capture capability is available.
var ErrUnsupported = errors.New("speech recognition is not supported")

// Kind distinguishes incremental from final transcripts
type Kind int

const (
	// Partial carries the full utterance recognised so far.
	Partial Kind = iota
	// Final is emitted once an utterance is complete.
	Final
	// End reports that the session stopped on its own without a Final.
	End
)

func (k Kind) String() string {
	switch k {
	case Partial:
		return "partial"
	case Final:
		return "final"
	case End:
		return "end"
	default:
		return "unknown"
	}
}

// Event is a transcript update
type Event struct {
	Kind Kind
	Text string
}

// Options controls a capture session
type Options struct {
	Locale     string
	Continuous bool
}

// Recognizer is a speech capture capability.
type Recognizer interface {
	// Supported reports whether capture can run at all.
	Supported() bool

	// Start begins capturing. Starting a running recognizer is a no-op.
	Start(ctx context.Context, opts Options) error

	// Stop ends capturing. Stopping an idle recognizer is a no-op.
	Stop() error

	// Reset discards the transcript accumulated so far.
	Reset()

	// Events delivers Partial and Final events in order, followed by End
	// if capture stops without being asked to.
	Events() <-chan Event
}

// Unsupported is a Recognizer for environments without speech capture.
type Unsupported struct{}

func (Unsupported) Supported() bool                      { return false }
func (Unsupported) Start(context.Context, Options) error { return ErrUnsupported }
func (Unsupported) Stop() error                          { return nil }
func (Unsupported) Reset()                               {}
func (Unsupported) Events() <-chan Event                 { return nil }

var _ Recognizer = Unsupported{}
