package speech

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func nextEvent(t *testing.T, r Recognizer) Event {
	t.Helper()
	select {
	case ev := <-r.Events():
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for transcript event")
		return Event{}
	}
}

func TestParseEvent(t *testing.T) {
	ev, err := parseEvent([]byte(`{"type":"partial","text":"buy"}`))
	require.NoError(t, err)
	require.Equal(t, Event{Kind: Partial, Text: "buy"}, ev)

	ev, err = parseEvent([]byte(`{"type":"final","text":"buy milk"}`))
	require.NoError(t, err)
	require.Equal(t, Event{Kind: Final, Text: "buy milk"}, ev)

	_, err = parseEvent([]byte(`{"type":"noise"}`))
	require.Error(t, err)

	_, err = parseEvent([]byte(`not json`))
	require.Error(t, err)
}

func TestExpandArgs(t *testing.T) {
	got := expandArgs([]string{"--lang={locale}", "--continuous", "{continuous}"},
		Options{Locale: "ko-KR", Continuous: true})
	require.Equal(t, []string{"--lang=ko-KR", "--continuous", "true"}, got)
}

func TestSupported(t *testing.T) {
	require.False(t, NewCommandRecognizer("", nil, nil).Supported())

	r := NewCommandRecognizer("whisper-stream", nil, nil)
	r.lookPath = func(string) (string, error) { return "", errors.New("not found") }
	require.False(t, r.Supported())
	require.ErrorIs(t, r.Start(context.Background(), Options{}), ErrUnsupported)

	r.lookPath = func(name string) (string, error) { return "/usr/bin/" + name, nil }
	require.True(t, r.Supported())
}

func TestCommandRecognizerStreamsEvents(t *testing.T) {
	script := `printf '%s\n' '{"type":"partial","text":"buy"}' 'garbage' '{"type":"final","text":"buy milk {locale}"}'`
	r := NewCommandRecognizer("sh", []string{"-c", script}, nil)

	require.NoError(t, r.Start(context.Background(), Options{Locale: "ko-KR", Continuous: true}))
	t.Cleanup(func() { _ = r.Stop() })

	require.Equal(t, Event{Kind: Partial, Text: "buy"}, nextEvent(t, r))
	require.Equal(t, Event{Kind: Final, Text: "buy milk ko-KR"}, nextEvent(t, r))
	require.Eventually(t, func() bool { return r.currentTranscript() == "buy milk ko-KR" },
		time.Second, 10*time.Millisecond)

	r.Reset()
	require.Empty(t, r.currentTranscript())
}

func TestStopTerminatesLongRunningCommand(t *testing.T) {
	script := `printf '%s\n' '{"type":"partial","text":"hi"}'; sleep 30`
	r := NewCommandRecognizer("sh", []string{"-c", script}, nil)

	require.NoError(t, r.Start(context.Background(), Options{Locale: "ko-KR"}))
	require.Equal(t, Event{Kind: Partial, Text: "hi"}, nextEvent(t, r))

	stopped := make(chan error, 1)
	go func() { stopped <- r.Stop() }()
	select {
	case err := <-stopped:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not terminate the command")
	}

	// Stopping again is a no-op, and a new session can start.
	require.NoError(t, r.Stop())
	require.NoError(t, r.Start(context.Background(), Options{Locale: "ko-KR"}))
	require.Equal(t, Event{Kind: Partial, Text: "hi"}, nextEvent(t, r))
	require.NoError(t, r.Stop())
}

func TestRestartAfterNaturalExit(t *testing.T) {
	r := NewCommandRecognizer("sh", []string{"-c", `printf '%s\n' '{"type":"final","text":"one"}'`}, nil)

	require.NoError(t, r.Start(context.Background(), Options{}))
	require.Equal(t, "one", nextEvent(t, r).Text)
	require.Equal(t, End, nextEvent(t, r).Kind)

	// Once the program exits the session is cleared and Start runs it again.
	require.Eventually(t, func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.cancel == nil
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, r.Start(context.Background(), Options{}))
	require.Equal(t, "one", nextEvent(t, r).Text)
	require.NoError(t, r.Stop())
}

func TestExitWithoutFinalSendsEnd(t *testing.T) {
	r := NewCommandRecognizer("sh", []string{"-c", `printf '{"type":"partial","text":"buy"}\n'`}, nil)

	require.NoError(t, r.Start(context.Background(), Options{}))
	t.Cleanup(func() { _ = r.Stop() })

	require.Equal(t, Event{Kind: Partial, Text: "buy"}, nextEvent(t, r))
	require.Equal(t, Event{Kind: End}, nextEvent(t, r))
}

func TestStopDoesNotSendEnd(t *testing.T) {
	r := NewCommandRecognizer("sh", []string{"-c", "sleep 30"}, nil)

	require.NoError(t, r.Start(context.Background(), Options{}))
	require.NoError(t, r.Stop())

	select {
	case ev := <-r.Events():
		t.Fatalf("unexpected event after Stop: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsupported(t *testing.T) {
	var r Recognizer = Unsupported{}
	require.False(t, r.Supported())
	require.ErrorIs(t, r.Start(context.Background(), Options{}), ErrUnsupported)
	require.NoError(t, r.Stop())
	require.Nil(t, r.Events())
}
