package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type captured struct {
	name string
	args []string
}

func newCapturing() (*Notifier, *[]captured) {
	var calls []captured
	n := NewNotifier("todo")
	n.run = func(ctx context.Context, name string, args ...string) error {
		calls = append(calls, captured{name: name, args: args})
		return nil
	}
	return n, &calls
}

func TestDisabledSendsNothing(t *testing.T) {
	n, calls := newCapturing()
	require.False(t, n.IsEnabled())

	require.NoError(t, n.SendFailure(context.Background(), "add todo", errors.New("boom")))
	require.Empty(t, *calls)
}

func TestSendBuildsArguments(t *testing.T) {
	n, calls := newCapturing()
	n.SetEnabled(true)

	err := n.Send(context.Background(), Notification{
		Title:   "Title",
		Body:    "Body",
		Urgency: UrgencyLow,
		Timeout: 1500 * time.Millisecond,
		Icon:    "icon",
	})
	require.NoError(t, err)
	require.Equal(t, []captured{{
		name: "notify-send",
		args: []string{"-u", "low", "-t", "1500", "-i", "icon", "-a", "todo", "Title", "Body"},
	}}, *calls)
}

func TestSendFailure(t *testing.T) {
	n, calls := newCapturing()
	n.SetEnabled(true)

	require.NoError(t, n.SendFailure(context.Background(), "delete todo", errors.New("not found")))
	require.Len(t, *calls, 1)
	args := (*calls)[0].args
	require.Equal(t, []string{"-u", "critical"}, args[:2])
	require.Equal(t, []string{"Could not delete todo", "not found"}, args[len(args)-2:])
}

func TestSendReturnsCommandError(t *testing.T) {
	n := NewNotifier("")
	n.SetEnabled(true)
	n.run = func(ctx context.Context, name string, args ...string) error { return errors.New("missing") }

	require.Error(t, n.Send(context.Background(), Notification{Title: "x"}))
}
