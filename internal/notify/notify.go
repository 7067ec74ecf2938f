// Package notify sends desktop notifications through notify-send.
package notify

import (
	"context"
	"os/exec"
	"strconv"
	"time"
)

// Urgency levels for notifications
type Urgency int

const (
	UrgencyLow Urgency = iota
	UrgencyNormal
	UrgencyCritical
)

// Notification represents a desktop notification
type Notification struct {
	Title   string
	Body    string
	Urgency Urgency
	Timeout time.Duration
	Icon    string // Optional icon name
}

// Notifier handles sending desktop notifications
type Notifier struct {
	enabled bool
	appName string

	// run executes the notifier command
	run func(ctx context.Context, name string, args ...string) error
}

// NewNotifier creates a notifier. It starts disabled.
func NewNotifier(appName string) *Notifier {
	return &Notifier{
		appName: appName,
		run: func(ctx context.Context, name string, args ...string) error {
			return exec.CommandContext(ctx, name, args...).Run()
		},
	}
}

// SetEnabled enables or disables notifications
func (n *Notifier) SetEnabled(enabled bool) {
	n.enabled = enabled
}

// IsEnabled returns whether notifications are enabled
func (n *Notifier) IsEnabled() bool {
	return n.enabled
}

// Send sends a desktop notification using notify-send
func (n *Notifier) Send(ctx context.Context, notification Notification) error {
	if !n.enabled {
		return nil
	}
	return n.run(ctx, "notify-send", n.args(notification)...)
}

func (n *Notifier) args(notification Notification) []string {
	args := []string{}

	switch notification.Urgency {
	case UrgencyLow:
		args = append(args, "-u", "low")
	case UrgencyCritical:
		args = append(args, "-u", "critical")
	default:
		args = append(args, "-u", "normal")
	}

	// milliseconds
	if notification.Timeout > 0 {
		args = append(args, "-t", strconv.Itoa(int(notification.Timeout.Milliseconds())))
	}

	if notification.Icon != "" {
		args = append(args, "-i", notification.Icon)
	}

	if n.appName != "" {
		args = append(args, "-a", n.appName)
	}

	args = append(args, notification.Title)
	if notification.Body != "" {
		args = append(args, notification.Body)
	}
	return args
}

// SendFailure reports a failed operation, e.g. "add todo".
func (n *Notifier) SendFailure(ctx context.Context, op string, err error) error {
	return n.Send(ctx, Notification{
		Title:   "Could not " + op,
		Body:    err.Error(),
		Urgency: UrgencyCritical,
		Timeout: 5 * time.Second,
		Icon:    "dialog-error-symbolic",
	})
}
