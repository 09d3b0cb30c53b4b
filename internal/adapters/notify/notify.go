// Package notify provides domain.Notifier implementations for operator messages.
// Desktop notifications use the beeep library on macOS, Linux and Windows.
package notify

import (
	"context"
	"fmt"
	"io"

	"github.com/gen2brain/beeep"

	"github.com/MyCarrier-DevOps/branch-tabs/internal/domain"
)

// Title is used for every desktop notification.
const Title = "Branch Tabs"

// Logger defines the logging interface for notifiers.
type Logger interface {
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
}

// notifyFunc is swapped out in tests so no real notification is sent.
var notifyFunc = beeep.Notify

// Desktop sends operator messages as desktop notifications.
type Desktop struct {
	logger Logger
}

// NewDesktop creates a desktop notifier.
func NewDesktop(log Logger) *Desktop {
	return &Desktop{logger: log}
}

// Info sends msg as a notification.
func (d *Desktop) Info(ctx context.Context, msg string) {
	d.send(ctx, msg)
}

// Error sends msg as a notification; the error detail is appended when present.
func (d *Desktop) Error(ctx context.Context, msg string, err error) {
	d.send(ctx, format(msg, err))
}

func (d *Desktop) send(ctx context.Context, message string) {
	d.logger.Debug(ctx, "sending notification", map[string]interface{}{"message": message})
	// Use empty string for icon - beeep handles platform defaults
	if err := notifyFunc(Title, message, ""); err != nil {
		d.logger.Warn(ctx, "failed to send notification", map[string]interface{}{
			"message": message,
			"error":   err.Error(),
		})
	}
}

// Writer prints operator messages as lines on an io.Writer (usually stderr).
type Writer struct {
	out io.Writer
}

// NewWriter creates a notifier writing to out.
func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

// Info writes msg.
func (w *Writer) Info(_ context.Context, msg string) {
	writeLine(w.out, "branch-tabs: "+msg)
}

// Error writes msg and the error detail.
func (w *Writer) Error(_ context.Context, msg string, err error) {
	writeLine(w.out, "branch-tabs: error: "+format(msg, err))
}

// Multi fans every message out to several notifiers.
type Multi []domain.Notifier

// Info forwards to every notifier.
func (m Multi) Info(ctx context.Context, msg string) {
	for _, n := range m {
		n.Info(ctx, msg)
	}
}

// Error forwards to every notifier.
func (m Multi) Error(ctx context.Context, msg string, err error) {
	for _, n := range m {
		n.Error(ctx, msg, err)
	}
}

func format(msg string, err error) string {
	if err == nil {
		return msg
	}
	return fmt.Sprintf("%s (%v)", msg, err)
}

// writeLine is best effort: there is no recovery action if stderr writes fail.
func writeLine(w io.Writer, line string) {
	_, _ = fmt.Fprintln(w, line)
}
