// Package output provides adapters for writing application output.
package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/MyCarrier-DevOps/branch-tabs/internal/domain"
)

// Format selects how snapshots are rendered.
type Format string

// Supported formats.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrUnknownFormat is returned for a Format not listed above.
var ErrUnknownFormat = errors.New("unknown output format")

// DetachedLabel is printed in place of a branch name when HEAD is detached.
const DetachedLabel = "(detached)"

// Writer writes command results to the configured output destination.
// By default, it writes to stdout.
type Writer struct {
	out io.Writer
}

// NewWriter creates a new Writer that writes to stdout.
func NewWriter() *Writer {
	return &Writer{out: os.Stdout}
}

// NewWriterWithOutput creates a new Writer with a custom output destination.
// This is useful for testing.
func NewWriterWithOutput(out io.Writer) *Writer {
	return &Writer{out: out}
}

// WriteBranch writes the branch name as a single line.
func (w *Writer) WriteBranch(branch domain.BranchID) error {
	name := string(branch)
	if name == "" {
		name = DetachedLabel
	}
	_, err := fmt.Fprintln(w.out, name)
	return err
}

// WriteBranches writes one branch per line.
func (w *Writer) WriteBranches(branches []domain.BranchID) error {
	for _, b := range branches {
		if _, err := fmt.Fprintln(w.out, string(b)); err != nil {
			return err
		}
	}
	return nil
}

// WriteSnapshot renders snapshot in the requested format.
// Text output is one "<group>\t<location>" line per entry, with "-" for an unknown group.
func (w *Writer) WriteSnapshot(snapshot domain.Snapshot, format Format) error {
	switch format {
	case FormatText, "":
		for _, e := range snapshot {
			group := "-"
			if e.Group != nil {
				group = fmt.Sprint(*e.Group)
			}
			if _, err := fmt.Fprintf(w.out, "%s\t%s\n", group, e.Location); err != nil {
				return err
			}
		}
		return nil
	case FormatJSON:
		enc := json.NewEncoder(w.out)
		enc.SetIndent("", "  ")
		return enc.Encode(snapshot.Clone())
	case FormatYAML:
		enc := yaml.NewEncoder(w.out)
		enc.SetIndent(2)
		if err := enc.Encode(snapshot.Clone()); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// WriteTransition writes a one-line summary of a processed branch switch.
// Notifications that did not switch branches produce no output.
func (w *Writer) WriteTransition(result domain.TransitionResult) error {
	if result.Action == domain.ActionNone || result.Action == domain.ActionInitial {
		return nil
	}
	line := fmt.Sprintf("%s: %s -> %s: %s", result.Root, result.From, result.To, result.Action)
	switch {
	case result.Err != nil:
		line += fmt.Sprintf(" (%v)", result.Err)
	case result.Action == domain.ActionRestored:
		line += fmt.Sprintf(" %d tabs", result.Opened)
		if n := len(result.Failures); n > 0 {
			line += fmt.Sprintf(", %d failed", n)
		}
	}
	_, err := fmt.Fprintln(w.out, line)
	return err
}
