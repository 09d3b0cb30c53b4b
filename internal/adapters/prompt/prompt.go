// Package prompt provides domain.DecisionPrompt implementations.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"charm.land/huh/v2"

	"github.com/MyCarrier-DevOps/branch-tabs/internal/domain"
)

// Logger defines the logging interface for prompts.
type Logger interface {
	Warn(ctx context.Context, msg string, fields map[string]interface{})
}

// Terminal asks the question with a huh confirm field on the controlling terminal.
type Terminal struct {
	logger Logger
	run    func(ctx context.Context, form *huh.Form) error
}

// NewTerminal creates a terminal prompt.
func NewTerminal(log Logger) *Terminal {
	return &Terminal{
		logger: log,
		run: func(ctx context.Context, form *huh.Form) error {
			return form.RunWithContext(ctx)
		},
	}
}

// Ask shows the confirm dialog. Aborting it (esc / ctrl+c) or any terminal
// error counts as no selection.
func (p *Terminal) Ask(ctx context.Context, question, yes, no string) domain.Decision {
	var answer bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(question).
				Affirmative(yes).
				Negative(no).
				Value(&answer),
		),
	)

	err := p.run(ctx, form)
	if err != nil && !errors.Is(err, huh.ErrUserAborted) {
		p.logger.Warn(ctx, "prompt failed; treating as no selection", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return decide(err, answer)
}

// decide maps a finished form to a Decision.
func decide(err error, answer bool) domain.Decision {
	switch {
	case err != nil:
		return domain.DecisionNone
	case answer:
		return domain.DecisionYes
	default:
		return domain.DecisionNo
	}
}

// Static answers every question with the same decision. It is used when the
// daemon runs without a terminal.
type Static struct {
	decision domain.Decision
}

// NewStatic creates a prompt that always returns decision.
func NewStatic(decision domain.Decision) *Static {
	return &Static{decision: decision}
}

// Ask returns the configured decision.
func (p *Static) Ask(_ context.Context, _, _, _ string) domain.Decision {
	return p.decision
}

// ParseDecision parses "yes", "no" or "none" (case-insensitive).
func ParseDecision(s string) (domain.Decision, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y":
		return domain.DecisionYes, nil
	case "no", "n":
		return domain.DecisionNo, nil
	case "none", "":
		return domain.DecisionNone, nil
	default:
		return domain.DecisionNone, fmt.Errorf("invalid answer %q: expected yes, no or none", s)
	}
}
