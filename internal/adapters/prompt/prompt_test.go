package prompt

import (
	"context"
	"errors"
	"testing"

	"charm.land/huh/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MyCarrier-DevOps/branch-tabs/internal/domain"
)

type recordingLogger struct {
	warnings int
}

func (l *recordingLogger) Warn(_ context.Context, _ string, _ map[string]interface{}) {
	l.warnings++
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		answer bool
		want   domain.Decision
	}{
		{name: "affirmative", answer: true, want: domain.DecisionYes},
		{name: "negative", answer: false, want: domain.DecisionNo},
		{name: "aborted", err: huh.ErrUserAborted, answer: true, want: domain.DecisionNone},
		{name: "terminal error", err: errors.New("no tty"), want: domain.DecisionNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decide(tt.err, tt.answer))
		})
	}
}

func TestTerminal_Ask(t *testing.T) {
	tests := []struct {
		name         string
		runErr       error
		want         domain.Decision
		wantWarnings int
	}{
		{name: "completed with default answer", want: domain.DecisionNo},
		{name: "dismissed", runErr: huh.ErrUserAborted, want: domain.DecisionNone},
		{name: "failed", runErr: errors.New("no tty"), want: domain.DecisionNone, wantWarnings: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := &recordingLogger{}
			p := NewTerminal(log)
			var ran bool
			p.run = func(_ context.Context, form *huh.Form) error {
				ran = true
				assert.NotNil(t, form)
				return tt.runErr
			}

			got := p.Ask(context.Background(), "bring tabs?", "Yes", "No")

			assert.True(t, ran)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantWarnings, log.warnings)
		})
	}
}

func TestStatic_Ask(t *testing.T) {
	for _, d := range []domain.Decision{domain.DecisionYes, domain.DecisionNo, domain.DecisionNone} {
		assert.Equal(t, d, NewStatic(d).Ask(context.Background(), "q", "Yes", "No"))
	}
}

func TestParseDecision(t *testing.T) {
	tests := []struct {
		in      string
		want    domain.Decision
		wantErr bool
	}{
		{in: "yes", want: domain.DecisionYes},
		{in: "Y", want: domain.DecisionYes},
		{in: "no", want: domain.DecisionNo},
		{in: " NO ", want: domain.DecisionNo},
		{in: "none", want: domain.DecisionNone},
		{in: "", want: domain.DecisionNone},
		{in: "maybe", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDecision(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
