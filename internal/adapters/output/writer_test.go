package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MyCarrier-DevOps/branch-tabs/internal/domain"
)

func TestWriter_WriteBranch(t *testing.T) {
	tests := []struct {
		name       string
		branch     domain.BranchID
		wantOutput string
	}{
		{
			name:       "simple branch",
			branch:     "main",
			wantOutput: "main\n",
		},
		{
			name:       "branch with slashes",
			branch:     "feature/tabs",
			wantOutput: "feature/tabs\n",
		},
		{
			name:       "detached HEAD",
			branch:     "",
			wantOutput: "(detached)\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			var buf bytes.Buffer
			writer := NewWriterWithOutput(&buf)

			// Act
			err := writer.WriteBranch(tt.branch)

			// Assert
			require.NoError(t, err)
			assert.Equal(t, tt.wantOutput, buf.String())
		})
	}
}

func TestWriter_WriteBranches(t *testing.T) {
	var buf bytes.Buffer
	writer := NewWriterWithOutput(&buf)

	require.NoError(t, writer.WriteBranches([]domain.BranchID{"dev", "main"}))
	assert.Equal(t, "dev\nmain\n", buf.String())
}

func TestWriter_WriteSnapshot(t *testing.T) {
	snapshot := domain.Snapshot{
		domain.Entry("file:///w/a.go", 0),
		{Location: "file:///w/b.go"},
	}

	tests := []struct {
		name       string
		format     Format
		wantOutput string
	}{
		{
			name:       "text",
			format:     FormatText,
			wantOutput: "0\tfile:///w/a.go\n-\tfile:///w/b.go\n",
		},
		{
			name:   "json",
			format: FormatJSON,
			wantOutput: `[
  {
    "location": "file:///w/a.go",
    "group": 0
  },
  {
    "location": "file:///w/b.go"
  }
]
`,
		},
		{
			name:   "yaml",
			format: FormatYAML,
			wantOutput: `- location: file:///w/a.go
  group: 0
- location: file:///w/b.go
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			writer := NewWriterWithOutput(&buf)

			require.NoError(t, writer.WriteSnapshot(snapshot, tt.format))
			assert.Equal(t, tt.wantOutput, buf.String())
		})
	}
}

func TestWriter_WriteSnapshot_Empty(t *testing.T) {
	var buf bytes.Buffer
	writer := NewWriterWithOutput(&buf)

	require.NoError(t, writer.WriteSnapshot(nil, FormatJSON))
	assert.Equal(t, "[]\n", buf.String())
}

func TestWriter_WriteSnapshot_UnknownFormat(t *testing.T) {
	writer := NewWriterWithOutput(&bytes.Buffer{})

	err := writer.WriteSnapshot(domain.Snapshot{}, Format("xml"))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestWriter_WriteTransition(t *testing.T) {
	tests := []struct {
		name       string
		result     domain.TransitionResult
		wantOutput string
	}{
		{
			name:       "no switch",
			result:     domain.TransitionResult{Root: "/w", From: "main", To: "main", Action: domain.ActionNone},
			wantOutput: "",
		},
		{
			name:       "first observation",
			result:     domain.TransitionResult{Root: "/w", To: "main", Action: domain.ActionInitial},
			wantOutput: "",
		},
		{
			name: "restored with failures",
			result: domain.TransitionResult{
				Root: "/w", From: "main", To: "dev", Action: domain.ActionRestored,
				Opened: 2, Failures: []error{domain.ErrEntryOpenFailure},
			},
			wantOutput: "/w: main -> dev: restored 2 tabs, 1 failed\n",
		},
		{
			name:       "kept tabs",
			result:     domain.TransitionResult{Root: "/w", From: "main", To: "dev", Action: domain.ActionKeptTabs},
			wantOutput: "/w: main -> dev: kept_tabs\n",
		},
		{
			name: "aborted",
			result: domain.TransitionResult{
				Root: "/w", From: "main", To: "dev", Action: domain.ActionAborted,
				Err: domain.ErrPersistenceFailure,
			},
			wantOutput: "/w: main -> dev: aborted (" + domain.ErrPersistenceFailure.Error() + ")\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			writer := NewWriterWithOutput(&buf)

			require.NoError(t, writer.WriteTransition(tt.result))
			assert.Equal(t, tt.wantOutput, buf.String())
		})
	}
}

func TestNewWriter_UsesStdout(t *testing.T) {
	writer := NewWriter()
	assert.NotNil(t, writer)
	assert.NotNil(t, writer.out)
}
