package settings

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MyCarrier-DevOps/branch-tabs/internal/domain"
)

type testLogger struct {
	warnings int
}

func (l *testLogger) Warn(_ context.Context, _ string, _ map[string]interface{}) {
	l.warnings++
}

func writeSettings(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestSource_DefaultsWhenFileMissing(t *testing.T) {
	log := &testLogger{}
	s := NewSource(filepath.Join(t.TempDir(), "settings.yaml"), log)

	assert.True(t, s.Bool(domain.SettingBringTabsOnNoSavedAssociation, true))
	assert.False(t, s.Bool(domain.SettingShowPromptWhenNoSavedAssociation, false))
	assert.Equal(t, 0, log.warnings)
}

func TestSource_ReadsFileEveryTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	s := NewSource(path, &testLogger{})

	writeSettings(t, path, "bring_tabs_on_no_saved_association: false\n")
	assert.False(t, s.Bool(domain.SettingBringTabsOnNoSavedAssociation, true))

	writeSettings(t, path, "bring_tabs_on_no_saved_association: true\n")
	assert.True(t, s.Bool(domain.SettingBringTabsOnNoSavedAssociation, false))

	require.NoError(t, os.Remove(path))
	assert.False(t, s.Bool(domain.SettingBringTabsOnNoSavedAssociation, false))
}

func TestSource_EnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	writeSettings(t, path, "show_prompt_when_no_saved_association: true\n")
	t.Setenv("BRANCH_TABS_SHOW_PROMPT_WHEN_NO_SAVED_ASSOCIATION", "false")

	s := NewSource(path, &testLogger{})

	assert.False(t, s.Bool(domain.SettingShowPromptWhenNoSavedAssociation, true))
}

func TestSource_JSONSettingsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	writeSettings(t, path, `{"show_prompt_when_no_saved_association": false}`)

	s := NewSource(path, &testLogger{})

	assert.False(t, s.Bool(domain.SettingShowPromptWhenNoSavedAssociation, true))
}

func TestSource_InvalidFileFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	writeSettings(t, path, "bring_tabs_on_no_saved_association: [unterminated\n")
	log := &testLogger{}

	s := NewSource(path, log)

	assert.True(t, s.Bool(domain.SettingBringTabsOnNoSavedAssociation, true))
	assert.Equal(t, 1, log.warnings)
}

func TestSource_NoPath(t *testing.T) {
	t.Setenv("BRANCH_TABS_BRING_TABS_ON_NO_SAVED_ASSOCIATION", "0")
	s := NewSource("", &testLogger{})

	assert.False(t, s.Bool(domain.SettingBringTabsOnNoSavedAssociation, true))
	assert.True(t, s.Bool(domain.SettingShowPromptWhenNoSavedAssociation, true))
}
