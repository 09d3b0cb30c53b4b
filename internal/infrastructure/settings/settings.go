// Package settings provides the live boolean options read by the transition controller.
// Values come from a YAML/JSON/TOML settings file and BRANCH_TABS_* environment
// variables, and are re-read on every lookup so edits apply to the next transition.
package settings

import (
	"context"
	"errors"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to upper-cased setting keys to form their environment variable.
// bring_tabs_on_no_saved_association -> BRANCH_TABS_BRING_TABS_ON_NO_SAVED_ASSOCIATION.
const EnvPrefix = "BRANCH_TABS"

// Logger defines the logging interface for the settings source.
type Logger interface {
	Warn(ctx context.Context, msg string, fields map[string]interface{})
}

// Source implements domain.SettingsSource on top of viper.
type Source struct {
	path   string
	logger Logger
}

// NewSource creates a source for the settings file at path. The file is optional.
func NewSource(path string, log Logger) *Source {
	return &Source{path: path, logger: log}
}

// Path returns the settings file path.
func (s *Source) Path() string {
	return s.path
}

// Bool returns the value of key, or def when neither the file nor the
// environment sets it. An unreadable file is logged and ignored.
func (s *Source) Bool(key string, def bool) bool {
	v := s.load()
	if !v.IsSet(key) {
		return def
	}
	return v.GetBool(key)
}

// load builds a fresh viper instance so nothing is cached between reads.
func (s *Source) load() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if s.path == "" {
		return v
	}

	v.SetConfigFile(s.path)
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn(context.Background(), "failed to read settings file; using defaults", map[string]interface{}{
			"path":  s.path,
			"error": err.Error(),
		})
	}
	return v
}
