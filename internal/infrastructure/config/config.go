// Package config provides configuration loading for the branch-tabs application.
// It handles loading storage, layout and logging settings from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Environment variable names.
const (
	// EnvLogLevel is the log level (debug, info, error).
	EnvLogLevel = "LOG_LEVEL"

	// EnvLogAppName is the application name for log context.
	EnvLogAppName = "LOG_APP_NAME"

	// EnvDataDir is the directory holding persisted tab state.
	EnvDataDir = "BRANCH_TABS_DATA_DIR"

	// EnvStore selects the persistence backend (sqlite or file).
	EnvStore = "BRANCH_TABS_STORE"

	// EnvLayoutFile overrides the editor layout file path.
	EnvLayoutFile = "BRANCH_TABS_LAYOUT_FILE"

	// EnvSettingsFile overrides the live settings file path.
	EnvSettingsFile = "BRANCH_TABS_SETTINGS_FILE"

	// EnvDesktopNotify enables desktop notifications.
	EnvDesktopNotify = "BRANCH_TABS_DESKTOP_NOTIFY"

	// EnvDiscoveryDepth is how many directory levels below the workspace are searched for repositories.
	EnvDiscoveryDepth = "BRANCH_TABS_DISCOVERY_DEPTH"
)

// Persistence backends.
const (
	StoreSQLite = "sqlite"
	StoreFile   = "file"
)

// Default values.
const (
	DefaultLogLevel       = "info"
	DefaultLogAppName     = "branch-tabs"
	DefaultStore          = StoreSQLite
	DefaultDiscoveryDepth = 2
	DefaultStateDirName   = ".branch-tabs"
	DefaultLayoutFileName = "layout.json"
	DefaultSettingsName   = "settings.yaml"
	DefaultDatabaseName   = "state.db"
)

// Configuration errors.
var (
	// ErrInvalidStore indicates an unknown persistence backend.
	ErrInvalidStore = errors.New("invalid store backend: expected sqlite or file")

	// ErrInvalidDiscoveryDepth indicates a negative or non-numeric discovery depth.
	ErrInvalidDiscoveryDepth = errors.New("invalid discovery depth: expected a non-negative integer")

	// ErrInvalidBool indicates a boolean variable could not be parsed.
	ErrInvalidBool = errors.New("invalid boolean value")

	// ErrNoDataDir indicates no data directory could be determined.
	ErrNoDataDir = errors.New("could not determine data directory: set BRANCH_TABS_DATA_DIR")
)

// Config holds all application configuration.
type Config struct {
	// DataDir holds the SQLite database or the per-workspace JSON documents.
	DataDir string

	// Store is the persistence backend: StoreSQLite or StoreFile.
	Store string

	// LayoutFile is an explicit layout file path. Empty means per-workspace default.
	LayoutFile string

	// SettingsFile is an explicit settings file path. Empty means per-workspace default.
	SettingsFile string

	// DesktopNotify enables desktop notifications in addition to stderr messages.
	DesktopNotify bool

	// DiscoveryDepth limits repository discovery below the workspace.
	DiscoveryDepth int

	// LogLevel is the logging level (debug, info, error).
	LogLevel string

	// LogAppName is the application name for log context.
	LogAppName string
}

// Load loads the application configuration from environment variables.
func Load() (*Config, error) {
	dataDir := os.Getenv(EnvDataDir)
	if dataDir == "" {
		var err error
		dataDir, err = defaultDataDir()
		if err != nil {
			return nil, err
		}
	}

	store := strings.ToLower(strings.TrimSpace(os.Getenv(EnvStore)))
	if store == "" {
		store = DefaultStore
	}
	if store != StoreSQLite && store != StoreFile {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStore, store)
	}

	depth := DefaultDiscoveryDepth
	if raw := os.Getenv(EnvDiscoveryDepth); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDiscoveryDepth, raw)
		}
		depth = n
	}

	notify := false
	if raw := os.Getenv(EnvDesktopNotify); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q", ErrInvalidBool, EnvDesktopNotify, raw)
		}
		notify = b
	}

	// Get log settings with defaults
	logLevel := os.Getenv(EnvLogLevel)
	if logLevel == "" {
		logLevel = DefaultLogLevel
	}

	logAppName := os.Getenv(EnvLogAppName)
	if logAppName == "" {
		logAppName = DefaultLogAppName
	}

	return &Config{
		DataDir:        dataDir,
		Store:          store,
		LayoutFile:     os.Getenv(EnvLayoutFile),
		SettingsFile:   os.Getenv(EnvSettingsFile),
		DesktopNotify:  notify,
		DiscoveryDepth: depth,
		LogLevel:       logLevel,
		LogAppName:     logAppName,
	}, nil
}

// LayoutFileFor returns the layout file for workspace.
func (c *Config) LayoutFileFor(workspace string) string {
	if c.LayoutFile != "" {
		return c.LayoutFile
	}
	return filepath.Join(workspace, DefaultStateDirName, DefaultLayoutFileName)
}

// SettingsFileFor returns the settings file for workspace.
func (c *Config) SettingsFileFor(workspace string) string {
	if c.SettingsFile != "" {
		return c.SettingsFile
	}
	return filepath.Join(workspace, DefaultStateDirName, DefaultSettingsName)
}

// DatabasePath returns the SQLite database path.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, DefaultDatabaseName)
}

// defaultDataDir follows XDG_DATA_HOME when set and falls back to ~/.branch-tabs.
func defaultDataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "branch-tabs"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoDataDir, err)
	}
	return filepath.Join(home, DefaultStateDirName), nil
}
