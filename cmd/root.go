// Package cmd provides the CLI commands for branch-tabs.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MyCarrier-DevOps/branch-tabs/internal/adapters/output"
	"github.com/MyCarrier-DevOps/branch-tabs/internal/domain"
	"github.com/MyCarrier-DevOps/branch-tabs/internal/infrastructure/config"
	"github.com/MyCarrier-DevOps/branch-tabs/internal/usecases"
)

// Logger defines the logging interface used by the commands.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
	Error(ctx context.Context, msg string, err error, fields map[string]interface{})
}

// OutputWriter renders command results on stdout.
type OutputWriter interface {
	WriteBranch(branch domain.BranchID) error
	WriteBranches(branches []domain.BranchID) error
	WriteSnapshot(snapshot domain.Snapshot, format output.Format) error
	WriteTransition(result domain.TransitionResult) error
}

// Dependencies holds all injectable dependencies for the commands.
// This enables testing by allowing mock implementations to be injected.
type Dependencies struct {
	// LoggerFactory creates a logger instance.
	LoggerFactory func() Logger

	// ConfigLoader loads application configuration.
	ConfigLoader func() (*config.Config, error)

	// KeyValueStoreFactory opens the durable store scoped to workspace.
	KeyValueStoreFactory func(ctx context.Context, cfg *config.Config, workspace string) (domain.KeyValueStore, error)

	// TabManagerFactory creates the editor tab manager for workspace.
	TabManagerFactory func(cfg *config.Config, workspace string, log Logger) domain.TabManager

	// RepositoryFactory opens the repository at path without watching it.
	RepositoryFactory func(path string, log Logger) (domain.Repository, error)

	// RepositorySourceFactory creates the source used to open and watch repositories.
	RepositorySourceFactory func(log Logger) domain.RepositorySource

	// DiscoveryFactory creates the repository discovery for workspace.
	DiscoveryFactory func(workspace string, depth int, log Logger) domain.RepositoryDiscovery

	// SettingsFactory creates the live settings source for workspace.
	SettingsFactory func(cfg *config.Config, workspace string, log Logger) domain.SettingsSource

	// PromptFactory creates the decision prompt. A non-empty answer selects a fixed decision.
	PromptFactory func(answer string, log Logger) (domain.DecisionPrompt, error)

	// NotifierFactory creates the operator notifier.
	NotifierFactory func(cfg *config.Config, stderr io.Writer, log Logger) domain.Notifier

	// OutputWriterFactory creates an OutputWriter writing to out.
	OutputWriterFactory func(out io.Writer) OutputWriter

	// Stdout is the writer for standard output.
	Stdout io.Writer

	// Stderr is the writer for standard error (for warnings/errors).
	Stderr io.Writer
}

// Command-line flags.
var (
	workspace string
	verbose   bool
)

// defaultDeps holds the production dependencies.
// This is set by the production wiring in main or via SetDefaultDependencies.
var defaultDeps *Dependencies

// SetDefaultDependencies sets the default dependencies for production use.
// This should be called from main() before Execute().
func SetDefaultDependencies(deps *Dependencies) {
	defaultDeps = deps
}

// NewRootCmd creates the root command for branch-tabs.
func NewRootCmd() *cobra.Command {
	return NewRootCmdWithDeps(defaultDeps)
}

// NewRootCmdWithDeps creates the root command with explicit dependencies.
// This is the primary constructor that enables testing via dependency injection.
func NewRootCmdWithDeps(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "branch-tabs",
		Short: "Remember editor tabs per git branch",
		Long: `branch-tabs keeps a per-branch record of the editor tab layout.

When a repository in the workspace switches branches, the tabs open on the
branch being left are saved, and the tabs saved for the branch being entered
are restored. The editor exchanges its layout through a JSON layout file.

Examples:
  # Watch every repository below the current directory
  branch-tabs watch

  # Watch one repository and never prompt
  branch-tabs watch ./service --answer no

  # Print the branch checked out in a repository
  branch-tabs branch ./service

  # Inspect saved layouts
  branch-tabs snapshot list
  branch-tabs snapshot show main -o yaml`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", ".",
		"Workspace directory whose repositories and saved layouts are used")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose/debug logging")

	rootCmd.AddCommand(
		newWatchCmd(deps),
		newBranchCmd(deps),
		newSnapshotCmd(deps),
	)

	return rootCmd
}

// session holds what every command needs after start-up.
type session struct {
	ctx       context.Context
	log       Logger
	cfg       *config.Config
	workspace string
	stdout    io.Writer
	stderr    io.Writer
}

// start validates deps, applies the verbose flag, creates the logger and loads configuration.
func start(cmd *cobra.Command, deps *Dependencies, name string) (*session, error) {
	if deps == nil {
		return nil, errors.New("dependencies not configured")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	stdout := deps.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := deps.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	// Set log level based on verbose flag (best-effort)
	if verbose {
		if err := os.Setenv(config.EnvLogLevel, "debug"); err != nil {
			writeWarningf(stderr, "warning: could not set log level: %v\n", err)
		}
	}

	log := deps.LoggerFactory()

	ws, err := filepath.Abs(workspace)
	if err != nil {
		return nil, fmt.Errorf("invalid workspace %q: %w", workspace, err)
	}

	log.Debug(ctx, "starting "+name, map[string]interface{}{
		"workspace": ws,
		"verbose":   verbose,
	})

	cfg, err := deps.ConfigLoader()
	if err != nil {
		log.Error(ctx, "failed to load configuration", err, nil)
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	return &session{
		ctx:       ctx,
		log:       log,
		cfg:       cfg,
		workspace: ws,
		stdout:    stdout,
		stderr:    stderr,
	}, nil
}

// openStore opens the workspace's key-value store and loads the branch tab store from it.
// The returned function closes the key-value store.
func (s *session) openStore(deps *Dependencies) (*usecases.TabStore, func(), error) {
	kv, err := deps.KeyValueStoreFactory(s.ctx, s.cfg, s.workspace)
	if err != nil {
		s.log.Error(s.ctx, "failed to open state store", err, map[string]interface{}{
			"workspace": s.workspace,
			"store":     s.cfg.Store,
		})
		return nil, nil, fmt.Errorf("state store error: %w", err)
	}
	closeKV := func() {
		if closeErr := kv.Close(); closeErr != nil {
			s.log.Warn(s.ctx, "failed to close state store", map[string]interface{}{
				"error": closeErr.Error(),
			})
		}
	}

	store, err := usecases.NewTabStore(s.ctx, kv)
	if err != nil {
		closeKV()
		s.log.Error(s.ctx, "failed to load saved tabs", err, nil)
		return nil, nil, fmt.Errorf("state store error: %w", err)
	}
	return store, closeKV, nil
}

// Execute runs the root command until it finishes or the process is interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// writeWarningf writes a warning message to the given writer.
// This is a best-effort operation; errors are intentionally ignored
// because there is no recovery action if stderr writes fail.
func writeWarningf(w io.Writer, format string, args ...any) {
	_, err := fmt.Fprintf(w, format, args...)
	if err != nil {
		// Intentionally ignored: no recovery action for failed stderr writes
		return
	}
}
