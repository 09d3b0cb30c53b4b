// Package main is the entry point for the branch-tabs CLI application.
// branch-tabs saves the editor tab layout of each git branch and restores it
// when the branch is checked out again.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/MyCarrier-DevOps/goLibMyCarrier/logger"

	"github.com/MyCarrier-DevOps/branch-tabs/cmd"
	"github.com/MyCarrier-DevOps/branch-tabs/internal/adapters/git"
	logadapter "github.com/MyCarrier-DevOps/branch-tabs/internal/adapters/logger"
	"github.com/MyCarrier-DevOps/branch-tabs/internal/adapters/notify"
	"github.com/MyCarrier-DevOps/branch-tabs/internal/adapters/output"
	"github.com/MyCarrier-DevOps/branch-tabs/internal/adapters/persistence"
	"github.com/MyCarrier-DevOps/branch-tabs/internal/adapters/prompt"
	"github.com/MyCarrier-DevOps/branch-tabs/internal/adapters/tabs"
	"github.com/MyCarrier-DevOps/branch-tabs/internal/domain"
	"github.com/MyCarrier-DevOps/branch-tabs/internal/infrastructure/config"
	"github.com/MyCarrier-DevOps/branch-tabs/internal/infrastructure/settings"
)

func main() {
	// The logger is created on first use so that --verbose can set LOG_LEVEL first.
	var (
		once    sync.Once
		adapter *logadapter.ZapAdapter
	)
	newLogger := func() *logadapter.ZapAdapter {
		once.Do(func() {
			adapter = logadapter.NewZapAdapter(logger.NewZapLoggerFromConfig())
		})
		return adapter
	}

	cmd.SetDefaultDependencies(newDependencies(newLogger, os.Stdout, os.Stderr))
	cmd.Execute()
}

// newDependencies wires the production adapters.
func newDependencies(newLogger func() *logadapter.ZapAdapter, stdout, stderr io.Writer) *cmd.Dependencies {
	return &cmd.Dependencies{
		LoggerFactory: func() cmd.Logger {
			return newLogger()
		},

		ConfigLoader: config.Load,

		KeyValueStoreFactory: openKeyValueStore,

		TabManagerFactory: func(cfg *config.Config, workspace string, log cmd.Logger) domain.TabManager {
			return tabs.NewLayoutFile(cfg.LayoutFileFor(workspace), workspace, scoped(log, workspace))
		},

		RepositoryFactory: func(path string, log cmd.Logger) (domain.Repository, error) {
			repo, err := git.NewGoGitRepository(path, log)
			if err != nil {
				return nil, err
			}
			return repo, nil
		},

		RepositorySourceFactory: func(log cmd.Logger) domain.RepositorySource {
			return git.NewSource(log)
		},

		DiscoveryFactory: func(workspace string, depth int, log cmd.Logger) domain.RepositoryDiscovery {
			return git.NewDiscovery(workspace, depth, scoped(log, workspace))
		},

		SettingsFactory: func(cfg *config.Config, workspace string, log cmd.Logger) domain.SettingsSource {
			return settings.NewSource(cfg.SettingsFileFor(workspace), scoped(log, workspace))
		},

		PromptFactory: newPrompt,

		NotifierFactory: func(cfg *config.Config, stderr io.Writer, log cmd.Logger) domain.Notifier {
			notifiers := notify.Multi{notify.NewWriter(stderr)}
			if cfg.DesktopNotify {
				notifiers = append(notifiers, notify.NewDesktop(log))
			}
			return notifiers
		},

		OutputWriterFactory: func(out io.Writer) cmd.OutputWriter {
			return output.NewWriterWithOutput(out)
		},

		Stdout: stdout,
		Stderr: stderr,
	}
}

// openKeyValueStore opens the backend selected by cfg.Store, scoped to workspace.
func openKeyValueStore(ctx context.Context, cfg *config.Config, workspace string) (domain.KeyValueStore, error) {
	var (
		kv  domain.KeyValueStore
		err error
	)
	switch cfg.Store {
	case config.StoreSQLite:
		kv, err = persistence.OpenSQLite(ctx, cfg.DatabasePath(), workspace)
	case config.StoreFile:
		kv, err = persistence.OpenFile(cfg.DataDir, workspace)
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidStore, cfg.Store)
	}
	if err != nil {
		return nil, err
	}
	return kv, nil
}

// newPrompt returns a terminal prompt, or a fixed decision when answer is set.
func newPrompt(answer string, log cmd.Logger) (domain.DecisionPrompt, error) {
	if answer == "" {
		return prompt.NewTerminal(log), nil
	}
	decision, err := prompt.ParseDecision(answer)
	if err != nil {
		return nil, err
	}
	return prompt.NewStatic(decision), nil
}

// scoped binds the workspace to log when it is the zap adapter.
func scoped(log cmd.Logger, workspace string) cmd.Logger {
	if z, ok := log.(*logadapter.ZapAdapter); ok {
		return z.ForWorkspace(workspace)
	}
	return log
}
