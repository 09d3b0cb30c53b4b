package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/MyCarrier-DevOps/branch-tabs/internal/domain"
	"github.com/MyCarrier-DevOps/branch-tabs/internal/usecases"
)

// answer is the fixed reply to the no-saved-tabs prompt; empty means ask on the terminal.
var answer string

func newWatchCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [repository...]",
		Short: "Save and restore editor tabs as branches change",
		Long: `watch tracks repositories and swaps the editor layout on every branch switch.

Without arguments every repository within BRANCH_TABS_DISCOVERY_DEPTH levels of
the workspace is tracked, and repositories created or removed later are picked
up. With arguments only the named repositories are tracked.

The command runs until interrupted.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args, deps)
		},
	}

	cmd.Flags().StringVar(&answer, "answer", "",
		"Reply to the no-saved-tabs prompt without asking (yes, no or none)")

	return cmd
}

// runWatch attaches the repositories and runs the dispatch loop until the context ends.
func runWatch(cmd *cobra.Command, args []string, deps *Dependencies) error {
	s, err := start(cmd, deps, "watch")
	if err != nil {
		return err
	}

	store, closeStore, err := s.openStore(deps)
	if err != nil {
		return err
	}
	defer closeStore()

	prompt, err := deps.PromptFactory(answer, s.log)
	if err != nil {
		return fmt.Errorf("invalid --answer: %w", err)
	}

	tabs := deps.TabManagerFactory(s.cfg, s.workspace, s.log)
	writer := deps.OutputWriterFactory(s.stdout)

	registry := usecases.NewRegistry(usecases.RegistryDeps{
		Source:   deps.RepositorySourceFactory(s.log),
		Reader:   usecases.NewTabSnapshotReader(tabs),
		Store:    store,
		Tabs:     tabs,
		Settings: deps.SettingsFactory(s.cfg, s.workspace, s.log),
		Prompt:   prompt,
		Notifier: deps.NotifierFactory(s.cfg, s.stderr, s.log),
		Logger:   s.log,
		OnTransition: func(result domain.TransitionResult) {
			if err := writer.WriteTransition(result); err != nil {
				s.log.Warn(s.ctx, "failed to write transition", map[string]interface{}{
					"error": err.Error(),
				})
			}
		},
	})

	g, ctx := errgroup.WithContext(s.ctx)

	var discovery domain.RepositoryDiscovery
	roots := make([]string, 0, len(args))
	for _, arg := range args {
		root, err := filepath.Abs(arg)
		if err != nil {
			return fmt.Errorf("invalid repository path %q: %w", arg, err)
		}
		roots = append(roots, root)
	}
	if len(roots) == 0 {
		discovery = deps.DiscoveryFactory(s.workspace, s.cfg.DiscoveryDepth, s.log)
		roots, err = discovery.Discover(ctx)
		if err != nil {
			s.log.Error(ctx, "failed to discover repositories", err, map[string]interface{}{
				"workspace": s.workspace,
			})
			return fmt.Errorf("discovery error: %w", err)
		}
	}

	attached := 0
	for _, root := range roots {
		// Attach reports its own failures to the operator.
		if err := registry.Attach(ctx, root); err == nil {
			attached++
		}
	}
	if discovery == nil && attached == 0 {
		return fmt.Errorf("no repository could be opened: %w", domain.ErrRepositoryNotFound)
	}

	s.log.Info(ctx, "watching for branch changes", map[string]interface{}{
		"workspace":    s.workspace,
		"repositories": attached,
	})

	g.Go(func() error {
		return registry.Run(ctx)
	})
	if discovery != nil {
		g.Go(func() error {
			return discovery.Watch(ctx,
				func(root string) {
					_ = registry.Attach(ctx, root)
				},
				func(root string) {
					registry.Detach(ctx, root)
				},
			)
		})
	}

	if err := g.Wait(); err != nil {
		s.log.Error(s.ctx, "watch stopped", err, nil)
		return err
	}

	s.log.Info(s.ctx, "watch stopped", nil)
	return nil
}
