package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MyCarrier-DevOps/branch-tabs/internal/adapters/output"
	"github.com/MyCarrier-DevOps/branch-tabs/internal/domain"
)

// outputFormat is the --output flag of snapshot show.
var outputFormat string

func newSnapshotCmd(deps *Dependencies) *cobra.Command {
	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Inspect and clear saved tab layouts",
	}

	listCmd := &cobra.Command{
		Use:          "list",
		Short:        "List branches with saved tabs",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSnapshotList(cmd, deps)
		},
	}

	showCmd := &cobra.Command{
		Use:          "show <branch>",
		Short:        "Print the tabs saved for a branch",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshotShow(cmd, domain.BranchID(args[0]), deps)
		},
	}
	showCmd.Flags().StringVarP(&outputFormat, "output", "o", string(output.FormatText),
		"Output format: text, json or yaml")

	clearCmd := &cobra.Command{
		Use:          "clear <branch>",
		Short:        "Forget the tabs saved for a branch",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshotClear(cmd, domain.BranchID(args[0]), deps)
		},
	}

	snapshotCmd.AddCommand(listCmd, showCmd, clearCmd)
	return snapshotCmd
}

func runSnapshotList(cmd *cobra.Command, deps *Dependencies) error {
	s, err := start(cmd, deps, "snapshot list")
	if err != nil {
		return err
	}
	store, closeStore, err := s.openStore(deps)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := deps.OutputWriterFactory(s.stdout).WriteBranches(store.Branches()); err != nil {
		return fmt.Errorf("output error: %w", err)
	}
	return nil
}

func runSnapshotShow(cmd *cobra.Command, branch domain.BranchID, deps *Dependencies) error {
	s, err := start(cmd, deps, "snapshot show")
	if err != nil {
		return err
	}
	store, closeStore, err := s.openStore(deps)
	if err != nil {
		return err
	}
	defer closeStore()

	if !store.Has(branch) {
		return fmt.Errorf("no saved tabs for branch %s", branch)
	}

	if err := deps.OutputWriterFactory(s.stdout).WriteSnapshot(store.Get(branch), output.Format(outputFormat)); err != nil {
		return fmt.Errorf("output error: %w", err)
	}
	return nil
}

func runSnapshotClear(cmd *cobra.Command, branch domain.BranchID, deps *Dependencies) error {
	s, err := start(cmd, deps, "snapshot clear")
	if err != nil {
		return err
	}
	store, closeStore, err := s.openStore(deps)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := store.Delete(s.ctx, branch); err != nil {
		s.log.Error(s.ctx, "failed to clear saved tabs", err, map[string]interface{}{
			"branch": string(branch),
		})
		return fmt.Errorf("state store error: %w", err)
	}

	s.log.Info(s.ctx, "cleared saved tabs", map[string]interface{}{
		"branch":    string(branch),
		"workspace": s.workspace,
	})
	return nil
}
