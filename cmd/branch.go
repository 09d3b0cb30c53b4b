package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MyCarrier-DevOps/branch-tabs/internal/domain"
)

func newBranchCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "branch [path]",
		Short: "Print the branch checked out in a repository",
		Long: `branch prints the short name of the checked-out branch, the key under
which the repository's tabs are saved. A detached HEAD prints "(detached)".`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBranch(cmd, args, deps)
		},
	}
}

func runBranch(cmd *cobra.Command, args []string, deps *Dependencies) error {
	s, err := start(cmd, deps, "branch")
	if err != nil {
		return err
	}

	// Determine repository path
	repoPath := s.workspace
	if len(args) > 0 {
		repoPath = args[0]
	}

	repo, err := deps.RepositoryFactory(repoPath, s.log)
	if err != nil {
		s.log.Error(s.ctx, "failed to open git repository", err, map[string]interface{}{
			"path": repoPath,
		})
		if errors.Is(err, domain.ErrRepositoryNotFound) {
			return fmt.Errorf("not a git repository: %s", repoPath)
		}
		return err
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			s.log.Warn(s.ctx, "failed to close git repository", map[string]interface{}{
				"error": closeErr.Error(),
			})
		}
	}()

	branch, err := repo.CurrentBranch(s.ctx)
	if err != nil {
		s.log.Error(s.ctx, "failed to read current branch", err, map[string]interface{}{
			"path": repoPath,
		})
		return fmt.Errorf("%w: %w", domain.ErrEnvironmentUnavailable, err)
	}

	if err := deps.OutputWriterFactory(s.stdout).WriteBranch(branch); err != nil {
		s.log.Error(s.ctx, "failed to write output", err, nil)
		return fmt.Errorf("output error: %w", err)
	}
	return nil
}
