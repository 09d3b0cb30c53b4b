// Package git provides adapters for interacting with local Git repositories.
// This package implements domain.Repository using go-git/v5 for reading HEAD
// and fsnotify for change notifications.
package git

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/filesystem"

	"github.com/MyCarrier-DevOps/branch-tabs/internal/domain"
)

// Logger defines the logging interface for the git adapter.
// This interface enables dependency injection and testability.
type Logger interface {
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
}

// watchedFiles are the git-dir entries whose changes produce a notification.
// HEAD moves on checkout, index and ORIG_HEAD on most other repository operations.
var watchedFiles = map[string]bool{
	"HEAD":      true,
	"index":     true,
	"ORIG_HEAD": true,
}

// GoGitRepository implements domain.Repository using go-git/v5.
type GoGitRepository struct {
	repo   *git.Repository
	path   string
	gitDir string
	logger Logger

	watcher *fsnotify.Watcher
	changes chan struct{}
	done    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

// NewGoGitRepository opens the repository at path without watching it.
// Worktrees and subdirectories of a working tree are supported.
// Returns domain.ErrRepositoryNotFound if the path is not a valid Git repository.
func NewGoGitRepository(path string, log Logger) (*GoGitRepository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrRepositoryNotFound, path)
	}

	gitDir := filepath.Join(path, git.GitDirName)
	if fs, ok := repo.Storer.(*filesystem.Storage); ok {
		gitDir = fs.Filesystem().Root()
	}

	return &GoGitRepository{
		repo:    repo,
		path:    path,
		gitDir:  gitDir,
		logger:  log,
		changes: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}, nil
}

// Root returns the path the repository was opened with.
func (r *GoGitRepository) Root() string {
	return r.path
}

// GitDir returns the directory holding HEAD for this working tree.
func (r *GoGitRepository) GitDir() string {
	return r.gitDir
}

// CurrentBranch returns the short name of the checked-out branch.
// HEAD is read without resolving it, so a branch with no commits yet still has a name.
// Returns ("", nil) when HEAD is detached.
func (r *GoGitRepository) CurrentBranch(ctx context.Context) (domain.BranchID, error) {
	head, err := r.repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return "", fmt.Errorf("failed to read HEAD: %w", err)
	}

	name := head.Name()
	if head.Type() == plumbing.SymbolicReference {
		name = head.Target()
	}

	if !name.IsBranch() {
		r.logger.Debug(ctx, "HEAD is detached; branch name will be empty", map[string]interface{}{
			"head": head.String(),
			"path": r.path,
		})
		return "", nil
	}

	return domain.BranchID(name.Short()), nil
}

// Watch starts delivering change signals on Changes. Calling Watch twice is an error.
func (r *GoGitRepository) Watch(ctx context.Context) error {
	if r.watcher != nil {
		return errors.New("repository is already watched")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%w: create watcher: %w", domain.ErrEnvironmentUnavailable, err)
	}
	if err := watcher.Add(r.gitDir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("%w: watch %s: %w", domain.ErrEnvironmentUnavailable, r.gitDir, err)
	}
	r.watcher = watcher

	r.wg.Add(1)
	go r.loop(ctx)

	r.logger.Debug(ctx, "watching repository", map[string]interface{}{
		"path":    r.path,
		"git_dir": r.gitDir,
	})
	return nil
}

func (r *GoGitRepository) loop(ctx context.Context) {
	defer r.wg.Done()
	defer close(r.changes)

	for {
		select {
		case <-r.done:
			return
		case ev, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if !watchedFiles[filepath.Base(ev.Name)] {
				continue
			}
			r.signal()
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			r.logger.Warn(ctx, "repository watcher error", map[string]interface{}{
				"path":  r.path,
				"error": err.Error(),
			})
		}
	}
}

// signal records a pending change without blocking.
func (r *GoGitRepository) signal() {
	select {
	case r.changes <- struct{}{}:
	default:
	}
}

// Changes returns the coalesced change channel. It is closed by Close.
func (r *GoGitRepository) Changes() <-chan struct{} {
	return r.changes
}

// Close stops the watcher. It is safe to call more than once.
func (r *GoGitRepository) Close() error {
	var err error
	r.once.Do(func() {
		close(r.done)
		if r.watcher == nil {
			close(r.changes)
			return
		}
		err = r.watcher.Close()
		r.wg.Wait()
	})
	return err
}

// Source implements domain.RepositorySource, opening and watching GoGitRepository instances.
type Source struct {
	logger Logger
}

// NewSource creates a Source that logs through log.
func NewSource(log Logger) *Source {
	return &Source{logger: log}
}

// Open opens the repository at root and starts watching it.
func (s *Source) Open(ctx context.Context, root string) (domain.Repository, error) {
	repo, err := NewGoGitRepository(root, s.logger)
	if err != nil {
		return nil, err
	}
	if err := repo.Watch(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}
