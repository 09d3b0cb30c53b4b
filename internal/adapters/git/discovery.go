package git

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/go-git/go-git/v5"

	"github.com/MyCarrier-DevOps/branch-tabs/internal/domain"
)

// skippedDirs are never descended into while discovering repositories.
var skippedDirs = map[string]bool{
	git.GitDirName: true,
	"node_modules": true,
	"vendor":       true,
}

// Discovery implements domain.RepositoryDiscovery for a workspace directory.
type Discovery struct {
	workspace string
	depth     int
	logger    Logger
}

// NewDiscovery creates a Discovery rooted at workspace. Depth 0 only considers
// the workspace itself, depth 1 also its immediate subdirectories, and so on.
func NewDiscovery(workspace string, depth int, log Logger) *Discovery {
	if depth < 0 {
		depth = 0
	}
	return &Discovery{
		workspace: filepath.Clean(workspace),
		depth:     depth,
		logger:    log,
	}
}

// Discover returns every repository root within depth of the workspace, sorted.
func (d *Discovery) Discover(ctx context.Context) ([]string, error) {
	var roots []string

	err := filepath.WalkDir(d.workspace, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if path == d.workspace {
				return err
			}
			d.logger.Warn(ctx, "skipping unreadable directory", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
			return fs.SkipDir
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !entry.IsDir() {
			return nil
		}
		if path != d.workspace && skippedDirs[entry.Name()] {
			return fs.SkipDir
		}

		if IsRepositoryRoot(path) {
			roots = append(roots, path)
		}
		if d.levels(path) >= d.depth {
			return fs.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover repositories in %s: %w", d.workspace, err)
	}

	sort.Strings(roots)
	d.logger.Debug(ctx, "discovered repositories", map[string]interface{}{
		"workspace": d.workspace,
		"count":     len(roots),
	})
	return roots, nil
}

// Watch reports repositories created in, or removed from, the workspace's
// top-level directory until ctx is done.
func (d *Discovery) Watch(ctx context.Context, opened, closed func(root string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%w: create workspace watcher: %w", domain.ErrEnvironmentUnavailable, err)
	}
	defer watcher.Close()

	if err := watcher.Add(d.workspace); err != nil {
		return fmt.Errorf("%w: watch %s: %w", domain.ErrEnvironmentUnavailable, d.workspace, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			d.handle(ctx, watcher, ev, opened, closed)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			d.logger.Warn(ctx, "workspace watcher error", map[string]interface{}{
				"workspace": d.workspace,
				"error":     err.Error(),
			})
		}
	}
}

func (d *Discovery) handle(
	ctx context.Context,
	watcher *fsnotify.Watcher,
	ev fsnotify.Event,
	opened, closed func(root string),
) {
	// "git init" in the workspace itself shows up as a new .git entry.
	candidate := ev.Name
	if filepath.Base(ev.Name) == git.GitDirName {
		candidate = filepath.Dir(ev.Name)
	}

	switch {
	case ev.Has(fsnotify.Create):
		if IsRepositoryRoot(candidate) {
			d.logger.Debug(ctx, "repository appeared", map[string]interface{}{"root": candidate})
			opened(candidate)
			return
		}
		// A new directory may become a repository once its .git entry is written.
		if info, err := os.Stat(candidate); err == nil && info.IsDir() &&
			d.levels(candidate) <= d.depth && !IsRepositoryRoot(filepath.Dir(candidate)) {
			if err := watcher.Add(candidate); err != nil {
				d.logger.Warn(ctx, "could not watch new directory", map[string]interface{}{
					"path":  candidate,
					"error": err.Error(),
				})
			}
		}
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		d.logger.Debug(ctx, "repository path removed", map[string]interface{}{"root": candidate})
		closed(candidate)
	}
}

// levels returns how many directories path is below the workspace.
func (d *Discovery) levels(path string) int {
	rel, err := filepath.Rel(d.workspace, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}

// IsRepositoryRoot reports whether dir holds a .git directory or a .git file (worktree).
func IsRepositoryRoot(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, git.GitDirName))
	return err == nil
}
