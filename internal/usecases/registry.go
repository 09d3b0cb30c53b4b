package usecases

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/MyCarrier-DevOps/branch-tabs/internal/domain"
)

// RegistryDeps holds the collaborators shared by every controller of a Registry.
type RegistryDeps struct {
	Source   domain.RepositorySource
	Reader   domain.SnapshotReader
	Store    domain.BranchTabStore
	Tabs     domain.TabManager
	Settings domain.SettingsSource
	Prompt   domain.DecisionPrompt
	Notifier domain.Notifier
	Logger   Logger

	// OnTransition, if set, receives the result of every processed notification.
	OnTransition func(domain.TransitionResult)

	// NewID is passed to every controller. Optional.
	NewID func() string
}

type tracked struct {
	repo       domain.Repository
	controller *BranchTransitionController
	stop       chan struct{}
}

// Registry keeps one BranchTransitionController per repository root and runs
// every transition from a single dispatch loop, so two transitions never overlap.
type Registry struct {
	deps RegistryDeps

	// dispatchMu is held while a transition runs and while roots are attached
	// or detached.
	dispatchMu sync.Mutex

	mu     sync.Mutex
	roots  map[string]*tracked
	queue  []string
	queued map[string]bool
	wake   chan struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry(deps RegistryDeps) *Registry {
	return &Registry{
		deps:   deps,
		roots:  make(map[string]*tracked),
		queued: make(map[string]bool),
		wake:   make(chan struct{}, 1),
	}
}

// Attach starts tracking root. The controller's tracked branch is seeded from
// the repository's current HEAD. Attaching a root twice is a no-op.
func (r *Registry) Attach(ctx context.Context, root string) error {
	r.dispatchMu.Lock()
	defer r.dispatchMu.Unlock()

	r.mu.Lock()
	_, exists := r.roots[root]
	r.mu.Unlock()
	if exists {
		return nil
	}

	repo, err := r.deps.Source.Open(ctx, root)
	if err != nil {
		err = fmt.Errorf("%w: open repository %s: %w", domain.ErrEnvironmentUnavailable, root, err)
		r.deps.Logger.Error(ctx, "failed to attach repository", err, map[string]interface{}{
			"root": root,
		})
		r.deps.Notifier.Error(ctx, "Git repository not available: "+root, err)
		return err
	}

	controller := NewBranchTransitionController(ControllerDeps{
		Repository: repo,
		Reader:     r.deps.Reader,
		Store:      r.deps.Store,
		Tabs:       r.deps.Tabs,
		Settings:   r.deps.Settings,
		Prompt:     r.deps.Prompt,
		Notifier:   r.deps.Notifier,
		Logger:     r.deps.Logger,
		NewID:      r.deps.NewID,
	})
	if err := controller.Seed(ctx); err != nil {
		r.deps.Logger.Warn(ctx, "could not seed tracked branch", map[string]interface{}{
			"root":  repo.Root(),
			"error": err.Error(),
		})
	}

	t := &tracked{repo: repo, controller: controller, stop: make(chan struct{})}

	r.mu.Lock()
	r.roots[root] = t
	r.mu.Unlock()

	go r.forward(root, t)

	branch, _ := controller.Tracked()
	r.deps.Logger.Info(ctx, "tracking repository", map[string]interface{}{
		"root":   root,
		"branch": string(branch),
	})
	return nil
}

// Detach stops tracking root and closes its repository.
func (r *Registry) Detach(ctx context.Context, root string) {
	r.dispatchMu.Lock()
	defer r.dispatchMu.Unlock()

	r.mu.Lock()
	t, ok := r.roots[root]
	delete(r.roots, root)
	delete(r.queued, root)
	r.mu.Unlock()
	if !ok {
		return
	}

	close(t.stop)
	if err := t.repo.Close(); err != nil {
		r.deps.Logger.Warn(ctx, "failed to close repository", map[string]interface{}{
			"root":  root,
			"error": err.Error(),
		})
	}
	r.deps.Logger.Info(ctx, "stopped tracking repository", map[string]interface{}{
		"root": root,
	})
}

// Roots returns the tracked roots in sorted order.
func (r *Registry) Roots() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, len(r.roots))
	for root := range r.roots {
		out = append(out, root)
	}
	sort.Strings(out)
	return out
}

// Tracked returns the tracked branch of root.
func (r *Registry) Tracked(root string) (domain.BranchID, bool) {
	r.mu.Lock()
	t, ok := r.roots[root]
	r.mu.Unlock()
	if !ok {
		return "", false
	}
	return t.controller.Tracked()
}

// Run processes queued notifications until ctx is done, then detaches every root.
func (r *Registry) Run(ctx context.Context) error {
	defer r.closeAll()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-r.wake:
		}

		for {
			if ctx.Err() != nil {
				return nil
			}
			root, ok := r.next()
			if !ok {
				break
			}
			r.dispatch(ctx, root)
		}
	}
}

// Notify queues a notification for root as if its repository had signalled a change.
func (r *Registry) Notify(root string) {
	r.mu.Lock()
	if _, ok := r.roots[root]; !ok || r.queued[root] {
		r.mu.Unlock()
		return
	}
	r.queued[root] = true
	r.queue = append(r.queue, root)
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *Registry) forward(root string, t *tracked) {
	for {
		select {
		case <-t.stop:
			return
		case _, ok := <-t.repo.Changes():
			if !ok {
				return
			}
			r.Notify(root)
		}
	}
}

func (r *Registry) next() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for len(r.queue) > 0 {
		root := r.queue[0]
		r.queue = r.queue[1:]
		if !r.queued[root] {
			// Detached while queued.
			continue
		}
		delete(r.queued, root)
		return root, true
	}
	return "", false
}

func (r *Registry) dispatch(ctx context.Context, root string) {
	r.dispatchMu.Lock()
	defer r.dispatchMu.Unlock()

	r.mu.Lock()
	t, ok := r.roots[root]
	r.mu.Unlock()
	if !ok {
		return
	}

	result := t.controller.Handle(ctx)
	if r.deps.OnTransition != nil {
		r.deps.OnTransition(result)
	}
}

func (r *Registry) closeAll() {
	for _, root := range r.Roots() {
		r.Detach(context.Background(), root)
	}
}
