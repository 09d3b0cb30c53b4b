// Package domain defines the core entities and interfaces for branch-tabs.
// This package contains no external dependencies and represents the innermost layer
// of the CLEAN architecture.
package domain

import (
	"context"
	"errors"
)

// Domain errors.
var (
	// ErrEnvironmentUnavailable indicates a required collaborator (repository or tab manager) cannot be used.
	ErrEnvironmentUnavailable = errors.New("environment unavailable")

	// ErrEntryOpenFailure indicates a single snapshot entry could not be opened during restore.
	ErrEntryOpenFailure = errors.New("could not open file")

	// ErrPersistenceFailure indicates the durable branch mapping could not be read or written.
	ErrPersistenceFailure = errors.New("persistence failure")

	// ErrRepositoryNotFound indicates the specified path is not a valid Git repository.
	ErrRepositoryNotFound = errors.New("git repository not found at specified path")

	// ErrDetachedHead indicates HEAD does not point at a branch.
	ErrDetachedHead = errors.New("HEAD is detached")

	// ErrInvalidLocation indicates a tab location cannot be resolved to a document.
	ErrInvalidLocation = errors.New("invalid tab location")
)

// Repository is a watched git repository rooted at Root.
type Repository interface {
	// Root returns the repository root used as the registry key.
	Root() string

	// CurrentBranch returns the checked-out branch. Returns ("", nil) when HEAD is detached.
	CurrentBranch(ctx context.Context) (BranchID, error)

	// Changes delivers a signal whenever repository state may have changed.
	// Signals are coalesced: a slow reader sees at most one pending signal.
	Changes() <-chan struct{}

	// Close stops watching and releases resources.
	Close() error
}

// RepositorySource opens repositories for watching.
type RepositorySource interface {
	Open(ctx context.Context, root string) (Repository, error)
}

// RepositoryDiscovery finds repository roots inside a workspace.
type RepositoryDiscovery interface {
	// Discover returns the repository roots that exist now.
	Discover(ctx context.Context) ([]string, error)

	// Watch blocks until ctx is done, calling opened/closed as roots appear and disappear.
	Watch(ctx context.Context, opened, closed func(root string)) error
}

// TabManager reads and manipulates the editor's open tabs.
type TabManager interface {
	// Groups returns every editor group with its tabs.
	Groups(ctx context.Context) ([]TabGroup, error)

	// CloseAll closes every open tab. Closing when nothing is open is a no-op.
	CloseAll(ctx context.Context) error

	// Open opens location in the given group.
	Open(ctx context.Context, location string, group int) error
}

// SettingsSource exposes named boolean options. Values are read fresh on every call.
type SettingsSource interface {
	Bool(key string, def bool) bool
}

// DecisionPrompt asks the operator a binary question.
type DecisionPrompt interface {
	// Ask returns DecisionYes, DecisionNo or DecisionNone when dismissed.
	Ask(ctx context.Context, question, yes, no string) Decision
}

// Notifier surfaces non-blocking messages to the operator.
type Notifier interface {
	Info(ctx context.Context, msg string)
	Error(ctx context.Context, msg string, err error)
}

// KeyValueStore is workspace-scoped durable storage of serialized records.
type KeyValueStore interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set durably replaces the value for key.
	Set(ctx context.Context, key string, value []byte) error

	// Close releases any resources held by the store.
	Close() error
}

// BranchTabStore maps branches to their persisted snapshots.
type BranchTabStore interface {
	// Get returns the stored snapshot or an empty one. Never fails.
	Get(branch BranchID) Snapshot

	// Put overwrites the snapshot for branch and persists it before returning.
	Put(ctx context.Context, branch BranchID, snapshot Snapshot) error

	// Has reports whether a snapshot is stored for branch.
	Has(branch BranchID) bool
}

// SnapshotReader captures the current tab layout.
type SnapshotReader interface {
	Capture(ctx context.Context) (Snapshot, error)
}
