package usecases

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/MyCarrier-DevOps/branch-tabs/internal/domain"
)

// TabStore implements domain.BranchTabStore over a workspace-scoped KeyValueStore.
// The whole mapping is loaded once at construction and rewritten on every Put.
type TabStore struct {
	kv  domain.KeyValueStore
	key string

	mu       sync.RWMutex
	branches map[domain.BranchID]domain.Snapshot
}

// NewTabStore loads the mapping stored under domain.BranchTabsKey.
// A missing record yields an empty store; an unreadable one is a persistence failure.
func NewTabStore(ctx context.Context, kv domain.KeyValueStore) (*TabStore, error) {
	s := &TabStore{
		kv:       kv,
		key:      domain.BranchTabsKey,
		branches: make(map[domain.BranchID]domain.Snapshot),
	}

	data, ok, err := kv.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %w", domain.ErrPersistenceFailure, s.key, err)
	}
	if !ok {
		return s, nil
	}

	branches, err := decodeBranchTabs(data)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", domain.ErrPersistenceFailure, s.key, err)
	}
	s.branches = branches
	return s, nil
}

// Get returns a copy of the snapshot stored for branch, or an empty snapshot.
func (s *TabStore) Get(branch domain.BranchID) domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.branches[branch].Clone()
}

// Has reports whether branch has a stored snapshot, even an empty one.
func (s *TabStore) Has(branch domain.BranchID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.branches[branch]
	return ok
}

// Branches returns the stored branch names in sorted order.
func (s *TabStore) Branches() []domain.BranchID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.BranchID, 0, len(s.branches))
	for b := range s.branches {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Put replaces the snapshot for branch. The in-memory mapping only changes
// once the durable write has succeeded.
func (s *TabStore) Put(ctx context.Context, branch domain.BranchID, snapshot domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.copyLocked()
	next[branch] = snapshot.Clone()
	return s.commitLocked(ctx, next)
}

// Delete removes the snapshot for branch. Deleting a missing branch is a no-op.
func (s *TabStore) Delete(ctx context.Context, branch domain.BranchID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.branches[branch]; !ok {
		return nil
	}
	next := s.copyLocked()
	delete(next, branch)
	return s.commitLocked(ctx, next)
}

// copyLocked returns a shallow copy of the mapping. Caller must hold mu.
func (s *TabStore) copyLocked() map[domain.BranchID]domain.Snapshot {
	next := make(map[domain.BranchID]domain.Snapshot, len(s.branches)+1)
	for b, snap := range s.branches {
		next[b] = snap
	}
	return next
}

// commitLocked persists next and swaps it in. Caller must hold mu.
func (s *TabStore) commitLocked(ctx context.Context, next map[domain.BranchID]domain.Snapshot) error {
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", domain.ErrPersistenceFailure, s.key, err)
	}
	if err := s.kv.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("%w: write %s: %w", domain.ErrPersistenceFailure, s.key, err)
	}
	s.branches = next
	return nil
}

// decodeBranchTabs parses the persisted mapping. Entries may be objects
// ({"location": ..., "group": ...}) or bare location strings from the older layout.
func decodeBranchTabs(data []byte) (map[domain.BranchID]domain.Snapshot, error) {
	var raw map[string][]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	out := make(map[domain.BranchID]domain.Snapshot, len(raw))
	for branch, entries := range raw {
		snap := make(domain.Snapshot, 0, len(entries))
		for i, e := range entries {
			entry, err := decodeEntry(e)
			if err != nil {
				return nil, fmt.Errorf("branch %q entry %d: %w", branch, i, err)
			}
			snap = append(snap, entry)
		}
		out[domain.BranchID(branch)] = snap
	}
	return out, nil
}

func decodeEntry(raw json.RawMessage) (domain.SnapshotEntry, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var location string
		if err := json.Unmarshal(trimmed, &location); err != nil {
			return domain.SnapshotEntry{}, err
		}
		return domain.SnapshotEntry{Location: location}, nil
	}

	var entry domain.SnapshotEntry
	if err := json.Unmarshal(trimmed, &entry); err != nil {
		return domain.SnapshotEntry{}, err
	}
	return entry, nil
}
