package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/MyCarrier-DevOps/branch-tabs/internal/infrastructure/fileutil"
)

// FileStore implements domain.KeyValueStore as one JSON document per workspace.
// The document is read once when opened and rewritten whole on every Set.
type FileStore struct {
	path string

	mu     sync.RWMutex
	values map[string]json.RawMessage
}

// OpenFile opens the workspace document under dir, creating nothing until the first Set.
func OpenFile(dir, workspace string) (*FileStore, error) {
	s := &FileStore{
		path:   filepath.Join(dir, "workspaces", WorkspaceID(workspace)+".json"),
		values: make(map[string]json.RawMessage),
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if err := json.Unmarshal(data, &s.values); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	if s.values == nil {
		s.values = make(map[string]json.RawMessage)
	}
	return s, nil
}

// Path returns the workspace document path.
func (s *FileStore) Path() string {
	return s.path
}

// Get returns the value stored for key.
func (s *FileStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Set replaces the value for key. value must be valid JSON.
func (s *FileStore) Set(_ context.Context, key string, value []byte) error {
	if !json.Valid(value) {
		return fmt.Errorf("set %s: value is not valid JSON", key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]json.RawMessage, len(s.values)+1)
	for k, v := range s.values {
		next[k] = v
	}
	next[key] = append(json.RawMessage(nil), value...)

	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.path, err)
	}
	if err := fileutil.WriteAtomic(s.path, data, 0o644); err != nil {
		return err
	}
	s.values = next
	return nil
}

// Close is a no-op; every Set is already durable.
func (s *FileStore) Close() error {
	return nil
}
