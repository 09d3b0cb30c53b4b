package usecases

import (
	"context"
	"errors"
	"sync"

	"github.com/MyCarrier-DevOps/branch-tabs/internal/domain"
)

// mockLogger implements the Logger interface for testing.
type mockLogger struct{}

func (m *mockLogger) Info(_ context.Context, _ string, _ map[string]interface{})           {}
func (m *mockLogger) Debug(_ context.Context, _ string, _ map[string]interface{})          {}
func (m *mockLogger) Warn(_ context.Context, _ string, _ map[string]interface{})           {}
func (m *mockLogger) Error(_ context.Context, _ string, _ error, _ map[string]interface{}) {}

// fakeRepository implements domain.Repository with a settable branch.
type fakeRepository struct {
	mu      sync.Mutex
	root    string
	branch  domain.BranchID
	err     error
	changes chan struct{}
	closed  bool
}

func newFakeRepository(root string, branch domain.BranchID) *fakeRepository {
	return &fakeRepository{root: root, branch: branch, changes: make(chan struct{}, 1)}
}

func (f *fakeRepository) Root() string { return f.root }

func (f *fakeRepository) CurrentBranch(_ context.Context) (domain.BranchID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.branch, f.err
}

func (f *fakeRepository) Changes() <-chan struct{} { return f.changes }

func (f *fakeRepository) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeRepository) checkout(branch domain.BranchID) {
	f.mu.Lock()
	f.branch = branch
	f.mu.Unlock()
	select {
	case f.changes <- struct{}{}:
	default:
	}
}

// fakeTabs is an in-memory tab manager that records every mutation.
type fakeTabs struct {
	groups    []domain.TabGroup
	groupsErr error
	closeErr  error
	openErr   map[string]error

	closeCalls int
	openCalls  []string
}

func newFakeTabs(entries ...domain.SnapshotEntry) *fakeTabs {
	f := &fakeTabs{openErr: map[string]error{}}
	for _, e := range entries {
		f.add(e.Location, e.GroupOr(0))
	}
	return f
}

func (f *fakeTabs) add(location string, group int) {
	for i := range f.groups {
		if f.groups[i].Index == group {
			f.groups[i].Tabs = append(f.groups[i].Tabs, domain.Tab{Location: location})
			return
		}
	}
	f.groups = append(f.groups, domain.TabGroup{Index: group, Tabs: []domain.Tab{{Location: location}}})
}

func (f *fakeTabs) Groups(_ context.Context) ([]domain.TabGroup, error) {
	if f.groupsErr != nil {
		return nil, f.groupsErr
	}
	return f.groups, nil
}

func (f *fakeTabs) CloseAll(_ context.Context) error {
	f.closeCalls++
	if f.closeErr != nil {
		return f.closeErr
	}
	f.groups = nil
	return nil
}

func (f *fakeTabs) Open(_ context.Context, location string, group int) error {
	f.openCalls = append(f.openCalls, location)
	if err := f.openErr[location]; err != nil {
		return err
	}
	f.add(location, group)
	return nil
}

func (f *fakeTabs) mutations() int {
	return f.closeCalls + len(f.openCalls)
}

// open returns the open tabs as a snapshot, groups in index order.
func (f *fakeTabs) open() domain.Snapshot {
	snap, _ := NewTabSnapshotReader(f).Capture(context.Background())
	return snap
}

// fakeSettings implements domain.SettingsSource over a map.
type fakeSettings map[string]bool

func (f fakeSettings) Bool(key string, def bool) bool {
	if v, ok := f[key]; ok {
		return v
	}
	return def
}

// fakePrompt returns a fixed decision and counts questions.
type fakePrompt struct {
	decision domain.Decision
	asked    int
	question string
}

func (f *fakePrompt) Ask(_ context.Context, question, _, _ string) domain.Decision {
	f.asked++
	f.question = question
	return f.decision
}

// fakeNotifier records operator messages.
type fakeNotifier struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (f *fakeNotifier) Info(_ context.Context, msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.infos = append(f.infos, msg)
}

func (f *fakeNotifier) Error(_ context.Context, msg string, _ error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = append(f.errors, msg)
}

func (f *fakeNotifier) errorCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.errors)
}

// memKV implements domain.KeyValueStore in memory.
type memKV struct {
	data     map[string][]byte
	getErr   error
	setErr   error
	setCalls int
}

func newMemKV() *memKV {
	return &memKV{data: map[string][]byte{}}
}

func (m *memKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memKV) Set(_ context.Context, key string, value []byte) error {
	m.setCalls++
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *memKV) Close() error { return nil }

var errBoom = errors.New("boom")
