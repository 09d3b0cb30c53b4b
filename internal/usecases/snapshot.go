package usecases

import (
	"context"
	"fmt"
	"sort"

	"github.com/MyCarrier-DevOps/branch-tabs/internal/domain"
)

// TabSnapshotReader captures the open tabs of a TabManager as a Snapshot.
type TabSnapshotReader struct {
	tabs domain.TabManager
}

// NewTabSnapshotReader creates a reader over the given tab manager.
func NewTabSnapshotReader(tabs domain.TabManager) *TabSnapshotReader {
	return &TabSnapshotReader{tabs: tabs}
}

// Capture returns every tab that has a location, groups ordered by index and
// tabs in document order within their group. Tabs without a location are skipped.
// An error is returned only when the tab manager itself cannot be read.
func (r *TabSnapshotReader) Capture(ctx context.Context) (domain.Snapshot, error) {
	groups, err := r.tabs.Groups(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: read open tabs: %w", domain.ErrEnvironmentUnavailable, err)
	}

	ordered := make([]domain.TabGroup, len(groups))
	copy(ordered, groups)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Index < ordered[j].Index
	})

	snapshot := domain.Snapshot{}
	for _, g := range ordered {
		for _, tab := range g.Tabs {
			if tab.Location == "" {
				continue
			}
			snapshot = append(snapshot, domain.Entry(tab.Location, g.Index))
		}
	}
	return snapshot, nil
}
