// Package tabs provides a domain.TabManager backed by a layout file that an
// editor-side bridge keeps in sync with the editor's open tabs.
package tabs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"

	"github.com/MyCarrier-DevOps/branch-tabs/internal/domain"
	"github.com/MyCarrier-DevOps/branch-tabs/internal/infrastructure/fileutil"
)

// Logger defines the logging interface for the tab manager.
type Logger interface {
	Debug(ctx context.Context, msg string, fields map[string]interface{})
}

// Layout is the on-disk document exchanged with the editor.
type Layout struct {
	Groups []domain.TabGroup `json:"groups"`
}

// LayoutFile implements domain.TabManager over a JSON layout file.
// Bare paths in tab locations are resolved against baseDir.
type LayoutFile struct {
	path    string
	baseDir string
	logger  Logger

	mu sync.Mutex
}

// NewLayoutFile creates a tab manager for the layout file at path.
func NewLayoutFile(path, baseDir string, log Logger) *LayoutFile {
	return &LayoutFile{path: path, baseDir: baseDir, logger: log}
}

// Path returns the layout file path.
func (l *LayoutFile) Path() string {
	return l.path
}

// Groups returns the editor groups from the layout file. A missing file means no tabs are open.
func (l *LayoutFile) Groups(_ context.Context) ([]domain.TabGroup, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	layout, err := l.readLocked()
	if err != nil {
		return nil, err
	}
	return layout.Groups, nil
}

// CloseAll empties the layout.
func (l *LayoutFile) CloseAll(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.writeLocked(Layout{Groups: []domain.TabGroup{}}); err != nil {
		return err
	}
	l.logger.Debug(ctx, "closed all tabs", map[string]interface{}{"layout": l.path})
	return nil
}

// Open appends location to the given group, creating the group if needed.
// Returns domain.ErrInvalidLocation when the location does not resolve to a readable document.
func (l *LayoutFile) Open(ctx context.Context, location string, group int) error {
	label, err := l.resolve(location)
	if err != nil {
		return err
	}
	if group < 0 {
		group = 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	layout, err := l.readLocked()
	if err != nil {
		return err
	}

	tab := domain.Tab{Location: location, Label: label}
	found := false
	for i := range layout.Groups {
		if layout.Groups[i].Index == group {
			layout.Groups[i].Tabs = append(layout.Groups[i].Tabs, tab)
			found = true
			break
		}
	}
	if !found {
		layout.Groups = append(layout.Groups, domain.TabGroup{Index: group, Tabs: []domain.Tab{tab}})
		sort.SliceStable(layout.Groups, func(i, j int) bool {
			return layout.Groups[i].Index < layout.Groups[j].Index
		})
	}

	if err := l.writeLocked(layout); err != nil {
		return err
	}
	l.logger.Debug(ctx, "opened tab", map[string]interface{}{
		"location": location,
		"group":    group,
	})
	return nil
}

// resolve checks that location can be opened and returns its display label.
// file URIs and bare paths must name a readable regular file; other schemes
// (untitled:, remote schemes) are accepted as they are.
func (l *LayoutFile) resolve(location string) (string, error) {
	if location == "" {
		return "", fmt.Errorf("%w: empty location", domain.ErrInvalidLocation)
	}

	u, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", domain.ErrInvalidLocation, location, err)
	}

	var file string
	switch {
	case u.Scheme == "file":
		file = filepath.FromSlash(u.Path)
	case u.Scheme == "" || len(u.Scheme) == 1:
		// Bare path, or a Windows drive letter parsed as a scheme.
		file = location
		if !filepath.IsAbs(file) {
			file = filepath.Join(l.baseDir, file)
		}
	default:
		label := path.Base(u.Opaque + u.Path)
		if label == "." || label == "/" {
			label = location
		}
		return label, nil
	}

	info, err := os.Stat(file)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", domain.ErrInvalidLocation, location, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", domain.ErrInvalidLocation, location)
	}
	return filepath.Base(file), nil
}

// readLocked loads the layout. Caller must hold mu.
func (l *LayoutFile) readLocked() (Layout, error) {
	data, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return Layout{Groups: []domain.TabGroup{}}, nil
	}
	if err != nil {
		return Layout{}, fmt.Errorf("read layout %s: %w", l.path, err)
	}

	var layout Layout
	if err := json.Unmarshal(data, &layout); err != nil {
		return Layout{}, fmt.Errorf("parse layout %s: %w", l.path, err)
	}
	if layout.Groups == nil {
		layout.Groups = []domain.TabGroup{}
	}
	return layout, nil
}

// writeLocked replaces the layout file. Caller must hold mu.
func (l *LayoutFile) writeLocked(layout Layout) error {
	data, err := json.MarshalIndent(layout, "", "  ")
	if err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}
	if err := fileutil.WriteAtomic(l.path, data, 0o644); err != nil {
		return fmt.Errorf("write layout %s: %w", l.path, err)
	}
	return nil
}
