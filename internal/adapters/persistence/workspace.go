// Package persistence provides workspace-scoped domain.KeyValueStore backends.
package persistence

import (
	"crypto/sha256"
	"fmt"
	"path/filepath"
)

// WorkspaceID computes the deterministic ID for a workspace path.
func WorkspaceID(absPath string) string {
	h := sha256.Sum256([]byte(filepath.Clean(absPath)))
	return fmt.Sprintf("%x", h[:16]) // 32-char hex
}
