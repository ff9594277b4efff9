// Package filex holds filesystem helpers for local wallet data.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DatabasePath returns the file path named by a SQLite DSN, or "" for
// in-memory databases. Query parameters and a "file:" scheme are stripped.
func DatabasePath(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		if strings.Contains(path[i:], "mode=memory") {
			return ""
		}
		path = path[:i]
	}
	if path == "" || path == ":memory:" {
		return ""
	}
	return path
}

// EnsureParentDir creates the directory that will hold path, owner-only,
// since it stores wallet secrets.
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}
