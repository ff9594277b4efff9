package filex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabasePath(t *testing.T) {
	tests := []struct {
		dsn  string
		want string
	}{
		{"wallet.db", "wallet.db"},
		{"/var/lib/w/wallet.db", "/var/lib/w/wallet.db"},
		{"file:data/w.db?_pragma=busy_timeout(5000)", "data/w.db"},
		{":memory:", ""},
		{"file:x?mode=memory&cache=shared", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			assert.Equal(t, tt.want, DatabasePath(tt.dsn))
		})
	}
}

func TestEnsureParentDir(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "a", "b", "wallet.db")

	require.NoError(t, EnsureParentDir(path))
	fi, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.True(t, fi.IsDir())

	// Idempotent.
	require.NoError(t, EnsureParentDir(path))
}

func TestEnsureParentDir_FileInTheWay(t *testing.T) {
	tmp := t.TempDir()
	blocker := filepath.Join(tmp, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	err := EnsureParentDir(filepath.Join(blocker, "wallet.db"))
	assert.ErrorContains(t, err, "mkdir")
}
