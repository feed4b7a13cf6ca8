package repositories

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&n)
	require.NoError(t, err)
	return n > 0
}

func TestInitDatabase_AppliesMigrations(t *testing.T) {
	ctx := context.Background()
	db, err := InitDatabase(ctx, filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{"goose_db_version", "snapshots", "snapshot_entries", "metadata"} {
		require.True(t, tableExists(t, db, table), table)
	}
}

func TestRunMigrations_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, RunMigrations(ctx, db))
	require.NoError(t, RunMigrations(ctx, db))
	require.True(t, tableExists(t, db, "snapshots"))
}

func TestOpen_WiresRepositories(t *testing.T) {
	ctx := context.Background()
	repos, err := Open(ctx, ":memory:")
	require.NoError(t, err)
	defer repos.Close()

	require.NoError(t, repos.Metadata.Set(ctx, "k", "v"))
	v, ok, err := repos.Metadata.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v", v)

	keys, err := repos.Snapshots.Keys(ctx)
	require.NoError(t, err)
	require.Empty(t, keys)
}

func TestInitDatabase_BadPath(t *testing.T) {
	_, err := InitDatabase(context.Background(), filepath.Join(t.TempDir(), "missing", "dir", "cache.db"))
	require.Error(t, err)
}
