package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAndMigrateIsIdempotent(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "nested", "app.db")

	db, err := OpenAndMigrate(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, Migrate(db))

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM _migrations`).Scan(&n))
	assert.Equal(t, 1, n)

	for _, table := range []string{"users", "puzzle_progress"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, table)
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	db, err := OpenAndMigrate(filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`INSERT INTO puzzle_progress (user_id, puzzle_id, solved, updated_at) VALUES ('ghost', 'p', 1, 'now')`)
	assert.Error(t, err)
}
