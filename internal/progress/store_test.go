package progress

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/robalobadob/conniptions/internal/account"
	"github.com/robalobadob/conniptions/internal/db"
)

func TestRecordUpsertsAndListsSolved(t *testing.T) {
	ctx := context.Background()
	sqlDB, err := db.OpenAndMigrate(filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	users := account.NewStore(sqlDB).WithCost(bcrypt.MinCost)
	alice, err := users.Create(ctx, "alice", "password1")
	require.NoError(t, err)
	bob, err := users.Create(ctx, "bob", "password1")
	require.NoError(t, err)

	s := NewStore(sqlDB)
	require.NoError(t, s.Record(ctx, alice.ID, "2025-07-29", true))
	require.NoError(t, s.Record(ctx, alice.ID, "2025-07-30", false))
	require.NoError(t, s.Record(ctx, bob.ID, "2025-07-30", true))

	got, err := s.Solved(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-07-29"}, got)

	// Upsert flips the existing row rather than adding another.
	require.NoError(t, s.Record(ctx, alice.ID, "2025-07-29", false))
	require.NoError(t, s.Record(ctx, alice.ID, "2025-07-30", true))
	got, err = s.Solved(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-07-30"}, got)

	var rows int
	require.NoError(t, sqlDB.QueryRow(`SELECT COUNT(*) FROM puzzle_progress WHERE user_id=?`, alice.ID).Scan(&rows))
	assert.Equal(t, 2, rows)
}

func TestSolvedEmpty(t *testing.T) {
	sqlDB, err := db.OpenAndMigrate(filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	got, err := NewStore(sqlDB).Solved(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, []string{}, got)
}
