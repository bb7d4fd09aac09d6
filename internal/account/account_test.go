package account

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/robalobadob/conniptions/internal/db"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	sqlDB, err := db.OpenAndMigrate(filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return NewStore(sqlDB).WithCost(bcrypt.MinCost)
}

func TestCreateAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	u, err := s.Create(ctx, "  alice_1 ", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "alice_1", u.Username)
	assert.Len(t, u.ID, 22)

	got, err := s.Authenticate(ctx, "ALICE_1", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.Authenticate(ctx, "alice_1", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Authenticate(ctx, "nobody", "correct-horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCreateRejectsTakenUsername(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.Create(ctx, "bob", "password1")
	require.NoError(t, err)
	_, err = s.Create(ctx, "BOB", "password2")
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestCreateValidates(t *testing.T) {
	s := newStore(t)
	tests := []struct {
		user, pass, field string
	}{
		{"ab", "password1", "username"},
		{"has space", "password1", "username"},
		{"carol", "short", "password"},
	}
	for _, tt := range tests {
		_, err := s.Create(context.Background(), tt.user, tt.pass)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve, tt.user)
		assert.Equal(t, tt.field, ve.Field)
	}
}

func TestFindByID(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	u, err := s.Create(ctx, "dave", "password1")
	require.NoError(t, err)

	got, err := s.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "dave", got.Username)
	assert.Equal(t, u.CreatedAt, got.CreatedAt)

	_, err = s.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, sql.ErrNoRows)
}

func TestTokensRoundTrip(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	raw, exp, err := tokens.Sign(&User{ID: "id-1", Username: "erin"})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := tokens.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "id-1", claims.ID)
	assert.Equal(t, "erin", claims.Username)
}

func TestTokensRejectBadInput(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	raw, _, err := tokens.Sign(&User{ID: "id-1", Username: "erin"})
	require.NoError(t, err)

	_, err = NewTokens("other", time.Hour).Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = tokens.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewTokens("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, err := expired.Sign(&User{ID: "id-1", Username: "erin"})
	require.NoError(t, err)
	_, err = tokens.Parse(old)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
