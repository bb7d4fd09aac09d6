package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/robalobadob/conniptions/internal/db"
	"github.com/robalobadob/conniptions/internal/httpserver"
	"github.com/robalobadob/conniptions/internal/puzzle"
	"github.com/robalobadob/conniptions/internal/store"
)

func newService(t *testing.T) string {
	t.Helper()
	conn, err := db.OpenAndMigrate(filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	p, err := puzzle.Default()
	require.NoError(t, err)

	s := httpserver.New(httpserver.DefaultConfig(), store.NewMemoryStore(), conn, p,
		httpserver.WithPasswordCost(bcrypt.MinCost))
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestSignupMeAndProgress(t *testing.T) {
	ctx := context.Background()
	c := New(newService(t) + "/")

	sess, err := c.Signup(ctx, "gina", "password123")
	require.NoError(t, err)
	assert.Equal(t, "gina", sess.Username)
	assert.Equal(t, sess.Token, c.Token())

	me, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "gina", me.Username)

	ids, err := c.SolvedPuzzles(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, c.RecordProgress(ctx, "2025-07-29", true))
	require.NoError(t, c.RecordProgress(ctx, "2025-07-30", false))
	ids, err = c.SolvedPuzzles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-07-29"}, ids)
}

func TestLoginWithStoredToken(t *testing.T) {
	ctx := context.Background()
	base := newService(t)

	_, err := New(base).Signup(ctx, "hank", "password123")
	require.NoError(t, err)

	sess, err := New(base).Login(ctx, "hank", "password123")
	require.NoError(t, err)

	me, err := New(base, WithToken(sess.Token)).Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hank", me.Username)
}

func TestErrorMapping(t *testing.T) {
	ctx := context.Background()
	base := newService(t)

	_, err := New(base).Signup(ctx, "ivy", "password123")
	require.NoError(t, err)

	_, err = New(base).Signup(ctx, "ivy", "password123")
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = New(base).Login(ctx, "ivy", "nope-nope")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = New(base).Me(ctx)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = New(base).Signup(ctx, "x", "password123")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.Code)
	assert.Contains(t, se.Message, "username")
}

func TestStatusErrorFallsBackToBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	err := New(srv.URL, WithHTTPClient(srv.Client())).RecordProgress(context.Background(), "p", true)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, &StatusError{Code: http.StatusBadGateway, Message: "boom"}, se)
	assert.Equal(t, "status 502: boom", se.Error())
}
