package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credentials.yaml")

	c, err := loadCredentials(path)
	require.NoError(t, err)
	assert.Equal(t, credentials{}, c)

	want := credentials{Server: "http://localhost:5175", Username: "alice", Token: "tok"}
	require.NoError(t, saveCredentials(path, want))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := loadCredentials(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, removeCredentials(path))
	require.NoError(t, removeCredentials(path))
	got, err = loadCredentials(path)
	require.NoError(t, err)
	assert.Empty(t, got.Token)
}

func TestLoadCredentialsRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.yaml")
	require.NoError(t, os.WriteFile(path, []byte("token: [unterminated"), 0o600))
	_, err := loadCredentials(path)
	assert.Error(t, err)
}

// runRoot executes args with every subcommand's RunE replaced by a no-op.
func runRoot(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	cfg := &Config{}
	root := newRootCmd(cfg)
	for _, c := range root.Commands() {
		c.RunE = func(*cobra.Command, []string) error { return nil }
	}
	root.SetArgs(args)
	return cfg, root.Execute()
}

func TestEnvFillsUnsetFlags(t *testing.T) {
	t.Setenv("CONNIPTIONS_SERVER", "http://example.test")
	t.Setenv("CONNIPTIONS_ADDR", ":9999")
	t.Setenv("CONNIPTIONS_LOG_LEVEL", "warn")

	cfg, err := runRoot(t, "serve", "--addr", ":8080")
	require.NoError(t, err)
	assert.Equal(t, "http://example.test", cfg.server)
	assert.Equal(t, ":8080", cfg.addr, "explicit flag wins over env")
	assert.Equal(t, "warn", cfg.logLevel)
	assert.Equal(t, "data/conniptions.db", cfg.dbPath)
}

func TestPlaySeedFromEnv(t *testing.T) {
	t.Setenv("CONNIPTIONS_SEED", "42")
	cfg, err := runRoot(t, "play")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), cfg.seed)
}

func TestInvalidLogLevel(t *testing.T) {
	_, err := runRoot(t, "logout", "--log-level", "loud")
	assert.ErrorContains(t, err, "log-level")
}
