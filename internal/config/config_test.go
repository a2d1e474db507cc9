package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default("Ana", BackendSQLite)
	cfg.Security.PINHash = "$2a$10$abc"

	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestDefaults(t *testing.T) {
	cfg := Default("Ana", "")

	assert.Equal(t, "Ana", cfg.Profile.Name)
	assert.Equal(t, BackendCSV, cfg.Storage.Backend)
	assert.Empty(t, cfg.Storage.SQLitePath)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Git.AutoCommit)
	assert.NoError(t, cfg.Validate())

	assert.Equal(t, "carteira.db", Default("Ana", BackendSQLite).Storage.SQLitePath)
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_DefaultsBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("profile:\n  name: Ana\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendCSV, cfg.Storage.Backend)
}

func TestYAMLFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, Default("Ana", BackendCSV)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "name: Ana")
	assert.Contains(t, contents, "backend: csv")
	assert.Contains(t, contents, "auto_commit: true")
	assert.NotContains(t, contents, "pin_hash")
}

func TestValidate_CollectsAll(t *testing.T) {
	cfg := Default("Ana", BackendCSV)
	cfg.Storage.Backend = "postgres"
	cfg.Logging.Level = "loud"
	cfg.Git.AuthorEmail = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.backend")
	assert.Contains(t, err.Error(), "logging.level")
	assert.Contains(t, err.Error(), "git.author_name")

	cfg = Default("Ana", BackendSQLite)
	cfg.Storage.SQLitePath = ""
	assert.ErrorContains(t, cfg.Validate(), "sqlite_path")
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	dotenv := "CARTEIRA_BACKEND=sqlite\nCARTEIRA_SQLITE_PATH=data/db.sqlite\nCARTEIRA_PIN=1234\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(dotenv), 0o644))
	t.Setenv(EnvPIN, "9999")
	t.Setenv(EnvLogLevel, "debug")

	env, err := LoadEnv(dir)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", env.Backend)
	assert.Equal(t, "data/db.sqlite", env.SQLitePath)
	assert.Equal(t, "9999", env.PIN, "process env wins over .env")
	assert.Equal(t, "debug", env.LogLevel)

	_, set := os.LookupEnv(EnvBackend)
	assert.False(t, set, ".env must not leak into the process env")

	cfg := Default("Ana", BackendCSV)
	cfg.Apply(env)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, filepath.Join(dir, "data/db.sqlite"), cfg.SQLitePath(dir))
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadEnv_NoFile(t *testing.T) {
	t.Setenv(EnvBackend, "")
	env, err := LoadEnv(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, env.Backend)
}
