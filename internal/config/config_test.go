package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "ledger.db", cfg.Ledger.DBPath)
	assert.Equal(t, "ledger-data", cfg.Ledger.ExportDir)
	assert.Equal(t, "USD", cfg.Ledger.BaseCurrency)
	assert.True(t, cfg.Ledger.AutoCreate)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Git.AutoCommit)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "folio.yaml")

	cfg := Default()
	cfg.Ledger.BaseCurrency = "EUR"
	cfg.Git.AutoCommit = true
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "folio.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ledger: [broken"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "folio.yaml")
	require.NoError(t, Save(path, Default()))

	t.Setenv("FOLIO_DB", "/tmp/other.db")
	t.Setenv("FOLIO_BASE_CURRENCY", "CHF")
	t.Setenv("FOLIO_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/other.db", cfg.Ledger.DBPath)
	assert.Equal(t, "CHF", cfg.Ledger.BaseCurrency)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "ledger-data", cfg.Ledger.ExportDir, "unset vars keep file values")
}
