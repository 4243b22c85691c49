package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "PORT", "ENV", "READ_TIMEOUT", "WRITE_TIMEOUT", "CORS_ORIGINS",
		"EDITOR_STORAGE", "EDITOR_DB_PATH", "EDITOR_DATA_DIR", "SAVE_TIMEOUT",
		"SIMPLIFIER_URL", "SIMPLIFIER_TIMEOUT", "SIMPLIFY_TOLERANCE",
		"EDITOR_URL", "PROXY_TIMEOUT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "sqlite", cfg.Editor.Storage)
	assert.Equal(t, 10*time.Second, cfg.SaveTimeout())
	assert.Equal(t, 0.5, cfg.Simplifier.Tolerance)
	assert.Equal(t, "http://localhost:3002", cfg.Gateway.EditorURL)
	assert.Equal(t, time.Minute, cfg.ProxyTimeout())
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "editor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "4000"
editor:
  storage: file
  data_dir: /var/floors
  save_timeout: 3
simplifier:
  url: http://simplifier:3001
  tolerance: 1.5
`), 0o644))

	clearEnv(t)
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SIMPLIFY_TOLERANCE", "2.25")

	cfg := Load()
	assert.Equal(t, "4000", cfg.Port)
	assert.Equal(t, "file", cfg.Editor.Storage)
	assert.Equal(t, "/var/floors", cfg.Editor.DataDir)
	assert.Equal(t, 3*time.Second, cfg.SaveTimeout())
	assert.Equal(t, "http://simplifier:3001", cfg.Simplifier.URL)
	assert.Equal(t, 2.25, cfg.Simplifier.Tolerance)
	// не указанное в файле остаётся по умолчанию
	assert.Equal(t, "data/db/editor.db", cfg.Editor.DBPath)
}

func TestLoadBadFileFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("PORT", "5555")

	cfg := Load()
	assert.Equal(t, "5555", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
}

func TestLoadServicePortLayers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "simplifier.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"4100\"\n"), 0o644))

	clearEnv(t)
	assert.Equal(t, "3001", LoadService("3001").Port)

	t.Setenv("CONFIG_FILE", path)
	assert.Equal(t, "4100", LoadService("3001").Port)

	t.Setenv("PORT", "4200")
	assert.Equal(t, "4200", LoadService("3001").Port)
}
