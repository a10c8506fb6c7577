package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "./data", cfg.Storage.DataDir)
	require.Equal(t, int64(1024), cfg.Storage.NodeCacheSize)
	require.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rowdb.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"storage:\n  data_dir: /tmp/rows\n  node_cache_size: 16\nlog:\n  level: debug\n",
	), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/tmp/rows", cfg.Storage.DataDir)
	require.Equal(t, int64(16), cfg.Storage.NodeCacheSize)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("ROWDB_STORAGE_DATA_DIR", "/var/lib/rowdb")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "/var/lib/rowdb", cfg.Storage.DataDir)
}

func TestLoadRejectsNegativeCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rowdb.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  node_cache_size: -1\n"), 0644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
