package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscover_EnvVar(t *testing.T) {
	path := writeConfig(t, "")
	t.Setenv("TEEVEE_CONFIG", path)

	found, err := Discover()
	require.NoError(t, err)
	assert.Equal(t, path, found)
}

func TestDiscover_EnvVarMissingFile(t *testing.T) {
	t.Setenv("TEEVEE_CONFIG", "/nonexistent/config.toml")

	_, err := Discover()
	assert.Error(t, err)
}

func TestDiscover_CurrentDir(t *testing.T) {
	t.Setenv("TEEVEE_CONFIG", "")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), nil, 0o644))
	t.Chdir(dir)

	found, err := Discover()
	require.NoError(t, err)
	assert.Equal(t, "./config.toml", found)
}

func TestDefaultPath_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	assert.Equal(t, filepath.Join("/tmp/xdg", "teevee", "config.toml"), DefaultPath())
}
