package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePaths_HomeOverride(t *testing.T) {
	base := t.TempDir()
	t.Setenv("RXFLOW_HOME", base)

	p, err := ResolvePaths()
	require.NoError(t, err)
	assert.Equal(t, base, p.Base)
	assert.Equal(t, filepath.Join(base, "config.yaml"), p.Config)
	assert.Equal(t, filepath.Join(base, "data"), p.Data)
	assert.Equal(t, filepath.Join(base, "data", "rxflow.db"), p.DefaultStorePath())
}

func TestResolvePaths_DefaultUnderHome(t *testing.T) {
	t.Setenv("RXFLOW_HOME", "")
	os.Unsetenv("RXFLOW_HOME")

	home, err := os.UserHomeDir()
	require.NoError(t, err)

	p, err := ResolvePaths()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".rxflow"), p.Base)
}

func TestEnsureDirs(t *testing.T) {
	base := t.TempDir()
	t.Setenv("RXFLOW_HOME", filepath.Join(base, "nested"))

	p, err := ResolvePaths()
	require.NoError(t, err)
	require.NoError(t, p.EnsureDirs())

	for _, dir := range []string{p.Base, p.Data, p.Logs, p.Catalog} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
