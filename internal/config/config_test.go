package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultHasSecondaryCompilationDisabled(t *testing.T) {
	t.Parallel()
	cfg := Default()
	assert.False(t, cfg.SecondaryCompilation)
	assert.Empty(t, cfg.AdditionalMounts)
}

func TestDiscoverFindsClosestConfigFileWalkingUp(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	sub := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sqfls.toml"), []byte(""), 0o644))

	found := Discover(sub)
	assert.Equal(t, filepath.Join(root, "sqfls.toml"), found)
}

func TestDiscoverPrefersDotfileOverPlainNameInSameDirectory(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".sqfls.toml"), []byte(""), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sqfls.toml"), []byte(""), 0o644))

	found := Discover(root)
	assert.Equal(t, filepath.Join(root, ".sqfls.toml"), found)
}

func TestDiscoverReturnsEmptyWhenNoConfigFileExists(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	assert.Equal(t, "", Discover(root))
}

func TestLoadAppliesFileOverDefaultsAndEnvOverFile(t *testing.T) {
	root := t.TempDir()
	configPath := filepath.Join(root, "sqfls.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("secondary-compilation = true\n"), 0o644))

	cfg, err := LoadFromFile(configPath)
	require.NoError(t, err)
	assert.True(t, cfg.SecondaryCompilation)
	assert.Equal(t, configPath, cfg.ConfigFile)

	t.Setenv("SQFLS_SECONDARY_COMPILATION", "false")
	cfg, err = LoadFromFile(configPath)
	require.NoError(t, err)
	assert.False(t, cfg.SecondaryCompilation)
}
