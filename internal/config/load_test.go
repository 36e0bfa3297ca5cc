package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfig = `
[console]
default_source = "central"
sync_mode = true
conflict_action = "ignore-all"
search_timeout = "45s"

[[sources]]
name = "central"
uri = "https://packages.example.test/v1"

[[sources]]
name = "local"
uri = "~/feeds/local"
enabled = false
`

func writeConfig(t *testing.T, dir string, content string) string {
	t.Helper()
	path := filepath.Join(dir, DirName, "config.toml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseConfigValid(t *testing.T) {
	cfg, err := ParseConfig([]byte(validConfig), "config.toml")
	require.NoError(t, err)

	assert.Equal(t, "central", cfg.Console.DefaultSource)
	assert.True(t, cfg.Console.SyncMode)
	assert.Equal(t, "ignore-all", cfg.Console.ConflictAction)
	assert.Equal(t, 45*time.Second, cfg.SearchTimeoutDuration())
	assert.Equal(t, DefaultRelayBuffer, cfg.Console.RelayBuffer)
	assert.Equal(t, DefaultShell, cfg.Console.Shell)
	require.Len(t, cfg.Sources, 2)
	assert.True(t, cfg.Sources[0].IsEnabled())
	assert.False(t, cfg.Sources[1].IsEnabled())
}

func TestParseConfigUnknownKey(t *testing.T) {
	_, err := ParseConfig([]byte("[console]\nmystery = 1\n"), "config.toml")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfigValidation))
}

func TestParseConfigSyntaxError(t *testing.T) {
	_, err := ParseConfig([]byte("[console\n"), "config.toml")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrConfigValidation))
}

func TestLoadPrefersWorkspaceConfig(t *testing.T) {
	workspace := t.TempDir()
	home := t.TempDir()
	wsPath := writeConfig(t, workspace, "[console]\ndefault_source = \"ws\"\n")
	userPath := writeConfig(t, home, "[console]\ndefault_source = \"user\"\n")

	cfg, path, err := Load(Paths{WorkspaceConfig: wsPath, UserConfig: userPath})
	require.NoError(t, err)
	assert.Equal(t, wsPath, path)
	assert.Equal(t, "ws", cfg.Console.DefaultSource)
}

func TestLoadFallsBackToUserConfig(t *testing.T) {
	home := t.TempDir()
	userPath := writeConfig(t, home, "[console]\ndefault_source = \"user\"\n")

	cfg, path, err := Load(Paths{WorkspaceConfig: filepath.Join(t.TempDir(), "missing.toml"), UserConfig: userPath})
	require.NoError(t, err)
	assert.Equal(t, userPath, path)
	assert.Equal(t, "user", cfg.Console.DefaultSource)
}

func TestLoadDefaultsWhenNothingExists(t *testing.T) {
	cfg, path, err := Load(Paths{})
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, DefaultConflictAction, cfg.Console.ConflictAction)
	assert.Zero(t, cfg.SearchTimeoutDuration())
}

func TestDefaultPaths(t *testing.T) {
	home := t.TempDir()
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })
	t.Setenv("HOME", home)

	paths, err := DefaultPaths("/work/space")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, DirName, "config.toml"), paths.UserConfig)
	assert.Equal(t, filepath.Join("/work/space", DirName, "config.toml"), paths.WorkspaceConfig)

	paths, err = DefaultPaths("")
	require.NoError(t, err)
	assert.Empty(t, paths.WorkspaceConfig)
}
