package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	semver "github.com/Masterminds/semver/v3"
	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conn-castle/package-console/internal/config"
	"github.com/conn-castle/package-console/internal/feed"
	"github.com/conn-castle/package-console/internal/workspace"
)

const cliWorkspace = `[[projects]]
name = "app"
path = "app"
`

func setupCLI(t *testing.T, withWorkspace bool) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	homedir.Reset()
	t.Cleanup(homedir.Reset)

	root := t.TempDir()
	orig := getwd
	getwd = func() (string, error) { return root, nil }
	t.Cleanup(func() { getwd = orig })

	if !withWorkspace {
		return root
	}
	feedDir := filepath.Join(root, "feed")
	require.NoError(t, os.MkdirAll(feedDir, 0o755))
	require.NoError(t, feed.WriteIndex(feedDir, []feed.Metadata{
		{ID: "widget", Version: semver.MustParse("1.0.0"), Files: []feed.File{{Path: "content/widget.txt", Content: "one"}}},
		{ID: "widget", Version: semver.MustParse("1.1.0"), Files: []feed.File{{Path: "content/widget.txt", Content: "two"}}},
	}))
	require.NoError(t, os.WriteFile(filepath.Join(root, workspace.FileName), []byte(cliWorkspace), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, config.DirName), 0o755))
	cfg := fmt.Sprintf("[console]\nsync_mode = true\n\n[[sources]]\nname = \"local\"\nuri = %q\n\n[[sources]]\nname = \"off\"\nuri = \"https://example.invalid/feed\"\nenabled = false\n", feedDir)
	require.NoError(t, os.WriteFile(filepath.Join(root, config.DirName, "config.toml"), []byte(cfg), 0o644))
	return root
}

func runCLI(args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	err := execute(append([]string{"pmc"}, args...), &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestCLIInstallThenList(t *testing.T) {
	root := setupCLI(t, true)

	_, _, err := runCLI("install", "widget", "--version", "1.0.0")
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(root, "app", "widget.txt"))
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))

	stdout, _, err := runCLI("list")
	require.NoError(t, err)
	assert.Equal(t, "Project 'app':\n  widget 1.0.0\n", stdout)

	stdout, _, err = runCLI("list", "--updates")
	require.NoError(t, err)
	assert.Contains(t, stdout, "  widget 1.0.0 -> 1.1.0")

	_, _, err = runCLI("update", "--conflict-action", "overwrite")
	require.NoError(t, err)
	data, err = os.ReadFile(filepath.Join(root, "app", "widget.txt"))
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
}

func TestCLISearch(t *testing.T) {
	setupCLI(t, true)
	stdout, _, err := runCLI("search", "wid")
	require.NoError(t, err)
	assert.Equal(t, "widget 1.1.0\n", stdout)
}

func TestCLISources(t *testing.T) {
	root := setupCLI(t, true)
	stdout, _, err := runCLI("sources")
	require.NoError(t, err)
	assert.Contains(t, stdout, "local "+filepath.Join(root, "feed")+" [enabled]")
	assert.Contains(t, stdout, "off https://example.invalid/feed [disabled]")
}

func TestCLINoWorkspace(t *testing.T) {
	setupCLI(t, false)
	_, stderr, err := runCLI("list", "--verbose")
	var silent *SilentExitError
	require.True(t, errors.As(err, &silent))
	assert.Equal(t, 1, silent.Code)
	assert.Contains(t, stderr, "doesn't have a workspace open")
	assert.Contains(t, stderr, "NoActiveWorkspace")
}

func TestCLIUnknownProject(t *testing.T) {
	setupCLI(t, true)
	_, stderr, err := runCLI("install", "widget", "--project", "missing")
	require.Error(t, err)
	assert.Contains(t, stderr, "Project 'missing' is not found.")
}

func TestCLIInvalidConflictAction(t *testing.T) {
	setupCLI(t, true)
	_, _, err := runCLI("install", "widget", "--conflict-action", "maybe")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid conflict action")
}
