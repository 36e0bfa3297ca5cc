package config

import (
	"fmt"
	"path/filepath"

	"github.com/mitchellh/go-homedir"

	"github.com/conn-castle/package-console/internal/messages"
)

// DirName is the per-workspace and per-user config directory name.
const DirName = ".pmc"

// Paths holds resolved config locations.
type Paths struct {
	WorkspaceConfig string
	UserConfig      string
}

// DefaultPaths returns config paths for a workspace root. root may be empty when no workspace is open.
func DefaultPaths(root string) (Paths, error) {
	home, err := homedir.Dir()
	if err != nil {
		return Paths{}, fmt.Errorf(messages.ConfigResolveHomeFmt, err)
	}
	paths := Paths{UserConfig: filepath.Join(home, DirName, "config.toml")}
	if root != "" {
		paths.WorkspaceConfig = filepath.Join(root, DirName, "config.toml")
	}
	return paths, nil
}
