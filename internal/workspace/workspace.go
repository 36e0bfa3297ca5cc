// Package workspace discovers the open workspace and its projects.
package workspace

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/conn-castle/package-console/internal/messages"
)

// FileName marks a workspace root.
const FileName = "pmc.workspace.toml"

// Project is one project inside the workspace.
type Project struct {
	Name             string
	Dir              string
	TargetFrameworks []string
}

// Manager is the workspace/solution view commands consult.
type Manager interface {
	IsOpen() bool
	Root() string
	DefaultProject() (*Project, bool)
	ProjectByName(name string) (*Project, bool)
	Projects() []*Project
}

// ClosedManager represents an environment with no workspace open.
type ClosedManager struct{}

// IsOpen always reports false.
func (ClosedManager) IsOpen() bool { return false }

// Root returns an empty string.
func (ClosedManager) Root() string { return "" }

// DefaultProject never finds a project.
func (ClosedManager) DefaultProject() (*Project, bool) { return nil, false }

// ProjectByName never finds a project.
func (ClosedManager) ProjectByName(string) (*Project, bool) { return nil, false }

// Projects returns nil.
func (ClosedManager) Projects() []*Project { return nil }

type workspaceFile struct {
	DefaultProject string        `toml:"default_project"`
	Projects       []projectFile `toml:"projects"`
}

type projectFile struct {
	Name       string   `toml:"name"`
	Path       string   `toml:"path"`
	Frameworks []string `toml:"frameworks"`
}

// FileManager is a workspace loaded from pmc.workspace.toml.
type FileManager struct {
	root           string
	defaultProject string
	projects       []*Project
}

// Find walks up from start looking for the workspace file.
// It returns the workspace root and whether one was found.
func Find(start string) (string, bool, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", false, fmt.Errorf(messages.ConfigWorkspaceAbsFmt, start, err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		info, err := os.Stat(candidate)
		if err == nil {
			if info.IsDir() {
				return "", false, fmt.Errorf(messages.ConfigWorkspaceNotFileFmt, candidate)
			}
			return dir, true, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf(messages.ConfigWorkspaceStatFmt, candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

// Open discovers the workspace from start. When none exists it returns a ClosedManager.
func Open(start string) (Manager, error) {
	root, found, err := Find(start)
	if err != nil {
		return nil, err
	}
	if !found {
		return ClosedManager{}, nil
	}
	return Load(root)
}

// Load reads root/pmc.workspace.toml.
func Load(root string) (*FileManager, error) {
	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf(messages.ConfigWorkspaceReadFmt, path, err)
	}
	var file workspaceFile
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf(messages.ConfigWorkspaceInvalidFmt, path, err)
	}

	m := &FileManager{root: root, defaultProject: strings.TrimSpace(file.DefaultProject)}
	seen := make(map[string]struct{}, len(file.Projects))
	for i, p := range file.Projects {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return nil, fmt.Errorf(messages.ConfigWorkspaceProjectFmt, path, i)
		}
		if strings.TrimSpace(p.Path) == "" {
			return nil, fmt.Errorf(messages.ConfigWorkspaceMissingPath, path, i)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf(messages.ConfigWorkspaceDupFmt, path, name)
		}
		seen[name] = struct{}{}
		dir := p.Path
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(root, dir)
		}
		m.projects = append(m.projects, &Project{
			Name:             name,
			Dir:              filepath.Clean(dir),
			TargetFrameworks: append([]string(nil), p.Frameworks...),
		})
	}
	if m.defaultProject != "" {
		if _, ok := m.ProjectByName(m.defaultProject); !ok {
			return nil, fmt.Errorf(messages.ConfigWorkspaceDefaultFmt, path, m.defaultProject)
		}
	}
	return m, nil
}

// IsOpen reports true for a loaded workspace.
func (m *FileManager) IsOpen() bool { return true }

// Root returns the workspace root directory.
func (m *FileManager) Root() string { return m.root }

// DefaultProject returns default_project, or the first project when it is unset.
func (m *FileManager) DefaultProject() (*Project, bool) {
	if m.defaultProject != "" {
		return m.ProjectByName(m.defaultProject)
	}
	if len(m.projects) == 0 {
		return nil, false
	}
	return m.projects[0], true
}

// ProjectByName returns the project with exactly this name.
func (m *FileManager) ProjectByName(name string) (*Project, bool) {
	for _, p := range m.projects {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// Projects returns the projects in declaration order.
func (m *FileManager) Projects() []*Project {
	return append([]*Project(nil), m.projects...)
}

// ResolveActiveProject returns the named project, or the default project when name is empty.
// A missing project is reported as false and is not an error.
func ResolveActiveProject(m Manager, name string) (*Project, bool) {
	if m == nil || !m.IsOpen() {
		return nil, false
	}
	if name == "" {
		return m.DefaultProject()
	}
	return m.ProjectByName(name)
}
