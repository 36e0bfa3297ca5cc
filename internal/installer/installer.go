// Package installer resolves update versions and installs packages from a feed into workspace projects.
package installer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	semver "github.com/Masterminds/semver/v3"

	"github.com/conn-castle/package-console/internal/conflict"
	"github.com/conn-castle/package-console/internal/events"
	"github.com/conn-castle/package-console/internal/feed"
	"github.com/conn-castle/package-console/internal/messages"
	"github.com/conn-castle/package-console/internal/packages"
	"github.com/conn-castle/package-console/internal/scripts"
	"github.com/conn-castle/package-console/internal/versions"
	"github.com/conn-castle/package-console/internal/workspace"
)

// PackagesDir is the workspace folder that holds extracted packages.
const PackagesDir = "packages"

// Engine is the dependency/install engine the query layer consults.
type Engine interface {
	// InstalledReferences lists the packages installed in project.
	InstalledReferences(project *workspace.Project) ([]packages.Reference, error)
	// SafeUpdate returns the highest available version of id inside r, or nil.
	SafeUpdate(ctx context.Context, id string, r versions.Range, prerelease bool) (*semver.Version, error)
	// UpdateByBehavior returns the version behavior selects above installed, or nil.
	UpdateByBehavior(ctx context.Context, id string, installed *semver.Version, behavior versions.Behavior, prerelease bool) (*semver.Version, error)
}

// ConflictResolver decides whether an existing project file is overwritten.
type ConflictResolver interface {
	ResolveFileConflict(ctx context.Context, message string) (conflict.Action, error)
}

// Options configures a FeedEngine.
type Options struct {
	// Root is the workspace root; packages are extracted under Root/packages.
	Root string
	// Feed serves package metadata. It may be nil for engines that only read installed state.
	Feed feed.Client
	// Hub receives log and progress events; nil discards them.
	Hub          *events.Hub
	System       System
	DiffMaxLines int
}

// FeedEngine implements Engine on top of a feed client and per-project package stores.
type FeedEngine struct {
	root         string
	feed         feed.Client
	hub          *events.Hub
	sys          System
	diffMaxLines int
}

var _ Engine = (*FeedEngine)(nil)

// New creates a FeedEngine.
func New(opts Options) *FeedEngine {
	sys := opts.System
	if sys == nil {
		sys = RealSystem{}
	}
	return &FeedEngine{
		root:         opts.Root,
		feed:         opts.Feed,
		hub:          opts.Hub,
		sys:          sys,
		diffMaxLines: opts.DiffMaxLines,
	}
}

// InstalledReferences reads project's package store.
func (e *FeedEngine) InstalledReferences(project *workspace.Project) ([]packages.Reference, error) {
	if project == nil {
		return nil, errors.New(messages.InstallProjectRequired)
	}
	store, err := packages.LoadStore(project.Dir, project.Name)
	if err != nil {
		return nil, err
	}
	return store.References(), nil
}

// SafeUpdate implements Engine.
func (e *FeedEngine) SafeUpdate(ctx context.Context, id string, r versions.Range, prerelease bool) (*semver.Version, error) {
	available, err := e.versions(ctx, id, prerelease)
	if err != nil {
		return nil, err
	}
	var best *semver.Version
	for _, v := range available {
		if r.Contains(v) && (best == nil || v.GreaterThan(best)) {
			best = v
		}
	}
	return best, nil
}

// UpdateByBehavior implements Engine.
func (e *FeedEngine) UpdateByBehavior(ctx context.Context, id string, installed *semver.Version, behavior versions.Behavior, prerelease bool) (*semver.Version, error) {
	available, err := e.versions(ctx, id, prerelease)
	if err != nil {
		return nil, err
	}
	return versions.SelectByBehavior(installed, available, behavior), nil
}

// LatestVersion returns the highest available version of id, or nil when the feed has none.
func (e *FeedEngine) LatestVersion(ctx context.Context, id string, prerelease bool) (*semver.Version, error) {
	available, err := e.versions(ctx, id, prerelease)
	if err != nil {
		return nil, err
	}
	var best *semver.Version
	for _, v := range available {
		if best == nil || v.GreaterThan(best) {
			best = v
		}
	}
	return best, nil
}

func (e *FeedEngine) versions(ctx context.Context, id string, prerelease bool) ([]*semver.Version, error) {
	if e.feed == nil {
		return nil, errors.New(messages.InstallFeedRequired)
	}
	list, err := e.feed.Versions(ctx, id, feed.SearchFilter{IncludePrerelease: prerelease})
	if err != nil {
		return nil, err
	}
	return feed.VersionsOf(list), nil
}

// InstallRequest describes one package install.
type InstallRequest struct {
	Project  *workspace.Project
	Package  packages.Identity
	Resolver ConflictResolver
	// ActivityID keys the progress record for this install.
	ActivityID int
}

// InstallResult reports what an install produced.
type InstallResult struct {
	Installed bool
	Scripts   []scripts.Script
}

// Install extracts the package, copies its content files into the project, and records the reference.
// It may run on a background goroutine; all output goes through the event hub.
func (e *FeedEngine) Install(ctx context.Context, req InstallRequest) (InstallResult, error) {
	if strings.TrimSpace(e.root) == "" {
		return InstallResult{}, errors.New(messages.InstallRootRequired)
	}
	if req.Project == nil {
		return InstallResult{}, errors.New(messages.InstallProjectRequired)
	}
	if e.feed == nil {
		return InstallResult{}, errors.New(messages.InstallFeedRequired)
	}
	project := req.Project
	id := req.Package

	meta, err := feed.FindVersion(ctx, e.feed, id.ID, id.Version)
	if err != nil {
		return InstallResult{}, err
	}
	if meta == nil {
		return InstallResult{}, fmt.Errorf(messages.InstallVersionNotFoundFmt, id.ID, id.Version)
	}

	store, err := packages.LoadStore(project.Dir, project.Name)
	if err != nil {
		return InstallResult{}, err
	}
	previous, hadPrevious := store.Find(meta.ID)
	if hadPrevious && previous.Version.Equal(meta.Version) {
		e.hub.Log(events.LevelInfo, fmt.Sprintf(messages.InstallAlreadyInstalledFmt, meta.ID, meta.Version, project.Name))
		return InstallResult{}, nil
	}

	e.hub.Log(events.LevelInfo, fmt.Sprintf(messages.InstallingFmt, meta.ID, meta.Version))
	pkgDir := e.packageDir(meta.Identity())
	if err := e.extract(pkgDir, meta.Files); err != nil {
		return InstallResult{}, err
	}

	content := contentFiles(meta.Files)
	for i, f := range content {
		if err := ctx.Err(); err != nil {
			return InstallResult{}, err
		}
		rel := strings.TrimPrefix(f.Path, feed.ContentPrefix)
		e.hub.ReportProgress(req.ActivityID, fmt.Sprintf(messages.InstallProgressFileFmt, rel), i*100/len(content))
		if err := e.copyContent(ctx, req.Resolver, project, rel, f.Content); err != nil {
			return InstallResult{}, err
		}
	}
	e.hub.ReportProgress(req.ActivityID, messages.InstallProgressDone, 100)

	store.Upsert(meta.Identity())
	if err := e.sys.MkdirAll(project.Dir, 0o755); err != nil {
		return InstallResult{}, fmt.Errorf(messages.InstallCreateDirFailedFmt, project.Dir, err)
	}
	if err := store.Save(); err != nil {
		return InstallResult{}, err
	}
	if hadPrevious {
		dir := e.packageDir(previous.Identity)
		if err := e.sys.RemoveAll(dir); err != nil {
			e.hub.Log(events.LevelWarning, fmt.Sprintf(messages.InstallRemovePreviousFailedFmt, dir, err))
		}
	}

	result := InstallResult{Installed: true}
	if meta.HasInstallScript() {
		result.Scripts = append(result.Scripts, scripts.Script{
			Path:      filepath.Join(pkgDir, filepath.FromSlash(feed.InstallScript)),
			RootPath:  pkgDir,
			ToolsPath: filepath.Join(pkgDir, "tools"),
			Package:   meta.Identity(),
			Project:   project.Name,
		})
	}
	e.hub.Log(events.LevelInfo, fmt.Sprintf(messages.InstalledFmt, meta.ID, meta.Version, project.Name))
	return result, nil
}

func (e *FeedEngine) packageDir(id packages.Identity) string {
	return filepath.Join(e.root, PackagesDir, id.ID+"."+id.Version.String())
}

func (e *FeedEngine) extract(pkgDir string, files []feed.File) error {
	for _, f := range files {
		target, err := safeJoin(pkgDir, f.Path)
		if err != nil {
			return err
		}
		if err := e.writeFile(target, f.Content); err != nil {
			return err
		}
	}
	return nil
}

func (e *FeedEngine) copyContent(ctx context.Context, resolver ConflictResolver, project *workspace.Project, rel string, incoming string) error {
	target, err := safeJoin(project.Dir, rel)
	if err != nil {
		return err
	}
	existing, err := e.sys.ReadFile(target)
	switch {
	case errors.Is(err, os.ErrNotExist):
		e.hub.Log(events.LevelVerbose, fmt.Sprintf(messages.InstallAddingFileFmt, rel, project.Name))
		return e.writeFile(target, incoming)
	case err != nil:
		return fmt.Errorf(messages.InstallFailedReadFmt, target, err)
	case string(existing) == incoming:
		return nil
	}

	action := conflict.Ignore
	if resolver != nil {
		message := conflictMessage(rel, project.Name, string(existing), incoming, e.diffMaxLines)
		action, err = resolver.ResolveFileConflict(ctx, message)
		if err != nil {
			return err
		}
	}
	if !action.ShouldOverwrite() {
		e.hub.Log(events.LevelWarning, fmt.Sprintf(messages.InstallSkippedFileFmt, rel, project.Name))
		return nil
	}
	e.hub.Log(events.LevelVerbose, fmt.Sprintf(messages.InstallOverwroteFileFmt, rel, project.Name))
	return e.writeFile(target, incoming)
}

func (e *FeedEngine) writeFile(target string, content string) error {
	dir := filepath.Dir(target)
	if err := e.sys.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf(messages.InstallCreateDirFailedFmt, dir, err)
	}
	if err := e.sys.WriteFileAtomic(target, []byte(content), 0o644); err != nil {
		return fmt.Errorf(messages.InstallFailedWriteFmt, target, err)
	}
	return nil
}

func contentFiles(files []feed.File) []feed.File {
	var out []feed.File
	for _, f := range files {
		if strings.HasPrefix(f.Path, feed.ContentPrefix) && len(f.Path) > len(feed.ContentPrefix) {
			out = append(out, f)
		}
	}
	return out
}

// safeJoin joins a slash-separated package path onto base, rejecting paths that escape it.
func safeJoin(base string, rel string) (string, error) {
	cleaned := path.Clean("/" + rel)
	if rel == "" || path.IsAbs(rel) || strings.Contains(rel, "\\") || cleaned != "/"+rel {
		return "", fmt.Errorf(messages.InstallUnsafePathFmt, rel)
	}
	return filepath.Join(base, filepath.FromSlash(rel)), nil
}
