// Package feed reads package metadata from a package source.
package feed

import (
	"context"
	"fmt"
	"sort"
	"strings"

	semver "github.com/Masterminds/semver/v3"

	"github.com/conn-castle/package-console/internal/messages"
	"github.com/conn-castle/package-console/internal/packages"
	"github.com/conn-castle/package-console/internal/sources"
	"github.com/conn-castle/package-console/internal/versions"
)

// File is one file shipped inside a package.
// Paths under content/ are copied into the project; paths under tools/ stay in the package folder.
type File struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// InstallScript is the package-relative path of the post-install script.
const InstallScript = "tools/install.sh"

// ContentPrefix marks files copied into the target project.
const ContentPrefix = "content/"

// Metadata describes one version of a package.
type Metadata struct {
	ID               string
	Version          *semver.Version
	Description      string
	Authors          []string
	Delisted         bool
	TargetFrameworks []string
	Files            []File
}

// Identity returns the id@version pair.
func (m Metadata) Identity() packages.Identity {
	return packages.Identity{ID: m.ID, Version: m.Version}
}

// HasInstallScript reports whether the package ships tools/install.sh.
func (m Metadata) HasInstallScript() bool {
	for _, f := range m.Files {
		if f.Path == InstallScript {
			return true
		}
	}
	return false
}

// SearchFilter restricts which package versions are visible.
type SearchFilter struct {
	IncludePrerelease bool
	IncludeDelisted   bool
	// TargetFrameworks lists the frameworks a package must support; empty accepts every package.
	TargetFrameworks []string
}

// Client is the remote metadata service of one package source.
type Client interface {
	// Search returns the newest visible version of each package whose id contains query, ordered by id.
	Search(ctx context.Context, query string, filter SearchFilter, skip int, take int) ([]Metadata, error)
	// Versions returns every visible version of id in ascending order.
	Versions(ctx context.Context, id string, filter SearchFilter) ([]Metadata, error)
}

// Options configures Open.
type Options struct {
	HTTP HTTPOptions
}

// Open returns the client for src: HTTP(S) URIs use HTTPClient, anything else is a local folder.
func Open(src sources.Source, opts Options) (Client, error) {
	if src.IsRemote() {
		return NewHTTPClient(src.URI, opts.HTTP)
	}
	return NewDirClient(src.URI), nil
}

// FindVersion returns the metadata for id at exactly version, or nil when it does not exist.
func FindVersion(ctx context.Context, client Client, id string, version *semver.Version) (*Metadata, error) {
	all, err := client.Versions(ctx, id, SearchFilter{IncludePrerelease: true, IncludeDelisted: true})
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].Version.Equal(version) {
			return &all[i], nil
		}
	}
	return nil, nil
}

// Latest returns the highest version in list, or nil when it is empty.
func Latest(list []Metadata) *Metadata {
	var best *Metadata
	for i := range list {
		if best == nil || list[i].Version.GreaterThan(best.Version) {
			best = &list[i]
		}
	}
	return best
}

// VersionsOf extracts the versions of list.
func VersionsOf(list []Metadata) []*semver.Version {
	out := make([]*semver.Version, 0, len(list))
	for _, m := range list {
		out = append(out, m.Version)
	}
	return out
}

// Index is an in-memory catalog that applies search and filter rules.
// Both feed implementations and feed servers evaluate queries through it.
type Index struct {
	entries []Metadata
}

// NewIndex builds an index from entries.
func NewIndex(entries []Metadata) *Index {
	return &Index{entries: append([]Metadata(nil), entries...)}
}

// Matches reports whether m passes filter.
func (f SearchFilter) Matches(m Metadata) bool {
	if m.Delisted && !f.IncludeDelisted {
		return false
	}
	if m.Version.Prerelease() != "" && !f.IncludePrerelease {
		return false
	}
	if len(f.TargetFrameworks) == 0 || len(m.TargetFrameworks) == 0 {
		return true
	}
	for _, want := range f.TargetFrameworks {
		for _, have := range m.TargetFrameworks {
			if strings.EqualFold(want, have) {
				return true
			}
		}
	}
	return false
}

// Search implements Client.Search over the index.
func (idx *Index) Search(query string, filter SearchFilter, skip int, take int) []Metadata {
	query = strings.ToLower(strings.TrimSpace(query))
	latest := make(map[string]Metadata)
	for _, m := range idx.entries {
		if !filter.Matches(m) {
			continue
		}
		key := strings.ToLower(m.ID)
		if query != "" && !strings.Contains(key, query) {
			continue
		}
		if current, ok := latest[key]; !ok || m.Version.GreaterThan(current.Version) {
			latest[key] = m
		}
	}
	keys := make([]string, 0, len(latest))
	for key := range latest {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]Metadata, 0, len(keys))
	for _, key := range keys {
		out = append(out, latest[key])
	}
	return Page(out, skip, take)
}

// Versions implements Client.Versions over the index.
func (idx *Index) Versions(id string, filter SearchFilter) []Metadata {
	var out []Metadata
	for _, m := range idx.entries {
		if packages.SameID(m.ID, id) && filter.Matches(m) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Version.LessThan(out[j].Version) })
	return out
}

// Page applies skip then take; a take of zero means no limit.
func Page[T any](items []T, skip int, take int) []T {
	if skip >= len(items) {
		return nil
	}
	if skip > 0 {
		items = items[skip:]
	}
	if take > 0 && take < len(items) {
		items = items[:take]
	}
	return items
}

type metadataJSON struct {
	ID               string   `json:"id"`
	Version          string   `json:"version"`
	Description      string   `json:"description,omitempty"`
	Authors          []string `json:"authors,omitempty"`
	Delisted         bool     `json:"delisted,omitempty"`
	TargetFrameworks []string `json:"frameworks,omitempty"`
	Files            []File   `json:"files,omitempty"`
}

func (m metadataJSON) toMetadata() (Metadata, error) {
	v, err := versions.Parse(m.Version)
	if err != nil {
		return Metadata{}, fmt.Errorf(messages.FeedInvalidVersionFmt, m.ID, m.Version, err)
	}
	return Metadata{
		ID:               m.ID,
		Version:          v,
		Description:      m.Description,
		Authors:          m.Authors,
		Delisted:         m.Delisted,
		TargetFrameworks: m.TargetFrameworks,
		Files:            m.Files,
	}, nil
}

func fromMetadata(m Metadata) metadataJSON {
	return metadataJSON{
		ID:               m.ID,
		Version:          m.Version.Original(),
		Description:      m.Description,
		Authors:          m.Authors,
		Delisted:         m.Delisted,
		TargetFrameworks: m.TargetFrameworks,
		Files:            m.Files,
	}
}

func decodeAll(list []metadataJSON) ([]Metadata, error) {
	out := make([]Metadata, 0, len(list))
	for _, item := range list {
		m, err := item.toMetadata()
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
