// Package sources models package sources and resolves the active one for a command.
package sources

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/mitchellh/go-homedir"

	"github.com/conn-castle/package-console/internal/config"
	"github.com/conn-castle/package-console/internal/messages"
)

// ErrNoSources is returned when nothing was requested and no enabled source exists.
var ErrNoSources = errors.New(messages.SourcesNoneAvailable)

// Source is a named package source.
type Source struct {
	Name    string
	URI     string
	Enabled bool
	// AdHoc is set for sources created from a literal rather than configuration.
	AdHoc bool
}

// IsRemote reports whether the source is served over HTTP.
func (s Source) IsRemote() bool {
	lower := strings.ToLower(s.URI)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Provider is the package source registry.
type Provider interface {
	ListSources() []Source
	CreateAdHocSource(literal string) (Source, error)
}

// ConfigProvider serves the sources declared in the configuration.
type ConfigProvider struct {
	sources []Source
}

// NewConfigProvider builds a provider from cfg, preserving declaration order.
func NewConfigProvider(cfg *config.Config) *ConfigProvider {
	p := &ConfigProvider{}
	if cfg == nil {
		return p
	}
	for _, src := range cfg.Sources {
		p.sources = append(p.sources, Source{
			Name:    strings.TrimSpace(src.Name),
			URI:     strings.TrimSpace(src.URI),
			Enabled: src.IsEnabled(),
		})
	}
	return p
}

// ListSources returns every configured source, enabled or not.
func (p *ConfigProvider) ListSources() []Source {
	return append([]Source(nil), p.sources...)
}

// CreateAdHocSource builds an unnamed source from a URL or a local path.
func (p *ConfigProvider) CreateAdHocSource(literal string) (Source, error) {
	return CreateAdHocSource(literal)
}

// CreateAdHocSource turns literal into a source. HTTP(S) URLs must name a host;
// anything else is treated as a local folder with a leading ~ expanded.
func CreateAdHocSource(literal string) (Source, error) {
	trimmed := strings.TrimSpace(literal)
	if trimmed == "" {
		return Source{}, errors.New(messages.SourcesAdHocEmpty)
	}
	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		u, err := url.Parse(trimmed)
		if err != nil {
			return Source{}, fmt.Errorf(messages.SourcesAdHocInvalidFmt, trimmed, err)
		}
		if u.Host == "" {
			return Source{}, fmt.Errorf(messages.SourcesAdHocMissingHostFmt, trimmed)
		}
		return Source{Name: trimmed, URI: trimmed, Enabled: true, AdHoc: true}, nil
	}
	path, err := homedir.Expand(trimmed)
	if err != nil {
		return Source{}, fmt.Errorf(messages.SourcesExpandHomeFmt, trimmed, err)
	}
	return Source{Name: trimmed, URI: path, Enabled: true, AdHoc: true}, nil
}

// ResolveActive picks the source a command should use.
//
// An empty requested value falls back to defaultKey. The key is matched
// case-insensitively against the name or URI of each enabled source in
// declaration order, and the first match wins. Without a match the key is
// handed to CreateAdHocSource.
// When both requested and defaultKey are empty the first enabled source is used.
func ResolveActive(provider Provider, requested string, defaultKey string) (Source, error) {
	key := strings.TrimSpace(requested)
	if key == "" {
		key = strings.TrimSpace(defaultKey)
	}

	var enabled []Source
	for _, src := range provider.ListSources() {
		if src.Enabled {
			enabled = append(enabled, src)
		}
	}

	if key == "" {
		if len(enabled) == 0 {
			return Source{}, ErrNoSources
		}
		return enabled[0], nil
	}

	for _, src := range enabled {
		if strings.EqualFold(src.Name, key) || strings.EqualFold(src.URI, key) {
			return src, nil
		}
	}
	return provider.CreateAdHocSource(key)
}
