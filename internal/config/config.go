// Package config loads the package console configuration.
package config

import "time"

// Config is the parsed .pmc/config.toml.
type Config struct {
	Console Console  `toml:"console"`
	Sources []Source `toml:"sources"`
}

// Console holds command runtime settings.
type Console struct {
	DefaultSource  string `toml:"default_source"`
	SyncMode       bool   `toml:"sync_mode"`
	ConflictAction string `toml:"conflict_action"`
	SearchTimeout  string `toml:"search_timeout"`
	RelayBuffer    int    `toml:"relay_buffer"`
	Shell          string `toml:"shell"`
}

// Source is one configured package source.
type Source struct {
	Name    string `toml:"name"`
	URI     string `toml:"uri"`
	Enabled *bool  `toml:"enabled"`
}

// Default values applied when keys are omitted.
const (
	DefaultConflictAction = "prompt"
	DefaultRelayBuffer    = 256
	DefaultShell          = "sh"
)

// IsEnabled reports whether the source is enabled; omitted means enabled.
func (s Source) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// SearchTimeoutDuration returns the parsed search timeout; empty or zero means unbounded.
// Validate must have accepted the config first.
func (c *Config) SearchTimeoutDuration() time.Duration {
	if c.Console.SearchTimeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Console.SearchTimeout)
	if err != nil {
		return 0
	}
	return d
}

// Defaults returns the configuration used when no config file exists.
func Defaults() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Console.ConflictAction == "" {
		c.Console.ConflictAction = DefaultConflictAction
	}
	if c.Console.RelayBuffer == 0 {
		c.Console.RelayBuffer = DefaultRelayBuffer
	}
	if c.Console.Shell == "" {
		c.Console.Shell = DefaultShell
	}
}
