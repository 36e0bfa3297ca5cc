package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/conn-castle/package-console/internal/messages"
)

var validConflictActions = map[string]struct{}{
	"prompt":        {},
	"overwrite":     {},
	"overwrite-all": {},
	"ignore":        {},
	"ignore-all":    {},
}

// Validate ensures the config is complete and consistent.
func (c *Config) Validate(path string) error {
	action := strings.ToLower(strings.TrimSpace(c.Console.ConflictAction))
	if _, ok := validConflictActions[action]; !ok {
		return fmt.Errorf(messages.ConfigConflictActionFmt, path)
	}
	if raw := strings.TrimSpace(c.Console.SearchTimeout); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf(messages.ConfigSearchTimeoutFmt, path, raw, err)
		}
		if d < 0 {
			return fmt.Errorf(messages.ConfigSearchTimeoutNegFmt, path)
		}
	}
	if c.Console.RelayBuffer < 0 {
		return fmt.Errorf(messages.ConfigRelayBufferFmt, path)
	}

	seen := make(map[string]struct{}, len(c.Sources))
	for i, src := range c.Sources {
		name := strings.TrimSpace(src.Name)
		if name == "" {
			return fmt.Errorf(messages.ConfigSourceNameFmt, path, i)
		}
		if strings.TrimSpace(src.URI) == "" {
			return fmt.Errorf(messages.ConfigSourceURIFmt, path, i)
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			return fmt.Errorf(messages.ConfigSourceDuplicateFmt, path, name)
		}
		seen[key] = struct{}{}
	}
	return nil
}
