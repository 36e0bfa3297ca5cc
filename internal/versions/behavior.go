package versions

import (
	"fmt"
	"strings"

	semver "github.com/Masterminds/semver/v3"

	"github.com/conn-castle/package-console/internal/messages"
)

// Behavior names how an update target is picked from the available versions.
type Behavior int

const (
	// BehaviorLowest picks the smallest version above the installed one.
	BehaviorLowest Behavior = iota
	// BehaviorHighestPatch picks the highest version with the same major.minor.
	BehaviorHighestPatch
	// BehaviorHighestMinor picks the highest version with the same major.
	BehaviorHighestMinor
	// BehaviorHighest picks the highest available version.
	BehaviorHighest
)

var behaviorNames = map[Behavior]string{
	BehaviorLowest:       "lowest",
	BehaviorHighestPatch: "highest-patch",
	BehaviorHighestMinor: "highest-minor",
	BehaviorHighest:      "highest",
}

func (b Behavior) String() string {
	if name, ok := behaviorNames[b]; ok {
		return name
	}
	return fmt.Sprintf("behavior(%d)", int(b))
}

// ParseBehavior parses a behavior name. Matching ignores case, dashes, and underscores
// so "HighestMinor", "highest-minor", and "highest_minor" are equivalent.
func ParseBehavior(raw string) (Behavior, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer("-", "", "_", "").Replace(key)
	for b, name := range behaviorNames {
		if strings.ReplaceAll(name, "-", "") == key {
			return b, nil
		}
	}
	return 0, fmt.Errorf(messages.UpdateInvalidBehaviorFmt, raw)
}

// SelectByBehavior picks a target from candidates relative to installed.
// It returns nil when no candidate fits. The result may equal installed for
// the "highest" behaviors; callers enforce monotonicity separately.
func SelectByBehavior(installed *semver.Version, candidates []*semver.Version, b Behavior) *semver.Version {
	var best *semver.Version
	for _, c := range candidates {
		if c == nil {
			continue
		}
		switch b {
		case BehaviorLowest:
			if installed != nil && !c.GreaterThan(installed) {
				continue
			}
			if best == nil || c.LessThan(best) {
				best = c
			}
		case BehaviorHighestPatch:
			if installed != nil && (c.Major() != installed.Major() || c.Minor() != installed.Minor()) {
				continue
			}
			if best == nil || c.GreaterThan(best) {
				best = c
			}
		case BehaviorHighestMinor:
			if installed != nil && c.Major() != installed.Major() {
				continue
			}
			if best == nil || c.GreaterThan(best) {
				best = c
			}
		case BehaviorHighest:
			if best == nil || c.GreaterThan(best) {
				best = c
			}
		}
	}
	return best
}
