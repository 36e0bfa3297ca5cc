// Package versions wraps semantic version handling for package updates.
package versions

import (
	"fmt"
	"strings"

	semver "github.com/Masterminds/semver/v3"

	"github.com/conn-castle/package-console/internal/messages"
)

// Parse parses a package version string.
func Parse(raw string) (*semver.Version, error) {
	v, err := semver.NewVersion(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf(messages.UpdateInvalidVersionFmt, raw, err)
	}
	return v, nil
}

// Newer reports whether candidate is strictly greater than installed.
// A nil candidate is never newer.
func Newer(candidate *semver.Version, installed *semver.Version) bool {
	if candidate == nil || installed == nil {
		return false
	}
	return candidate.GreaterThan(installed)
}

// Range is a half-open version interval [Min, Max).
type Range struct {
	Min *semver.Version
	Max *semver.Version
}

// SafeRange returns the range of versions that keep the installed major.minor.
func SafeRange(installed *semver.Version) Range {
	upper := semver.New(installed.Major(), installed.Minor()+1, 0, "", "")
	return Range{Min: installed, Max: upper}
}

// Contains reports whether v is inside the range.
func (r Range) Contains(v *semver.Version) bool {
	if v == nil {
		return false
	}
	if r.Min != nil && v.LessThan(r.Min) {
		return false
	}
	if r.Max != nil && !v.LessThan(r.Max) {
		return false
	}
	return true
}

func (r Range) String() string {
	lower, upper := "", ""
	if r.Min != nil {
		lower = r.Min.String()
	}
	if r.Max != nil {
		upper = r.Max.String()
	}
	return "[" + lower + ", " + upper + ")"
}
