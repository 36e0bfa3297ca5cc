// Package packages defines installed package identities and the per-project package store.
package packages

import (
	"strings"

	semver "github.com/Masterminds/semver/v3"
)

// Identity names one version of a package.
type Identity struct {
	ID      string
	Version *semver.Version
}

// String renders the identity as id@version.
func (i Identity) String() string {
	if i.Version == nil {
		return i.ID
	}
	return i.ID + "@" + i.Version.String()
}

// SameID reports whether two package ids match, ignoring case.
func SameID(a string, b string) bool {
	return strings.EqualFold(a, b)
}

// Reference is a package installed in a project.
type Reference struct {
	Identity
	Project string
}
