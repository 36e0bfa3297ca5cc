package query

import (
	"context"
	"errors"
	"fmt"

	semver "github.com/Masterminds/semver/v3"

	"github.com/conn-castle/package-console/internal/messages"
	"github.com/conn-castle/package-console/internal/packages"
	"github.com/conn-castle/package-console/internal/versions"
	"github.com/conn-castle/package-console/internal/workspace"
)

// UpdateMode selects how SelectUpdateVersion picks a version.
type UpdateMode int

// Update selection strategies.
const (
	// UpdateSafe stays within the installed major.minor.
	UpdateSafe UpdateMode = iota
	// UpdateByBehavior applies a dependency behavior.
	UpdateByBehavior
	// UpdateExplicit uses a caller supplied version.
	UpdateExplicit
)

// UpdateRequest is the input to SelectUpdateVersion.
type UpdateRequest struct {
	Installed  packages.Reference
	Project    *workspace.Project
	Prerelease bool
	Mode       UpdateMode
	// Version is the literal target for UpdateExplicit.
	Version string
	// Behavior is used by UpdateByBehavior.
	Behavior versions.Behavior
}

// Candidate is a proposed update.
type Candidate struct {
	packages.Identity
	Project    string
	Constraint string
}

// SelectUpdateVersion returns the update for the installed reference, or nil when there is none.
// A candidate is returned only when it is strictly newer than the installed version.
func (e *Engine) SelectUpdateVersion(ctx context.Context, req UpdateRequest) (*Candidate, error) {
	installed := req.Installed.Version
	if installed == nil {
		return nil, errors.New(messages.QueryNilVersion)
	}

	var (
		target     *semver.Version
		constraint string
		err        error
	)
	switch req.Mode {
	case UpdateSafe:
		if e.installer == nil {
			return nil, errors.New(messages.QueryEngineRequired)
		}
		safe := versions.SafeRange(installed)
		constraint = fmt.Sprintf(messages.UpdateSafeConstraintFmt, safe)
		target, err = e.installer.SafeUpdate(ctx, req.Installed.ID, safe, req.Prerelease)
	case UpdateByBehavior:
		if e.installer == nil {
			return nil, errors.New(messages.QueryEngineRequired)
		}
		constraint = fmt.Sprintf(messages.UpdateBehaviorConstraintFmt, req.Behavior)
		target, err = e.installer.UpdateByBehavior(ctx, req.Installed.ID, installed, req.Behavior, req.Prerelease)
	case UpdateExplicit:
		if req.Version == "" {
			return nil, errors.New(messages.UpdateExplicitVersionReq)
		}
		constraint = messages.UpdateExplicitConstraint
		target, err = versions.Parse(req.Version)
	default:
		return nil, fmt.Errorf(messages.UpdateUnknownModeFmt, req.Mode)
	}
	if err != nil {
		return nil, err
	}
	if !versions.Newer(target, installed) {
		return nil, nil
	}

	project := req.Installed.Project
	if req.Project != nil {
		project = req.Project.Name
	}
	return &Candidate{
		Identity:   packages.Identity{ID: req.Installed.ID, Version: target},
		Project:    project,
		Constraint: constraint,
	}, nil
}
