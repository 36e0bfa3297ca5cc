package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/conn-castle/package-console/internal/command"
	"github.com/conn-castle/package-console/internal/events"
	"github.com/conn-castle/package-console/internal/installer"
	"github.com/conn-castle/package-console/internal/messages"
	"github.com/conn-castle/package-console/internal/packages"
	"github.com/conn-castle/package-console/internal/query"
	"github.com/conn-castle/package-console/internal/versions"
)

// Update moves installed packages to newer versions.
// With no mode flag it applies the highest dependency behavior.
type Update struct {
	command.Base
	// ID limits the update to one package; empty updates everything installed.
	ID         string
	Project    string
	Source     string
	Safe       bool
	Dependency string
	Version    string
	Prerelease bool
}

func (c *Update) request() (query.UpdateRequest, error) {
	set := 0
	for _, on := range []bool{c.Safe, c.Dependency != "", c.Version != ""} {
		if on {
			set++
		}
	}
	if set > 1 {
		return query.UpdateRequest{}, errors.New(messages.UpdateModeConflict)
	}
	req := query.UpdateRequest{Prerelease: c.Prerelease, Mode: query.UpdateByBehavior, Behavior: versions.BehaviorHighest}
	switch {
	case c.Safe:
		req.Mode = query.UpdateSafe
	case c.Version != "":
		if c.ID == "" {
			return query.UpdateRequest{}, errors.New(messages.UpdateVersionNeedsID)
		}
		req.Mode = query.UpdateExplicit
		req.Version = c.Version
	case c.Dependency != "":
		behavior, err := versions.ParseBehavior(c.Dependency)
		if err != nil {
			return query.UpdateRequest{}, err
		}
		req.Behavior = behavior
	}
	return req, nil
}

// Begin validates flags before any source or workspace work.
func (c *Update) Begin(_ context.Context, _ *command.Runtime) error {
	_, err := c.request()
	return err
}

// Run implements command.Command.
func (c *Update) Run(ctx context.Context, rt *command.Runtime) error {
	template, err := c.request()
	if err != nil {
		return err
	}
	projects, err := rt.Projects(c.Project)
	if err != nil {
		return err
	}
	if _, err := rt.ResolveActiveSource(c.Source); err != nil {
		return err
	}

	selector := rt.Query()
	engine := rt.Engine()
	hub := rt.Hub()
	return rt.RunBackground(ctx, func(ctx context.Context) error {
		found := false
		for _, project := range projects {
			refs, err := engine.InstalledReferences(project)
			if err != nil {
				return err
			}
			for _, ref := range refs {
				if c.ID != "" && !packages.SameID(ref.ID, c.ID) {
					continue
				}
				found = true
				if !rt.IsExecuting() {
					return nil
				}
				req := template
				req.Installed = ref
				req.Project = project
				hub.Log(events.LevelVerbose, fmt.Sprintf(messages.UpdateCheckingFmt, ref.ID))
				candidate, err := selector.SelectUpdateVersion(ctx, req)
				if err != nil {
					return err
				}
				if candidate == nil {
					hub.Log(events.LevelInfo, fmt.Sprintf(messages.UpdateNoUpdateFmt, ref.ID, project.Name))
					continue
				}
				hub.Log(events.LevelInfo, fmt.Sprintf(messages.UpdateSelectedFmt, ref.ID, ref.Version, candidate.Version, project.Name))
				result, err := engine.Install(ctx, installer.InstallRequest{
					Project:    project,
					Package:    candidate.Identity,
					Resolver:   rt,
					ActivityID: rt.NextActivityID(),
				})
				if err != nil {
					return err
				}
				for _, script := range result.Scripts {
					rt.EnqueueScript(script)
				}
			}
		}
		if c.ID != "" && !found {
			return fmt.Errorf(messages.UpdatePackageNotFoundFmt, c.ID, projectLabel(c.Project))
		}
		return nil
	})
}

func projectLabel(name string) string {
	if name == "" {
		return messages.UpdateAnyProject
	}
	return name
}
