package commands

import (
	"context"
	"fmt"

	semver "github.com/Masterminds/semver/v3"

	"github.com/conn-castle/package-console/internal/command"
	"github.com/conn-castle/package-console/internal/installer"
	"github.com/conn-castle/package-console/internal/messages"
	"github.com/conn-castle/package-console/internal/packages"
	"github.com/conn-castle/package-console/internal/versions"
)

// Install adds a package to one project, at the latest version unless Version is set.
type Install struct {
	command.Base
	ID         string
	Version    string
	Project    string
	Source     string
	Prerelease bool
}

// Run implements command.Command.
func (c *Install) Run(ctx context.Context, rt *command.Runtime) error {
	var pinned *semver.Version
	if c.Version != "" {
		v, err := versions.Parse(c.Version)
		if err != nil {
			return err
		}
		pinned = v
	}
	project, err := rt.RequireProject(c.Project)
	if err != nil {
		return err
	}
	if _, err := rt.ResolveActiveSource(c.Source); err != nil {
		return err
	}

	engine := rt.Engine()
	return rt.RunBackground(ctx, func(ctx context.Context) error {
		target := pinned
		if target == nil {
			latest, err := engine.LatestVersion(ctx, c.ID, c.Prerelease)
			if err != nil {
				return err
			}
			if latest == nil {
				return fmt.Errorf(messages.InstallPackageNotFoundFmt, c.ID)
			}
			target = latest
		}
		result, err := engine.Install(ctx, installer.InstallRequest{
			Project:    project,
			Package:    packages.Identity{ID: c.ID, Version: target},
			Resolver:   rt,
			ActivityID: rt.NextActivityID(),
		})
		if err != nil {
			return err
		}
		for _, script := range result.Scripts {
			rt.EnqueueScript(script)
		}
		return nil
	})
}
