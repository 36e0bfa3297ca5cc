// Package commands implements the package console command variants.
package commands

import (
	"context"
	"fmt"

	"github.com/conn-castle/package-console/internal/command"
	"github.com/conn-castle/package-console/internal/messages"
	"github.com/conn-castle/package-console/internal/query"
	"github.com/conn-castle/package-console/internal/versions"
	"github.com/conn-castle/package-console/internal/workspace"
)

// List shows installed packages, or the updates available for them.
type List struct {
	command.Base
	Filter     string
	Project    string
	Source     string
	Skip       int
	Take       int
	Updates    bool
	Prerelease bool
}

// Run implements command.Command.
func (c *List) Run(ctx context.Context, rt *command.Runtime) error {
	projects, err := rt.Projects(c.Project)
	if err != nil {
		return err
	}
	if c.Updates {
		return c.listUpdates(ctx, rt, projects)
	}

	installed, err := rt.Query().ListInstalled(projects, c.Filter, c.Skip, c.Take)
	if err != nil {
		return err
	}
	ui := rt.UI()
	for _, entry := range installed {
		if len(entry.Packages) == 0 {
			ui.WriteInfo(fmt.Sprintf(messages.ListNoPackagesFmt, entry.Project.Name))
			continue
		}
		ui.WriteInfo(fmt.Sprintf(messages.ListProjectHeaderFmt, entry.Project.Name))
		for _, ref := range entry.Packages {
			ui.WriteInfo(fmt.Sprintf(messages.ListPackageLineFmt, ref.ID, ref.Version))
		}
	}
	return nil
}

type projectUpdates struct {
	project string
	updates []query.UpdateStatus
}

// listUpdates pages the installed packages, then looks each one up on the active source.
func (c *List) listUpdates(ctx context.Context, rt *command.Runtime, projects []*workspace.Project) error {
	if _, err := rt.ResolveActiveSource(c.Source); err != nil {
		return err
	}

	engine := rt.Query()
	var results []projectUpdates
	err := rt.RunBackground(ctx, func(ctx context.Context) error {
		installed, err := engine.ListInstalled(projects, c.Filter, c.Skip, c.Take)
		if err != nil {
			return err
		}
		for _, entry := range installed {
			statuses, err := engine.ComputeUpdates(ctx, entry.Packages, entry.Project.TargetFrameworks, c.Prerelease, 0, query.DefaultUpdateTake)
			if err != nil {
				return err
			}
			results = append(results, projectUpdates{project: entry.Project.Name, updates: statuses})
		}
		return nil
	})
	if err != nil {
		return err
	}

	ui := rt.UI()
	for _, result := range results {
		ui.WriteInfo(fmt.Sprintf(messages.ListProjectHeaderFmt, result.project))
		for _, status := range result.updates {
			installed := status.Installed
			switch {
			case status.Metadata == nil:
				ui.WriteInfo(fmt.Sprintf(messages.ListUpdateMissingFmt, installed.ID, installed.Version))
			case versions.Newer(status.Metadata.Version, installed.Version):
				ui.WriteInfo(fmt.Sprintf(messages.ListUpdateLineFmt, installed.ID, installed.Version, status.Metadata.Version))
			}
		}
	}
	return nil
}
