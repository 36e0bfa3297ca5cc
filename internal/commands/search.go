package commands

import (
	"context"
	"fmt"

	"github.com/conn-castle/package-console/internal/command"
	"github.com/conn-castle/package-console/internal/feed"
	"github.com/conn-castle/package-console/internal/messages"
)

// Search queries the active source for packages.
type Search struct {
	command.Base
	Query      string
	Source     string
	Frameworks []string
	Prerelease bool
	Skip       int
	Take       int
}

// Run implements command.Command.
func (c *Search) Run(ctx context.Context, rt *command.Runtime) error {
	src, err := rt.ResolveActiveSource(c.Source)
	if err != nil {
		return err
	}
	engine := rt.Query()
	var found []feed.Metadata
	err = rt.RunBackground(ctx, func(ctx context.Context) error {
		found, err = engine.SearchRemote(ctx, c.Query, c.Frameworks, c.Prerelease, c.Skip, c.Take)
		return err
	})
	if err != nil {
		return err
	}

	ui := rt.UI()
	if len(found) == 0 {
		ui.WriteInfo(fmt.Sprintf(messages.SearchNoResultsFmt, c.Query, src.Name))
		return nil
	}
	for _, m := range found {
		line := fmt.Sprintf(messages.SearchResultLineFmt, m.ID, m.Version)
		if m.Description != "" {
			line += " - " + m.Description
		}
		ui.WriteInfo(line)
	}
	return nil
}
