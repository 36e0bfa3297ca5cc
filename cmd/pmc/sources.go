package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conn-castle/package-console/internal/messages"
	"github.com/conn-castle/package-console/internal/sources"
)

func newSourcesCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   messages.SourcesUse,
		Short: messages.SourcesShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment(flags, cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			list := sources.NewConfigProvider(env.config).ListSources()
			if len(list) == 0 {
				_, _ = fmt.Fprintln(out, messages.SourcesNoneFound)
				return nil
			}
			for _, src := range list {
				state := messages.SourcesDisabled
				if src.Enabled {
					state = messages.SourcesEnabled
				}
				_, _ = fmt.Fprintf(out, messages.SourcesLineFmt, src.Name, src.URI, state)
			}
			return nil
		},
	}
}
