package main

import (
	"github.com/spf13/cobra"

	"github.com/conn-castle/package-console/internal/commands"
	"github.com/conn-castle/package-console/internal/messages"
)

func newListCmd(flags *globalFlags) *cobra.Command {
	list := &commands.List{}
	cmd := &cobra.Command{
		Use:   messages.ListUse,
		Short: messages.ListShort,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				list.Filter = args[0]
			}
			list.Project = flags.project
			list.Source = flags.source
			return runCommand(cmd, flags, list)
		},
	}
	cmd.Flags().BoolVar(&list.Updates, "updates", false, messages.FlagUpdates)
	cmd.Flags().BoolVar(&list.Prerelease, "prerelease", false, messages.FlagPrerelease)
	cmd.Flags().IntVar(&list.Skip, "skip", 0, messages.FlagSkip)
	cmd.Flags().IntVar(&list.Take, "take", 0, messages.FlagTake)
	return cmd
}

func newSearchCmd(flags *globalFlags) *cobra.Command {
	search := &commands.Search{}
	cmd := &cobra.Command{
		Use:   messages.SearchUse,
		Short: messages.SearchShort,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				search.Query = args[0]
			}
			search.Source = flags.source
			return runCommand(cmd, flags, search)
		},
	}
	cmd.Flags().BoolVar(&search.Prerelease, "prerelease", false, messages.FlagPrerelease)
	cmd.Flags().StringSliceVar(&search.Frameworks, "framework", nil, messages.FlagFramework)
	cmd.Flags().IntVar(&search.Skip, "skip", 0, messages.FlagSkip)
	cmd.Flags().IntVar(&search.Take, "take", 0, messages.FlagTake)
	return cmd
}
