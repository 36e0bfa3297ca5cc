package main

import (
	"github.com/spf13/cobra"

	"github.com/conn-castle/package-console/internal/commands"
	"github.com/conn-castle/package-console/internal/messages"
)

func newUpdateCmd(flags *globalFlags) *cobra.Command {
	update := &commands.Update{}
	cmd := &cobra.Command{
		Use:   messages.UpdateUse,
		Short: messages.UpdateShort,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				update.ID = args[0]
			}
			update.Project = flags.project
			update.Source = flags.source
			return runCommand(cmd, flags, update)
		},
	}
	cmd.Flags().BoolVar(&update.Safe, "safe", false, messages.FlagSafe)
	cmd.Flags().StringVar(&update.Dependency, "dependency", "", messages.FlagDependency)
	cmd.Flags().StringVar(&update.Version, "version", "", messages.FlagVersion)
	cmd.Flags().BoolVar(&update.Prerelease, "prerelease", false, messages.FlagPrerelease)
	return cmd
}

func newInstallCmd(flags *globalFlags) *cobra.Command {
	install := &commands.Install{}
	cmd := &cobra.Command{
		Use:   messages.InstallUse,
		Short: messages.InstallShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			install.ID = args[0]
			install.Project = flags.project
			install.Source = flags.source
			return runCommand(cmd, flags, install)
		},
	}
	cmd.Flags().StringVar(&install.Version, "version", "", messages.FlagVersion)
	cmd.Flags().BoolVar(&install.Prerelease, "prerelease", false, messages.FlagPrerelease)
	return cmd
}
