package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/conn-castle/package-console/internal/command"
	"github.com/conn-castle/package-console/internal/config"
	"github.com/conn-castle/package-console/internal/host"
	"github.com/conn-castle/package-console/internal/messages"
	"github.com/conn-castle/package-console/internal/workspace"
)

var isInteractive = host.IsInteractive

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	source         string
	project        string
	conflictAction string
	verbose        bool
	sync           bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	cmd := &cobra.Command{
		Use:           messages.RootUse,
		Short:         messages.RootShort,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.Flags().Bool("version", false, messages.RootVersionFlag)

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.source, "source", "", messages.FlagSource)
	pf.StringVar(&flags.project, "project", "", messages.FlagProject)
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, messages.FlagVerbose)
	pf.BoolVar(&flags.sync, "sync", false, messages.FlagSync)
	pf.StringVar(&flags.conflictAction, "conflict-action", "", messages.FlagConflictAction)

	cmd.AddCommand(
		newListCmd(flags),
		newSearchCmd(flags),
		newUpdateCmd(flags),
		newInstallCmd(flags),
		newSourcesCmd(flags),
		newServeCmd(),
	)
	return cmd
}

// environment is the loaded workspace and configuration for one invocation.
type environment struct {
	workspace workspace.Manager
	config    *config.Config
}

func loadEnvironment(flags *globalFlags, cmd *cobra.Command) (*environment, error) {
	cwd, err := getwd()
	if err != nil {
		return nil, err
	}
	ws, err := workspace.Open(cwd)
	if err != nil {
		return nil, err
	}
	paths, err := config.DefaultPaths(ws.Root())
	if err != nil {
		return nil, err
	}
	cfg, _, err := config.Load(paths)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("sync") {
		cfg.Console.SyncMode = flags.sync
	}
	if flags.conflictAction != "" {
		cfg.Console.ConflictAction = flags.conflictAction
	}
	return &environment{workspace: ws, config: cfg}, nil
}

// runCommand executes c under a fresh runtime. SIGINT stops the command without rolling back.
func runCommand(cmd *cobra.Command, flags *globalFlags, c command.Command) error {
	env, err := loadEnvironment(flags, cmd)
	if err != nil {
		return err
	}
	ui := host.NewTerminalUI(host.TerminalOptions{
		In:          cmd.InOrStdin(),
		Out:         cmd.OutOrStdout(),
		Err:         cmd.ErrOrStderr(),
		Verbose:     flags.verbose,
		Interactive: isInteractive,
	})
	session, err := command.NewSession(env.config, ui, env.workspace)
	if err != nil {
		return err
	}
	rt, err := command.New(session)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-interrupts:
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), messages.InterruptReceived)
			rt.Stop()
		case <-done:
		}
	}()

	err = rt.Execute(ctx, c)
	if err == nil {
		return nil
	}
	reportError(ui, err, flags.verbose)
	return &SilentExitError{Code: 1}
}

func reportError(ui host.UI, err error, verbose bool) {
	he, ok := command.AsHostError(err)
	if !ok {
		ui.WriteError(err.Error())
		return
	}
	ui.WriteError(he.Error())
	if verbose {
		ui.WriteVerbose(fmt.Sprintf(messages.CLIErrorIDFmt, he.ID, he.Category))
		if he.Detail != "" {
			ui.WriteVerbose(he.Detail)
		}
	}
}
