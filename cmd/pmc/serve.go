package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"github.com/conn-castle/package-console/internal/feed"
	"github.com/conn-castle/package-console/internal/messages"
)

const serveShutdownTimeout = 5 * time.Second

var listen = net.Listen

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   messages.ServeUse,
		Short: messages.ServeShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := homedir.Expand(args[0])
			if err != nil {
				return fmt.Errorf(messages.SourcesExpandHomeFmt, args[0], err)
			}
			if _, err := os.Stat(dir); err != nil {
				return fmt.Errorf(messages.ServeDirFmt, dir, err)
			}
			ln, err := listen("tcp", addr)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return serveFeed(ctx, ln, dir, cmd)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8470", messages.FlagAddr)
	return cmd
}

// serveFeed serves dir/index.json on ln until ctx ends.
func serveFeed(ctx context.Context, ln net.Listener, dir string, cmd *cobra.Command) error {
	server := &http.Server{
		Handler:           feed.Handler(feed.DirIndexLoader(dir)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), messages.ServeListeningFmt, dir, ln.Addr())

	errs := make(chan error, 1)
	go func() { errs <- server.Serve(ln) }()
	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), serveShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errs; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
