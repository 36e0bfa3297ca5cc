// Package command drives one package console command through its lifecycle and
// gives it typed access to the session, the active source, and the workspace.
package command

import (
	"os"
	"time"

	"github.com/conn-castle/package-console/internal/config"
	"github.com/conn-castle/package-console/internal/conflict"
	"github.com/conn-castle/package-console/internal/events"
	"github.com/conn-castle/package-console/internal/feed"
	"github.com/conn-castle/package-console/internal/host"
	"github.com/conn-castle/package-console/internal/scripts"
	"github.com/conn-castle/package-console/internal/sources"
	"github.com/conn-castle/package-console/internal/workspace"
)

// FeedOpener returns the metadata client for a source.
type FeedOpener func(src sources.Source) (feed.Client, error)

// Session is the typed context a command runs with.
type Session struct {
	UI            host.UI
	Sources       sources.Provider
	DefaultSource string
	SyncMode      bool
	ConflictMode  conflict.Mode
	// Workspace defaults to a closed workspace when nil.
	Workspace workspace.Manager
	// OpenFeed defaults to feed.Open.
	OpenFeed FeedOpener
	Scripts  scripts.Runner
	// Hub defaults to a fresh hub.
	Hub           *events.Hub
	SearchTimeout time.Duration
	RelayBuffer   int
}

// NewSession builds a session from configuration.
func NewSession(cfg *config.Config, ui host.UI, ws workspace.Manager) (*Session, error) {
	if cfg == nil {
		cfg = config.Defaults()
	}
	mode, err := conflict.ParseMode(cfg.Console.ConflictAction)
	if err != nil {
		return nil, err
	}
	return &Session{
		UI:            ui,
		Sources:       sources.NewConfigProvider(cfg),
		DefaultSource: cfg.Console.DefaultSource,
		SyncMode:      cfg.Console.SyncMode,
		ConflictMode:  mode,
		Workspace:     ws,
		Scripts: scripts.ShellRunner{
			Shell:  cfg.Console.Shell,
			Stdout: os.Stdout,
			Stderr: os.Stderr,
		},
		SearchTimeout: cfg.SearchTimeoutDuration(),
		RelayBuffer:   cfg.Console.RelayBuffer,
	}, nil
}

func (s *Session) openFeed(src sources.Source) (feed.Client, error) {
	if s.OpenFeed != nil {
		return s.OpenFeed(src)
	}
	return feed.Open(src, feed.Options{})
}
