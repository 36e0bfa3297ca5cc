// Package query answers the read-side questions commands ask: what is installed,
// what a source offers, and which version an installed package should move to.
package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/conn-castle/package-console/internal/events"
	"github.com/conn-castle/package-console/internal/feed"
	"github.com/conn-castle/package-console/internal/installer"
	"github.com/conn-castle/package-console/internal/messages"
	"github.com/conn-castle/package-console/internal/packages"
	"github.com/conn-castle/package-console/internal/sources"
	"github.com/conn-castle/package-console/internal/workspace"
)

// DefaultUpdateTake is the page size ComputeUpdates callers use unless told otherwise.
const DefaultUpdateTake = 30

// maxParallelSearches bounds concurrent feed searches in ComputeUpdates.
const maxParallelSearches = 4

// ErrSearchTimeout is returned when a remote search exceeds the configured timeout.
var ErrSearchTimeout = errors.New("remote search timed out")

// Options configures an Engine.
type Options struct {
	Installer installer.Engine
	// Feed is the metadata client of the active source; nil disables remote queries.
	Feed   feed.Client
	Source sources.Source
	// SearchTimeout bounds SearchRemote; zero waits indefinitely.
	SearchTimeout time.Duration
	Hub           *events.Hub
}

// Engine is the package query engine for one command.
type Engine struct {
	installer     installer.Engine
	feed          feed.Client
	source        sources.Source
	searchTimeout time.Duration
	hub           *events.Hub
}

// New creates a query engine.
func New(opts Options) *Engine {
	return &Engine{
		installer:     opts.Installer,
		feed:          opts.Feed,
		source:        opts.Source,
		searchTimeout: opts.SearchTimeout,
		hub:           opts.Hub,
	}
}

// ProjectPackages pairs a project with its matching installed packages.
type ProjectPackages struct {
	Project  *workspace.Project
	Packages []packages.Reference
}

// ListInstalled returns, per project, the installed references whose id starts with filter
// (ignoring case), paged with skip then take. Zero skip or take means unbounded.
// Projects keep their input order and references keep store order.
func (e *Engine) ListInstalled(projects []*workspace.Project, filter string, skip int, take int) ([]ProjectPackages, error) {
	if skip < 0 || take < 0 {
		return nil, fmt.Errorf(messages.QueryNegativePagingFmt, skip, take)
	}
	if e.installer == nil {
		return nil, errors.New(messages.QueryEngineRequired)
	}
	prefix := strings.ToLower(strings.TrimSpace(filter))
	out := make([]ProjectPackages, 0, len(projects))
	for _, project := range projects {
		refs, err := e.installer.InstalledReferences(project)
		if err != nil {
			return nil, err
		}
		var matched []packages.Reference
		for _, ref := range refs {
			if prefix == "" || strings.HasPrefix(strings.ToLower(ref.ID), prefix) {
				matched = append(matched, ref)
			}
		}
		out = append(out, ProjectPackages{Project: project, Packages: feed.Page(matched, skip, take)})
	}
	return out, nil
}

// SearchRemote runs one search for packageID on the active source. Delisted packages are never returned.
// The search runs on its own goroutine; the caller waits for it, bounded by the search timeout when one is set.
func (e *Engine) SearchRemote(ctx context.Context, packageID string, frameworks []string, prerelease bool, skip int, take int) ([]feed.Metadata, error) {
	if e.feed == nil {
		return nil, errors.New(messages.QueryFeedRequired)
	}
	if skip < 0 || take < 0 {
		return nil, fmt.Errorf(messages.QueryNegativePagingFmt, skip, take)
	}
	filter := feed.SearchFilter{
		IncludePrerelease: prerelease,
		IncludeDelisted:   false,
		TargetFrameworks:  frameworks,
	}
	e.hub.Log(events.LevelVerbose, fmt.Sprintf(messages.QuerySearchingFmt, packageID, e.source.Name))

	searchCtx := ctx
	if e.searchTimeout > 0 {
		var cancel context.CancelFunc
		searchCtx, cancel = context.WithTimeout(ctx, e.searchTimeout)
		defer cancel()
	}

	type result struct {
		list []feed.Metadata
		err  error
	}
	done := make(chan result, 1)
	go func() {
		list, err := e.feed.Search(searchCtx, packageID, filter, skip, take)
		done <- result{list: list, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil && e.timedOut(ctx, searchCtx) {
			return nil, e.timeoutError(packageID)
		}
		return r.list, r.err
	case <-searchCtx.Done():
		if e.timedOut(ctx, searchCtx) {
			return nil, e.timeoutError(packageID)
		}
		return nil, ctx.Err()
	}
}

func (e *Engine) timedOut(parent context.Context, searchCtx context.Context) bool {
	return parent.Err() == nil && errors.Is(searchCtx.Err(), context.DeadlineExceeded)
}

func (e *Engine) timeoutError(packageID string) error {
	return fmt.Errorf("%w: "+messages.FeedSearchTimeoutFmt, ErrSearchTimeout, packageID, e.source.Name, e.searchTimeout)
}

// UpdateStatus pairs an installed reference with the remote metadata found for its id.
// Metadata is nil when the search returned no entry with a matching id; callers must tolerate that.
type UpdateStatus struct {
	Installed packages.Reference
	Metadata  *feed.Metadata
}

// ComputeUpdates searches the active source for every installed reference and
// returns one status per reference, in input order.
func (e *Engine) ComputeUpdates(ctx context.Context, refs []packages.Reference, frameworks []string, prerelease bool, skip int, take int) ([]UpdateStatus, error) {
	out := make([]UpdateStatus, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelSearches)
	for i, ref := range refs {
		out[i].Installed = ref
		g.Go(func() error {
			list, err := e.SearchRemote(gctx, ref.ID, frameworks, prerelease, skip, take)
			if err != nil {
				return err
			}
			for j := range list {
				if packages.SameID(list[j].ID, ref.ID) {
					match := list[j]
					out[i].Metadata = &match
					break
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf(messages.QueryComputeUpdatesErrFmt, err)
	}
	return out, nil
}
