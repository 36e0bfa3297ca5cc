package command

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/conn-castle/package-console/internal/conflict"
	"github.com/conn-castle/package-console/internal/events"
	"github.com/conn-castle/package-console/internal/feed"
	"github.com/conn-castle/package-console/internal/host"
	"github.com/conn-castle/package-console/internal/installer"
	"github.com/conn-castle/package-console/internal/messages"
	"github.com/conn-castle/package-console/internal/query"
	"github.com/conn-castle/package-console/internal/relay"
	"github.com/conn-castle/package-console/internal/scripts"
	"github.com/conn-castle/package-console/internal/sources"
	"github.com/conn-castle/package-console/internal/workspace"
)

// Command is one command variant. Begin and End may be inherited from Base.
type Command interface {
	Begin(ctx context.Context, rt *Runtime) error
	Run(ctx context.Context, rt *Runtime) error
	End(ctx context.Context, rt *Runtime) error
}

// Base provides no-op Begin and End hooks.
type Base struct{}

// Begin does nothing.
func (Base) Begin(context.Context, *Runtime) error { return nil }

// End does nothing.
func (Base) End(context.Context, *Runtime) error { return nil }

// Runtime drives exactly one command execution and owns its relay and conflict policy.
type Runtime struct {
	session *Session
	hub     *events.Hub
	relay   *relay.Relay
	policy  *conflict.Policy

	executed  atomic.Bool
	executing atomic.Bool
	activity  atomic.Int32

	mu          sync.Mutex
	unsubscribe func()
	scripts     []scripts.Script
	source      *sources.Source
	feed        feed.Client
	engine      *installer.FeedEngine
	query       *query.Engine
}

// New creates a runtime for one command invocation.
func New(session *Session) (*Runtime, error) {
	if session == nil {
		return nil, errors.New(messages.CommandSessionRequired)
	}
	if session.UI == nil {
		return nil, errors.New(messages.CommandUIRequired)
	}
	if session.Workspace == nil {
		session.Workspace = workspace.ClosedManager{}
	}
	hub := session.Hub
	if hub == nil {
		hub = events.NewHub()
	}
	rt := &Runtime{
		session: session,
		hub:     hub,
		policy:  conflict.NewPolicy(session.UI, session.ConflictMode),
	}
	rt.relay = relay.New(session.UI, relay.Options{
		SyncMode: session.SyncMode,
		Buffer:   session.RelayBuffer,
		Activity: messages.InstallProgressActivity,
		Resolve:  rt.policy.Resolve,
	})
	return rt, nil
}

// Execute runs cmd through Begin, Run, queued scripts, and End. It may be called once.
// Failures and panics are returned as terminating *HostError values.
func (r *Runtime) Execute(ctx context.Context, cmd Command) error {
	if cmd == nil {
		return errors.New(messages.CommandRequired)
	}
	if !r.executed.CompareAndSwap(false, true) {
		return ErrAlreadyExecuted
	}

	r.begin()
	defer r.teardown()

	if err := r.phase(ctx, cmd.Begin); err != nil {
		return err
	}
	if err := r.phase(ctx, cmd.Run); err != nil {
		return err
	}
	if err := r.phase(ctx, r.runScripts); err != nil {
		return err
	}
	return r.phase(ctx, cmd.End)
}

func (r *Runtime) begin() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executing.Store(true)
	r.scripts = nil
	r.unsubscribe = r.relay.Attach(r.hub)
}

// teardown runs on every exit path.
func (r *Runtime) teardown() {
	r.detach()
	r.relay.Complete()
	_ = r.relay.Drain(context.Background())
	r.policy.Reset()
	r.executing.Store(false)
}

func (r *Runtime) detach() {
	r.mu.Lock()
	unsubscribe := r.unsubscribe
	r.unsubscribe = nil
	r.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

func (r *Runtime) phase(ctx context.Context, fn func(context.Context, *Runtime) error) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = panicError(recovered)
		}
	}()
	if err := fn(ctx, r); err != nil {
		return terminatingError(err)
	}
	return nil
}

// Stop marks the command as no longer executing and detaches background event delivery.
// Work already done is kept.
func (r *Runtime) Stop() {
	if r.executing.Swap(false) {
		r.relay.Log(events.LevelVerbose, messages.CommandStoppedVerbose)
	}
	r.detach()
}

// IsExecuting reports whether the command is running and has not been stopped.
func (r *Runtime) IsExecuting() bool {
	return r.executing.Load()
}

// UI returns the host UI. Call it only from the command goroutine.
func (r *Runtime) UI() host.UI {
	return r.session.UI
}

// Session returns the session the runtime was created with.
func (r *Runtime) Session() *Session {
	return r.session
}

// Hub returns the event hub background work publishes to.
func (r *Runtime) Hub() *events.Hub {
	return r.hub
}

// Log queues a message for the host. It is safe to call from any goroutine.
func (r *Runtime) Log(level events.Level, format string, args ...any) {
	r.relay.Log(level, format, args...)
}

// WriteError reports a non-terminating error. Call it only from the command goroutine.
func (r *Runtime) WriteError(message string) {
	r.session.UI.WriteError(message)
}

// SetConflictAction overrides the configured conflict behavior for the rest of the command.
func (r *Runtime) SetConflictAction(mode conflict.Mode) {
	r.policy.SetDefault(mode)
}

// ResolveFileConflict asks the conflict policy on the command goroutine. Safe from any goroutine.
func (r *Runtime) ResolveFileConflict(ctx context.Context, message string) (conflict.Action, error) {
	return r.relay.ResolveFileConflict(ctx, message)
}

// NextActivityID returns a fresh progress activity id.
func (r *Runtime) NextActivityID() int {
	return int(r.activity.Add(1))
}

// Relay exposes the command relay.
func (r *Runtime) Relay() *relay.Relay {
	return r.relay
}

// RunBackground runs fn on a new goroutine while the command goroutine drains
// the relay, and returns fn's error once fn has finished and its events are delivered.
// The relay stays open, so the command may log afterwards or run more background work.
func (r *Runtime) RunBackground(ctx context.Context, fn func(ctx context.Context) error) error {
	done := make(chan struct{})
	var err error
	go func() {
		defer close(done)
		defer func() {
			if recovered := recover(); recovered != nil {
				err = panicError(recovered)
			}
		}()
		err = fn(ctx)
	}()
	drainErr := r.relay.DrainUntil(ctx, done)
	<-done
	if err != nil {
		return err
	}
	return drainErr
}

// EnqueueScript queues a post-action script to run after Run succeeds.
func (r *Runtime) EnqueueScript(script scripts.Script) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scripts = append(r.scripts, script)
}

// QueuedScripts returns a copy of the queued scripts.
func (r *Runtime) QueuedScripts() []scripts.Script {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]scripts.Script(nil), r.scripts...)
}

func (r *Runtime) runScripts(ctx context.Context, _ *Runtime) error {
	queued := r.QueuedScripts()
	if len(queued) == 0 || !r.IsExecuting() {
		return nil
	}
	if r.session.Scripts == nil {
		return errors.New(messages.CommandNoRunnerForScript)
	}
	r.session.UI.WriteVerbose(fmt.Sprintf(messages.CommandScriptsQueuedFmt, len(queued)))
	for _, script := range queued {
		r.session.UI.WriteVerbose(fmt.Sprintf(messages.ScriptRunningFmt, script.Path))
		if err := r.session.Scripts.Run(ctx, script); err != nil {
			return err
		}
	}
	return nil
}

// ResolveActiveSource picks the active source for name (or the session default) and opens its feed.
func (r *Runtime) ResolveActiveSource(name string) (sources.Source, error) {
	src, err := sources.ResolveActive(r.session.Sources, name, r.session.DefaultSource)
	if err != nil {
		return sources.Source{}, err
	}
	client, err := r.session.openFeed(src)
	if err != nil {
		return sources.Source{}, err
	}
	if src.AdHoc {
		r.session.UI.WriteVerbose(fmt.Sprintf(messages.SourcesUsingAdHocFmt, src.URI))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.source = &src
	r.feed = client
	r.engine = nil
	r.query = nil
	return src, nil
}

// ActiveSource returns the resolved source, if any.
func (r *Runtime) ActiveSource() (sources.Source, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.source == nil {
		return sources.Source{}, false
	}
	return *r.source, true
}

// Workspace returns the workspace manager.
func (r *Runtime) Workspace() workspace.Manager {
	return r.session.Workspace
}

// CheckWorkspaceOpen returns the NoActiveWorkspace error when no workspace is open.
func (r *Runtime) CheckWorkspaceOpen() error {
	if !r.session.Workspace.IsOpen() {
		return NewNoActiveWorkspaceError()
	}
	return nil
}

// ResolveActiveProject returns the named project, or the default one for an empty name.
func (r *Runtime) ResolveActiveProject(name string) (*workspace.Project, bool) {
	return workspace.ResolveActiveProject(r.session.Workspace, name)
}

// RequireProject checks the workspace is open and resolves a project, failing when none matches.
func (r *Runtime) RequireProject(name string) (*workspace.Project, error) {
	if err := r.CheckWorkspaceOpen(); err != nil {
		return nil, err
	}
	project, ok := r.ResolveActiveProject(name)
	if ok {
		return project, nil
	}
	if name == "" {
		return nil, NewNoCompatibleProjectError()
	}
	return nil, NewProjectNotFoundError(name)
}

// Projects returns the named project, or every workspace project when name is empty.
func (r *Runtime) Projects(name string) ([]*workspace.Project, error) {
	if err := r.CheckWorkspaceOpen(); err != nil {
		return nil, err
	}
	if name != "" {
		project, err := r.RequireProject(name)
		if err != nil {
			return nil, err
		}
		return []*workspace.Project{project}, nil
	}
	projects := r.session.Workspace.Projects()
	if len(projects) == 0 {
		return nil, NewNoCompatibleProjectError()
	}
	return projects, nil
}

// Engine returns the install engine bound to the workspace and the active source feed.
func (r *Runtime) Engine() *installer.FeedEngine {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engineLocked()
}

func (r *Runtime) engineLocked() *installer.FeedEngine {
	if r.engine == nil {
		r.engine = installer.New(installer.Options{
			Root: r.session.Workspace.Root(),
			Feed: r.feed,
			Hub:  r.hub,
		})
	}
	return r.engine
}

// Query returns the query engine for the active source.
func (r *Runtime) Query() *query.Engine {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.query == nil {
		opts := query.Options{
			Installer:     r.engineLocked(),
			Feed:          r.feed,
			SearchTimeout: r.session.SearchTimeout,
			Hub:           r.hub,
		}
		if r.source != nil {
			opts.Source = *r.source
		}
		r.query = query.New(opts)
	}
	return r.query
}
