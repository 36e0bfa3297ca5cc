package command

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conn-castle/package-console/internal/config"
	"github.com/conn-castle/package-console/internal/conflict"
	"github.com/conn-castle/package-console/internal/events"
	"github.com/conn-castle/package-console/internal/feed"
	"github.com/conn-castle/package-console/internal/scripts"
	"github.com/conn-castle/package-console/internal/sources"
	"github.com/conn-castle/package-console/internal/testutil"
	"github.com/conn-castle/package-console/internal/workspace"
)

type recordingCommand struct {
	Base
	calls []string
	begin func(rt *Runtime) error
	run   func(ctx context.Context, rt *Runtime) error
	end   func(rt *Runtime) error
}

func (c *recordingCommand) Begin(_ context.Context, rt *Runtime) error {
	c.calls = append(c.calls, "begin")
	if c.begin != nil {
		return c.begin(rt)
	}
	return nil
}

func (c *recordingCommand) Run(ctx context.Context, rt *Runtime) error {
	c.calls = append(c.calls, "run")
	if c.run != nil {
		return c.run(ctx, rt)
	}
	return nil
}

func (c *recordingCommand) End(_ context.Context, rt *Runtime) error {
	c.calls = append(c.calls, "end")
	if c.end != nil {
		return c.end(rt)
	}
	return nil
}

type recordingRunner struct {
	mu   sync.Mutex
	ran  []string
	fail map[string]error
}

func (r *recordingRunner) Run(_ context.Context, script scripts.Script) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ran = append(r.ran, script.Path)
	return r.fail[script.Path]
}

type openWorkspace struct {
	workspace.ClosedManager
	root     string
	projects []*workspace.Project
}

func (w openWorkspace) IsOpen() bool { return true }
func (w openWorkspace) Root() string { return w.root }
func (w openWorkspace) Projects() []*workspace.Project { return w.projects }
func (w openWorkspace) DefaultProject() (*workspace.Project, bool) {
	if len(w.projects) == 0 {
		return nil, false
	}
	return w.projects[0], true
}
func (w openWorkspace) ProjectByName(name string) (*workspace.Project, bool) {
	for _, p := range w.projects {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

func newRuntime(t *testing.T, ui *testutil.RecordingUI, mutate ...func(*Session)) *Runtime {
	t.Helper()
	session := &Session{UI: ui, Sources: sources.NewConfigProvider(nil)}
	for _, fn := range mutate {
		fn(session)
	}
	rt, err := New(session)
	require.NoError(t, err)
	return rt
}

func TestExecuteRunsLifecycleInOrder(t *testing.T) {
	ui := &testutil.RecordingUI{}
	rt := newRuntime(t, ui)
	var executingDuringRun bool
	cmd := &recordingCommand{run: func(_ context.Context, rt *Runtime) error {
		executingDuringRun = rt.IsExecuting()
		assert.Equal(t, 1, rt.Hub().Logs.Count())
		return nil
	}}

	require.NoError(t, rt.Execute(context.Background(), cmd))
	assert.Equal(t, []string{"begin", "run", "end"}, cmd.calls)
	assert.True(t, executingDuringRun)
	assert.False(t, rt.IsExecuting())
	assert.Zero(t, rt.Hub().Logs.Count())
	assert.True(t, rt.Relay().IsComplete())
}

func TestExecuteOnlyOnce(t *testing.T) {
	rt := newRuntime(t, &testutil.RecordingUI{})
	require.NoError(t, rt.Execute(context.Background(), &recordingCommand{}))
	err := rt.Execute(context.Background(), &recordingCommand{})
	assert.ErrorIs(t, err, ErrAlreadyExecuted)

	assert.Error(t, newRuntime(t, &testutil.RecordingUI{}).Execute(context.Background(), nil))
}

func TestExecuteUnwrapsRunErrorToInnermostCause(t *testing.T) {
	rt := newRuntime(t, &testutil.RecordingUI{})
	root := errors.New("disk full")
	cmd := &recordingCommand{run: func(context.Context, *Runtime) error {
		return fmt.Errorf("install: %w", fmt.Errorf("write file: %w", root))
	}}

	err := rt.Execute(context.Background(), cmd)
	he, ok := AsHostError(err)
	require.True(t, ok)
	assert.Same(t, root, he.Err)
	assert.Equal(t, "disk full", he.Error())
	assert.Equal(t, "install: write file: disk full", he.Detail)
	assert.Equal(t, ErrorIDCommandFailed, he.ID)
	assert.True(t, he.Terminating)
	assert.Equal(t, []string{"begin", "run"}, cmd.calls)
	assert.False(t, rt.IsExecuting())
	assert.Zero(t, rt.Hub().Logs.Count())
}

func TestExecuteRecoversPanics(t *testing.T) {
	rt := newRuntime(t, &testutil.RecordingUI{})
	cmd := &recordingCommand{run: func(context.Context, *Runtime) error {
		panic("boom")
	}}

	err := rt.Execute(context.Background(), cmd)
	he, ok := AsHostError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorIDCommandPanicked, he.ID)
	assert.Contains(t, he.Error(), "boom")
	assert.False(t, rt.IsExecuting())
	assert.Zero(t, rt.Hub().Logs.Count())
}

func TestExecuteBeginFailureSkipsRunAndEnd(t *testing.T) {
	rt := newRuntime(t, &testutil.RecordingUI{})
	cmd := &recordingCommand{begin: func(rt *Runtime) error { return rt.CheckWorkspaceOpen() }}

	err := rt.Execute(context.Background(), cmd)
	he, ok := AsHostError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorIDNoActiveWorkspace, he.ID)
	assert.Equal(t, CategoryInvalidOperation, he.Category)
	assert.Equal(t, []string{"begin"}, cmd.calls)
}

func TestExecuteRunsScriptsInOrderAfterRun(t *testing.T) {
	runner := &recordingRunner{}
	ui := &testutil.RecordingUI{}
	rt := newRuntime(t, ui, func(s *Session) { s.Scripts = runner })
	cmd := &recordingCommand{
		run: func(_ context.Context, rt *Runtime) error {
			rt.EnqueueScript(scripts.Script{Path: "a.sh"})
			rt.EnqueueScript(scripts.Script{Path: "b.sh"})
			return nil
		},
		end: func(*Runtime) error {
			assert.Equal(t, []string{"a.sh", "b.sh"}, runner.ran)
			return nil
		},
	}

	require.NoError(t, rt.Execute(context.Background(), cmd))
	assert.Equal(t, []string{"begin", "run", "end"}, cmd.calls)
	assert.Len(t, ui.Messages("verbose"), 3)
}

func TestExecuteScriptFailureIsTerminating(t *testing.T) {
	scriptErr := errors.New("exit status 2")
	runner := &recordingRunner{fail: map[string]error{"a.sh": scriptErr}}
	rt := newRuntime(t, &testutil.RecordingUI{}, func(s *Session) { s.Scripts = runner })
	cmd := &recordingCommand{run: func(_ context.Context, rt *Runtime) error {
		rt.EnqueueScript(scripts.Script{Path: "a.sh"})
		rt.EnqueueScript(scripts.Script{Path: "b.sh"})
		return nil
	}}

	err := rt.Execute(context.Background(), cmd)
	assert.ErrorIs(t, err, scriptErr)
	assert.Equal(t, []string{"a.sh"}, runner.ran)
	assert.Equal(t, []string{"begin", "run"}, cmd.calls)
}

func TestExecuteScriptsSkippedWhenRunFails(t *testing.T) {
	runner := &recordingRunner{}
	rt := newRuntime(t, &testutil.RecordingUI{}, func(s *Session) { s.Scripts = runner })
	cmd := &recordingCommand{run: func(_ context.Context, rt *Runtime) error {
		rt.EnqueueScript(scripts.Script{Path: "a.sh"})
		return errors.New("failed")
	}}
	require.Error(t, rt.Execute(context.Background(), cmd))
	assert.Empty(t, runner.ran)
}

func TestExecuteQueuedScriptWithoutRunner(t *testing.T) {
	rt := newRuntime(t, &testutil.RecordingUI{})
	cmd := &recordingCommand{run: func(_ context.Context, rt *Runtime) error {
		rt.EnqueueScript(scripts.Script{Path: "a.sh"})
		return nil
	}}
	err := rt.Execute(context.Background(), cmd)
	assert.ErrorContains(t, err, "no script runner")
}

func TestStopDetachesAndSkipsScripts(t *testing.T) {
	runner := &recordingRunner{}
	ui := &testutil.RecordingUI{}
	rt := newRuntime(t, ui, func(s *Session) { s.Scripts = runner })
	cmd := &recordingCommand{run: func(_ context.Context, rt *Runtime) error {
		rt.EnqueueScript(scripts.Script{Path: "a.sh"})
		rt.Stop()
		rt.Stop()
		assert.False(t, rt.IsExecuting())
		assert.Zero(t, rt.Hub().Logs.Count())
		rt.Hub().Log(events.LevelInfo, "dropped after stop")
		return nil
	}}

	require.NoError(t, rt.Execute(context.Background(), cmd))
	assert.Empty(t, runner.ran)
	assert.Equal(t, []string{"begin", "run", "end"}, cmd.calls)
	assert.Equal(t, []string{"Command stopped by host."}, ui.Messages("verbose"))
	assert.Empty(t, ui.Messages("info"))
}

func TestRunBackgroundDeliversEventsAndConflicts(t *testing.T) {
	ui := &testutil.RecordingUI{Answers: []int{1}}
	rt := newRuntime(t, ui)
	var actions []conflict.Action
	cmd := &recordingCommand{run: func(ctx context.Context, rt *Runtime) error {
		return rt.RunBackground(ctx, func(ctx context.Context) error {
			rt.Hub().Log(events.LevelInfo, "installing")
			rt.Hub().ReportProgress(rt.NextActivityID(), "copy", 50)
			for _, name := range []string{"a", "b"} {
				action, err := rt.ResolveFileConflict(ctx, name)
				if err != nil {
					return err
				}
				actions = append(actions, action)
			}
			rt.Log(events.LevelWarning, "done with %d files", 2)
			return nil
		})
	}}

	require.NoError(t, rt.Execute(context.Background(), cmd))
	assert.Equal(t, []conflict.Action{conflict.OverwriteAll, conflict.OverwriteAll}, actions)
	assert.Equal(t, 1, ui.PromptCount())
	assert.Equal(t, []string{"installing"}, ui.Messages("info"))
	assert.Equal(t, []string{"done with 2 files"}, ui.Messages("warning"))
	assert.NotEmpty(t, ui.Progress)
}

func TestRunBackgroundPropagatesErrorsAndPanics(t *testing.T) {
	rt := newRuntime(t, &testutil.RecordingUI{})
	boom := errors.New("background failed")
	require.ErrorIs(t, rt.RunBackground(context.Background(), func(context.Context) error { return boom }), boom)
	require.NoError(t, rt.RunBackground(context.Background(), func(context.Context) error { return nil }))

	rt = newRuntime(t, &testutil.RecordingUI{})
	err := rt.RunBackground(context.Background(), func(context.Context) error { panic("kaboom") })
	he, ok := AsHostError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorIDCommandPanicked, he.ID)
}

func TestLogFromCommandGoroutineNeverBlocks(t *testing.T) {
	ui := &testutil.RecordingUI{}
	rt := newRuntime(t, ui, func(s *Session) { s.RelayBuffer = 4 })
	cmd := &recordingCommand{run: func(_ context.Context, rt *Runtime) error {
		for i := 0; i < 10; i++ {
			rt.Log(events.LevelInfo, "line %d", i)
		}
		return nil
	}}

	result := make(chan error, 1)
	go func() { result <- rt.Execute(context.Background(), cmd) }()
	select {
	case err := <-result:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Execute blocked logging past the relay buffer")
	}
	got := ui.Messages("info")
	require.Len(t, got, 10)
	assert.Equal(t, "line 0", got[0])
	assert.Equal(t, "line 9", got[9])
}

func TestLogsAfterRunBackgroundAreDelivered(t *testing.T) {
	ui := &testutil.RecordingUI{}
	rt := newRuntime(t, ui)
	var afterFirst []string
	cmd := &recordingCommand{
		run: func(ctx context.Context, rt *Runtime) error {
			err := rt.RunBackground(ctx, func(context.Context) error {
				rt.Log(events.LevelInfo, "inside")
				return nil
			})
			if err != nil {
				return err
			}
			afterFirst = ui.Messages("info")
			rt.Log(events.LevelInfo, "after background")
			return rt.RunBackground(ctx, func(context.Context) error {
				rt.Hub().Log(events.LevelInfo, "second background")
				return nil
			})
		},
		end: func(rt *Runtime) error {
			rt.Log(events.LevelInfo, "from end")
			return nil
		},
	}

	require.NoError(t, rt.Execute(context.Background(), cmd))
	assert.Equal(t, []string{"inside"}, afterFirst)
	assert.Equal(t, []string{"inside", "after background", "second background", "from end"}, ui.Messages("info"))
}

func TestConflictPolicyResetsAfterExecute(t *testing.T) {
	ui := &testutil.RecordingUI{Answers: []int{3}}
	rt := newRuntime(t, ui)
	cmd := &recordingCommand{run: func(ctx context.Context, rt *Runtime) error {
		return rt.RunBackground(ctx, func(ctx context.Context) error {
			_, err := rt.ResolveFileConflict(ctx, "a")
			return err
		})
	}}
	require.NoError(t, rt.Execute(context.Background(), cmd))
	action, err := rt.policy.Resolve("b")
	require.NoError(t, err)
	assert.Equal(t, conflict.Ignore, action)
	assert.Equal(t, 2, ui.PromptCount())
}

func TestSetConflictActionOverridesPrompt(t *testing.T) {
	ui := &testutil.RecordingUI{}
	rt := newRuntime(t, ui)
	rt.SetConflictAction(conflict.FixedMode(conflict.Overwrite))
	action, err := rt.policy.Resolve("x")
	require.NoError(t, err)
	assert.Equal(t, conflict.Overwrite, action)
	assert.Zero(t, ui.PromptCount())
}

func TestResolveActiveSource(t *testing.T) {
	cfg := &config.Config{Sources: []config.Source{{Name: "main", URI: "https://main.example"}}}
	var opened []sources.Source
	ui := &testutil.RecordingUI{}
	rt := newRuntime(t, ui, func(s *Session) {
		s.Sources = sources.NewConfigProvider(cfg)
		s.OpenFeed = func(src sources.Source) (feed.Client, error) {
			opened = append(opened, src)
			return feed.NewDirClient(t.TempDir()), nil
		}
	})

	_, ok := rt.ActiveSource()
	assert.False(t, ok)

	src, err := rt.ResolveActiveSource("")
	require.NoError(t, err)
	assert.Equal(t, "main", src.Name)
	active, ok := rt.ActiveSource()
	require.True(t, ok)
	assert.Equal(t, "main", active.Name)

	src, err = rt.ResolveActiveSource("/srv/feed")
	require.NoError(t, err)
	assert.True(t, src.AdHoc)
	assert.Len(t, opened, 2)
	assert.Len(t, ui.Messages("verbose"), 1)

	_, err = newRuntime(t, ui).ResolveActiveSource("")
	assert.ErrorIs(t, err, sources.ErrNoSources)
}

func TestProjectResolution(t *testing.T) {
	app := &workspace.Project{Name: "App"}
	api := &workspace.Project{Name: "Api"}
	rt := newRuntime(t, &testutil.RecordingUI{}, func(s *Session) {
		s.Workspace = openWorkspace{root: "/ws", projects: []*workspace.Project{app, api}}
	})

	require.NoError(t, rt.CheckWorkspaceOpen())
	p, err := rt.RequireProject("")
	require.NoError(t, err)
	assert.Same(t, app, p)

	_, err = rt.RequireProject("Nope")
	he, ok := AsHostError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorIDProjectNotFound, he.ID)
	assert.Equal(t, "Project 'Nope' is not found.", he.Error())

	all, err := rt.Projects("")
	require.NoError(t, err)
	assert.Len(t, all, 2)
	one, err := rt.Projects("Api")
	require.NoError(t, err)
	assert.Equal(t, []*workspace.Project{api}, one)

	empty := newRuntime(t, &testutil.RecordingUI{}, func(s *Session) { s.Workspace = openWorkspace{root: "/ws"} })
	_, err = empty.RequireProject("")
	he, ok = AsHostError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorIDNoCompatibleProject, he.ID)
	_, err = empty.Projects("")
	assert.Error(t, err)

	closed := newRuntime(t, &testutil.RecordingUI{})
	_, err = closed.Projects("")
	he, ok = AsHostError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorIDNoActiveWorkspace, he.ID)
}

func TestNewValidatesSession(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
	_, err = New(&Session{})
	assert.ErrorContains(t, err, "host UI")
}

func TestNewSessionFromConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.Console.ConflictAction = "ignore-all"
	cfg.Console.SearchTimeout = "5s"
	cfg.Console.SyncMode = true
	cfg.Console.DefaultSource = "main"

	session, err := NewSession(cfg, &testutil.RecordingUI{}, nil)
	require.NoError(t, err)
	action, ok := session.ConflictMode.Action()
	require.True(t, ok)
	assert.Equal(t, conflict.IgnoreAll, action)
	assert.Equal(t, "5s", session.SearchTimeout.String())
	assert.True(t, session.SyncMode)
	assert.Equal(t, "main", session.DefaultSource)
	assert.Equal(t, config.DefaultRelayBuffer, session.RelayBuffer)

	cfg.Console.ConflictAction = "maybe"
	_, err = NewSession(cfg, &testutil.RecordingUI{}, nil)
	assert.Error(t, err)
}

func TestInnermost(t *testing.T) {
	base := errors.New("base")
	assert.Same(t, base, Innermost(fmt.Errorf("a: %w", fmt.Errorf("b: %w", base))))
	assert.Nil(t, Innermost(nil))

	joined := errors.Join(errors.New("x"), errors.New("y"))
	assert.Equal(t, joined, Innermost(joined))
}

func TestEngineUsesWorkspaceRoot(t *testing.T) {
	root := t.TempDir()
	projectDir := filepath.Join(root, "App")
	require.NoError(t, os.MkdirAll(projectDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, "packages.toml"), []byte("[[package]]\nid = \"Foo\"\nversion = \"1.0.0\"\n"), 0o644))

	app := &workspace.Project{Name: "App", Dir: projectDir}
	rt := newRuntime(t, &testutil.RecordingUI{}, func(s *Session) {
		s.Workspace = openWorkspace{root: root, projects: []*workspace.Project{app}}
	})
	result, err := rt.Query().ListInstalled([]*workspace.Project{app}, "", 0, 0)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "Foo@1.0.0", result[0].Packages[0].String())
	assert.Same(t, rt.Query(), rt.Query())
}
