// Package relay delivers log, progress, and conflict requests from background
// goroutines to the single goroutine that owns the host UI.
//
// Producers may call Log, ReportProgress, and ResolveFileConflict from any
// goroutine, the owner included. Queueing never waits for the consumer. The
// owner calls Drain, which dispatches events one at a time in the order they
// were queued until Complete has been called and the queue is empty.
package relay

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/conn-castle/package-console/internal/conflict"
	"github.com/conn-castle/package-console/internal/events"
	"github.com/conn-castle/package-console/internal/host"
	"github.com/conn-castle/package-console/internal/messages"
)

// DefaultBuffer is the initial queue capacity used when Options.Buffer is not positive.
const DefaultBuffer = 256

// ErrClosed is returned by ResolveFileConflict after Complete.
var ErrClosed = errors.New(messages.RelayClosed)

// ResolveFunc answers a file conflict on the draining goroutine.
type ResolveFunc func(message string) (conflict.Action, error)

// Options configures a Relay.
type Options struct {
	// SyncMode suppresses progress reporting.
	SyncMode bool
	// Buffer is the initial queue capacity. The queue grows past it.
	Buffer int
	// Activity labels progress records shown by the host.
	Activity string
	// Resolve answers conflict requests. Nil answers every request with Ignore.
	Resolve ResolveFunc
}

type eventKind int

const (
	kindLog eventKind = iota
	kindProgress
	kindConflict
)

type event struct {
	kind     eventKind
	log      events.LogEvent
	progress events.ProgressEvent
	conflict *conflictRequest
}

type conflictRequest struct {
	message string
	reply   chan conflictReply
}

type conflictReply struct {
	action conflict.Action
	err    error
}

// Relay is the per-command delivery queue. Create one per command.
type Relay struct {
	ui   host.UI
	opts Options

	notify   chan struct{}
	stopping chan struct{}

	mu      sync.Mutex
	pending []event
	closed  bool

	progressMu sync.Mutex
	progress   map[int]*host.ProgressRecord
}

// New creates a relay that dispatches to ui.
func New(ui host.UI, opts Options) *Relay {
	if opts.Buffer <= 0 {
		opts.Buffer = DefaultBuffer
	}
	if opts.Activity == "" {
		opts.Activity = messages.RelayDefaultActivity
	}
	return &Relay{
		ui:       ui,
		opts:     opts,
		pending:  make([]event, 0, opts.Buffer),
		notify:   make(chan struct{}, 1),
		stopping: make(chan struct{}),
		progress: make(map[int]*host.ProgressRecord),
	}
}

// Log formats the message on the calling goroutine and queues it.
// It reports false when the relay has already completed and the entry was dropped.
func (r *Relay) Log(level events.Level, format string, args ...any) bool {
	message := format
	if len(args) > 0 {
		message = fmt.Sprintf(format, args...)
	}
	return r.send(event{kind: kindLog, log: events.LogEvent{Level: level, Message: message}})
}

// ReportProgress queues a progress update for activityID. In sync mode it is a no-op.
func (r *Relay) ReportProgress(activityID int, operation string, percent int) bool {
	if r.opts.SyncMode {
		return false
	}
	return r.send(event{kind: kindProgress, progress: events.ProgressEvent{
		ActivityID: activityID,
		Operation:  operation,
		Percent:    percent,
	}})
}

// ResolveFileConflict asks the draining goroutine to resolve a conflict and waits for the answer.
func (r *Relay) ResolveFileConflict(ctx context.Context, message string) (conflict.Action, error) {
	req := &conflictRequest{message: message, reply: make(chan conflictReply, 1)}
	if !r.send(event{kind: kindConflict, conflict: req}) {
		return conflict.Ignore, ErrClosed
	}
	select {
	case reply := <-req.reply:
		return reply.action, reply.err
	case <-ctx.Done():
		return conflict.Ignore, ctx.Err()
	}
}

// Attach forwards hub events into the relay and returns a function that detaches them.
func (r *Relay) Attach(hub *events.Hub) func() {
	if hub == nil {
		return func() {}
	}
	unsubLogs := hub.Logs.Subscribe(func(e events.LogEvent) {
		r.send(event{kind: kindLog, log: e})
	})
	unsubProgress := hub.Progress.Subscribe(func(e events.ProgressEvent) {
		r.ReportProgress(e.ActivityID, e.Operation, e.Percent)
	})
	return func() {
		unsubLogs()
		unsubProgress()
	}
}

// Complete marks that no more events will be produced. It is safe to call more than once.
func (r *Relay) Complete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	close(r.stopping)
}

// IsComplete reports whether Complete has been called.
func (r *Relay) IsComplete() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Drain dispatches queued events until the relay is complete and empty.
// If ctx ends first, the events already queued are flushed and ctx.Err is returned.
func (r *Relay) Drain(ctx context.Context) error {
	if err := r.DrainUntil(ctx, r.stopping); err != nil {
		return err
	}
	r.finishProgress()
	return nil
}

// DrainUntil dispatches queued events until done is closed and the queue is empty.
// The relay stays open, so later events are picked up by the next drain.
func (r *Relay) DrainUntil(ctx context.Context, done <-chan struct{}) error {
	for {
		if e, ok := r.next(); ok {
			r.dispatch(e)
			continue
		}
		select {
		case <-done:
			if r.empty() {
				return nil
			}
		case <-r.notify:
		case <-ctx.Done():
			r.flush(ctx.Err())
			return ctx.Err()
		}
	}
}

// Progress returns the live record for activityID.
func (r *Relay) Progress(activityID int) (host.ProgressRecord, bool) {
	r.progressMu.Lock()
	defer r.progressMu.Unlock()
	rec, ok := r.progress[activityID]
	if !ok {
		return host.ProgressRecord{}, false
	}
	return *rec, true
}

// ProgressCount returns the number of distinct progress records.
func (r *Relay) ProgressCount() int {
	r.progressMu.Lock()
	defer r.progressMu.Unlock()
	return len(r.progress)
}

func (r *Relay) send(e event) bool {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return false
	}
	r.pending = append(r.pending, e)
	r.mu.Unlock()

	select {
	case r.notify <- struct{}{}:
	default:
	}
	return true
}

func (r *Relay) next() (event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.pending) == 0 {
		return event{}, false
	}
	e := r.pending[0]
	r.pending[0] = event{}
	r.pending = r.pending[1:]
	return e, true
}

func (r *Relay) empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending) == 0
}

// flush dispatches what is queued right now; the count is taken once.
func (r *Relay) flush(cause error) {
	r.mu.Lock()
	n := len(r.pending)
	r.mu.Unlock()
	for i := 0; i < n; i++ {
		e, ok := r.next()
		if !ok {
			return
		}
		if e.kind == kindConflict {
			e.conflict.reply <- conflictReply{action: conflict.Ignore, err: cause}
			continue
		}
		r.dispatch(e)
	}
}

func (r *Relay) dispatch(e event) {
	switch e.kind {
	case kindLog:
		r.writeLog(e.log)
	case kindProgress:
		r.writeProgress(e.progress)
	case kindConflict:
		r.answer(e.conflict)
	}
}

func (r *Relay) writeLog(e events.LogEvent) {
	switch e.Level {
	case events.LevelDebug:
		r.ui.WriteDebug(e.Message)
	case events.LevelVerbose:
		r.ui.WriteVerbose(e.Message)
	case events.LevelWarning:
		r.ui.WriteWarning(e.Message)
	case events.LevelError:
		r.ui.WriteError(e.Message)
	default:
		r.ui.WriteInfo(e.Message)
	}
}

func (r *Relay) writeProgress(e events.ProgressEvent) {
	r.progressMu.Lock()
	rec, ok := r.progress[e.ActivityID]
	if !ok {
		rec = &host.ProgressRecord{ActivityID: e.ActivityID, Activity: r.opts.Activity}
		r.progress[e.ActivityID] = rec
	}
	rec.Operation = e.Operation
	rec.PercentComplete = e.Percent
	rec.Completed = false
	snapshot := *rec
	r.progressMu.Unlock()

	r.ui.WriteProgress(snapshot)
}

func (r *Relay) finishProgress() {
	r.progressMu.Lock()
	ids := make([]int, 0, len(r.progress))
	for id, rec := range r.progress {
		if !rec.Completed {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	done := make([]host.ProgressRecord, 0, len(ids))
	for _, id := range ids {
		rec := r.progress[id]
		rec.Completed = true
		done = append(done, *rec)
	}
	r.progressMu.Unlock()

	for _, rec := range done {
		r.ui.WriteProgress(rec)
	}
}

func (r *Relay) answer(req *conflictRequest) {
	if r.opts.Resolve == nil {
		req.reply <- conflictReply{action: conflict.Ignore}
		return
	}
	action, err := r.opts.Resolve(req.message)
	req.reply <- conflictReply{action: action, err: err}
}
