// Package events carries log and progress notifications from background work to subscribers.
package events

import "sync"

// Level is the severity of a log event.
type Level int

// Log levels, lowest severity first.
const (
	LevelDebug Level = iota
	LevelVerbose
	LevelInfo
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelVerbose:
		return "verbose"
	case LevelInfo:
		return "info"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// LogEvent is a formatted message produced by background work.
type LogEvent struct {
	Level   Level
	Message string
}

// ProgressEvent reports progress for one activity.
type ProgressEvent struct {
	ActivityID int
	Operation  string
	Percent    int
}

// Handler receives published events.
type Handler[T any] func(T)

// Bus delivers events of one type to registered handlers.
type Bus[T any] struct {
	mu       sync.RWMutex
	handlers map[int]Handler[T]
	nextID   int
}

// NewBus creates an empty bus.
func NewBus[T any]() *Bus[T] {
	return &Bus[T]{handlers: make(map[int]Handler[T])}
}

// Subscribe registers handler and returns an idempotent unsubscribe function.
func (b *Bus[T]) Subscribe(handler Handler[T]) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = handler
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers, id)
			b.mu.Unlock()
		})
	}
}

// Publish calls every handler on the calling goroutine.
func (b *Bus[T]) Publish(event T) {
	b.mu.RLock()
	snapshot := make([]Handler[T], 0, len(b.handlers))
	for _, h := range b.handlers {
		snapshot = append(snapshot, h)
	}
	b.mu.RUnlock()

	for _, h := range snapshot {
		h(event)
	}
}

// Count returns the number of registered handlers.
func (b *Bus[T]) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}

// Hub groups the buses background operations publish to.
type Hub struct {
	Logs     *Bus[LogEvent]
	Progress *Bus[ProgressEvent]
}

// NewHub creates a hub with empty buses.
func NewHub() *Hub {
	return &Hub{
		Logs:     NewBus[LogEvent](),
		Progress: NewBus[ProgressEvent](),
	}
}

// Log publishes a log event; a nil hub discards it.
func (h *Hub) Log(level Level, message string) {
	if h == nil {
		return
	}
	h.Logs.Publish(LogEvent{Level: level, Message: message})
}

// ReportProgress publishes a progress event; a nil hub discards it.
func (h *Hub) ReportProgress(activityID int, operation string, percent int) {
	if h == nil {
		return
	}
	h.Progress.Publish(ProgressEvent{ActivityID: activityID, Operation: operation, Percent: percent})
}
