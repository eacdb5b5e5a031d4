package log

import (
	"fmt"
	"io"
	"slices"
	"sync"

	"go.uber.org/zap"
)

// EventLogger is the interface for logging match events.
type EventLogger interface {
	Log(event GameEvent)
	Events() []GameEvent
}

// --- MemoryLogger: stores events in memory for test assertions ---

type MemoryLogger struct {
	mu     sync.Mutex
	events []GameEvent
	seq    int
	limit  int // keep only the newest limit events; 0 keeps all
}

func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{}
}

// NewBoundedMemoryLogger keeps only the newest limit events.
func NewBoundedMemoryLogger(limit int) *MemoryLogger {
	return &MemoryLogger{limit: limit}
}

func (l *MemoryLogger) Log(event GameEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	event.Seq = l.seq
	l.events = append(l.events, event)
	if l.limit > 0 && len(l.events) > l.limit {
		l.events = slices.Delete(l.events, 0, len(l.events)-l.limit)
	}
}

func (l *MemoryLogger) Events() []GameEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]GameEvent, len(l.events))
	copy(out, l.events)
	return out
}

// EventsOfType returns all events matching the given type.
func (l *MemoryLogger) EventsOfType(t EventType) []GameEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	var result []GameEvent
	for _, e := range l.events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// LastEvent returns the most recent event, or a zero event if none.
func (l *MemoryLogger) LastEvent() GameEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.events) == 0 {
		return GameEvent{}
	}
	return l.events[len(l.events)-1]
}

// StreamRetention bounds the history kept by the streaming loggers of a
// long-running server.
const StreamRetention = 256

// --- TextLogger: writes human-readable lines to an io.Writer ---

type TextLogger struct {
	MemoryLogger
	w io.Writer
}

func NewTextLogger(w io.Writer) *TextLogger {
	return &TextLogger{MemoryLogger: MemoryLogger{limit: StreamRetention}, w: w}
}

func (l *TextLogger) Log(event GameEvent) {
	l.MemoryLogger.Log(event)
	fmt.Fprintln(l.w, FormatEvent(event))
}

// --- ZapLogger: forwards events to a structured logger ---

type ZapLogger struct {
	MemoryLogger
	z *zap.Logger
}

func NewZapLogger(z *zap.Logger) *ZapLogger {
	return &ZapLogger{MemoryLogger: MemoryLogger{limit: StreamRetention}, z: z}
}

func (l *ZapLogger) Log(event GameEvent) {
	l.MemoryLogger.Log(event)
	l.z.Debug(event.Details,
		zap.String("match", event.Match),
		zap.Int("turn", event.Turn),
		zap.String("side", event.Side),
		zap.Stringer("event", event.Type),
		zap.String("card", event.Card),
		zap.Int("amount", event.Amount),
	)
}

// Discard drops every event.
type Discard struct{}

func (Discard) Log(GameEvent)       {}
func (Discard) Events() []GameEvent { return nil }

// --- Formatting ---

// FormatEvent formats a single event as a human-readable line.
func FormatEvent(e GameEvent) string {
	side := e.Side
	for len(side) < 5 {
		side += " "
	}
	return fmt.Sprintf("T%-2d %s| %s", e.Turn, side, e.Details)
}
