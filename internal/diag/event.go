// Package diag carries per-row diagnostics of a linkage run as structured
// events, so the same stream can feed the console, an audit table or a test.
package diag

import (
	"sync"
)

// Kind names the condition an event reports.
type Kind string

const (
	KindMissingName      Kind = "missing_name"
	KindAnchorUnparsable Kind = "anchor_unparsable"
	KindNoCandidates     Kind = "no_candidates"
	KindLowSimilarity    Kind = "low_similarity"
	KindNameMatched      Kind = "name_matched"
	KindCommunityMatched Kind = "community_matched"
	KindStageCompleted   Kind = "stage_completed"
)

// Severity orders events for sinks that filter or map onto log levels.
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarn
)

func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityWarn:
		return "warn"
	default:
		return "info"
	}
}

// Event is one diagnostic about a base row, a recovered row or a stage.
type Event struct {
	RunID      string
	Stage      string
	BaseTable  string
	OtherTable string

	Kind     Kind
	Severity Severity
	Message  string

	Row       int // 1-based base row; 0 when not tied to a base row
	BaseID    string
	BaseName  string
	OtherID   string
	OtherName string
	Score     int
	HasScore  bool
}

// Sink consumes events. Emit is called synchronously from the matching loop.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// Multi fans an event out to every sink in order.
type Multi []Sink

func (m Multi) Emit(e Event) {
	for _, s := range m {
		s.Emit(e)
	}
}

// WithRunID stamps runID on every event before passing it to next.
func WithRunID(next Sink, runID string) Sink {
	return SinkFunc(func(e Event) {
		e.RunID = runID
		next.Emit(e)
	})
}

// Recorder keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// OfKind returns the recorded events of kind k.
func (r *Recorder) OfKind(k Kind) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}
