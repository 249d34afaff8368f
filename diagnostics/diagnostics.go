package diagnostics

import (
	"sync"
	"time"
)

// Event is one diagnostic trace emitted by a pipeline component.
type Event struct {
	Time      time.Time      `json:"time"`
	Component string         `json:"component"`
	Name      string         `json:"name"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Diagnostics receives introspection events from the capture engine, the
// artifact gateway, the catalog and the transcription orchestrator.
type Diagnostics interface {
	Record(component, name string, fields map[string]any)
}

// Nop discards every event.
type Nop struct{}

// Record implements Diagnostics.
func (Nop) Record(string, string, map[string]any) {}

// OrNop returns d, or Nop when d is nil.
func OrNop(d Diagnostics) Diagnostics {
	if d == nil {
		return Nop{}
	}
	return d
}

// DefaultBufferSize is the ring size used when NewRecorder gets a non-positive size.
const DefaultBufferSize = 256

// Recorder keeps the most recent events in a fixed-size ring.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	next   int
	full   bool
	now    func() time.Time
}

// NewRecorder creates a Recorder holding up to size events.
func NewRecorder(size int) *Recorder {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &Recorder{events: make([]Event, size), now: time.Now}
}

// Record implements Diagnostics.
func (r *Recorder) Record(component, name string, fields map[string]any) {
	ev := Event{Time: r.now(), Component: component, Name: name}
	if len(fields) > 0 {
		ev.Fields = make(map[string]any, len(fields))
		for k, v := range fields {
			ev.Fields[k] = v
		}
	}

	r.mu.Lock()
	r.events[r.next] = ev
	r.next = (r.next + 1) % len(r.events)
	if r.next == 0 {
		r.full = true
	}
	r.mu.Unlock()
}

// Events returns the buffered events, oldest first.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.full {
		return append([]Event(nil), r.events[:r.next]...)
	}
	out := make([]Event, 0, len(r.events))
	out = append(out, r.events[r.next:]...)
	return append(out, r.events[:r.next]...)
}

// Filter returns buffered events for one component, oldest first.
func (r *Recorder) Filter(component string) []Event {
	var out []Event
	for _, ev := range r.Events() {
		if ev.Component == component {
			out = append(out, ev)
		}
	}
	return out
}

// Clear drops all buffered events.
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.events {
		r.events[i] = Event{}
	}
	r.next, r.full = 0, false
}
