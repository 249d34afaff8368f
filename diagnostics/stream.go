package diagnostics

import (
	"encoding/json"
	"time"

	"github.com/kbukum/audiopen/sse"
)

// Stream publishes each event as JSON on a broadcaster, using the
// component name as the topic.
type Stream struct {
	b   sse.Broadcaster
	now func() time.Time
}

// NewStream creates a Stream publishing on b.
func NewStream(b sse.Broadcaster) *Stream {
	return &Stream{b: b, now: time.Now}
}

// Record implements Diagnostics. Events that cannot be encoded are dropped.
func (s *Stream) Record(component, name string, fields map[string]any) {
	data, err := json.Marshal(Event{Time: s.now(), Component: component, Name: name, Fields: fields})
	if err != nil {
		return
	}
	s.b.Broadcast(component, data)
}

type tee []Diagnostics

func (t tee) Record(component, name string, fields map[string]any) {
	for _, d := range t {
		d.Record(component, name, fields)
	}
}

// Tee returns a Diagnostics that forwards every event to each non-nil d.
func Tee(ds ...Diagnostics) Diagnostics {
	var out tee
	for _, d := range ds {
		if d != nil {
			out = append(out, d)
		}
	}
	switch len(out) {
	case 0:
		return Nop{}
	case 1:
		return out[0]
	}
	return out
}
