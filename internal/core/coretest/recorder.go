// Package coretest provides in-memory SignalConnection doubles.
package coretest

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/dkeye/Tune/internal/core"
)

var ErrFull = errors.New("recorder full")

// Event is a decoded outbound frame.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Recorder captures every frame sent to it. When Limit is positive, sends
// beyond Limit fail like a saturated connection would.
type Recorder struct {
	Limit int

	mu     sync.Mutex
	frames []core.Frame
	closed bool
}

func (r *Recorder) TrySend(f core.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return errors.New("connection closed")
	}
	if r.Limit > 0 && len(r.frames) >= r.Limit {
		return ErrFull
	}
	r.frames = append(r.frames, append(core.Frame(nil), f...))
	return nil
}

func (r *Recorder) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}

func (r *Recorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, 0, len(r.frames))
	for _, f := range r.frames {
		var e Event
		if err := json.Unmarshal(f, &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out
}

// OfType returns the payloads of every event named typ, in arrival order.
func (r *Recorder) OfType(typ string) []json.RawMessage {
	var out []json.RawMessage
	for _, e := range r.Events() {
		if e.Type == typ {
			out = append(out, e.Payload)
		}
	}
	return out
}

func (r *Recorder) Types() []string {
	events := r.Events()
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.frames = nil
	r.mu.Unlock()
}
