// Package clock holds the playback position estimator shared by the server
// and its clients, plus the time sources the server reads from.
package clock

import (
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
}

// System reads the wall clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Manual is a Clock that only moves when told to.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}

// Millis is the server timestamp format carried on the wire.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}

// Estimate returns the playback position at now, given the authoritative
// position recorded at serverTimestamp. Paused content does not advance and
// a timestamp from the future counts as zero elapsed time. The result is not
// clamped to the track duration.
func Estimate(position float64, serverTimestamp int64, isPlaying bool, now int64) float64 {
	if !isPlaying {
		return position
	}
	elapsed := now - serverTimestamp
	if elapsed < 0 {
		elapsed = 0
	}
	return position + float64(elapsed)/1000
}
