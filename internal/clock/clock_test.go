package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEstimate(t *testing.T) {
	const ts int64 = 1_700_000_000_000

	tests := []struct {
		name      string
		position  float64
		isPlaying bool
		now       int64
		want      float64
	}{
		{name: "playing advances by elapsed seconds", position: 0, isPlaying: true, now: ts + 5000, want: 5},
		{name: "playing from offset", position: 42.5, isPlaying: true, now: ts + 1500, want: 44},
		{name: "playing with zero elapsed", position: 7, isPlaying: true, now: ts, want: 7},
		{name: "future timestamp counts as zero", position: 7, isPlaying: true, now: ts - 3000, want: 7},
		{name: "paused does not advance", position: 12.3, isPlaying: false, now: ts + 10_000, want: 12.3},
		{name: "paused ignores clock skew", position: 12.3, isPlaying: false, now: ts - 10_000, want: 12.3},
		{name: "no clamping past track end", position: 299, isPlaying: true, now: ts + 60_000, want: 359},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Estimate(tt.position, ts, tt.isPlaying, tt.now)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestEstimate_PausedIsExact(t *testing.T) {
	for _, p := range []float64{0, 0.1, 12.3, 1e6} {
		assert.Equal(t, p, Estimate(p, 1000, false, 987654321))
	}
}

func TestEstimate_PlayingMatchesElapsed(t *testing.T) {
	const ts int64 = 5_000
	for _, p := range []float64{0, 1, 33.25} {
		for _, elapsedMs := range []int64{0, 1, 999, 1000, 123_456} {
			got := Estimate(p, ts, true, ts+elapsedMs)
			assert.InDelta(t, p+float64(elapsedMs)/1000, got, 1e-9)
		}
	}
}

func TestManual(t *testing.T) {
	start := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	m := NewManual(start)
	assert.Equal(t, start, m.Now())

	m.Advance(5 * time.Second)
	assert.Equal(t, start.Add(5*time.Second), m.Now())
	assert.Equal(t, Millis(start)+5000, Millis(m.Now()))

	m.Set(start)
	assert.Equal(t, start, m.Now())
}
