package domain

import (
	"errors"
	"math"
)

var ErrTrackInvalid = errors.New("invalid track")

type TrackID string

// Track describes what a room is listening to. Audio is fetched by the
// clients from AudioURL; the server never touches it.
type Track struct {
	ID         TrackID `json:"id"`
	Title      string  `json:"title"`
	Artist     string  `json:"artist"`
	Duration   float64 `json:"duration"`
	ArtworkURL string  `json:"artworkUrl,omitempty"`
	AudioURL   string  `json:"audioUrl,omitempty"`
}

func (t Track) Validate() error {
	if t.ID == "" {
		return ErrTrackInvalid
	}
	if t.Duration < 0 || math.IsNaN(t.Duration) || math.IsInf(t.Duration, 0) {
		return ErrTrackInvalid
	}
	return nil
}
