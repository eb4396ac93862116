package domain

import (
	"errors"
	"math"
	"strings"
	"unicode"

	"github.com/dkeye/Tune/internal/clock"
)

const MaxRoomIDLen = 64

var (
	ErrRoomIDInvalid   = errors.New("invalid room id")
	ErrPositionInvalid = errors.New("invalid position")
)

type RoomID string

func ParseRoomID(raw string) (RoomID, error) {
	s := strings.TrimSpace(raw)
	if s == "" || len(s) > MaxRoomIDLen {
		return "", ErrRoomIDInvalid
	}
	if strings.IndexFunc(s, unicode.IsSpace) >= 0 {
		return "", ErrRoomIDInvalid
	}
	return RoomID(s), nil
}

// Playback is the authoritative transport state of a room. Position is only
// meaningful together with UpdatedAt (server milliseconds).
type Playback struct {
	Track     *Track
	IsPlaying bool
	Position  float64
	UpdatedAt int64
}

func (p Playback) PositionAt(now int64) float64 {
	return clock.Estimate(p.Position, p.UpdatedAt, p.IsPlaying, now)
}

func ValidatePosition(pos float64) error {
	if pos < 0 || math.IsNaN(pos) || math.IsInf(pos, 0) {
		return ErrPositionInvalid
	}
	return nil
}
