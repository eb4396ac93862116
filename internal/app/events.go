package app

import (
	"github.com/dkeye/Tune/internal/core"
	"github.com/dkeye/Tune/internal/domain"
)

// Outbound event names.
const (
	EventRoomState            = "room-state"
	EventSongChanged          = "song-changed"
	EventPlaybackStateChanged = "playback-state-changed"
	EventTimeSynced           = "time-synced"
	EventTimeSyncResponse     = "time-sync-response"
	EventParticipantsUpdated  = "participants-updated"
	EventUserJoined           = "user-joined"
	EventUserLeft             = "user-left"
	EventNewMessage           = "new-message"
	EventPong                 = "pong"
)

type RoomStatePayload struct {
	RoomID         domain.RoomID        `json:"roomId"`
	CurrentSong    *domain.Track        `json:"currentSong"`
	IsPlaying      bool                 `json:"isPlaying"`
	CurrentTime    float64              `json:"currentTime"`
	LastUpdateTime int64                `json:"lastUpdateTime"`
	Participants   []domain.Participant `json:"participants"`
	Queue          []domain.Track       `json:"queue"`
	Timestamp      int64                `json:"timestamp"`
}

// NewRoomStatePayload carries the authoritative position as stored; clients
// estimate from LastUpdateTime.
func NewRoomStatePayload(snap core.RoomSnapshot, now int64) RoomStatePayload {
	return RoomStatePayload{
		RoomID:         snap.RoomID,
		CurrentSong:    snap.Playback.Track,
		IsPlaying:      snap.Playback.IsPlaying,
		CurrentTime:    snap.Playback.Position,
		LastUpdateTime: snap.Playback.UpdatedAt,
		Participants:   snap.Participants,
		Queue:          snap.Queue,
		Timestamp:      now,
	}
}

type SongChangedPayload struct {
	Song        *domain.Track `json:"song"`
	IsPlaying   bool          `json:"isPlaying"`
	CurrentTime float64       `json:"currentTime"`
	Timestamp   int64         `json:"timestamp"`
}

type PlaybackStatePayload struct {
	IsPlaying   bool    `json:"isPlaying"`
	CurrentTime float64 `json:"currentTime"`
	Timestamp   int64   `json:"timestamp"`
}

type TimeSyncedPayload struct {
	CurrentTime float64 `json:"currentTime"`
	Timestamp   int64   `json:"timestamp"`
}

type TimeSyncResponsePayload struct {
	CurrentTime float64 `json:"currentTime"`
	IsPlaying   bool    `json:"isPlaying"`
	Timestamp   int64   `json:"timestamp"`
}

type ParticipantsPayload struct {
	Participants []domain.Participant `json:"participants"`
	Count        int                  `json:"count"`
}

type PresencePayload struct {
	User             domain.Participant `json:"user"`
	ParticipantCount int                `json:"participantCount"`
}

type PongPayload struct {
	ClientTime int64 `json:"clientTime"`
	ServerTime int64 `json:"serverTime"`
}
