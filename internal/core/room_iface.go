package core

import (
	"github.com/dkeye/Tune/internal/domain"
)

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SendTo  int
	Dropped []SessionID
}

// RoomSnapshot is a copy of a room's state; nothing in it aliases the room.
type RoomSnapshot struct {
	RoomID       domain.RoomID
	Playback     domain.Playback
	Participants []domain.Participant
	// Queue is reserved; no intent reads or writes it yet.
	Queue []domain.Track
}

// RoomTx is the view of a room handed out by RoomService.Apply. It is only
// valid inside the Apply callback.
type RoomTx interface {
	ID() domain.RoomID
	Playback() *domain.Playback
	Member(sid SessionID) (MemberSession, bool)
	Members() []domain.Participant
	MemberCount() int
	AddMember(sid SessionID, ms MemberSession)
	RemoveMember(sid SessionID) (MemberSession, bool)
	Snapshot() RoomSnapshot

	// Publish delivers data to every member except `except` ("" for none).
	Publish(except SessionID, data Frame) PublishResult
	SendTo(sid SessionID, data Frame) error
}

// RoomService is the core-facing API of a room.
// It owns the membership set but never touches transport resources.
type RoomService interface {
	ID() domain.RoomID
	MemberCount() int
	MembersSnapshot() []domain.Participant
	Snapshot() RoomSnapshot

	// Apply runs fn with exclusive access to the room. Frames published from
	// fn reach every member in the order the Apply calls ran.
	Apply(fn func(tx RoomTx))
}

type RoomInfo struct {
	ID          domain.RoomID `json:"roomId"`
	MemberCount int           `json:"participantCount"`
	IsPlaying   bool          `json:"isPlaying"`
	TrackTitle  string        `json:"trackTitle,omitempty"`
}
