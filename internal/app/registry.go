package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dkeye/Tune/internal/clock"
	"github.com/dkeye/Tune/internal/core"
	"github.com/dkeye/Tune/internal/domain"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotInRoom      = errors.New("not in room")
	ErrInvalidPayload = errors.New("invalid payload")
	ErrUnknownSession = errors.New("unknown session")
)

type (
	// JoinHook runs under the joined room's lock after the member was added.
	JoinHook func(tx core.RoomTx, snap core.RoomSnapshot)
	// LeaveHook runs under the vacated room's lock after the member was removed.
	LeaveHook func(tx core.RoomTx, left domain.Participant)
	// PlaybackHook runs under the room lock right after a playback mutation.
	PlaybackHook func(tx core.RoomTx, pb domain.Playback)
)

// Departure describes a completed leave.
type Departure struct {
	RoomID      domain.RoomID
	Participant domain.Participant
	Remaining   int
	Destroyed   bool
}

type sessionEntry struct {
	RoomID domain.RoomID
	Signal core.SignalConnection
	Cancel context.CancelFunc
}

// RoomRegistry owns every room and the connection -> room mapping.
// Lock order is registry, then room. Membership changes take the registry
// write lock; playback mutations only need the read lock, so different rooms
// proceed in parallel.
type RoomRegistry struct {
	mu       sync.RWMutex
	rooms    map[domain.RoomID]core.RoomService
	sessions map[core.SessionID]*sessionEntry
	clock    clock.Clock
}

func NewRoomRegistry(c clock.Clock) *RoomRegistry {
	if c == nil {
		c = clock.System{}
	}
	return &RoomRegistry{
		rooms:    make(map[domain.RoomID]core.RoomService),
		sessions: make(map[core.SessionID]*sessionEntry),
		clock:    c,
	}
}

func (r *RoomRegistry) Clock() clock.Clock { return r.clock }

func (r *RoomRegistry) BindSession(sid core.SessionID, sig core.SignalConnection, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sid] = &sessionEntry{Signal: sig, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("bound session")
}

// Signal returns the transport of a bound connection.
func (r *RoomRegistry) Signal(sid core.SessionID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.Signal, true
	}
	return nil, false
}

func (r *RoomRegistry) Unbind(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbind session")
}

func (r *RoomRegistry) RoomOf(sid core.SessionID) (domain.RoomID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.sessions[sid]
	if !ok || entry.RoomID == "" {
		return "", false
	}
	return entry.RoomID, true
}

func (r *RoomRegistry) Cancel(sid core.SessionID) bool {
	r.mu.RLock()
	e, ok := r.sessions[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("canceled session")
	return true
}

// Join puts sid into roomID, creating the room with default state when it
// does not exist. A repeated join of the same room refreshes the participant.
// If sid is still in another room it is detached from it without notifying
// anyone; callers that want notifications call Leave first.
func (r *RoomRegistry) Join(sid core.SessionID, roomID domain.RoomID, user domain.User, hook JoinHook) (core.RoomSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.sessions[sid]
	if !ok {
		return core.RoomSnapshot{}, ErrUnknownSession
	}
	if entry.RoomID != "" && entry.RoomID != roomID {
		r.detachLocked(sid, entry, nil)
	}

	room, ok := r.rooms[roomID]
	if !ok {
		room = core.NewRoomService(roomID)
		r.rooms[roomID] = room
		log.Info().Str("module", "app.registry").Str("room", string(roomID)).Msg("room created")
	}

	ms := core.NewMemberSession(domain.NewMember(user, r.clock.Now()), entry.Signal)
	entry.RoomID = roomID

	var snap core.RoomSnapshot
	room.Apply(func(tx core.RoomTx) {
		tx.AddMember(sid, ms)
		snap = tx.Snapshot()
		if hook != nil {
			hook(tx, snap)
		}
	})
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(roomID)).Msg("joined room")
	return snap, nil
}

// Leave removes sid from its room. The room is destroyed once empty.
func (r *RoomRegistry) Leave(sid core.SessionID, hook LeaveHook) (Departure, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.sessions[sid]
	if !ok || entry.RoomID == "" {
		return Departure{}, false
	}
	return r.detachLocked(sid, entry, hook)
}

func (r *RoomRegistry) detachLocked(sid core.SessionID, entry *sessionEntry, hook LeaveHook) (Departure, bool) {
	roomID := entry.RoomID
	entry.RoomID = ""

	room, ok := r.rooms[roomID]
	if !ok {
		return Departure{}, false
	}
	dep := Departure{RoomID: roomID}
	removed := false
	room.Apply(func(tx core.RoomTx) {
		ms, ok := tx.RemoveMember(sid)
		if !ok {
			return
		}
		removed = true
		dep.Participant = ms.Participant(sid)
		dep.Remaining = tx.MemberCount()
		if hook != nil {
			hook(tx, dep.Participant)
		}
	})
	if room.MemberCount() == 0 {
		delete(r.rooms, roomID)
		dep.Destroyed = true
		log.Info().Str("module", "app.registry").Str("room", string(roomID)).Msg("room destroyed")
	}
	if !removed {
		return Departure{}, false
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(roomID)).Int("remaining", dep.Remaining).Msg("left room")
	return dep, true
}

// WithRoom runs fn under the lock of the room sid belongs to.
func (r *RoomRegistry) WithRoom(sid core.SessionID, fn func(tx core.RoomTx)) (domain.RoomID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.sessions[sid]
	if !ok || entry.RoomID == "" {
		return "", ErrNotInRoom
	}
	room, ok := r.rooms[entry.RoomID]
	if !ok {
		return "", ErrNotInRoom
	}
	room.Apply(fn)
	return entry.RoomID, nil
}

// SetTrack replaces the current track and transport state of sid's room.
func (r *RoomRegistry) SetTrack(sid core.SessionID, track domain.Track, isPlaying bool, position float64, hook PlaybackHook) (domain.RoomID, error) {
	if err := track.Validate(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	if err := domain.ValidatePosition(position); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return r.mutate(sid, hook, func(pb *domain.Playback) {
		t := track
		pb.Track = &t
		pb.IsPlaying = isPlaying
		pb.Position = position
	})
}

// SetPlaybackState changes play/pause and position, keeping the track.
func (r *RoomRegistry) SetPlaybackState(sid core.SessionID, isPlaying bool, position float64, hook PlaybackHook) (domain.RoomID, error) {
	if err := domain.ValidatePosition(position); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return r.mutate(sid, hook, func(pb *domain.Playback) {
		pb.IsPlaying = isPlaying
		pb.Position = position
	})
}

// SyncTime re-anchors the position only.
func (r *RoomRegistry) SyncTime(sid core.SessionID, position float64, hook PlaybackHook) (domain.RoomID, error) {
	if err := domain.ValidatePosition(position); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return r.mutate(sid, hook, func(pb *domain.Playback) {
		pb.Position = position
	})
}

func (r *RoomRegistry) mutate(sid core.SessionID, hook PlaybackHook, set func(pb *domain.Playback)) (domain.RoomID, error) {
	return r.WithRoom(sid, func(tx core.RoomTx) {
		pb := tx.Playback()
		set(pb)
		pb.UpdatedAt = clock.Millis(r.clock.Now())
		if hook != nil {
			hook(tx, *pb)
		}
	})
}

func (r *RoomRegistry) Snapshot(roomID domain.RoomID) (core.RoomSnapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return core.RoomSnapshot{}, false
	}
	return room.Snapshot(), true
}

// Roster lists the participants of roomID in no particular order.
func (r *RoomRegistry) Roster(roomID domain.RoomID) []domain.Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return nil
	}
	return room.MembersSnapshot()
}

func (r *RoomRegistry) Exists(roomID domain.RoomID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[roomID]
	return ok
}

func (r *RoomRegistry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

func (r *RoomRegistry) List() []core.RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.RoomInfo, 0, len(r.rooms))
	for id, room := range r.rooms {
		snap := room.Snapshot()
		info := core.RoomInfo{
			ID:          id,
			MemberCount: len(snap.Participants),
			IsPlaying:   snap.Playback.IsPlaying,
		}
		if snap.Playback.Track != nil {
			info.TrackTitle = snap.Playback.Track.Title
		}
		out = append(out, info)
	}
	return out
}
