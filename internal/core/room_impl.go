package core

import (
	"errors"
	"sort"
	"sync"

	"github.com/dkeye/Tune/internal/domain"
	"github.com/rs/zerolog/log"
)

var ErrNotMember = errors.New("not a room member")

// roomImpl is a threadsafe in-memory room.
// It never closes adapter-owned resources.
type roomImpl struct {
	id       domain.RoomID
	mu       sync.RWMutex
	playback domain.Playback
	bySID    map[SessionID]MemberSession
}

func NewRoomService(id domain.RoomID) RoomService {
	return &roomImpl{
		id:    id,
		bySID: make(map[SessionID]MemberSession),
	}
}

func (r *roomImpl) ID() domain.RoomID { return r.id }

func (r *roomImpl) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bySID)
}

func (r *roomImpl) MembersSnapshot() []domain.Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.members()
}

func (r *roomImpl) Snapshot() RoomSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot()
}

func (r *roomImpl) Apply(fn func(tx RoomTx)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(roomTx{r})
}

// members lists participants in join order; ties break on connection id.
func (r *roomImpl) members() []domain.Participant {
	sids := make([]SessionID, 0, len(r.bySID))
	for sid := range r.bySID {
		sids = append(sids, sid)
	}
	sort.Slice(sids, func(i, j int) bool {
		a, b := r.bySID[sids[i]].Meta().JoinedAt, r.bySID[sids[j]].Meta().JoinedAt
		if !a.Equal(b) {
			return a.Before(b)
		}
		return sids[i] < sids[j]
	})
	out := make([]domain.Participant, 0, len(sids))
	for _, sid := range sids {
		out = append(out, r.bySID[sid].Participant(sid))
	}
	return out
}

func (r *roomImpl) snapshot() RoomSnapshot {
	pb := r.playback
	if pb.Track != nil {
		t := *pb.Track
		pb.Track = &t
	}
	return RoomSnapshot{
		RoomID:       r.id,
		Playback:     pb,
		Participants: r.members(),
		Queue:        []domain.Track{},
	}
}

// roomTx is handed out while r.mu is held for writing.
type roomTx struct {
	r *roomImpl
}

func (tx roomTx) ID() domain.RoomID          { return tx.r.id }
func (tx roomTx) Playback() *domain.Playback { return &tx.r.playback }
func (tx roomTx) Members() []domain.Participant {
	return tx.r.members()
}
func (tx roomTx) MemberCount() int       { return len(tx.r.bySID) }
func (tx roomTx) Snapshot() RoomSnapshot { return tx.r.snapshot() }

func (tx roomTx) Member(sid SessionID) (MemberSession, bool) {
	ms, ok := tx.r.bySID[sid]
	return ms, ok
}

func (tx roomTx) AddMember(sid SessionID, ms MemberSession) {
	tx.r.bySID[sid] = ms
	log.Info().Str("module", "core.room").Str("room", string(tx.r.id)).Str("sid", string(sid)).Msg("member added")
}

func (tx roomTx) RemoveMember(sid SessionID) (MemberSession, bool) {
	ms, ok := tx.r.bySID[sid]
	if !ok {
		return nil, false
	}
	delete(tx.r.bySID, sid)
	log.Info().Str("module", "core.room").Str("room", string(tx.r.id)).Str("sid", string(sid)).Msg("member removed")
	return ms, true
}

func (tx roomTx) Publish(except SessionID, data Frame) PublishResult {
	res := PublishResult{}
	for sid, m := range tx.r.bySID {
		if sid == except {
			continue
		}
		if err := m.Signal().TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, sid)
			continue
		}
		res.SendTo++
	}
	log.Debug().Str("module", "core.room").Str("room", string(tx.r.id)).Str("except", string(except)).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

func (tx roomTx) SendTo(sid SessionID, data Frame) error {
	ms, ok := tx.r.bySID[sid]
	if !ok {
		return ErrNotMember
	}
	return ms.Signal().TrySend(data)
}
