package orch

import (
	"fmt"

	"github.com/dkeye/Tune/internal/app"
	"github.com/dkeye/Tune/internal/clock"
	"github.com/dkeye/Tune/internal/core"
	"github.com/dkeye/Tune/internal/domain"
	"github.com/rs/zerolog/log"
)

// Join puts sid in rawRoom, creating the room if needed. A connection that is
// in another room leaves it first, with the usual notifications.
func (o *Orchestrator) Join(sid core.SessionID, rawRoom string, user domain.User) error {
	roomID, err := domain.ParseRoomID(rawRoom)
	if err != nil {
		return fmt.Errorf("%w: %w", app.ErrInvalidPayload, err)
	}
	if from, ok := o.Rooms.RoomOf(sid); ok && from != roomID {
		o.Leave(sid)
		log.Info().Str("module", "orch").Str("sid", string(sid)).Str("from_room", string(from)).Msg("left room to switch")
	}

	var dropped []core.SessionID
	_, err = o.Rooms.Join(sid, roomID, user, func(tx core.RoomTx, snap core.RoomSnapshot) {
		now := clock.Millis(o.now())
		if err := o.Router.ToMember(tx, sid, app.EventRoomState, app.NewRoomStatePayload(snap, now)); err != nil {
			dropped = append(dropped, sid)
		}

		me, _ := tx.Member(sid)
		count := len(snap.Participants)
		roster := app.ParticipantsPayload{Participants: snap.Participants, Count: count}
		res := o.Router.ToRoomExceptSender(tx, sid, app.EventParticipantsUpdated, roster)
		dropped = append(dropped, res.Dropped...)
		res = o.Router.ToRoomExceptSender(tx, sid, app.EventUserJoined, app.PresencePayload{
			User:             me.Participant(sid),
			ParticipantCount: count,
		})
		dropped = append(dropped, res.Dropped...)
	})
	if err != nil {
		return err
	}
	o.Metrics.SetRooms(o.Rooms.RoomCount())
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(roomID)).Str("user", string(user.ID)).Msg("join")
	o.handleDropped(roomID, dropped)
	return nil
}

// Leave removes sid from its room and tells the remaining members.
func (o *Orchestrator) Leave(sid core.SessionID) (app.Departure, bool) {
	var dropped []core.SessionID
	dep, ok := o.Rooms.Leave(sid, func(tx core.RoomTx, left domain.Participant) {
		members := tx.Members()
		res := o.Router.ToRoom(tx, app.EventUserLeft, app.PresencePayload{
			User:             left,
			ParticipantCount: len(members),
		})
		dropped = append(dropped, res.Dropped...)
		res = o.Router.ToRoom(tx, app.EventParticipantsUpdated, app.ParticipantsPayload{
			Participants: members,
			Count:        len(members),
		})
		dropped = append(dropped, res.Dropped...)
	})
	if !ok {
		return app.Departure{}, false
	}
	o.Metrics.SetRooms(o.Rooms.RoomCount())
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(dep.RoomID)).Bool("destroyed", dep.Destroyed).Msg("leave")
	o.handleDropped(dep.RoomID, dropped)
	return dep, true
}
