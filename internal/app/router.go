package app

import (
	"encoding/json"

	"github.com/dkeye/Tune/internal/core"
	"github.com/rs/zerolog/log"
)

// Envelope is the wire shape of every frame in both directions.
type Envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

func Encode(event string, payload any) (core.Frame, error) {
	return json.Marshal(Envelope{Type: event, Payload: payload})
}

// BroadcastRouter fans events out to a room. It is called from inside
// RoomService.Apply so fan-out order matches mutation order.
type BroadcastRouter struct{}

func (b BroadcastRouter) ToRoom(tx core.RoomTx, event string, payload any) core.PublishResult {
	return b.ToRoomExceptSender(tx, "", event, payload)
}

func (BroadcastRouter) ToRoomExceptSender(tx core.RoomTx, sid core.SessionID, event string, payload any) core.PublishResult {
	f, err := Encode(event, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "app.router").Str("event", event).Msg("encode broadcast")
		return core.PublishResult{}
	}
	return tx.Publish(sid, f)
}

func (BroadcastRouter) ToMember(tx core.RoomTx, sid core.SessionID, event string, payload any) error {
	f, err := Encode(event, payload)
	if err != nil {
		return err
	}
	return tx.SendTo(sid, f)
}

// Reply answers a connection directly, outside any room.
func (BroadcastRouter) Reply(conn core.SignalConnection, event string, payload any) error {
	f, err := Encode(event, payload)
	if err != nil {
		return err
	}
	return conn.TrySend(f)
}
