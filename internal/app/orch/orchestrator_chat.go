package orch

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dkeye/Tune/internal/app"
	"github.com/dkeye/Tune/internal/clock"
	"github.com/dkeye/Tune/internal/core"
	"github.com/dkeye/Tune/internal/domain"
)

// SendMessage relays chat text to the whole room. Nothing is stored.
func (o *Orchestrator) SendMessage(sid core.SessionID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("%w: %w", app.ErrInvalidPayload, domain.ErrMessageEmpty)
	}
	limit := o.MaxMessageLen
	if limit <= 0 {
		limit = DefaultMaxMessageLen
	}
	if utf8.RuneCountInString(text) > limit {
		return fmt.Errorf("%w: message longer than %d", app.ErrInvalidPayload, limit)
	}

	var (
		res    core.PublishResult
		msgErr error
	)
	roomID, err := o.Rooms.WithRoom(sid, func(tx core.RoomTx) {
		me, ok := tx.Member(sid)
		if !ok {
			msgErr = app.ErrNotInRoom
			return
		}
		msg, err := domain.NewChatMessage(me.Participant(sid), text, o.now())
		if err != nil {
			msgErr = err
			return
		}
		res = o.Router.ToRoom(tx, app.EventNewMessage, msg)
	})
	if err != nil {
		return err
	}
	if msgErr != nil {
		return msgErr
	}
	o.handleDropped(roomID, res.Dropped)
	return nil
}

// Ping answers a clock probe directly, in or out of a room.
func (o *Orchestrator) Ping(sid core.SessionID, clientTime int64) error {
	sig, ok := o.Rooms.Signal(sid)
	if !ok {
		return app.ErrUnknownSession
	}
	return o.Router.Reply(sig, app.EventPong, app.PongPayload{
		ClientTime: clientTime,
		ServerTime: clock.Millis(o.now()),
	})
}
