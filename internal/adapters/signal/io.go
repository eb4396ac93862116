package signal

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dkeye/Tune/internal/app"
	"github.com/dkeye/Tune/internal/metrics"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Inbound intent names.
const (
	IntentJoinRoom        = "join-room"
	IntentLeaveRoom       = "leave-room"
	IntentPlaySong        = "play-song"
	IntentTogglePlayPause = "toggle-play-pause"
	IntentSyncTime        = "sync-time"
	IntentRequestTimeSync = "request-time-sync"
	IntentSendMessage     = "send-message"
	IntentPing            = "ping"
)

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.Limits.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(ctl.Limits.WriteWait))
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.Limits.WriteWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctl.Limits.WriteWait)); err != nil {
				log.Debug().Err(err).Str("module", "signal").Msg("writePump ping failed")
				return
			}
		}
	}
}

// readPump owns the connection lifetime: whatever ends it, the disconnect
// cleanup runs exactly once here.
func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, cl *client) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(cl.sid)).Msg("readPump closing")
		cancel()
		cl.conn.Close()
		ctl.Limiter.Forget(cl.sid)
		ctl.Orch.OnDisconnect(cl.sid)
	}()

	ws := cl.conn.conn
	ws.SetReadLimit(ctl.Limits.ReadLimit)
	_ = ws.SetReadDeadline(time.Now().Add(ctl.Limits.PongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(ctl.Limits.PongWait))
	})

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("sid", string(cl.sid)).Msg("readPump ctx done")
			return
		default:
			_, data, err := ws.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
					log.Warn().Err(err).Str("module", "signal").Str("sid", string(cl.sid)).Msg("readPump read error")
				}
				return
			}
			ctl.handleSignal(cl, data)
		}
	}
}

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// handleSignal never answers with an error frame: bad or out-of-place
// intents are dropped and only show up in logs and metrics.
func (ctl *SignalWSController) handleSignal(cl *client, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("sid", string(cl.sid)).Msg("bad json")
		ctl.Orch.Metrics.Dropped(metrics.ReasonMalformed)
		return
	}
	if !ctl.Limiter.Allow(cl.sid) {
		log.Debug().Str("module", "signal").Str("sid", string(cl.sid)).Str("type", env.Type).Msg("rate limited")
		ctl.Orch.Metrics.Dropped(metrics.ReasonRateLimited)
		return
	}

	var err error
	switch env.Type {
	case IntentJoinRoom:
		err = ctl.handleJoin(cl, env.Payload)
	case IntentLeaveRoom:
		ctl.handleLeave(cl)
	case IntentPlaySong:
		err = ctl.handlePlaySong(cl, env.Payload)
	case IntentTogglePlayPause:
		err = ctl.handleTogglePlayPause(cl, env.Payload)
	case IntentSyncTime:
		err = ctl.handleSyncTime(cl, env.Payload)
	case IntentRequestTimeSync:
		err = ctl.Orch.RequestTimeSync(cl.sid)
	case IntentSendMessage:
		err = ctl.handleSendMessage(cl, env.Payload)
	case IntentPing:
		err = ctl.handlePing(cl, env.Payload)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
		ctl.Orch.Metrics.Dropped(metrics.ReasonUnknown)
		return
	}
	ctl.Orch.Metrics.Intent(env.Type)
	if err != nil {
		ctl.drop(cl, env.Type, err)
	}
}

func (ctl *SignalWSController) drop(cl *client, typ string, err error) {
	reason := metrics.ReasonMalformed
	if errors.Is(err, app.ErrNotInRoom) {
		reason = metrics.ReasonNotInRoom
	}
	log.Debug().Err(err).Str("module", "signal").Str("sid", string(cl.sid)).Str("type", typ).Str("reason", reason).Msg("intent dropped")
	ctl.Orch.Metrics.Dropped(reason)
}

// decode treats a missing payload as an empty object.
func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errors.Join(app.ErrInvalidPayload, err)
	}
	return nil
}
