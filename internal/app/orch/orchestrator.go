// Package orch turns client intents into registry mutations and decides who
// hears about them.
package orch

import (
	"context"
	"time"

	"github.com/dkeye/Tune/internal/app"
	"github.com/dkeye/Tune/internal/core"
	"github.com/dkeye/Tune/internal/domain"
	"github.com/dkeye/Tune/internal/metrics"
	"github.com/rs/zerolog/log"
)

const DefaultMaxMessageLen = 1000

type Orchestrator struct {
	Rooms   *app.RoomRegistry
	Router  app.BroadcastRouter
	Policy  app.Policy
	Metrics *metrics.Metrics
	// MaxMessageLen bounds chat text in runes; zero means DefaultMaxMessageLen.
	MaxMessageLen int
}

func (o *Orchestrator) now() time.Time { return o.Rooms.Clock().Now() }

// Connect registers a fresh connection. It starts outside any room.
func (o *Orchestrator) Connect(sid core.SessionID, sig core.SignalConnection, cancel context.CancelFunc) {
	o.Rooms.BindSession(sid, sig, cancel)
	o.Metrics.ConnectionOpened()
}

// OnDisconnect always runs the leave cleanup, whatever state sid was in.
func (o *Orchestrator) OnDisconnect(sid core.SessionID) {
	o.Leave(sid)
	o.Rooms.Unbind(sid)
	o.Metrics.ConnectionClosed()
	log.Info().Str("module", "orch").Str("sid", string(sid)).Msg("disconnected")
}

func (o *Orchestrator) handleDropped(room domain.RoomID, dropped []core.SessionID) {
	if len(dropped) == 0 {
		return
	}
	o.Metrics.BroadcastDropped(len(dropped))
	if o.Policy == nil {
		return
	}
	seen := make(map[core.SessionID]struct{}, len(dropped))
	for _, sid := range dropped {
		if _, ok := seen[sid]; ok {
			continue
		}
		seen[sid] = struct{}{}
		switch o.Policy.OnBackPressure(room, sid) {
		case app.KickMember:
			o.kick(sid)
		case app.NoAction:
		}
	}
}

// kick closes the transport; the adapter's read loop then reports the
// disconnect, which performs the leave.
func (o *Orchestrator) kick(sid core.SessionID) {
	if sig, ok := o.Rooms.Signal(sid); ok {
		sig.Close()
	}
	o.Rooms.Cancel(sid)
	log.Warn().Str("module", "orch").Str("sid", string(sid)).Msg("kicked slow member")
}
