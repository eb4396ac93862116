package signal

import (
	"encoding/json"

	"github.com/dkeye/Tune/internal/app"
	"github.com/dkeye/Tune/internal/domain"
)

type playSongPayload struct {
	Song        *domain.Track `json:"song"`
	IsPlaying   *bool         `json:"isPlaying"`
	CurrentTime *float64      `json:"currentTime"`
}

func (ctl *SignalWSController) handlePlaySong(cl *client, raw json.RawMessage) error {
	var p playSongPayload
	if err := decode(raw, &p); err != nil {
		return err
	}
	if p.Song == nil {
		return app.ErrInvalidPayload
	}
	return ctl.Orch.PlaySong(cl.sid, *p.Song, boolOr(p.IsPlaying, true), floatOr(p.CurrentTime, 0))
}

type togglePayload struct {
	IsPlaying   *bool    `json:"isPlaying"`
	CurrentTime *float64 `json:"currentTime"`
}

func (ctl *SignalWSController) handleTogglePlayPause(cl *client, raw json.RawMessage) error {
	var p togglePayload
	if err := decode(raw, &p); err != nil {
		return err
	}
	if p.IsPlaying == nil {
		return app.ErrInvalidPayload
	}
	return ctl.Orch.TogglePlayPause(cl.sid, *p.IsPlaying, floatOr(p.CurrentTime, 0))
}

type syncTimePayload struct {
	CurrentTime *float64 `json:"currentTime"`
}

func (ctl *SignalWSController) handleSyncTime(cl *client, raw json.RawMessage) error {
	var p syncTimePayload
	if err := decode(raw, &p); err != nil {
		return err
	}
	if p.CurrentTime == nil {
		return app.ErrInvalidPayload
	}
	return ctl.Orch.SyncTime(cl.sid, *p.CurrentTime)
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func floatOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
