package signal

import "encoding/json"

type pingPayload struct {
	ClientTime int64 `json:"clientTime"`
}

// handlePing answers clock probes so clients can estimate their offset
// from server time.
func (ctl *SignalWSController) handlePing(cl *client, raw json.RawMessage) error {
	var p pingPayload
	if err := decode(raw, &p); err != nil {
		return err
	}
	return ctl.Orch.Ping(cl.sid, p.ClientTime)
}
