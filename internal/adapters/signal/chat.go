package signal

import "encoding/json"

type messagePayload struct {
	Message string `json:"message"`
}

func (ctl *SignalWSController) handleSendMessage(cl *client, raw json.RawMessage) error {
	var p messagePayload
	if err := decode(raw, &p); err != nil {
		return err
	}
	return ctl.Orch.SendMessage(cl.sid, p.Message)
}
