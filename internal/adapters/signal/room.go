package signal

import (
	"encoding/json"
	"fmt"

	"github.com/dkeye/Tune/internal/app"
	"github.com/dkeye/Tune/internal/domain"
)

type joinPayload struct {
	RoomID string       `json:"roomId"`
	User   *domain.User `json:"user,omitempty"`
}

func (ctl *SignalWSController) handleJoin(cl *client, raw json.RawMessage) error {
	var p joinPayload
	if err := decode(raw, &p); err != nil {
		return err
	}
	user, err := ctl.resolveUser(cl, p.User)
	if err != nil {
		return err
	}
	return ctl.Orch.Join(cl.sid, p.RoomID, *user)
}

// resolveUser falls back to the cookie token, then the connection id, when
// the client does not say who it is. Overlong names are clipped.
func (ctl *SignalWSController) resolveUser(cl *client, u *domain.User) (*domain.User, error) {
	id, name := "", ""
	if u != nil {
		id, name = string(u.ID), domain.ClipName(u.Name)
	}
	if id == "" {
		id = cl.token
	}
	if id == "" {
		id = string(cl.sid)
	}
	user, err := domain.NewUser(id, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", app.ErrInvalidPayload, err)
	}
	return user, nil
}

func (ctl *SignalWSController) handleLeave(cl *client) {
	ctl.Orch.Leave(cl.sid)
}
