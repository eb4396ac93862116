package domain

import "time"

// Member represents user's participation meta for a room.
// No transport or lifecycle logic here.
type Member struct {
	User     User
	JoinedAt time.Time
}

func NewMember(user User, joinedAt time.Time) *Member {
	return &Member{User: user, JoinedAt: joinedAt}
}

// Participant is the roster entry clients see, keyed by connection.
type Participant struct {
	SessionID string `json:"socketId"`
	ID        UserID `json:"id"`
	Name      string `json:"name"`
}

func (m *Member) Participant(sid string) Participant {
	return Participant{SessionID: sid, ID: m.User.ID, Name: m.User.Name}
}
