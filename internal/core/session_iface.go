package core

import "github.com/dkeye/Tune/internal/domain"

// SessionID identifies one live connection, not a user.
type SessionID string

// MemberSession binds domain.Member and its transport endpoint.
// This is what a room stores and fans out to.
type MemberSession interface {
	Meta() *domain.Member
	Signal() SignalConnection
	Participant(sid SessionID) domain.Participant
}
