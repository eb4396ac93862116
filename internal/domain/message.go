package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrMessageEmpty = errors.New("message empty")

// ChatMessage only ever exists as a broadcast payload.
type ChatMessage struct {
	ID        string      `json:"id"`
	User      Participant `json:"user"`
	Message   string      `json:"message"`
	Timestamp int64       `json:"timestamp"`
}

// NewChatMessage trims text and stamps it with a time-ordered id.
func NewChatMessage(author Participant, text string, sentAt time.Time) (ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return ChatMessage{}, ErrMessageEmpty
	}
	id, err := uuid.NewV7()
	if err != nil {
		return ChatMessage{}, err
	}
	return ChatMessage{
		ID:        id.String(),
		User:      author,
		Message:   text,
		Timestamp: sentAt.UnixMilli(),
	}, nil
}
