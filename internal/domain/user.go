// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const (
	MaxUserIDLen    = 64
	MaxUsernameLen  = 64
	DefaultUsername = "Guest"
)

var (
	ErrUsernameTooLong = errors.New("username too long")
	ErrUserIDTooLong   = errors.New("user id too long")
	ErrUserIDEmpty     = errors.New("user id empty")
)

type UserID string

type User struct {
	ID   UserID `json:"id"`
	Name string `json:"name"`
}

// NewUser validates a display identity. A blank name falls back to
// DefaultUsername.
func NewUser(id, name string) (*User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrUserIDEmpty
	}
	if len(id) > MaxUserIDLen {
		return nil, ErrUserIDTooLong
	}
	u := &User{ID: UserID(id), Name: DefaultUsername}
	if err := u.SetName(name); err != nil {
		return nil, err
	}
	return u, nil
}

func (u *User) SetName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		u.Name = DefaultUsername
		return nil
	}
	if len(name) > MaxUsernameLen {
		return ErrUsernameTooLong
	}
	u.Name = name
	return nil
}

// ClipName trims name and cuts it to MaxUsernameLen bytes without splitting
// a rune.
func ClipName(name string) string {
	name = strings.TrimSpace(name)
	if len(name) <= MaxUsernameLen {
		return name
	}
	cut := MaxUsernameLen
	for cut > 0 && !utf8.RuneStart(name[cut]) {
		cut--
	}
	return strings.TrimSpace(name[:cut])
}
