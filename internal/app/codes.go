package app

import (
	"errors"
	"fmt"

	nanoid "github.com/jaevor/go-nanoid"
)

const (
	roomCodeAlphabet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	DefaultCodeLength = 6
	maxCodeAttempts   = 16
)

var ErrCodeSpaceExhausted = errors.New("could not find a free room code")

// CodeGenerator hands out short shareable room codes like "AB12CD".
type CodeGenerator struct {
	next func() string
}

func NewCodeGenerator(length int) (*CodeGenerator, error) {
	if length <= 0 {
		length = DefaultCodeLength
	}
	gen, err := nanoid.CustomASCII(roomCodeAlphabet, length)
	if err != nil {
		return nil, fmt.Errorf("room code generator: %w", err)
	}
	return &CodeGenerator{next: gen}, nil
}

// Generate returns a code that is not used by a live room. The room itself
// only comes into existence on the first join.
func (g *CodeGenerator) Generate(inUse func(code string) bool) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code := g.next()
		if inUse == nil || !inUse(code) {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}
