package app

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeGenerator(t *testing.T) {
	g, err := NewCodeGenerator(0)
	require.NoError(t, err)

	code, err := g.Generate(nil)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{6}$`), code)

	g8, err := NewCodeGenerator(8)
	require.NoError(t, err)
	code, err = g8.Generate(func(string) bool { return false })
	require.NoError(t, err)
	assert.Len(t, code, 8)
}

func TestCodeGenerator_SkipsCodesInUse(t *testing.T) {
	g := &CodeGenerator{next: sequence("TAKEN1", "TAKEN2", "FREE01")}
	taken := map[string]bool{"TAKEN1": true, "TAKEN2": true}

	code, err := g.Generate(func(c string) bool { return taken[c] })
	require.NoError(t, err)
	assert.Equal(t, "FREE01", code)
}

func TestCodeGenerator_Exhausted(t *testing.T) {
	g := &CodeGenerator{next: func() string { return "SAME00" }}
	_, err := g.Generate(func(string) bool { return true })
	assert.ErrorIs(t, err, ErrCodeSpaceExhausted)
}

func sequence(codes ...string) func() string {
	i := 0
	return func() string {
		c := codes[i%len(codes)]
		i++
		return c
	}
}
