package helpers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomLowercase(t *testing.T) {
	s, err := RandomLowercase(30)
	require.NoError(t, err)
	assert.Len(t, s, 30)
	for _, r := range s {
		assert.True(t, r >= 'a' && r <= 'z', "unexpected rune %q", r)
	}
}

func TestRandomStringUsesAlphabet(t *testing.T) {
	s, err := RandomString(64, "ab")
	require.NoError(t, err)
	assert.Len(t, s, 64)
	assert.Equal(t, "", strings.Trim(s, "ab"))
}

func TestNewActivationTokenShape(t *testing.T) {
	tok, err := NewActivationToken()
	require.NoError(t, err)

	parts := strings.SplitN(tok, "-", 2)
	require.Len(t, parts, 2)
	assert.Len(t, parts[0], 13)
	assert.Len(t, parts[1], 20)
	for _, r := range parts[0] + parts[1] {
		ok := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		assert.True(t, ok, "unexpected rune %q", r)
	}
}

func TestRandomStringsDiffer(t *testing.T) {
	a, err := RandomLowercase(30)
	require.NoError(t, err)
	b, err := RandomLowercase(30)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
