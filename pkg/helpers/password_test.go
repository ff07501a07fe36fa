package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCompare(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.True(t, CompareHashAndPassword(hash, "correct horse"))
	assert.False(t, CompareHashAndPassword(hash, "battery staple"))
}

func TestUnusablePasswordNeverVerifies(t *testing.T) {
	assert.False(t, CompareHashAndPassword(UnusablePassword, ""))
	assert.False(t, CompareHashAndPassword(UnusablePassword, UnusablePassword))
	assert.False(t, CompareHashAndPassword(UnusablePassword, "anything"))
	assert.False(t, CompareHashAndPassword("", "anything"))
}

func TestIsUsablePassword(t *testing.T) {
	hash, err := HashPassword("pw")
	require.NoError(t, err)

	assert.True(t, IsUsablePassword(hash))
	assert.False(t, IsUsablePassword(UnusablePassword))
	assert.False(t, IsUsablePassword("!legacy-disabled-hash"))
	assert.False(t, IsUsablePassword(""))
}
