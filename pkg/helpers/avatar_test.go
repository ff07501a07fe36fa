package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveInitials(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"John Doe", "JD"},
		{"john doe", "JD"},
		{"Ada Lovelace King", "AL"}, // only the first two chunks count
		{"Plato", "PL"},
		{"X", "X"},
		{"  spaced   out  ", "SO"},
		{"", "XX"},
		{"   ", "XX"},
		{"ólafur ragnar", "ÓR"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DeriveInitials(tc.name), "name %q", tc.name)
	}
}

func TestDeriveColorIsStablePerID(t *testing.T) {
	id := "8d9b2c1e-0a34-4f6b-9c1d-2e3f4a5b6c7d"
	first := DeriveColor(id, nil)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, DeriveColor(id, nil))
	}
	assert.Regexp(t, `^#[0-9a-f]{6}$`, first)
}

func TestDeriveColorPaletteSelection(t *testing.T) {
	// 0x15 = 21, 21 mod 20 = 1, index back by one = palette[0].
	assert.Equal(t, ColorToHex(avatarPalette[0]), DeriveColor("15", nil))
	// 0x14 = 20, remainder 0 wraps to the last entry.
	assert.Equal(t, ColorToHex(avatarPalette[19]), DeriveColor("14", nil))
	// 0x16 = 22 selects palette[1].
	assert.Equal(t, ColorToHex(avatarPalette[1]), DeriveColor("16", nil))
}

func TestDeriveColorMixAverages(t *testing.T) {
	// "15" selects palette[0] = {151, 204, 156}; averaged with the gray
	// base {120, 120, 120} channel-wise, integer division.
	got := DeriveColor("15", &AvatarMixBase)
	assert.Equal(t, "#87a28a", got) // (135, 162, 138)
}

func TestDeriveColorNonHexIDStillDeterministic(t *testing.T) {
	a := DeriveColor("user-zzz", nil)
	b := DeriveColor("user-zzz", nil)
	assert.Equal(t, a, b)
}

func TestColorToHex(t *testing.T) {
	assert.Equal(t, "#000000", ColorToHex(Color{0, 0, 0}))
	assert.Equal(t, "#ffffff", ColorToHex(Color{255, 255, 255}))
	assert.Equal(t, "#0a1e3c", ColorToHex(Color{10, 30, 60}))
}
