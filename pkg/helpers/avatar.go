package helpers

import (
	"fmt"
	"math/big"
	"math/rand"
	"strings"
)

// Color is an RGB triple used for generated avatar backgrounds.
type Color struct {
	Red   int
	Green int
	Blue  int
}

// avatarPalette is the fixed palette for deterministic avatar colors.
// Changing an entry changes the color of every user whose id maps onto it,
// so the list is append-never, edit-never.
var avatarPalette = [20]Color{
	{151, 204, 156},
	{78, 61, 35},
	{250, 69, 30},
	{175, 219, 228},
	{198, 13, 175},
	{225, 176, 235},
	{49, 252, 166},
	{243, 152, 74},
	{245, 47, 61},
	{213, 180, 15},
	{255, 158, 65},
	{135, 206, 33},
	{254, 96, 20},
	{155, 136, 2},
	{68, 228, 99},
	{102, 13, 5},
	{122, 223, 235},
	{126, 250, 113},
	{130, 87, 90},
	{172, 204, 163},
}

// AvatarMixBase is the color user creation mixes into the palette pick,
// softening it toward gray.
var AvatarMixBase = Color{120, 120, 120}

// DeriveInitials generates the two-letter text for an automatically
// generated avatar from the first letters of the first and last name.
func DeriveInitials(name string) string {
	chunks := strings.Fields(name)
	switch {
	case len(chunks) >= 2:
		return strings.ToUpper(firstRune(chunks[0]) + firstRune(chunks[1]))
	case len(chunks) == 1:
		return strings.ToUpper(firstRunes(chunks[0], 2))
	default:
		return "XX"
	}
}

// DeriveColor generates an avatar background color. With an empty id the
// color is random; otherwise the id's hex digits (separators stripped)
// select a palette entry, so the result is stable for a given id. The
// selection takes the value mod 20 and then indexes one position back,
// remainder 0 wrapping to the last entry. That quirk is load-bearing:
// stored avatar colors were generated with it.
// A non-nil mix is averaged channel-wise into the result.
func DeriveColor(id string, mix *Color) string {
	var c Color
	if id == "" {
		c = Color{rand.Intn(256), rand.Intn(256), rand.Intn(256)}
	} else {
		n := new(big.Int)
		if _, ok := n.SetString(stripSeparators(id), 16); !ok {
			// Not a hex identifier; still deterministic via its bytes.
			n.SetBytes([]byte(id))
		}
		rem := int(new(big.Int).Mod(n, big.NewInt(int64(len(avatarPalette)))).Int64())
		idx := rem - 1
		if idx < 0 {
			idx = len(avatarPalette) - 1
		}
		c = avatarPalette[idx]
	}

	if mix != nil {
		c.Red = (c.Red + mix.Red) / 2
		c.Green = (c.Green + mix.Green) / 2
		c.Blue = (c.Blue + mix.Blue) / 2
	}
	return ColorToHex(c)
}

// ColorToHex formats a color as a lowercase #rrggbb string.
func ColorToHex(c Color) string {
	return fmt.Sprintf("#%02x%02x%02x", c.Red, c.Green, c.Blue)
}

func stripSeparators(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
			return r
		}
		return -1
	}, s)
}

func firstRune(s string) string {
	return firstRunes(s, 1)
}

func firstRunes(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}
