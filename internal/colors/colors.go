// Package colors assigns stable display colors to pager recipients.
package colors

import (
	"fmt"
	"unicode/utf16"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	fnvOffsetBasis uint32 = 0x811c9dc5
	fnvPrime       uint32 = 0x01000193
)

// HSL is a color in hue/saturation/lightness form. Hue is in degrees,
// saturation and lightness are percentages.
type HSL struct {
	Hue        int
	Saturation int
	Lightness  int
}

// For returns the color for label. The result depends only on label, so the
// same recipient renders in the same color across runs and processes.
//
// The hash is 32-bit FNV-1a over UTF-16 code units, which keeps the mapping
// identical to a browser client hashing the same string with charCodeAt.
func For(label string) HSL {
	h := hash(label)
	return HSL{
		Hue:        int(h % 360),
		Saturation: 55 + int((h>>16)%4)*10, // 55, 65, 75, 85
		Lightness:  55 + int((h>>24)%3)*8,  // 55, 63, 71
	}
}

func hash(label string) uint32 {
	h := fnvOffsetBasis
	for _, unit := range utf16.Encode([]rune(label)) {
		h ^= uint32(unit)
		h *= fnvPrime
	}
	return h
}

// String returns the CSS form, e.g. "hsl(61, 55%, 55%)".
func (c HSL) String() string {
	return fmt.Sprintf("hsl(%d, %d%%, %d%%)", c.Hue, c.Saturation, c.Lightness)
}

// Hex returns the color as "#rrggbb" for terminals and other RGB consumers.
func (c HSL) Hex() string {
	return colorful.Hsl(float64(c.Hue), float64(c.Saturation)/100, float64(c.Lightness)/100).Clamped().Hex()
}
