package ggline

import (
	"math"
	"strconv"
	"strings"
)

// RGBA represents a straight (non-premultiplied) color.
// Each component is in the range [0, 1].
type RGBA struct {
	R, G, B, A float64
}

// RGB creates an opaque color from RGB components.
func RGB(r, g, b float64) RGBA {
	return RGBA{R: r, G: g, B: b, A: 1}
}

// Hex parses "RGB", "RGBA", "RRGGBB" or "RRGGBBAA" with an optional
// leading '#'. Anything else yields opaque black.
func Hex(s string) RGBA {
	s = strings.TrimPrefix(s, "#")
	if len(s) == 3 || len(s) == 4 {
		var b strings.Builder
		for i := range len(s) {
			b.WriteByte(s[i])
			b.WriteByte(s[i])
		}
		s = b.String()
	}
	if len(s) == 6 {
		s += "ff"
	}
	if len(s) != 8 {
		return Black
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Black
	}
	ch := func(shift uint) float64 { return float64(v>>shift&0xff) / 255 }
	return RGBA{R: ch(24), G: ch(16), B: ch(8), A: ch(0)}
}

// Lerp interpolates linearly from c to other; t=0 gives c.
func (c RGBA) Lerp(other RGBA, t float64) RGBA {
	mix := func(a, b float64) float64 { return a + (b-a)*t }
	return RGBA{R: mix(c.R, other.R), G: mix(c.G, other.G), B: mix(c.B, other.B), A: mix(c.A, other.A)}
}

// bytes converts c to RGBA8, rounding to nearest.
func (c RGBA) bytes() [4]uint8 {
	var out [4]uint8
	for i, v := range c.float64s() {
		out[i] = uint8(math.Min(math.Max(v*255+0.5, 0), 255))
	}
	return out
}

func (c RGBA) float32s() [4]float32 {
	return [4]float32{float32(c.R), float32(c.G), float32(c.B), float32(c.A)}
}

func (c RGBA) float64s() [4]float64 {
	return [4]float64{c.R, c.G, c.B, c.A}
}

// Common colors
var (
	Black       = RGB(0, 0, 0)
	White       = RGB(1, 1, 1)
	Red         = RGB(1, 0, 0)
	Green       = RGB(0, 1, 0)
	Blue        = RGB(0, 0, 1)
	Yellow      = RGB(1, 1, 0)
	Cyan        = RGB(0, 1, 1)
	Magenta     = RGB(1, 0, 1)
	Transparent = RGBA{}
)

// HSL creates an opaque color from hue in degrees, saturation and
// lightness in [0, 1].
func HSL(h, s, l float64) RGBA {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	a := s * math.Min(l, 1-l)
	ch := func(n float64) float64 {
		k := math.Mod(n+h/30, 12)
		return l - a*math.Max(-1, math.Min(math.Min(k-3, 9-k), 1))
	}
	return RGB(ch(0), ch(8), ch(4))
}
