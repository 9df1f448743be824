package mechplot

import (
	"image/color"
	"math"
)

// Converts HSV (h in degrees) to 8-bit RGB.
func iHVS2RGB(h, v, s float64) (uint8, uint8, uint8) {
	var r, g, b float64
	conversion := 255.0
	if s == 0.0 {
		c := uint8(conversion * v)
		return c, c, c
	}
	h = math.Mod(h, 360) / 60
	i := math.Floor(h)
	f := h - i
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))
	switch int(i) {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default: //case 5
		r, g, b = v, p, q
	}
	return uint8(r * conversion), uint8(g * conversion), uint8(b * conversion)
}

// colors returns the key-th of steps colors along the hue wheel, skipping
// the yellows, which are hard to see on white.
func colors(key, steps int) color.RGBA {
	if steps < 1 {
		steps = 1
	}
	norm := 260.0 / float64(steps)
	hp := float64(key)*norm + 20.0
	h := hp + 20.0
	if hp < 55 {
		h = hp - 20.0
	}
	r, g, b := iHVS2RGB(h, 1, 1)
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
