// Package render turns height matrices into images.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"heightfield/internal/terrain"
)

// viridis control points, evenly spaced over [0, 1].
var viridis = [...]mgl64.Vec3{
	{0.267, 0.005, 0.329},
	{0.283, 0.141, 0.458},
	{0.254, 0.265, 0.530},
	{0.207, 0.372, 0.553},
	{0.164, 0.471, 0.558},
	{0.128, 0.567, 0.551},
	{0.135, 0.659, 0.518},
	{0.267, 0.749, 0.441},
	{0.478, 0.821, 0.318},
	{0.741, 0.873, 0.150},
	{0.993, 0.906, 0.144},
}

// Ramp maps t in [0, 1] onto the viridis colour map. Values outside the range
// are clamped; NaN maps to the bottom of the ramp.
func Ramp(t float64) color.RGBA {
	if math.IsNaN(t) {
		t = 0
	}
	t = mgl64.Clamp(t, 0, 1)
	pos := t * float64(len(viridis)-1)
	i := int(pos)
	if i >= len(viridis)-1 {
		i = len(viridis) - 2
	}
	frac := pos - float64(i)
	c := viridis[i].Add(viridis[i+1].Sub(viridis[i]).Mul(frac))
	return color.RGBA{
		R: uint8(math.Round(c[0] * 255)),
		G: uint8(math.Round(c[1] * 255)),
		B: uint8(math.Round(c[2] * 255)),
		A: 255,
	}
}

// Colorize draws m with one pixel per cell, row 0 at the top. Finite values
// are normalised to the finite min/max; +Inf and -Inf take the ramp ends and
// NaN cells are black. A constant matrix maps to the bottom of the ramp.
func Colorize(m *terrain.Matrix) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, m.Cols, m.Rows))
	lo, hi := m.MinMax()
	span := hi - lo
	for r := 0; r < m.Rows; r++ {
		for c := 0; c < m.Cols; c++ {
			v := m.At(r, c)
			if math.IsNaN(v) {
				img.SetRGBA(c, r, color.RGBA{A: 255})
				continue
			}
			var t float64
			switch {
			case math.IsInf(v, 1):
				t = 1
			case math.IsInf(v, -1):
				t = 0
			case span > 0:
				t = (v - lo) / span
			}
			img.SetRGBA(c, r, Ramp(t))
		}
	}
	return img
}

// Label writes text in white 7x13 glyphs with its top-left corner at (x, y).
func Label(img *image.RGBA, x, y int, text string) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.White,
		Face: face,
		Dot:  fixed.P(x, y+face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(text)
}

// WritePNG encodes img to path.
func WritePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
