package terrain

import (
	"context"

	"heightfield/internal/noise"
)

// Fractal holds the fractal Brownian motion parameters. Each octave multiplies
// Frequency by Lacunarity and Amplitude by Gain.
type Fractal struct {
	Frequency  float64
	Amplitude  float64
	Octaves    int
	Lacunarity float64
	Gain       float64
}

// DefaultFractal returns a single octave at frequency 1/100.
func DefaultFractal() Fractal {
	return Fractal{
		Frequency:  5.0 / 500.0,
		Amplitude:  1,
		Octaves:    1,
		Lacunarity: 2,
		Gain:       0.5,
	}
}

// Accumulate evaluates f over chunk c and returns a fresh matrix of c's shape.
// Cell (r, col) samples s at (worldCol*frequency, worldRow*frequency). The
// context is checked once per row.
func Accumulate(ctx context.Context, s noise.Sampler, c Chunk, f Fractal) (*Matrix, error) {
	out := NewMatrix(c.Rows, c.Cols)
	frequency, amplitude := f.Frequency, f.Amplitude
	for o := 0; o < f.Octaves; o++ {
		for r := 0; r < c.Rows; r++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			y := float64(c.Row0+r) * frequency
			row := out.Row(r)
			for col := range row {
				x := float64(c.Col0+col) * frequency
				row[col] += amplitude * s.Eval2(x, y)
			}
		}
		frequency *= f.Lacunarity
		amplitude *= f.Gain
	}
	return out, nil
}
