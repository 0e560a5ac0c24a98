package noise

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	// nGrads2DExponent sizes the gradient table; the table holds 50<<exp pairs.
	nGrads2DExponent = 2
	nGrads2D         = 50 << nGrads2DExponent

	// normalizer2D scales every gradient. 1 leaves raw noise output unscaled;
	// 0.01001634121365712 would normalise it to roughly [-1, 1].
	normalizer2D = 1.0
)

// baseGradients2D are the 24 unit directions the table is tiled from:
// 16 around the 22.5 degree family followed by 8 finer ones.
var baseGradients2D = [...]mgl64.Vec2{
	{0.38268343236509, 0.923879532511287},
	{0.923879532511287, 0.38268343236509},
	{0.923879532511287, -0.38268343236509},
	{0.38268343236509, -0.923879532511287},
	{-0.38268343236509, -0.923879532511287},
	{-0.923879532511287, -0.38268343236509},
	{-0.923879532511287, 0.38268343236509},
	{-0.38268343236509, 0.923879532511287},

	{0.130526192220052, 0.99144486137381},
	{0.608761429008721, 0.793353340291235},
	{0.793353340291235, 0.608761429008721},
	{0.99144486137381, 0.130526192220051},
	{0.99144486137381, -0.130526192220051},
	{0.793353340291235, -0.60876142900872},
	{0.608761429008721, -0.793353340291235},
	{0.130526192220052, -0.99144486137381},
	{-0.130526192220052, -0.99144486137381},
	{-0.608761429008721, -0.793353340291235},
	{-0.793353340291235, -0.608761429008721},
	{-0.99144486137381, -0.130526192220052},
	{-0.99144486137381, 0.130526192220051},
	{-0.793353340291235, 0.608761429008721},
	{-0.608761429008721, 0.793353340291235},
	{-0.130526192220052, 0.99144486137381},
}

var (
	gradientsOnce sync.Once
	gradients2D   []float64
)

// Gradients returns the process-wide gradient table: 2*nGrads2D scalars,
// interleaved x,y. The slice is shared and must not be modified.
func Gradients() []float64 {
	gradientsOnce.Do(func() {
		gradients2D = buildGradients()
	})
	return gradients2D
}

// buildGradients tiles the base set until the table is full, truncating the
// final tile.
func buildGradients() []float64 {
	flat := make([]float64, 0, len(baseGradients2D)*2)
	for _, g := range baseGradients2D {
		g = g.Mul(1 / normalizer2D)
		flat = append(flat, g.X(), g.Y())
	}

	table := make([]float64, nGrads2D*2)
	for i := range table {
		table[i] = flat[i%len(flat)]
	}
	return table
}
