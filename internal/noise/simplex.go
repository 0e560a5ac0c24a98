// Package noise implements the 2D OpenSimplex2 gradient noise used for
// height fields, plus adapters for alternative noise backends.
package noise

const (
	primeX         = 0x5205402B9270C86F
	primeY         = 0x598CD327003817B5
	hashMultiplier = 0x53A3F72DEEC546F5

	skew2D     = 0.366025403784439
	unskew2D   = -0.21132486540518713
	rSquared2D = 0.5
	root2Over2 = 0.7071067811865476
)

// Field is one deterministic noise instance. It holds no mutable state and is
// safe for concurrent use by any number of goroutines.
type Field struct {
	seed  int64
	grads []float64
}

// New creates a noise field for the given seed.
func New(seed int64) *Field {
	return &Field{seed: seed, grads: Gradients()}
}

// Seed returns the seed the field was built with.
func (f *Field) Seed() int64 { return f.seed }

// Noise2 evaluates noise at (x, y) using the standard lattice orientation.
func (f *Field) Noise2(x, y float64) float64 {
	s := skew2D * (x + y)
	return f.Noise2UnskewedBase(x+s, y+s)
}

// Noise2ImproveX evaluates noise with the lattice rotated so the X axis is not
// stretched along a lattice diagonal. Rotation and skew are one transform.
func (f *Field) Noise2ImproveX(x, y float64) float64 {
	xx := x * root2Over2
	yy := y * (root2Over2 * (1 + 2*skew2D))
	return f.Noise2UnskewedBase(yy+xx, yy-xx)
}

// Noise2UnskewedBase evaluates noise at coordinates already in the skewed
// lattice basis. At most three vertices contribute.
func (f *Field) Noise2UnskewedBase(xs, ys float64) float64 {
	xsb := fastFloor(xs)
	ysb := fastFloor(ys)
	xi := xs - float64(xsb)
	yi := ys - float64(ysb)

	xsbp := xsb * primeX
	ysbp := ysb * primeY

	t := (xi + yi) * unskew2D
	dx0 := xi + t
	dy0 := yi + t

	var value float64

	a0 := rSquared2D - dx0*dx0 - dy0*dy0
	if a0 > 0 {
		value = (a0 * a0) * (a0 * a0) * f.grad(xsbp, ysbp, dx0, dy0)
	}

	// Closed form of rSquared2D - dx1*dx1 - dy1*dy1 in terms of t and a0.
	a1 := (2*(1+2*unskew2D)*(1/unskew2D+2))*t + ((-2 * (1 + 2*unskew2D) * (1 + 2*unskew2D)) + a0)
	if a1 > 0 {
		dx1 := dx0 - (1 + 2*unskew2D)
		dy1 := dy0 - (1 + 2*unskew2D)
		value += (a1 * a1) * (a1 * a1) * f.grad(xsbp+primeX, ysbp+primeY, dx1, dy1)
	}

	if dy0 > dx0 {
		dx2 := dx0 - unskew2D
		dy2 := dy0 - (unskew2D + 1)
		a2 := rSquared2D - dx2*dx2 - dy2*dy2
		if a2 > 0 {
			value += (a2 * a2) * (a2 * a2) * f.grad(xsbp, ysbp+primeY, dx2, dy2)
		}
	} else {
		dx2 := dx0 - (unskew2D + 1)
		dy2 := dy0 - unskew2D
		a2 := rSquared2D - dx2*dx2 - dy2*dy2
		if a2 > 0 {
			value += (a2 * a2) * (a2 * a2) * f.grad(xsbp+primeX, ysbp, dx2, dy2)
		}
	}

	return value
}

func (f *Field) grad(xsvp, ysvp int64, dx, dy float64) float64 {
	gx, gy := f.gradientAt(xsvp, ysvp)
	return gx*dx + gy*dy
}

// gradientAt hashes a primed lattice point into the gradient table. All
// arithmetic wraps at 64 bits.
func (f *Field) gradientAt(xsvp, ysvp int64) (float64, float64) {
	hash := (f.seed ^ xsvp ^ ysvp) * hashMultiplier
	hash ^= hash >> (64 - nGrads2DExponent + 1)
	gi := int(hash & ((nGrads2D - 1) << 1))
	return f.grads[gi], f.grads[gi|1]
}

// fastFloor floors toward negative infinity.
func fastFloor(x float64) int64 {
	xi := int64(x)
	if x < float64(xi) {
		return xi - 1
	}
	return xi
}
