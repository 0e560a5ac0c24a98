package noise

import (
	"math"
	"math/rand"
	"testing"
)

// vertex is one lattice contribution computed with the direct distance formula.
type vertex struct {
	a, dx, dy  float64
	xsvp, ysvp int64
}

// referenceVertices recomputes the three candidate vertices of
// Noise2UnskewedBase without the closed-form shortcut for vertex 1.
func referenceVertices(xs, ys float64) [3]vertex {
	xsb := int64(math.Floor(xs))
	ysb := int64(math.Floor(ys))
	xi := xs - float64(xsb)
	yi := ys - float64(ysb)
	xsbp := xsb * primeX
	ysbp := ysb * primeY

	t := (xi + yi) * unskew2D
	dx0, dy0 := xi+t, yi+t
	dx1, dy1 := dx0-(1+2*unskew2D), dy0-(1+2*unskew2D)

	var v [3]vertex
	v[0] = vertex{a: rSquared2D - dx0*dx0 - dy0*dy0, dx: dx0, dy: dy0, xsvp: xsbp, ysvp: ysbp}
	v[1] = vertex{a: rSquared2D - dx1*dx1 - dy1*dy1, dx: dx1, dy: dy1, xsvp: xsbp + primeX, ysvp: ysbp + primeY}
	if dy0 > dx0 {
		dx2, dy2 := dx0-unskew2D, dy0-(unskew2D+1)
		v[2] = vertex{a: rSquared2D - dx2*dx2 - dy2*dy2, dx: dx2, dy: dy2, xsvp: xsbp, ysvp: ysbp + primeY}
	} else {
		dx2, dy2 := dx0-(unskew2D+1), dy0-unskew2D
		v[2] = vertex{a: rSquared2D - dx2*dx2 - dy2*dy2, dx: dx2, dy: dy2, xsvp: xsbp + primeX, ysvp: ysbp}
	}
	return v
}

func (f *Field) referenceContribution(v vertex) float64 {
	if v.a <= 0 {
		return 0
	}
	return (v.a * v.a) * (v.a * v.a) * f.grad(v.xsvp, v.ysvp, v.dx, v.dy)
}

func TestFastFloor(t *testing.T) {
	cases := []struct {
		in   float64
		want int64
	}{
		{0, 0}, {0.5, 0}, {1, 1}, {-0.5, -1}, {-1, -1}, {-1.0001, -2}, {123.999, 123},
	}
	for _, c := range cases {
		if got := fastFloor(c.in); got != c.want {
			t.Errorf("fastFloor(%f) = %d, want %d", c.in, got, c.want)
		}
	}
}

// TestVertexOneShortcut checks the closed-form vertex-1 falloff against the
// direct distance formula.
func TestVertexOneShortcut(t *testing.T) {
	rng := rand.New(rand.NewSource(12345))
	for i := 0; i < 10000; i++ {
		xi, yi := rng.Float64(), rng.Float64()
		tt := (xi + yi) * unskew2D
		dx0, dy0 := xi+tt, yi+tt
		a0 := rSquared2D - dx0*dx0 - dy0*dy0
		shortcut := (2*(1+2*unskew2D)*(1/unskew2D+2))*tt + ((-2 * (1 + 2*unskew2D) * (1 + 2*unskew2D)) + a0)

		dx1, dy1 := dx0-(1+2*unskew2D), dy0-(1+2*unskew2D)
		direct := rSquared2D - dx1*dx1 - dy1*dy1
		if math.Abs(shortcut-direct) > 1e-12 {
			t.Fatalf("a1 mismatch at (%f, %f): shortcut=%.17g direct=%.17g", xi, yi, shortcut, direct)
		}
	}
}

// TestNoise2UnskewedBaseMatchesReference compares the evaluator against the
// direct per-vertex computation.
func TestNoise2UnskewedBaseMatchesReference(t *testing.T) {
	f := New(42)
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 5000; i++ {
		xs := rng.Float64()*400 - 200
		ys := rng.Float64()*400 - 200
		var want float64
		for _, v := range referenceVertices(xs, ys) {
			want += f.referenceContribution(v)
		}
		got := f.Noise2UnskewedBase(xs, ys)
		if math.Abs(got-want) > 1e-12 {
			t.Fatalf("Noise2UnskewedBase(%f, %f) = %.17g, reference %.17g", xs, ys, got, want)
		}
	}
}

// TestFalloffBoundary walks the cell diagonal across the vertex-0 radius.
// Along xi == yi == u the vertex-0 falloff is 0.5 - 2u^2(1+2*unskew)^2.
func TestFalloffBoundary(t *testing.T) {
	f := New(3)
	edge := 0.5 / (1 + 2*unskew2D)

	for _, outside := range []float64{edge + 1e-6, 0.95} {
		v := referenceVertices(outside, outside)
		if v[0].a > 0 {
			t.Fatalf("expected vertex 0 outside radius at u=%f, falloff=%g", outside, v[0].a)
		}
		rest := f.referenceContribution(v[1]) + f.referenceContribution(v[2])
		if got := f.Noise2UnskewedBase(outside, outside); math.Abs(got-rest) > 1e-15 {
			t.Errorf("vertex 0 must contribute nothing outside the radius at u=%f: got %.17g, other vertices %.17g", outside, got, rest)
		}
	}

	inside := edge - 1e-3
	v := referenceVertices(inside, inside)
	if v[0].a <= 0 {
		t.Fatalf("expected vertex 0 inside radius at u=%f, falloff=%g", inside, v[0].a)
	}
	rest := f.referenceContribution(v[1]) + f.referenceContribution(v[2])
	got := f.Noise2UnskewedBase(inside, inside)
	c0 := f.referenceContribution(v[0])
	if c0 == 0 {
		t.Fatalf("expected a nonzero vertex-0 contribution just inside the radius")
	}
	if math.Abs(got-(rest+c0)) > 1e-15 {
		t.Errorf("inside radius: got %.17g, want %.17g", got, rest+c0)
	}
}

// TestLatticePointsAreZero: at a lattice vertex the own gradient is dotted
// with a zero offset and every neighbour is outside the radius.
func TestLatticePointsAreZero(t *testing.T) {
	f := New(99)
	for x := -5; x <= 5; x++ {
		for y := -5; y <= 5; y++ {
			if v := f.Noise2UnskewedBase(float64(x), float64(y)); v != 0 {
				t.Errorf("Noise2UnskewedBase(%d, %d) = %g, expected 0", x, y, v)
			}
		}
	}
	if v := f.Noise2(0, 0); v != 0 {
		t.Errorf("Noise2(0, 0) = %g, expected 0", v)
	}
	if v := f.Noise2ImproveX(0, 0); v != 0 {
		t.Errorf("Noise2ImproveX(0, 0) = %g, expected 0", v)
	}
}

func TestNoise2Skew(t *testing.T) {
	f := New(5)
	x, y := 1.25, -3.5
	s := skew2D * (x + y)
	if got, want := f.Noise2(x, y), f.Noise2UnskewedBase(x+s, y+s); got != want {
		t.Errorf("Noise2 = %g, want %g", got, want)
	}
}

func TestNoise2ImproveXTransform(t *testing.T) {
	f := New(5)
	x, y := 0.37, 12.9
	xx := x * root2Over2
	yy := y * (root2Over2 * (1 + 2*skew2D))
	got := f.Noise2ImproveX(x, y)
	want := f.Noise2UnskewedBase(yy+xx, yy-xx)
	if math.Abs(got-want) > 1e-15 {
		t.Errorf("Noise2ImproveX = %g, want %g", got, want)
	}
}

func TestGradientAtReturnsTableEntry(t *testing.T) {
	f := New(1234)
	table := Gradients()
	for i := int64(-20); i < 20; i++ {
		gx, gy := f.gradientAt(i*primeX, (i*7)*primeY)
		found := false
		for j := 0; j < len(table); j += 2 {
			if table[j] == gx && table[j+1] == gy {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("gradientAt returned (%f, %f), not a table pair", gx, gy)
		}
	}
}

// TestGradientAtKnownIndices pins the hash shift and index mask: each lattice
// point must select the table slot computed independently with 64-bit
// wraparound arithmetic.
func TestGradientAtKnownIndices(t *testing.T) {
	table := Gradients()
	cases := []struct {
		seed   int64
		xl, yl int64
		index  int
	}{
		{seed: 1, xl: 0, yl: 0, index: 132},
		{seed: 1, xl: 3, yl: -2, index: 386},
		{seed: 7, xl: 1, yl: 1, index: 270},
		{seed: 42, xl: 100, yl: -100, index: 12},
	}
	for _, c := range cases {
		gx, gy := New(c.seed).gradientAt(c.xl*primeX, c.yl*primeY)
		if gx != table[c.index] || gy != table[c.index+1] {
			t.Errorf("seed %d lattice (%d,%d): got (%g, %g), want slot %d (%g, %g)",
				c.seed, c.xl, c.yl, gx, gy, c.index, table[c.index], table[c.index+1])
		}
	}
}

// TestNoiseKnownValues compares against values computed outside this package.
func TestNoiseKnownValues(t *testing.T) {
	cases := []struct {
		name string
		got  float64
		want float64
	}{
		{"seed 1 Noise2ImproveX(3.7, -2.2)", New(1).Noise2ImproveX(3.7, -2.2), -0.0083657123720965558},
		{"seed 1 Noise2(-10.5, 7.25)", New(1).Noise2(-10.5, 7.25), -0.0017235115493775648},
		{"seed -123456789 Noise2ImproveX(0.01, 0.02)", New(-123456789).Noise2ImproveX(0.01, 0.02), 0.0012517779692069614},
	}
	for _, c := range cases {
		if math.Abs(c.got-c.want) > 1e-15 {
			t.Errorf("%s = %.17g, want %.17g", c.name, c.got, c.want)
		}
	}
}

func TestNoiseDeterministic(t *testing.T) {
	a, b := New(1), New(1)
	c := New(2)
	differs := false
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		x, y := rng.Float64()*50, rng.Float64()*50
		va, vb := a.Noise2ImproveX(x, y), b.Noise2ImproveX(x, y)
		if va != vb {
			t.Fatalf("same seed differs at (%f, %f): %g vs %g", x, y, va, vb)
		}
		if va != c.Noise2ImproveX(x, y) {
			differs = true
		}
	}
	if !differs {
		t.Errorf("seeds 1 and 2 produced identical samples")
	}
}

func TestNoiseFiniteAndBounded(t *testing.T) {
	f := New(-77)
	rng := rand.New(rand.NewSource(2024))
	nonZero := false
	for i := 0; i < 2000; i++ {
		x := rng.Float64()*2000 - 1000
		y := rng.Float64()*2000 - 1000
		v := f.Noise2(x, y)
		if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > 1 {
			t.Fatalf("Noise2(%f, %f) = %g out of range", x, y, v)
		}
		if v != 0 {
			nonZero = true
		}
	}
	if !nonZero {
		t.Errorf("expected some nonzero samples")
	}
}
