package terrain

import (
	"math"
	"testing"
)

func TestMatrixCloneIsIndependent(t *testing.T) {
	m := NewMatrix(2, 3)
	m.Set(1, 2, 7)
	c := m.Clone()
	c.Set(1, 2, 9)
	if m.At(1, 2) != 7 {
		t.Errorf("mutating the clone changed the source: got %f", m.At(1, 2))
	}
	if c.Shape() != (Shape{Rows: 2, Cols: 3}) {
		t.Errorf("unexpected clone shape %v", c.Shape())
	}
}

func TestMatrixBlit(t *testing.T) {
	m := NewMatrix(4, 5)
	sub := NewMatrix(2, 3)
	for i := range sub.Data {
		sub.Data[i] = float64(i + 1)
	}
	m.Blit(Chunk{Row0: 1, Col0: 2, Rows: 2, Cols: 3}, sub)

	for r := 0; r < 4; r++ {
		for c := 0; c < 5; c++ {
			inside := r >= 1 && r < 3 && c >= 2 && c < 5
			got := m.At(r, c)
			if inside {
				if want := sub.At(r-1, c-2); got != want {
					t.Errorf("cell (%d,%d) = %f, want %f", r, c, got, want)
				}
			} else if got != 0 {
				t.Errorf("cell (%d,%d) outside the chunk = %f, want 0", r, c, got)
			}
		}
	}
}

func TestMatrixMinMax(t *testing.T) {
	m := NewMatrix(1, 4)
	copy(m.Data, []float64{0.5, -2, 3, 1})
	lo, hi := m.MinMax()
	if lo != -2 || hi != 3 {
		t.Errorf("MinMax = (%f, %f), want (-2, 3)", lo, hi)
	}
	if lo, hi := NewMatrix(0, 0).MinMax(); lo != 0 || hi != 0 {
		t.Errorf("empty MinMax = (%f, %f)", lo, hi)
	}
	copy(m.Data, []float64{math.NaN(), 4, math.NaN(), -1})
	if lo, hi := m.MinMax(); lo != -1 || hi != 4 {
		t.Errorf("MinMax with NaN = (%f, %f), want (-1, 4)", lo, hi)
	}
	copy(m.Data, []float64{math.Inf(1), 2, math.Inf(-1), -3})
	if lo, hi := m.MinMax(); lo != -3 || hi != 2 {
		t.Errorf("MinMax with Inf = (%f, %f), want (-3, 2)", lo, hi)
	}
}
