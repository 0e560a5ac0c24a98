package terrain

import (
	"fmt"
	"math"
)

// Shape is a 2D extent in cells.
type Shape struct {
	Rows, Cols int
}

func (s Shape) String() string { return fmt.Sprintf("%dx%d", s.Rows, s.Cols) }

// Cells returns Rows*Cols.
func (s Shape) Cells() int { return s.Rows * s.Cols }

// Matrix is a dense row-major grid of heights.
type Matrix struct {
	Rows, Cols int
	Data       []float64
}

// NewMatrix allocates a zero-filled matrix.
func NewMatrix(rows, cols int) *Matrix {
	return &Matrix{Rows: rows, Cols: cols, Data: make([]float64, rows*cols)}
}

// Shape returns the matrix extent.
func (m *Matrix) Shape() Shape { return Shape{Rows: m.Rows, Cols: m.Cols} }

// At returns the value at (row, col).
func (m *Matrix) At(row, col int) float64 { return m.Data[row*m.Cols+col] }

// Set stores v at (row, col).
func (m *Matrix) Set(row, col int, v float64) { m.Data[row*m.Cols+col] = v }

// Row returns the backing slice of one row.
func (m *Matrix) Row(row int) []float64 { return m.Data[row*m.Cols : (row+1)*m.Cols] }

// Clone returns an independent copy.
func (m *Matrix) Clone() *Matrix {
	out := &Matrix{Rows: m.Rows, Cols: m.Cols, Data: make([]float64, len(m.Data))}
	copy(out.Data, m.Data)
	return out
}

// Blit copies sub into the region described by c. sub must have c's shape and
// the region must lie inside m.
func (m *Matrix) Blit(c Chunk, sub *Matrix) {
	for r := 0; r < c.Rows; r++ {
		copy(m.Data[(c.Row0+r)*m.Cols+c.Col0:], sub.Row(r))
	}
}

// MinMax returns the smallest and largest finite values. It returns zeros
// when no value is finite.
func (m *Matrix) MinMax() (lo, hi float64) {
	seen := false
	for _, v := range m.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if !seen {
			lo, hi, seen = v, v, true
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
