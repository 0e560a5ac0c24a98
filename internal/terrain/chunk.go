package terrain

import "math/rand/v2"

// Chunk is one rectangular unit of work: an origin and a shape in map cells.
type Chunk struct {
	Row0, Col0 int
	Rows, Cols int
}

// Shape returns the chunk extent.
func (c Chunk) Shape() Shape { return Shape{Rows: c.Rows, Cols: c.Cols} }

// Overlaps reports whether c and o share any cell.
func (c Chunk) Overlaps(o Chunk) bool {
	return c.Row0 < o.Row0+o.Rows && o.Row0 < c.Row0+c.Rows &&
		c.Col0 < o.Col0+o.Cols && o.Col0 < c.Col0+c.Cols
}

// Plan tiles mapShape with chunkShape and returns the chunks in a random order
// drawn from rng. Only whole tiles are produced: when a map dimension is not a
// multiple of the chunk dimension the remaining high rows or columns are left
// uncovered.
func Plan(mapShape, chunkShape Shape, rng *rand.Rand) []Chunk {
	nr := mapShape.Rows / chunkShape.Rows
	nc := mapShape.Cols / chunkShape.Cols
	chunks := make([]Chunk, 0, nr*nc)
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			chunks = append(chunks, Chunk{
				Row0: i * chunkShape.Rows,
				Col0: j * chunkShape.Cols,
				Rows: chunkShape.Rows,
				Cols: chunkShape.Cols,
			})
		}
	}
	rng.Shuffle(len(chunks), func(i, j int) { chunks[i], chunks[j] = chunks[j], chunks[i] })
	return chunks
}

// Covered returns the extent actually generated for mapShape: whole chunk
// multiples on each axis.
func Covered(mapShape, chunkShape Shape) Shape {
	return Shape{
		Rows: mapShape.Rows / chunkShape.Rows * chunkShape.Rows,
		Cols: mapShape.Cols / chunkShape.Cols * chunkShape.Cols,
	}
}
