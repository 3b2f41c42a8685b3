package mumps

import "math"

// Matrix is any coordinate-form sparse matrix: parallel slices of 0-based
// row indices, column indices, and values, plus the square dimension.
// Duplicate coordinates are summed by the library. For Complex systems,
// Values holds interleaved re/im pairs of twice the coordinate count.
type Matrix interface {
	Rows() []int32
	Cols() []int32
	Values() []float64
	Dim() int
}

// Triplets is a plain coordinate-form matrix.
type Triplets struct {
	I []int32
	J []int32
	V []float64
	N int
}

func (t *Triplets) Rows() []int32     { return t.I }
func (t *Triplets) Cols() []int32     { return t.J }
func (t *Triplets) Values() []float64 { return t.V }
func (t *Triplets) Dim() int          { return t.N }

// IsSymmetric reports whether the matrix equals its transpose within tol,
// either absolutely or relative to the Frobenius norm of the values.
// Duplicate coordinates are summed before comparison. Only meaningful for
// real-valued triplets.
func (t *Triplets) IsSymmetric(tol float64) bool {
	type coord struct{ i, j int32 }

	entries := make(map[coord]float64, len(t.I))
	for k := range t.I {
		entries[coord{t.I[k], t.J[k]}] += t.V[k]
	}

	var maxDiff, sq float64
	for c, v := range entries {
		sq += v * v
		if c.i == c.j {
			continue
		}
		d := math.Abs(v - entries[coord{c.j, c.i}])
		if d > maxDiff {
			maxDiff = d
		}
	}

	if maxDiff < tol {
		return true
	}
	return maxDiff < tol*math.Sqrt(sq)
}
