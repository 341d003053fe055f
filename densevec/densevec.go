// Package densevec provides a []float64-backed Operand implementation
// (Vector) and a pair of sparse matrix builders (DOK, Triplet) that
// implement Operator and Preconditioner over it: a minimal concrete
// stand-in for exercising the generic solver core end to end, in the
// same role the teacher package's internal/dok and internal/triplet
// packages played for its own []float64-based tests.
package densevec

import "gonum.org/v1/gonum/floats"

// Vector is a dense, []float64-backed operand. Its methods implement
// gmres.Operand[*Vector].
type Vector struct {
	Data []float64
}

// New returns a Vector of the given length, initialized to zero.
func New(n int) *Vector {
	return &Vector{Data: make([]float64, n)}
}

// NewFrom returns a Vector that takes ownership of data.
func NewFrom(data []float64) *Vector {
	return &Vector{Data: data}
}

// Len returns the number of entries in v.
func (v *Vector) Len() int { return len(v.Data) }

// Norm returns the Euclidean norm of v.
func (v *Vector) Norm() float64 {
	return floats.Norm(v.Data, 2)
}

// Dot returns the inner product of v and other.
func (v *Vector) Dot(other *Vector) float64 {
	return floats.Dot(v.Data, other.Data)
}

// Scale returns a new Vector equal to v scaled by alpha.
func (v *Vector) Scale(alpha float64) *Vector {
	dst := make([]float64, len(v.Data))
	copy(dst, v.Data)
	floats.Scale(alpha, dst)
	return &Vector{Data: dst}
}

// AXPY updates v in place: v <- v + alpha*other.
func (v *Vector) AXPY(alpha float64, other *Vector) {
	floats.AddScaled(v.Data, alpha, other.Data)
}

// Add returns a new Vector equal to v + other.
func (v *Vector) Add(other *Vector) *Vector {
	dst := make([]float64, len(v.Data))
	floats.AddTo(dst, v.Data, other.Data)
	return &Vector{Data: dst}
}

// Sub returns a new Vector equal to v - other.
func (v *Vector) Sub(other *Vector) *Vector {
	dst := make([]float64, len(v.Data))
	copy(dst, v.Data)
	floats.SubTo(dst, dst, other.Data)
	return &Vector{Data: dst}
}

// Clone returns a deep copy of v.
func (v *Vector) Clone() *Vector {
	dst := make([]float64, len(v.Data))
	copy(dst, v.Data)
	return &Vector{Data: dst}
}

// Zero returns a new Vector of the same length as v, filled with zeros.
func (v *Vector) Zero() *Vector {
	return New(len(v.Data))
}
