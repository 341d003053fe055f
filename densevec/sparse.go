package densevec

// DOK is a dictionary-of-keys sparse matrix over *Vector, adapted from the
// teacher package's internal/dok builder. It implements gmres.Operator
// (via Apply) and, when it represents a diagonal
// preconditioner, gmres.Preconditioner as well.
type DOK struct {
	Rows, Cols int

	data map[dokIndex]float64
}

type dokIndex struct {
	row, col int
}

// NewDOK returns an empty r x c sparse matrix.
func NewDOK(r, c int) *DOK {
	return &DOK{Rows: r, Cols: c, data: make(map[dokIndex]float64)}
}

// At returns the (i,j) entry.
func (m *DOK) At(i, j int) float64 {
	if i < 0 || m.Rows <= i {
		panic("densevec: row index out of range")
	}
	if j < 0 || m.Cols <= j {
		panic("densevec: column index out of range")
	}
	return m.data[dokIndex{i, j}]
}

// SetAt sets the (i,j) entry to v.
func (m *DOK) SetAt(i, j int, v float64) {
	if i < 0 || m.Rows <= i {
		panic("densevec: row index out of range")
	}
	if j < 0 || m.Cols <= j {
		panic("densevec: column index out of range")
	}
	m.data[dokIndex{i, j}] = v
}

// Apply implements gmres.Operator[*Vector]: it returns m*v as a fresh
// Vector, without mutating v.
func (m *DOK) Apply(v *Vector) *Vector {
	if m.Cols != v.Len() {
		panic("densevec: dimension mismatch")
	}
	dst := New(m.Rows)
	for ij, aij := range m.data {
		dst.Data[ij.row] += aij * v.Data[ij.col]
	}
	return dst
}

// Solve implements gmres.Preconditioner[*Vector] for a DOK holding the
// entries of a diagonal preconditioner (off-diagonal entries, if any, are
// ignored by the diagonal solve convention used here): it returns
// diag(m)^-1 * v as a fresh Vector.
func (m *DOK) Solve(v *Vector) *Vector {
	if m.Cols != m.Rows || m.Cols != v.Len() {
		panic("densevec: dimension mismatch")
	}
	dst := New(v.Len())
	for i := range dst.Data {
		d := m.data[dokIndex{i, i}]
		if d == 0 {
			panic("densevec: zero diagonal entry in preconditioner")
		}
		dst.Data[i] = v.Data[i] / d
	}
	return dst
}

// Triplet is a coordinate-list sparse matrix over *Vector, adapted from
// the teacher package's internal/triplet builder. Unlike DOK it is
// write-once/append-only and does not support in-place entry updates,
// matching its role as an operator built once from a fixed stencil.
type Triplet struct {
	rows, cols int
	entries    []tripletEntry
}

type tripletEntry struct {
	i, j int
	v    float64
}

// NewTriplet returns an empty r x c sparse matrix.
func NewTriplet(r, c int) *Triplet {
	return &Triplet{rows: r, cols: c}
}

// Dims returns the matrix dimensions.
func (m *Triplet) Dims() (r, c int) { return m.rows, m.cols }

// Append appends the entry (i,j,v) to the matrix.
func (m *Triplet) Append(i, j int, v float64) {
	if i < 0 || m.rows <= i {
		panic("densevec: row index out of range")
	}
	if j < 0 || m.cols <= j {
		panic("densevec: column index out of range")
	}
	m.entries = append(m.entries, tripletEntry{i, j, v})
}

// Apply implements gmres.Operator[*Vector].
func (m *Triplet) Apply(v *Vector) *Vector {
	if m.cols != v.Len() {
		panic("densevec: dimension mismatch")
	}
	dst := New(m.rows)
	for _, e := range m.entries {
		dst.Data[e.i] += e.v * v.Data[e.j]
	}
	return dst
}
