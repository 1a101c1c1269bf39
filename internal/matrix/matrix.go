// Package matrix provides the dense row-major matrix used by every layer.
package matrix

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	// ErrShapeMismatch is returned when operand dimensions are incompatible.
	ErrShapeMismatch = errors.New("matrix: shape mismatch")
	// ErrLengthMismatch is returned when a flat buffer disagrees with its declared shape.
	ErrLengthMismatch = errors.New("matrix: length mismatch")
)

// Shape is a [rows, cols] pair.
type Shape struct {
	Rows int
	Cols int
}

// Size returns Rows*Cols.
func (s Shape) Size() int {
	return s.Rows * s.Cols
}

func (s Shape) String() string {
	return fmt.Sprintf("[%d %d]", s.Rows, s.Cols)
}

// Matrix is a dense 2-D float64 container stored row-major.
// The weight for row r, column c lives at data[r*cols+c].
type Matrix struct {
	rows int
	cols int
	data []float64
}

// New creates a zero-filled matrix.
func New(rows, cols int) *Matrix {
	return &Matrix{rows: rows, cols: cols, data: make([]float64, rows*cols)}
}

// Random creates a matrix whose entries are drawn uniformly from [-1, 1] using src.
func Random(rows, cols int, src rand.Source) *Matrix {
	m := New(rows, cols)
	dist := distuv.Uniform{Min: -1, Max: 1, Src: src}
	for i := range m.data {
		m.data[i] = dist.Rand()
	}
	return m
}

// FromFlat builds a matrix from a row-major buffer. The buffer is copied.
func FromFlat(data []float64, rows, cols int) (*Matrix, error) {
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("%w: negative shape %v", ErrLengthMismatch, Shape{rows, cols})
	}
	if len(data) != rows*cols {
		return nil, fmt.Errorf("%w: %d values for shape %v", ErrLengthMismatch, len(data), Shape{rows, cols})
	}
	m := New(rows, cols)
	copy(m.data, data)
	return m, nil
}

// FromRows builds a matrix from a slice of equally sized rows.
func FromRows(rows [][]float64) (*Matrix, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: matrix needs at least one row", ErrLengthMismatch)
	}
	cols := len(rows[0])
	m := New(len(rows), cols)
	for r, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrLengthMismatch, r, len(row), cols)
		}
		copy(m.data[r*cols:], row)
	}
	return m, nil
}

// Rows returns the number of rows.
func (m *Matrix) Rows() int { return m.rows }

// Cols returns the number of columns.
func (m *Matrix) Cols() int { return m.cols }

// Shape returns the [rows, cols] pair.
func (m *Matrix) Shape() Shape { return Shape{m.rows, m.cols} }

// Data returns the backing row-major slice.
// Only the owner of the matrix may modify it.
func (m *Matrix) Data() []float64 { return m.data }

// At returns the value at (r, c). Bounds are the caller's responsibility.
func (m *Matrix) At(r, c int) float64 {
	return m.data[r*m.cols+c]
}

// Set stores v at (r, c) and returns m.
func (m *Matrix) Set(r, c int, v float64) *Matrix {
	m.data[r*m.cols+c] = v
	return m
}

// Clone returns a deep copy with independent storage.
func (m *Matrix) Clone() *Matrix {
	out := New(m.rows, m.cols)
	copy(out.data, m.data)
	return out
}

// Reshape returns a copy of the flat buffer viewed under a new shape.
func (m *Matrix) Reshape(rows, cols int) (*Matrix, error) {
	return FromFlat(m.data, rows, cols)
}

func (m *Matrix) sameShape(o *Matrix, op string) error {
	if m.rows != o.rows || m.cols != o.cols {
		return fmt.Errorf("%w: %s %v and %v", ErrShapeMismatch, op, m.Shape(), o.Shape())
	}
	return nil
}

// Add adds o to m element-wise in place.
func (m *Matrix) Add(o *Matrix) (*Matrix, error) {
	if err := m.sameShape(o, "add"); err != nil {
		return nil, err
	}
	floats.Add(m.data, o.data)
	return m, nil
}

// Sub subtracts o from m element-wise in place.
func (m *Matrix) Sub(o *Matrix) (*Matrix, error) {
	if err := m.sameShape(o, "sub"); err != nil {
		return nil, err
	}
	floats.Sub(m.data, o.data)
	return m, nil
}

// MulElem multiplies m by o element-wise (Hadamard product) in place.
func (m *Matrix) MulElem(o *Matrix) (*Matrix, error) {
	if err := m.sameShape(o, "elementwise multiply"); err != nil {
		return nil, err
	}
	floats.Mul(m.data, o.data)
	return m, nil
}

// AddScalar adds v to every element in place.
func (m *Matrix) AddScalar(v float64) *Matrix {
	floats.AddConst(v, m.data)
	return m
}

// SubScalar subtracts v from every element in place.
func (m *Matrix) SubScalar(v float64) *Matrix {
	floats.AddConst(-v, m.data)
	return m
}

// Scale multiplies every element by v in place.
func (m *Matrix) Scale(v float64) *Matrix {
	floats.Scale(v, m.data)
	return m
}

// Apply replaces every element x with fn(x) in place.
func (m *Matrix) Apply(fn func(float64) float64) *Matrix {
	for i, v := range m.data {
		m.data[i] = fn(v)
	}
	return m
}

// dense wraps the backing buffer as a gonum matrix without copying.
// gonum rejects empty dimensions, so callers check for them first.
func (m *Matrix) dense() *mat.Dense {
	return mat.NewDense(m.rows, m.cols, m.data)
}

func (m *Matrix) empty() bool {
	return m.rows == 0 || m.cols == 0
}

// Transpose returns a new matrix with rows and columns swapped.
func Transpose(m *Matrix) *Matrix {
	out := New(m.cols, m.rows)
	if m.empty() {
		return out
	}
	out.dense().Copy(m.dense().T())
	return out
}

// Multiply returns the matrix product a·b.
func Multiply(a, b *Matrix) (*Matrix, error) {
	if a.cols != b.rows {
		return nil, fmt.Errorf("%w: multiply %v by %v", ErrShapeMismatch, a.Shape(), b.Shape())
	}
	out := New(a.rows, b.cols)
	if a.empty() || b.empty() {
		return out, nil
	}
	out.dense().Mul(a.dense(), b.dense())
	return out, nil
}

// Equal reports whether a and b have the same shape and identical elements.
func Equal(a, b *Matrix) bool {
	return a.rows == b.rows && a.cols == b.cols && floats.Equal(a.data, b.data)
}

// EqualApprox reports whether a and b have the same shape and every element
// pair differs by at most tol.
func EqualApprox(a, b *Matrix, tol float64) bool {
	return a.rows == b.rows && a.cols == b.cols && floats.EqualApprox(a.data, b.data, tol)
}

func (m *Matrix) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for r := 0; r < m.rows; r++ {
		if r > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(fmt.Sprint(m.data[r*m.cols : (r+1)*m.cols]))
	}
	sb.WriteString("]")
	return sb.String()
}
