package layer

import (
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/FlavioCFOliveira/matnet/internal/matrix"
)

// Flatten reshapes a [rows x cols] input into a single [1 x rows*cols] row.
// This is useful for connecting convolutional layers to dense layers.
type Flatten struct {
	in  matrix.Shape
	out matrix.Shape
}

// NewFlatten creates a new flatten layer.
func NewFlatten() *Flatten {
	return &Flatten{}
}

// Initialize records the input shape and sets the output to [1 x rows*cols].
func (f *Flatten) Initialize(in matrix.Shape, _ rand.Source) error {
	if in.Rows < 1 || in.Cols < 1 {
		return structural("flatten", "input shape must be positive, got %v", in)
	}
	f.in = in
	f.out = matrix.Shape{Rows: 1, Cols: in.Size()}
	return nil
}

// Forward reinterprets the row-major buffer of x as a single row.
func (f *Flatten) Forward(x *matrix.Matrix) (*matrix.Matrix, error) {
	if f.out.Size() == 0 {
		return nil, fmt.Errorf("%w: flatten", ErrNotInitialized)
	}
	if err := checkShape("flatten", "input", f.in, x.Shape()); err != nil {
		return nil, err
	}
	return x.Reshape(f.out.Rows, f.out.Cols)
}

// Backward reshapes the gradient back to the input shape.
// Gradient values flow through unchanged.
func (f *Flatten) Backward(grad *matrix.Matrix, _ float64) (*matrix.Matrix, error) {
	if f.out.Size() == 0 {
		return nil, fmt.Errorf("%w: flatten", ErrNotInitialized)
	}
	if err := checkShape("flatten", "gradient", f.out, grad.Shape()); err != nil {
		return nil, err
	}
	return grad.Reshape(f.in.Rows, f.in.Cols)
}

// OutputShape returns [1 x rows*cols].
func (f *Flatten) OutputShape() matrix.Shape {
	return f.out
}

func (f *Flatten) String() string {
	return "Flatten"
}
