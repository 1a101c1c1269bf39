package layer

import (
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/FlavioCFOliveira/matnet/internal/activations"
	"github.com/FlavioCFOliveira/matnet/internal/matrix"
)

// Activation applies an activation function element-wise. It has no
// parameters and keeps the shape of its input.
type Activation struct {
	act   activations.Activation
	shape matrix.Shape

	lastInput *matrix.Matrix
}

// NewActivation creates an activation layer around act.
func NewActivation(act activations.Activation) *Activation {
	return &Activation{act: act}
}

// Initialize records the input shape, which is also the output shape.
func (a *Activation) Initialize(in matrix.Shape, _ rand.Source) error {
	if in.Rows < 1 || in.Cols < 1 {
		return structural("activation", "input shape must be positive, got %v", in)
	}
	a.shape = in
	a.lastInput = nil
	return nil
}

// Forward returns act(x) element-wise.
func (a *Activation) Forward(x *matrix.Matrix) (*matrix.Matrix, error) {
	if a.shape.Size() == 0 {
		return nil, fmt.Errorf("%w: activation", ErrNotInitialized)
	}
	if err := checkShape("activation", "input", a.shape, x.Shape()); err != nil {
		return nil, err
	}
	a.lastInput = x.Clone()
	return activations.Forward(a.act, x), nil
}

// Backward returns act'(x) ⊙ grad, where x is the cached input.
func (a *Activation) Backward(grad *matrix.Matrix, _ float64) (*matrix.Matrix, error) {
	if a.lastInput == nil {
		return nil, fmt.Errorf("%w: activation", ErrNoForward)
	}
	return activations.Backward(a.act, a.lastInput).MulElem(grad)
}

// OutputShape returns the input shape.
func (a *Activation) OutputShape() matrix.Shape {
	return a.shape
}

func (a *Activation) String() string {
	return fmt.Sprintf("Activation(%s)", typeName(a.act))
}
