// Package opt provides the gradient-descent update applied by trainable layers.
package opt

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/FlavioCFOliveira/matnet/internal/matrix"
)

// SGD (Stochastic Gradient Descent) optimizer.
type SGD struct {
	LearningRate float64
}

// Step updates param in place: param = param - lr * grad.
// The gradient is left untouched.
func (s SGD) Step(param, grad *matrix.Matrix) error {
	if param.Shape() != grad.Shape() {
		return fmt.Errorf("%w: gradient %v for parameter %v", matrix.ErrShapeMismatch, grad.Shape(), param.Shape())
	}
	s.StepInPlace(param.Data(), grad.Data())
	return nil
}

// StepInPlace updates params in-place: params = params - lr * gradients
func (s SGD) StepInPlace(params, gradients []float64) {
	floats.AddScaled(params, -s.LearningRate, gradients)
}
