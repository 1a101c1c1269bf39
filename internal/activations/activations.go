// Package activations provides scalar activation functions and their
// element-wise lift over matrices.
package activations

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/FlavioCFOliveira/matnet/internal/matrix"
)

// ErrUnknownActivation is returned by ByName for unrecognised names.
var ErrUnknownActivation = errors.New("activations: unknown activation")

// Activation is an activation function with derivative.
type Activation interface {
	// Activate computes f(x)
	Activate(x float64) float64

	// Derivative computes f'(x)
	Derivative(x float64) float64
}

// ReLU activation function.
type ReLU struct{}

// Activate computes max(0, x)
func (r ReLU) Activate(x float64) float64 {
	if x > 0 {
		return x
	}
	return 0
}

// Derivative returns 1 if x > 0, else 0
func (r ReLU) Derivative(x float64) float64 {
	if x > 0 {
		return 1
	}
	return 0
}

// Sigmoid activation function.
type Sigmoid struct{}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Activate computes sigmoid(x)
func (s Sigmoid) Activate(x float64) float64 {
	return sigmoid(x)
}

// Derivative computes sigmoid(x) * (1 - sigmoid(x))
func (s Sigmoid) Derivative(x float64) float64 {
	sigma := sigmoid(x)
	return sigma * (1 - sigma)
}

// LeakyReLU keeps a small slope for negative inputs.
type LeakyReLU struct {
	Alpha float64 // Slope for x <= 0
}

// NewLeakyReLU creates a LeakyReLU with the given alpha value.
func NewLeakyReLU(alpha float64) *LeakyReLU {
	return &LeakyReLU{Alpha: alpha}
}

// Activate computes x if x > 0, else alpha*x
func (l *LeakyReLU) Activate(x float64) float64 {
	if x > 0 {
		return x
	}
	return l.Alpha * x
}

// Derivative returns 1 if x > 0, else alpha
func (l *LeakyReLU) Derivative(x float64) float64 {
	if x > 0 {
		return 1
	}
	return l.Alpha
}

// Tanh activation function.
type Tanh struct{}

// Activate computes tanh(x)
func (t Tanh) Activate(x float64) float64 {
	return math.Tanh(x)
}

// Derivative computes 1 - tanh(x)^2
func (t Tanh) Derivative(x float64) float64 {
	tanhX := math.Tanh(x)
	return 1 - tanhX*tanhX
}

// Linear is the identity activation, used for regression outputs.
type Linear struct{}

// Activate returns x unchanged.
func (Linear) Activate(x float64) float64 { return x }

// Derivative returns 1.
func (Linear) Derivative(float64) float64 { return 1 }

// Forward returns a new matrix holding a.Activate applied to every element of m.
func Forward(a Activation, m *matrix.Matrix) *matrix.Matrix {
	return m.Clone().Apply(a.Activate)
}

// Backward returns a new matrix holding a.Derivative applied to every element of m.
func Backward(a Activation, m *matrix.Matrix) *matrix.Matrix {
	return m.Clone().Apply(a.Derivative)
}

// DefaultLeakyAlpha is the slope ByName uses for "leaky_relu".
const DefaultLeakyAlpha = 0.01

// ByName resolves an activation from its command-line name.
func ByName(name string) (Activation, error) {
	switch strings.ToLower(name) {
	case "sigmoid":
		return Sigmoid{}, nil
	case "relu":
		return ReLU{}, nil
	case "leaky_relu", "leakyrelu":
		return NewLeakyReLU(DefaultLeakyAlpha), nil
	case "tanh":
		return Tanh{}, nil
	case "linear", "identity":
		return Linear{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownActivation, name)
}
