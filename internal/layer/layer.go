// Package layer provides neural network layer implementations.
package layer

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/exp/rand"

	"github.com/FlavioCFOliveira/matnet/internal/matrix"
)

var (
	// ErrStructural is returned by Initialize when the predecessor shape
	// cannot feed the layer. It marks an invalid pipeline definition.
	ErrStructural = errors.New("layer: structural precondition violated")
	// ErrNotInitialized is returned by Forward before Initialize succeeded.
	ErrNotInitialized = errors.New("layer: not initialized")
	// ErrNoForward is returned by Backward when no input has been cached yet.
	ErrNoForward = errors.New("layer: backward called before forward")
)

// Layer is a neural network layer.
//
// Forward caches its own copy of the input; Backward uses that cache to
// compute gradients, updates the layer's parameters with gradient descent
// and returns the gradient with respect to the input.
type Layer interface {
	Initialize(in matrix.Shape, src rand.Source) error
	Forward(x *matrix.Matrix) (*matrix.Matrix, error)
	Backward(grad *matrix.Matrix, learningRate float64) (*matrix.Matrix, error)
	OutputShape() matrix.Shape
}

// Parametrized is implemented by layers with trainable parameters.
type Parametrized interface {
	// Params returns a flattened copy of all parameters.
	Params() []float64
	// SetParams overwrites all parameters from a flattened slice.
	SetParams([]float64) error
	// NumParams returns the number of trainable parameters.
	NumParams() int
}

// Describe returns a short name for l: its String form when it has one,
// otherwise its bare type name.
func Describe(l Layer) string {
	if s, ok := l.(fmt.Stringer); ok {
		return s.String()
	}
	return typeName(l)
}

func typeName(v any) string {
	name := fmt.Sprintf("%T", v)
	return name[strings.LastIndexAny(name, ".*")+1:]
}

func structural(layer, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrStructural, layer, fmt.Sprintf(format, args...))
}

func checkShape(layer, what string, want, got matrix.Shape) error {
	if want != got {
		return fmt.Errorf("%w: %s %s %v, want %v", matrix.ErrShapeMismatch, layer, what, got, want)
	}
	return nil
}

// setParams copies params into the backing buffers of dst in order.
func setParams(layer string, params []float64, dst ...*matrix.Matrix) error {
	total := 0
	for _, m := range dst {
		total += len(m.Data())
	}
	if len(params) != total {
		return fmt.Errorf("%w: %s got %d params, want %d", matrix.ErrLengthMismatch, layer, len(params), total)
	}
	for _, m := range dst {
		n := copy(m.Data(), params)
		params = params[n:]
	}
	return nil
}
