package layer

import (
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/FlavioCFOliveira/matnet/internal/matrix"
	"github.com/FlavioCFOliveira/matnet/internal/opt"
)

// Dense is a fully connected layer computing x·W + b for a single row x.
type Dense struct {
	size int
	in   matrix.Shape

	// Shape: [in.Cols x size]
	weights *matrix.Matrix
	// Shape: [1 x size]
	bias *matrix.Matrix

	lastInput *matrix.Matrix
}

// NewDense creates a dense layer with size outputs. Parameters are allocated
// by Initialize.
func NewDense(size int) *Dense {
	return &Dense{size: size}
}

// Initialize fixes the input shape, which must be a single row, and draws
// the weights and bias from src.
func (d *Dense) Initialize(in matrix.Shape, src rand.Source) error {
	if in.Rows != 1 || in.Cols < 1 {
		return structural("dense", "input shape must be [1 n], got %v", in)
	}
	if d.size < 1 {
		return structural("dense", "size must be positive, got %d", d.size)
	}
	d.in = in
	d.weights = matrix.Random(in.Cols, d.size, src)
	d.bias = matrix.Random(1, d.size, src)
	d.lastInput = nil
	return nil
}

// Forward computes x·W + b.
func (d *Dense) Forward(x *matrix.Matrix) (*matrix.Matrix, error) {
	if d.weights == nil {
		return nil, fmt.Errorf("%w: dense", ErrNotInitialized)
	}
	if err := checkShape("dense", "input", d.in, x.Shape()); err != nil {
		return nil, err
	}
	out, err := matrix.Multiply(x, d.weights)
	if err != nil {
		return nil, err
	}
	if _, err := out.Add(d.bias); err != nil {
		return nil, err
	}
	d.lastInput = x.Clone()
	return out, nil
}

// Backward propagates grad (shape [1 x size]) and updates W and b.
//
//	dX = grad·Wᵀ
//	dW = xᵀ·grad
func (d *Dense) Backward(grad *matrix.Matrix, learningRate float64) (*matrix.Matrix, error) {
	if d.lastInput == nil {
		return nil, fmt.Errorf("%w: dense", ErrNoForward)
	}
	if err := checkShape("dense", "gradient", d.OutputShape(), grad.Shape()); err != nil {
		return nil, err
	}
	inputGrad, err := matrix.Multiply(grad, matrix.Transpose(d.weights))
	if err != nil {
		return nil, err
	}
	weightGrad, err := matrix.Multiply(matrix.Transpose(d.lastInput), grad)
	if err != nil {
		return nil, err
	}

	sgd := opt.SGD{LearningRate: learningRate}
	if err := sgd.Step(d.weights, weightGrad); err != nil {
		return nil, err
	}
	if err := sgd.Step(d.bias, grad); err != nil {
		return nil, err
	}
	return inputGrad, nil
}

// OutputShape returns [1 x size].
func (d *Dense) OutputShape() matrix.Shape {
	return matrix.Shape{Rows: 1, Cols: d.size}
}

// Params returns weights then biases, flattened.
func (d *Dense) Params() []float64 {
	if d.weights == nil {
		return nil
	}
	params := make([]float64, 0, d.NumParams())
	params = append(params, d.weights.Data()...)
	params = append(params, d.bias.Data()...)
	return params
}

// SetParams updates weights and biases from a flattened slice (in-place).
func (d *Dense) SetParams(params []float64) error {
	if d.weights == nil {
		return fmt.Errorf("%w: dense", ErrNotInitialized)
	}
	return setParams("dense", params, d.weights, d.bias)
}

// NumParams returns in*size + size once initialized.
func (d *Dense) NumParams() int {
	if d.weights == nil {
		return 0
	}
	return len(d.weights.Data()) + len(d.bias.Data())
}

// Weights returns a copy of the weight matrix, or nil before Initialize.
func (d *Dense) Weights() *matrix.Matrix {
	if d.weights == nil {
		return nil
	}
	return d.weights.Clone()
}

// Bias returns a copy of the bias row, or nil before Initialize.
func (d *Dense) Bias() *matrix.Matrix {
	if d.bias == nil {
		return nil
	}
	return d.bias.Clone()
}

// SetWeight sets the weight linking input row to output col.
func (d *Dense) SetWeight(row, col int, val float64) error {
	if d.weights == nil {
		return fmt.Errorf("%w: dense", ErrNotInitialized)
	}
	if row < 0 || row >= d.in.Cols || col < 0 || col >= d.size {
		return fmt.Errorf("%w: dense weight (%d, %d) outside %v", matrix.ErrShapeMismatch, row, col, d.weights.Shape())
	}
	d.weights.Set(row, col, val)
	return nil
}

// SetBias sets the bias of output idx.
func (d *Dense) SetBias(idx int, val float64) error {
	if d.bias == nil {
		return fmt.Errorf("%w: dense", ErrNotInitialized)
	}
	if idx < 0 || idx >= d.size {
		return fmt.Errorf("%w: dense bias %d outside %d outputs", matrix.ErrShapeMismatch, idx, d.size)
	}
	d.bias.Set(0, idx, val)
	return nil
}

// Size returns the number of outputs.
func (d *Dense) Size() int { return d.size }

func (d *Dense) String() string {
	return fmt.Sprintf("Dense(%d)", d.size)
}
