package layer

import (
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/FlavioCFOliveira/matnet/internal/matrix"
	"github.com/FlavioCFOliveira/matnet/internal/opt"
)

// Conv2D implements a single-kernel 2D convolutional layer.
// Uses direct convolution computation for correctness.
type Conv2D struct {
	kernel      *matrix.Matrix
	kernelShape matrix.Shape
	stride      int
	padding     int

	in  matrix.Shape
	out matrix.Shape

	// Saved input for backward pass
	lastInput *matrix.Matrix
}

// NewConv2D creates a convolutional layer with a caller-supplied kernel.
// The kernel is copied.
// stride: step between output positions
// padding: zero padding size on every border
func NewConv2D(kernel *matrix.Matrix, stride, padding int) *Conv2D {
	return &Conv2D{
		kernel:      kernel.Clone(),
		kernelShape: kernel.Shape(),
		stride:      stride,
		padding:     padding,
	}
}

// NewConv2DSized creates a convolutional layer whose rows x cols kernel is
// drawn at random during Initialize.
func NewConv2DSized(rows, cols, stride, padding int) *Conv2D {
	return &Conv2D{
		kernelShape: matrix.Shape{Rows: rows, Cols: cols},
		stride:      stride,
		padding:     padding,
	}
}

// Initialize fixes the input shape and computes the output shape
// (in + 2*padding - kernel) / stride + 1 on each axis.
func (c *Conv2D) Initialize(in matrix.Shape, src rand.Source) error {
	out, err := matrix.ConvolveShape(in, c.kernelShape, c.stride, c.padding)
	if err != nil {
		return fmt.Errorf("%w: conv2d: %w", ErrStructural, err)
	}
	if c.kernel == nil {
		c.kernel = matrix.Random(c.kernelShape.Rows, c.kernelShape.Cols, src)
	}
	c.in = in
	c.out = out
	c.lastInput = nil
	return nil
}

// Forward convolves x with the kernel.
func (c *Conv2D) Forward(x *matrix.Matrix) (*matrix.Matrix, error) {
	if c.out.Size() == 0 {
		return nil, fmt.Errorf("%w: conv2d", ErrNotInitialized)
	}
	if err := checkShape("conv2d", "input", c.in, x.Shape()); err != nil {
		return nil, err
	}
	out, err := matrix.Convolve(x, c.kernel, c.stride, c.padding)
	if err != nil {
		return nil, err
	}
	c.lastInput = x.Clone()
	return out, nil
}

// Backward computes, in one walk over the convolution windows,
//
//	dK[k,l] += x[r,c] * grad[i,j]
//	dX[r,c] += K[k,l] * grad[i,j]
//
// then updates the kernel with dK and returns dX.
func (c *Conv2D) Backward(grad *matrix.Matrix, learningRate float64) (*matrix.Matrix, error) {
	if c.lastInput == nil {
		return nil, fmt.Errorf("%w: conv2d", ErrNoForward)
	}
	if err := checkShape("conv2d", "gradient", c.out, grad.Shape()); err != nil {
		return nil, err
	}

	kernelGrad := matrix.New(c.kernelShape.Rows, c.kernelShape.Cols)
	inputGrad := matrix.New(c.in.Rows, c.in.Cols)

	x, g, k := c.lastInput.Data(), grad.Data(), c.kernel.Data()
	dK, dX := kernelGrad.Data(), inputGrad.Data()
	inCols, outCols, kCols := c.in.Cols, c.out.Cols, c.kernelShape.Cols

	err := matrix.Windows(c.in, c.kernelShape, c.stride, c.padding, func(i, j, r, col, ki, kj int) {
		gv := g[i*outCols+j]
		dK[ki*kCols+kj] += x[r*inCols+col] * gv
		dX[r*inCols+col] += k[ki*kCols+kj] * gv
	})
	if err != nil {
		return nil, err
	}

	if err := (opt.SGD{LearningRate: learningRate}).Step(c.kernel, kernelGrad); err != nil {
		return nil, err
	}
	return inputGrad, nil
}

// OutputShape returns the convolution output shape.
func (c *Conv2D) OutputShape() matrix.Shape {
	return c.out
}

// Params returns the kernel, flattened.
func (c *Conv2D) Params() []float64 {
	if c.kernel == nil {
		return nil
	}
	return append([]float64(nil), c.kernel.Data()...)
}

// SetParams overwrites the kernel from a flattened slice.
func (c *Conv2D) SetParams(params []float64) error {
	if c.kernel == nil {
		return fmt.Errorf("%w: conv2d", ErrNotInitialized)
	}
	return setParams("conv2d", params, c.kernel)
}

// NumParams returns the number of kernel cells.
func (c *Conv2D) NumParams() int {
	return c.kernelShape.Size()
}

// Kernel returns a copy of the kernel, or nil before it exists.
func (c *Conv2D) Kernel() *matrix.Matrix {
	if c.kernel == nil {
		return nil
	}
	return c.kernel.Clone()
}

// Stride returns the stride.
func (c *Conv2D) Stride() int { return c.stride }

// Padding returns the padding.
func (c *Conv2D) Padding() int { return c.padding }

func (c *Conv2D) String() string {
	return fmt.Sprintf("Conv2D(%dx%d, stride %d, padding %d)",
		c.kernelShape.Rows, c.kernelShape.Cols, c.stride, c.padding)
}
