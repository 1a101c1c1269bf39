package matrix

import "fmt"

// ConvolveShape computes the output shape of convolving an input of shape in
// with a kernel of shape kernel:
//
//	out = (in + 2*padding - kernel) / stride + 1
//
// for each axis, using floor division.
func ConvolveShape(in, kernel Shape, stride, padding int) (Shape, error) {
	if stride < 1 || padding < 0 {
		return Shape{}, fmt.Errorf("%w: stride %d, padding %d", ErrShapeMismatch, stride, padding)
	}
	spanR := in.Rows + 2*padding - kernel.Rows
	spanC := in.Cols + 2*padding - kernel.Cols
	if kernel.Rows < 1 || kernel.Cols < 1 || spanR < 0 || spanC < 0 {
		return Shape{}, fmt.Errorf("%w: kernel %v does not fit input %v with padding %d",
			ErrShapeMismatch, kernel, in, padding)
	}
	return Shape{spanR/stride + 1, spanC/stride + 1}, nil
}

// Windows walks every (output cell, kernel offset) pair of a convolution and
// calls visit with the output cell (i, j), the resolved input coordinate
// (r, c) and the kernel offset (k, l). Pairs whose input coordinate falls in
// the zero padding are skipped.
//
// Convolve and the Conv2D gradients both use this walk.
func Windows(in, kernel Shape, stride, padding int, visit func(i, j, r, c, k, l int)) error {
	out, err := ConvolveShape(in, kernel, stride, padding)
	if err != nil {
		return err
	}
	for i := 0; i < out.Rows; i++ {
		rBase := i*stride - padding
		for j := 0; j < out.Cols; j++ {
			cBase := j*stride - padding
			for k := 0; k < kernel.Rows; k++ {
				r := rBase + k
				if r < 0 || r >= in.Rows {
					continue
				}
				for l := 0; l < kernel.Cols; l++ {
					c := cBase + l
					if c < 0 || c >= in.Cols {
						continue
					}
					visit(i, j, r, c, k, l)
				}
			}
		}
	}
	return nil
}

// Convolve computes the 2-D cross-correlation of in with kernel using the
// given stride and implicit zero padding.
func Convolve(in, kernel *Matrix, stride, padding int) (*Matrix, error) {
	shape, err := ConvolveShape(in.Shape(), kernel.Shape(), stride, padding)
	if err != nil {
		return nil, err
	}
	out := New(shape.Rows, shape.Cols)
	err = Windows(in.Shape(), kernel.Shape(), stride, padding, func(i, j, r, c, k, l int) {
		out.data[i*out.cols+j] += in.data[r*in.cols+c] * kernel.data[k*kernel.cols+l]
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
