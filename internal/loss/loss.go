// Package loss provides the loss functions used by the training loop.
package loss

import (
	"fmt"

	"github.com/FlavioCFOliveira/matnet/internal/matrix"
)

// Loss is a loss function with derivative.
type Loss interface {
	// Forward computes the loss between target and predicted values.
	Forward(target, pred *matrix.Matrix) (float64, error)

	// Backward computes the gradient of the loss w.r.t. pred.
	Backward(target, pred *matrix.Matrix) (*matrix.Matrix, error)
}

func checkShapes(target, pred *matrix.Matrix) error {
	if target.Shape() != pred.Shape() {
		return fmt.Errorf("%w: target %v, prediction %v", matrix.ErrShapeMismatch, target.Shape(), pred.Shape())
	}
	return nil
}

// MSE (Mean Squared Error) loss.
//
// Forward reports the summed squared error over all cells; Backward returns
// the gradient of the mean.
type MSE struct{}

// Forward computes sum((target - pred)^2)
func (MSE) Forward(target, pred *matrix.Matrix) (float64, error) {
	if err := checkShapes(target, pred); err != nil {
		return 0, err
	}
	t, p := target.Data(), pred.Data()
	var sum float64
	for i := range t {
		diff := t[i] - p[i]
		sum += diff * diff
	}
	return sum, nil
}

// Backward computes dL/dpred = -2 * (target - pred) / n
func (MSE) Backward(target, pred *matrix.Matrix) (*matrix.Matrix, error) {
	if err := checkShapes(target, pred); err != nil {
		return nil, err
	}
	grad := pred.Clone()
	if _, err := grad.Sub(target); err != nil {
		return nil, err
	}
	n := float64(len(grad.Data()))
	if n == 0 {
		return grad, nil
	}
	return grad.Scale(2 / n), nil
}
