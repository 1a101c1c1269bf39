// Package net provides the network orchestrator: an ordered pipeline of
// layers with a forward inference fold and an online training loop.
package net

import (
	"errors"
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/FlavioCFOliveira/matnet/internal/layer"
	"github.com/FlavioCFOliveira/matnet/internal/loss"
	"github.com/FlavioCFOliveira/matnet/internal/matrix"
)

// ErrDatasetSize is returned by Train and Evaluate when the number of inputs
// and targets differ.
var ErrDatasetSize = errors.New("net: inputs and targets differ in length")

// DefaultSeed seeds the parameter initialisation source of a new Network.
const DefaultSeed = 42

// Network is an ordered sequence of layers trained with per-sample gradient
// descent on the mean squared error.
//
// A Network is not safe for concurrent use: layers cache their last input.
type Network struct {
	layers []layer.Layer
	// shapes[0] is the declared input shape; shapes[i+1] is the output of layers[i].
	shapes []matrix.Shape

	loss         loss.Loss
	learningRate float64
	src          rand.Source

	callbacks []Callback
}

// New creates an empty network accepting inputs of the given shape.
func New(input matrix.Shape, learningRate float64) *Network {
	return &Network{
		shapes:       []matrix.Shape{input},
		loss:         loss.MSE{},
		learningRate: learningRate,
		src:          rand.NewSource(DefaultSeed),
	}
}

// SetSource replaces the random source used to initialise layers added
// afterwards.
func (n *Network) SetSource(src rand.Source) {
	n.src = src
}

// Add initialises l against the current output shape and appends it.
// On failure the network is left unchanged.
func (n *Network) Add(l layer.Layer) error {
	if err := l.Initialize(n.OutputShape(), n.src); err != nil {
		return fmt.Errorf("add layer %d: %w", len(n.layers), err)
	}
	n.layers = append(n.layers, l)
	n.shapes = append(n.shapes, l.OutputShape())
	return nil
}

// MustAdd is like Add but panics if the layer cannot be wired.
func (n *Network) MustAdd(l layer.Layer) *Network {
	if err := n.Add(l); err != nil {
		panic(err)
	}
	return n
}

// AddCallback registers cb for subsequent Train calls.
func (n *Network) AddCallback(cb Callback) {
	n.callbacks = append(n.callbacks, cb)
}

// Predict folds x forward through every layer.
// The result never aliases x.
func (n *Network) Predict(x *matrix.Matrix) (*matrix.Matrix, error) {
	if len(n.layers) == 0 {
		return x.Clone(), nil
	}
	curr := x
	for i, l := range n.layers {
		out, err := l.Forward(curr)
		if err != nil {
			return nil, fmt.Errorf("forward layer %d: %w", i, err)
		}
		curr = out
	}
	return curr, nil
}

func (n *Network) backward(grad *matrix.Matrix) error {
	curr := grad
	for i := len(n.layers) - 1; i >= 0; i-- {
		out, err := n.layers[i].Backward(curr, n.learningRate)
		if err != nil {
			return fmt.Errorf("backward layer %d: %w", i, err)
		}
		curr = out
	}
	return nil
}

// trainSample runs one forward/backward step and returns the sample loss.
func (n *Network) trainSample(x, y *matrix.Matrix) (float64, error) {
	pred, err := n.Predict(x)
	if err != nil {
		return 0, err
	}
	l, err := n.loss.Forward(y, pred)
	if err != nil {
		return 0, err
	}
	grad, err := n.loss.Backward(y, pred)
	if err != nil {
		return 0, err
	}
	return l, n.backward(grad)
}

// Train runs epochs passes over (x, y), updating parameters after every
// sample, and returns the mean per-sample loss of each epoch.
//
// Training ends early when a callback implementing Stopper asks for it; the
// history then holds only the epochs that ran.
func (n *Network) Train(x, y []*matrix.Matrix, epochs int) ([]float64, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("%w: %d inputs, %d targets", ErrDatasetSize, len(x), len(y))
	}

	for _, cb := range n.callbacks {
		cb.OnTrainBegin(n)
	}
	defer func() {
		for _, cb := range n.callbacks {
			cb.OnTrainEnd(n)
		}
	}()

	history := make([]float64, 0, max(epochs, 0))
	for epoch := 1; epoch <= epochs; epoch++ {
		for _, cb := range n.callbacks {
			cb.OnEpochBegin(epoch, n)
		}

		var total float64
		for i := range x {
			l, err := n.trainSample(x[i], y[i])
			if err != nil {
				return history, fmt.Errorf("epoch %d, sample %d: %w", epoch, i, err)
			}
			total += l
		}
		mean := 0.0
		if len(x) > 0 {
			mean = total / float64(len(x))
		}
		history = append(history, mean)

		for _, cb := range n.callbacks {
			cb.OnEpochEnd(epoch, mean, n)
		}
		if n.stopRequested() {
			break
		}
	}
	return history, nil
}

func (n *Network) stopRequested() bool {
	for _, cb := range n.callbacks {
		if s, ok := cb.(Stopper); ok && s.ShouldStop() {
			return true
		}
	}
	return false
}

// Evaluate returns the mean per-sample loss over (x, y) without updating
// any parameter.
func (n *Network) Evaluate(x, y []*matrix.Matrix) (float64, error) {
	if len(x) != len(y) {
		return 0, fmt.Errorf("%w: %d inputs, %d targets", ErrDatasetSize, len(x), len(y))
	}
	if len(x) == 0 {
		return 0, nil
	}
	var total float64
	for i := range x {
		pred, err := n.Predict(x[i])
		if err != nil {
			return 0, fmt.Errorf("sample %d: %w", i, err)
		}
		l, err := n.loss.Forward(y[i], pred)
		if err != nil {
			return 0, fmt.Errorf("sample %d: %w", i, err)
		}
		total += l
	}
	return total / float64(len(x)), nil
}

// Layers returns the layers in forward order.
func (n *Network) Layers() []layer.Layer {
	return append([]layer.Layer(nil), n.layers...)
}

// Shapes returns the shape chain, starting with the input shape.
func (n *Network) Shapes() []matrix.Shape {
	return append([]matrix.Shape(nil), n.shapes...)
}

// InputShape returns the declared input shape.
func (n *Network) InputShape() matrix.Shape {
	return n.shapes[0]
}

// OutputShape returns the output shape of the last layer, or the input shape
// when no layer has been added.
func (n *Network) OutputShape() matrix.Shape {
	return n.shapes[len(n.shapes)-1]
}

// LearningRate returns the gradient descent step size.
func (n *Network) LearningRate() float64 {
	return n.learningRate
}

// NumParams returns the total number of trainable parameters.
func (n *Network) NumParams() int {
	total := 0
	for _, l := range n.layers {
		if p, ok := l.(layer.Parametrized); ok {
			total += p.NumParams()
		}
	}
	return total
}
