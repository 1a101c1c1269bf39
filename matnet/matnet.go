// Package matnet re-exports the matrix type, layers, activations and the
// network orchestrator for use outside this module.
package matnet

import (
	"golang.org/x/exp/rand"

	"github.com/FlavioCFOliveira/matnet/internal/activations"
	"github.com/FlavioCFOliveira/matnet/internal/dataset"
	"github.com/FlavioCFOliveira/matnet/internal/layer"
	"github.com/FlavioCFOliveira/matnet/internal/matrix"
	"github.com/FlavioCFOliveira/matnet/internal/net"
)

// Re-export common types and functions for easier access
type (
	Matrix     = matrix.Matrix
	Shape      = matrix.Shape
	Layer      = layer.Layer
	Activation = activations.Activation
	Network    = net.Network
	Callback   = net.Callback
	Dataset    = dataset.Dataset
)

// Errors
var (
	ErrShapeMismatch  = matrix.ErrShapeMismatch
	ErrLengthMismatch = matrix.ErrLengthMismatch
	ErrStructural     = layer.ErrStructural
	ErrDatasetSize    = net.ErrDatasetSize
)

// Matrices
func NewMatrix(rows, cols int) *Matrix {
	return matrix.New(rows, cols)
}

func FromFlat(data []float64, rows, cols int) (*Matrix, error) {
	return matrix.FromFlat(data, rows, cols)
}

func FromRows(rows [][]float64) (*Matrix, error) {
	return matrix.FromRows(rows)
}

// NewSource returns a seeded random source for SetSource.
func NewSource(seed uint64) rand.Source {
	return rand.NewSource(seed)
}

// Model creation
func NewNetwork(input Shape, learningRate float64) *Network {
	return net.New(input, learningRate)
}

// Activations
var (
	ReLU    = activations.ReLU{}
	Sigmoid = activations.Sigmoid{}
	Tanh    = activations.Tanh{}
	Linear  = activations.Linear{}
)

func LeakyReLU(alpha float64) Activation {
	return activations.NewLeakyReLU(alpha)
}

// Layers
func Dense(size int) Layer {
	return layer.NewDense(size)
}

func Activate(act Activation) Layer {
	return layer.NewActivation(act)
}

func Conv2D(kernel *Matrix, stride, padding int) Layer {
	return layer.NewConv2D(kernel, stride, padding)
}

func Conv2DSized(rows, cols, stride, padding int) Layer {
	return layer.NewConv2DSized(rows, cols, stride, padding)
}

func Flatten() Layer {
	return layer.NewFlatten()
}

// Callbacks
func Logger(interval int) Callback {
	return net.Logger{Interval: interval}
}

func EarlyStopping(patience int, threshold float64) *net.EarlyStopping {
	return net.NewEarlyStopping(patience, threshold)
}

func CSVLogger(filename string, append bool) *net.CSVLogger {
	return net.NewCSVLogger(filename, append)
}

// Data
func LoadCSV(filename string, labelCols []int, hasHeader bool) (*Dataset, error) {
	return dataset.LoadCSV(filename, labelCols, hasHeader)
}

func LoadIDX(imagesPath, labelsPath string, classes int) (*Dataset, error) {
	return dataset.LoadIDX(imagesPath, labelsPath, classes)
}
