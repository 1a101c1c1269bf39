package matnet_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FlavioCFOliveira/matnet/matnet"
)

func TestFacadeBuildsAndTrains(t *testing.T) {
	n := matnet.NewNetwork(matnet.Shape{Rows: 3, Cols: 3}, 0.1)
	n.SetSource(matnet.NewSource(1))
	kernel, err := matnet.FromRows([][]float64{{1, 0}, {0, -1}})
	require.NoError(t, err)

	n.MustAdd(matnet.Conv2D(kernel, 1, 0)).
		MustAdd(matnet.Activate(matnet.LeakyReLU(0.1))).
		MustAdd(matnet.Flatten()).
		MustAdd(matnet.Dense(1))

	x := matnet.NewMatrix(3, 3).Set(1, 1, 1)
	y := matnet.NewMatrix(1, 1).Set(0, 0, 0.5)
	history, err := n.Train([]*matnet.Matrix{x}, []*matnet.Matrix{y}, 20)
	require.NoError(t, err)
	assert.Len(t, history, 20)
	assert.Less(t, history[19], history[0])

	_, err = n.Train([]*matnet.Matrix{x}, nil, 1)
	assert.ErrorIs(t, err, matnet.ErrDatasetSize)
	assert.ErrorIs(t, n.Add(matnet.Conv2DSized(3, 3, 1, 0)), matnet.ErrStructural)
}

func ExampleConv2D() {
	in, _ := matnet.FromRows([][]float64{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}})
	kernel, _ := matnet.FromRows([][]float64{{10, 11}, {12, 13}})

	n := matnet.NewNetwork(in.Shape(), 0.1)
	n.MustAdd(matnet.Conv2D(kernel, 1, 0))
	out, _ := n.Predict(in)
	fmt.Println(out)
	// Output: [[145 191] [283 329]]
}
