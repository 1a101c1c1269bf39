package net

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/FlavioCFOliveira/matnet/internal/activations"
	"github.com/FlavioCFOliveira/matnet/internal/layer"
	"github.com/FlavioCFOliveira/matnet/internal/matrix"
)

func row(t *testing.T, values ...float64) *matrix.Matrix {
	t.Helper()
	m, err := matrix.FromFlat(values, 1, len(values))
	require.NoError(t, err)
	return m
}

func xorData(t *testing.T) (x, y []*matrix.Matrix) {
	t.Helper()
	x = []*matrix.Matrix{row(t, 0, 0), row(t, 0, 1), row(t, 1, 0), row(t, 1, 1)}
	y = []*matrix.Matrix{row(t, 0), row(t, 1), row(t, 1), row(t, 0)}
	return x, y
}

// xorNetwork builds 2 -> hidden -> 1 with sigmoid stages.
func xorNetwork(hidden int, lr float64) *Network {
	return New(matrix.Shape{Rows: 1, Cols: 2}, lr).
		MustAdd(layer.NewDense(hidden)).
		MustAdd(layer.NewActivation(activations.Sigmoid{})).
		MustAdd(layer.NewDense(1)).
		MustAdd(layer.NewActivation(activations.Sigmoid{}))
}

func params(n *Network) []float64 {
	var all []float64
	for _, l := range n.Layers() {
		if p, ok := l.(layer.Parametrized); ok {
			all = append(all, p.Params()...)
		}
	}
	return all
}

func TestNewNetwork(t *testing.T) {
	in := matrix.Shape{Rows: 1, Cols: 3}
	n := New(in, 0.25)

	assert.Empty(t, n.Layers())
	assert.Equal(t, []matrix.Shape{in}, n.Shapes())
	assert.Equal(t, in, n.InputShape())
	assert.Equal(t, in, n.OutputShape())
	assert.Equal(t, 0.25, n.LearningRate())
	assert.Zero(t, n.NumParams())
}

func TestAddChainsShapes(t *testing.T) {
	n := New(matrix.Shape{Rows: 5, Cols: 5}, 0.1)
	require.NoError(t, n.Add(layer.NewConv2DSized(3, 3, 1, 0)))
	require.NoError(t, n.Add(layer.NewActivation(activations.ReLU{})))
	require.NoError(t, n.Add(layer.NewFlatten()))
	require.NoError(t, n.Add(layer.NewDense(2)))

	assert.Equal(t, []matrix.Shape{
		{Rows: 5, Cols: 5},
		{Rows: 3, Cols: 3},
		{Rows: 3, Cols: 3},
		{Rows: 1, Cols: 9},
		{Rows: 1, Cols: 2},
	}, n.Shapes())
	assert.Len(t, n.Layers(), 4)
	assert.Equal(t, 9+9*2+2, n.NumParams())
}

func TestAddStructuralFailureLeavesNetworkUnchanged(t *testing.T) {
	n := New(matrix.Shape{Rows: 2, Cols: 2}, 0.1)

	err := n.Add(layer.NewDense(3))
	assert.ErrorIs(t, err, layer.ErrStructural)
	assert.Empty(t, n.Layers())
	assert.Equal(t, []matrix.Shape{{Rows: 2, Cols: 2}}, n.Shapes())

	err = n.Add(layer.NewConv2DSized(3, 3, 1, 0))
	assert.ErrorIs(t, err, layer.ErrStructural)
	assert.Empty(t, n.Layers())
}

func TestMustAddPanicsOnStructuralFailure(t *testing.T) {
	n := New(matrix.Shape{Rows: 2, Cols: 2}, 0.1)
	assert.Panics(t, func() { n.MustAdd(layer.NewDense(1)) })
	assert.NotPanics(t, func() { n.MustAdd(layer.NewFlatten()).MustAdd(layer.NewDense(1)) })
	assert.Len(t, n.Layers(), 2)
}

func TestPredict(t *testing.T) {
	n := xorNetwork(3, 0.1)
	x := row(t, 1, 0)

	out, err := n.Predict(x)
	require.NoError(t, err)
	assert.Equal(t, matrix.Shape{Rows: 1, Cols: 1}, out.Shape())
	assert.True(t, out.At(0, 0) > 0 && out.At(0, 0) < 1)
	assert.Equal(t, []float64{1, 0}, x.Data(), "input must not be mutated")

	again, err := n.Predict(x)
	require.NoError(t, err)
	assert.Equal(t, out.Data(), again.Data(), "inference must not change parameters")

	_, err = n.Predict(row(t, 1, 2, 3))
	assert.ErrorIs(t, err, matrix.ErrShapeMismatch)
}

func TestPredictEmptyNetwork(t *testing.T) {
	n := New(matrix.Shape{Rows: 1, Cols: 2}, 0.1)
	x := row(t, 3, 4)
	out, err := n.Predict(x)
	require.NoError(t, err)
	assert.Equal(t, x.Data(), out.Data())

	out.Set(0, 0, 0)
	assert.Equal(t, 3.0, x.At(0, 0))
}

func TestTrainDatasetSize(t *testing.T) {
	n := xorNetwork(3, 0.1)
	x, y := xorData(t)
	before := params(n)

	history, err := n.Train(x, y[:3], 10)
	assert.ErrorIs(t, err, ErrDatasetSize)
	assert.Nil(t, history)
	assert.Equal(t, before, params(n), "no training must happen")
}

func TestTrainXOR(t *testing.T) {
	n := xorNetwork(8, 0.5)
	x, y := xorData(t)

	history, err := n.Train(x, y, 10000)
	require.NoError(t, err)
	require.Len(t, history, 10000)

	mean := func(v []float64) float64 {
		var s float64
		for _, f := range v {
			s += f
		}
		return s / float64(len(v))
	}
	assert.Less(t, mean(history[len(history)-100:]), mean(history[:100]))

	pred := make([]float64, len(x))
	for i := range x {
		out, err := n.Predict(x[i])
		require.NoError(t, err)
		pred[i] = out.At(0, 0)
	}
	for _, hi := range []float64{pred[1], pred[2]} {
		for _, lo := range []float64{pred[0], pred[3]} {
			assert.Greater(t, hi, lo, "predictions %v", pred)
		}
	}
}

func TestTrainZeroEpochs(t *testing.T) {
	n := xorNetwork(2, 0.1)
	x, y := xorData(t)
	history, err := n.Train(x, y, 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestTrainEmptyDataset(t *testing.T) {
	n := xorNetwork(2, 0.1)
	history, err := n.Train(nil, nil, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0}, history)
}

func TestTrainReportsSampleErrors(t *testing.T) {
	n := xorNetwork(2, 0.1)
	x := []*matrix.Matrix{row(t, 0, 1), row(t, 1, 1, 1)}
	y := []*matrix.Matrix{row(t, 1), row(t, 0)}

	_, err := n.Train(x, y, 1)
	assert.ErrorIs(t, err, matrix.ErrShapeMismatch)
	assert.ErrorContains(t, err, "sample 1")

	_, err = n.Train([]*matrix.Matrix{row(t, 0, 1)}, []*matrix.Matrix{row(t, 1, 0)}, 1)
	assert.ErrorIs(t, err, matrix.ErrShapeMismatch)
}

func TestTrainIsDeterministic(t *testing.T) {
	x, y := xorData(t)
	a, b := xorNetwork(4, 0.3), xorNetwork(4, 0.3)
	assert.Equal(t, params(a), params(b))

	ha, err := a.Train(x, y, 50)
	require.NoError(t, err)
	hb, err := b.Train(x, y, 50)
	require.NoError(t, err)
	assert.Equal(t, ha, hb)

	c := New(matrix.Shape{Rows: 1, Cols: 2}, 0.3)
	c.SetSource(rand.NewSource(7))
	c.MustAdd(layer.NewDense(4))
	assert.NotEqual(t, params(a)[:12], params(c))
}

func TestEvaluate(t *testing.T) {
	n := xorNetwork(3, 0.1)
	x, y := xorData(t)
	before := params(n)

	got, err := n.Evaluate(x, y)
	require.NoError(t, err)

	var want float64
	for i := range x {
		out, err := n.Predict(x[i])
		require.NoError(t, err)
		d := y[i].At(0, 0) - out.At(0, 0)
		want += d * d
	}
	assert.InDelta(t, want/4, got, 1e-12)
	assert.Equal(t, before, params(n))

	_, err = n.Evaluate(x, y[:1])
	assert.ErrorIs(t, err, ErrDatasetSize)

	empty, err := n.Evaluate(nil, nil)
	require.NoError(t, err)
	assert.Zero(t, empty)
}

type recorder struct {
	BaseCallback
	events []string
}

func (r *recorder) OnTrainBegin(n *Network)            { r.events = append(r.events, "begin") }
func (r *recorder) OnTrainEnd(n *Network)              { r.events = append(r.events, "end") }
func (r *recorder) OnEpochBegin(epoch int, n *Network) { r.events = append(r.events, "epoch") }
func (r *recorder) OnEpochEnd(epoch int, loss float64, n *Network) {
	r.events = append(r.events, "loss")
}

func TestCallbackOrder(t *testing.T) {
	n := xorNetwork(2, 0.1)
	rec := &recorder{}
	n.AddCallback(rec)
	x, y := xorData(t)

	_, err := n.Train(x, y, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"begin", "epoch", "loss", "epoch", "loss", "end"}, rec.events)

	rec.events = nil
	_, err = n.Train(x, y[:1], 2)
	require.Error(t, err)
	assert.Empty(t, rec.events, "callbacks must not run when the dataset is rejected")
}

func TestEarlyStopping(t *testing.T) {
	n := xorNetwork(2, 0.1)
	var out bytes.Buffer
	es := NewEarlyStopping(2, 1e9)
	es.Out = &out
	n.AddCallback(es)
	x, y := xorData(t)

	// No epoch can improve by 1e9, so the first epoch sets the baseline and
	// the next two exhaust the patience.
	history, err := n.Train(x, y, 100)
	require.NoError(t, err)
	assert.Len(t, history, 3)
	assert.True(t, es.ShouldStop())
	assert.Equal(t, 3, es.StoppedEpoch)
	assert.Contains(t, out.String(), "Early stopping at epoch 3")

	// State resets on the next run.
	history, err = n.Train(x, y, 2)
	require.NoError(t, err)
	assert.Len(t, history, 2)
	assert.False(t, es.Stopped)
}

func TestLogger(t *testing.T) {
	n := xorNetwork(2, 0.1)
	var out bytes.Buffer
	n.AddCallback(Logger{Interval: 2, Out: &out})
	x, y := xorData(t)

	history, err := n.Train(x, y, 5)
	require.NoError(t, err)

	lines := bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Contains(t, string(lines[0]), "Epoch 2: loss = ")
	assert.Contains(t, string(lines[1]), "Epoch 4: loss = ")
	assert.Len(t, history, 5)
}

func TestCSVLogger(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "history.csv")
	logger := NewCSVLogger(filename, false)
	n := xorNetwork(2, 0.1)
	n.AddCallback(logger)
	x, y := xorData(t)

	history, err := n.Train(x, y, 3)
	require.NoError(t, err)
	require.NoError(t, logger.Err())

	file, err := os.Open(filename)
	require.NoError(t, err)
	defer file.Close()
	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 4) // header + 3 epochs
	assert.Equal(t, []string{"epoch", "loss", "time_seconds"}, records[0])
	assert.Equal(t, "1", records[1][0])
	assert.Equal(t, "3", records[3][0])
	assert.Len(t, history, 3)
}

func TestCSVLoggerAppend(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "history.csv")
	n := xorNetwork(2, 0.1)
	n.AddCallback(NewCSVLogger(filename, true))
	x, y := xorData(t)

	_, err := n.Train(x, y, 1)
	require.NoError(t, err)
	_, err = n.Train(x, y, 1)
	require.NoError(t, err)

	data, err := os.ReadFile(filename)
	require.NoError(t, err)
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 3, "header is written once")
}

func TestCSVLoggerOpenError(t *testing.T) {
	logger := NewCSVLogger(filepath.Join(t.TempDir(), "missing", "history.csv"), false)
	n := xorNetwork(2, 0.1)
	n.AddCallback(logger)
	x, y := xorData(t)

	history, err := n.Train(x, y, 2)
	require.NoError(t, err)
	assert.Len(t, history, 2)
	assert.Error(t, logger.Err())
}

func TestSummary(t *testing.T) {
	n := xorNetwork(3, 0.5)
	var out bytes.Buffer
	require.NoError(t, n.Summary(&out))

	s := out.String()
	assert.Contains(t, s, "Dense(3)_0")
	assert.Contains(t, s, "Activation(Sigmoid)_1")
	assert.Contains(t, s, "Dense(1)_2")
	assert.Contains(t, s, "[1 3]")
	assert.Contains(t, s, "Total params: 13")
	assert.Contains(t, s, "Learning rate: 0.5")
}
