// Package dataset loads training data into matrices: IDX image/label files
// and CSV tables.
package dataset

import (
	"github.com/FlavioCFOliveira/matnet/internal/matrix"
)

// Dataset holds parallel sequences of samples and labels.
type Dataset struct {
	Samples []*matrix.Matrix
	Labels  []*matrix.Matrix
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	return len(d.Samples)
}

// Normalize performs per-cell min-max normalization of the samples in place.
// Cells that are constant across the dataset become 0.
func (d *Dataset) Normalize() {
	if len(d.Samples) == 0 {
		return
	}

	first := d.Samples[0].Data()
	lo := append([]float64(nil), first...)
	hi := append([]float64(nil), first...)

	for _, sample := range d.Samples {
		for i, val := range sample.Data() {
			lo[i] = min(lo[i], val)
			hi[i] = max(hi[i], val)
		}
	}

	for _, sample := range d.Samples {
		data := sample.Data()
		for i := range data {
			diff := hi[i] - lo[i]
			if diff != 0 {
				data[i] = (data[i] - lo[i]) / diff
			} else {
				data[i] = 0
			}
		}
	}
}

// Split splits the dataset into two based on the given ratio (0.0 to 1.0).
// Returns two new Datasets (train, test) sharing the matrices of d.
func (d *Dataset) Split(ratio float64) (*Dataset, *Dataset) {
	if ratio <= 0 {
		return &Dataset{}, d
	}
	if ratio >= 1 {
		return d, &Dataset{}
	}

	splitIdx := int(float64(len(d.Samples)) * ratio)

	train := &Dataset{
		Samples: d.Samples[:splitIdx],
		Labels:  d.Labels[:splitIdx],
	}

	test := &Dataset{
		Samples: d.Samples[splitIdx:],
		Labels:  d.Labels[splitIdx:],
	}

	return train, test
}

// OneHot returns a [1 x classes] row with a 1 at label.
func OneHot(label, classes int) *matrix.Matrix {
	m := matrix.New(1, classes)
	if label >= 0 && label < classes {
		m.Set(0, label, 1)
	}
	return m
}

// ArgMax returns the row-major index of the largest cell of m, or -1 for an
// empty matrix. Ties resolve to the first index.
func ArgMax(m *matrix.Matrix) int {
	data := m.Data()
	if len(data) == 0 {
		return -1
	}
	best := 0
	for i, v := range data {
		if v > data[best] {
			best = i
		}
	}
	return best
}
