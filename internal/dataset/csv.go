package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/FlavioCFOliveira/matnet/internal/matrix"
)

// LoadCSV loads data from a CSV file.
// labelCols specifies the indices of columns to be used as labels, in the
// order they appear in each label row. All other columns are features.
// hasHeader skips the first line if true.
//
// Each sample becomes a [1 x features] matrix and each label a [1 x labels]
// matrix.
func LoadCSV(filename string, labelCols []int, hasHeader bool) (*Dataset, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("csv file is empty")
	}

	startRow := 0
	if hasHeader {
		startRow = 1
	}

	if len(records) <= startRow {
		return nil, fmt.Errorf("csv file has no data rows")
	}

	numCols := len(records[0])
	isLabelCol := make(map[int]bool)
	for _, col := range labelCols {
		if col < 0 || col >= numCols {
			return nil, fmt.Errorf("label column %d out of range [0, %d)", col, numCols)
		}
		isLabelCol[col] = true
	}
	numFeatures := numCols - len(isLabelCol)
	if numFeatures == 0 || len(labelCols) == 0 {
		return nil, fmt.Errorf("need at least one feature and one label column, got %d and %d", numFeatures, len(labelCols))
	}

	numSamples := len(records) - startRow
	d := &Dataset{
		Samples: make([]*matrix.Matrix, numSamples),
		Labels:  make([]*matrix.Matrix, numSamples),
	}

	for i := startRow; i < len(records); i++ {
		record := records[i]
		if len(record) != numCols {
			return nil, fmt.Errorf("inconsistent number of columns at row %d", i)
		}

		values := make([]float64, numCols)
		for j, valStr := range record {
			val, err := strconv.ParseFloat(valStr, 64)
			if err != nil {
				return nil, fmt.Errorf("failed to parse value at row %d, col %d: %w", i, j, err)
			}
			values[j] = val
		}

		sample := matrix.New(1, numFeatures)
		k := 0
		for j, v := range values {
			if !isLabelCol[j] {
				sample.Set(0, k, v)
				k++
			}
		}
		label := matrix.New(1, len(labelCols))
		for k, col := range labelCols {
			label.Set(0, k, values[col])
		}

		d.Samples[i-startRow] = sample
		d.Labels[i-startRow] = label
	}

	return d, nil
}
