// Package dataset loads the per-task sample arrays and validation/test splits
// of a run and materializes model-ready tensors from a fused structure.
package dataset

import (
	"fmt"

	"github.com/josephgoksu/causalfuse/types"
)

// Matrix is a dense row-major matrix.
type Matrix struct {
	Rows int
	Cols int
	Data []float64
}

// NewMatrix wraps data as a rows x cols matrix.
func NewMatrix(rows, cols int, data []float64) (*Matrix, error) {
	if rows < 0 || cols < 0 || len(data) != rows*cols {
		return nil, fmt.Errorf("matrix %dx%d needs %d values, got %d", rows, cols, rows*cols, len(data))
	}
	return &Matrix{Rows: rows, Cols: cols, Data: data}, nil
}

// FromRows builds a matrix from equal-length rows.
func FromRows(rows [][]float64) (*Matrix, error) {
	if len(rows) == 0 {
		return &Matrix{}, nil
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, r := range rows {
		if len(r) != cols {
			return nil, fmt.Errorf("row %d has %d columns, want %d", i, len(r), cols)
		}
		data = append(data, r...)
	}
	return &Matrix{Rows: len(rows), Cols: cols, Data: data}, nil
}

// At returns the element at row i, column j.
func (m *Matrix) At(i, j int) float64 {
	return m.Data[i*m.Cols+j]
}

// Row returns row i without copying.
func (m *Matrix) Row(i int) []float64 {
	return m.Data[i*m.Cols : (i+1)*m.Cols]
}

// Split is a held-out split: feature columns followed by a label column,
// plus one metadata row per sample.
type Split struct {
	Data *Matrix
	Meta *Matrix
}

// SampleStore is the read-only sample data of a run.
type SampleStore struct {
	Tasks types.TaskSet
	// NumFeatures is the reduced feature dimensionality (feature columns per row).
	NumFeatures int
	// Train holds each task's samples, feature columns followed by a label column.
	Train map[string]*Matrix
	Val   Split
	Test  Split
}

// Rows returns the task's training samples as [][]float32 rows for
// estimators that consume row-major float32 data (features then label).
func (s *SampleStore) Rows(task string) ([][]float32, error) {
	m, ok := s.Train[task]
	if !ok {
		return nil, fmt.Errorf("no samples for task %q", task)
	}
	out := make([][]float32, m.Rows)
	for i := range out {
		row := m.Row(i)
		r := make([]float32, len(row))
		for j, v := range row {
			r[j] = float32(v)
		}
		out[i] = r
	}
	return out, nil
}
