package dataset

import (
	"fmt"
	"path/filepath"

	"github.com/josephgoksu/causalfuse/types"
	"github.com/sbinet/npyio"
	"github.com/spf13/afero"
)

// Layout describes where a dataset's arrays live. File names embed the
// original feature dimensionality.
type Layout struct {
	LoadPath    string
	NOrig       int
	NumFeatures int
	Tasks       types.TaskSet
}

// LayoutFromConfig builds a Layout from the dataset section of a run config.
func LayoutFromConfig(cfg types.DatasetConfig) Layout {
	return Layout{
		LoadPath:    cfg.LoadPath,
		NOrig:       cfg.NOrigFeatures,
		NumFeatures: cfg.NPCAFeatures,
		Tasks:       cfg.Tasks,
	}
}

// SamplesFile returns the path of a task's training samples.
func (l Layout) SamplesFile(task string) string {
	return filepath.Join(l.LoadPath, fmt.Sprintf("samples_%s_%d.npy", task, l.NOrig))
}

// SplitFile returns the path of the val or test feature array.
func (l Layout) SplitFile(split string) string {
	return filepath.Join(l.LoadPath, fmt.Sprintf("orig_full_%s_%d.npy", split, l.NOrig))
}

// MetadataFile returns the path of the val or test metadata array.
func (l Layout) MetadataFile(split string) string {
	return filepath.Join(l.LoadPath, fmt.Sprintf("metadata_%s.npy", split))
}

// Loader reads dataset arrays through an afero.Fs so tests can use an
// in-memory filesystem.
type Loader struct {
	fs afero.Fs
}

// NewLoader creates a Loader using the provided filesystem.
func NewLoader(fs afero.Fs) *Loader {
	return &Loader{fs: fs}
}

// Load reads every array named by layout into a SampleStore.
func (l *Loader) Load(layout Layout) (*SampleStore, error) {
	store := &SampleStore{
		Tasks:       layout.Tasks,
		NumFeatures: layout.NumFeatures,
		Train:       make(map[string]*Matrix, len(layout.Tasks)),
	}

	for _, task := range layout.Tasks {
		m, err := l.ReadMatrix(layout.SamplesFile(task))
		if err != nil {
			return nil, fmt.Errorf("load samples for task %s: %w", task, err)
		}
		store.Train[task] = m
	}

	for _, split := range []struct {
		name string
		dst  *Split
	}{
		{"val", &store.Val},
		{"test", &store.Test},
	} {
		data, err := l.ReadMatrix(layout.SplitFile(split.name))
		if err != nil {
			return nil, fmt.Errorf("load %s split: %w", split.name, err)
		}
		meta, err := l.ReadMatrix(layout.MetadataFile(split.name))
		if err != nil {
			return nil, fmt.Errorf("load %s metadata: %w", split.name, err)
		}
		split.dst.Data = data
		split.dst.Meta = meta
	}

	return store, nil
}

// ReadMatrix reads a 1-D or 2-D .npy array as a float64 matrix.
// 1-D arrays become a single column.
func (l *Loader) ReadMatrix(path string) (*Matrix, error) {
	f, err := l.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	r, err := npyio.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("read npy header %s: %w", path, err)
	}

	shape := r.Header.Descr.Shape
	var rows, cols int
	switch len(shape) {
	case 1:
		rows, cols = shape[0], 1
	case 2:
		rows, cols = shape[0], shape[1]
	default:
		return nil, fmt.Errorf("%s: unsupported array rank %d", path, len(shape))
	}

	values, err := readValues(r, r.Header.Descr.Type)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if r.Header.Descr.Fortran && len(shape) == 2 {
		values = transpose(values, rows, cols)
	}
	return NewMatrix(rows, cols, values)
}

func readValues(r *npyio.Reader, dtype string) ([]float64, error) {
	switch dtype {
	case "<f8":
		var v []float64
		if err := r.Read(&v); err != nil {
			return nil, err
		}
		return v, nil
	case "<f4":
		var v []float32
		if err := r.Read(&v); err != nil {
			return nil, err
		}
		return widen(v), nil
	case "<i8":
		var v []int64
		if err := r.Read(&v); err != nil {
			return nil, err
		}
		return widen(v), nil
	case "<i4":
		var v []int32
		if err := r.Read(&v); err != nil {
			return nil, err
		}
		return widen(v), nil
	case "|u1":
		var v []uint8
		if err := r.Read(&v); err != nil {
			return nil, err
		}
		return widen(v), nil
	default:
		return nil, fmt.Errorf("unsupported dtype %q", dtype)
	}
}

func widen[T float32 | int64 | int32 | uint8](v []T) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

// transpose converts column-major values to row-major.
func transpose(values []float64, rows, cols int) []float64 {
	out := make([]float64, len(values))
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out[i*cols+j] = values[j*rows+i]
		}
	}
	return out
}
