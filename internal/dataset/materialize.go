package dataset

import (
	"fmt"
	"math"

	"github.com/josephgoksu/causalfuse/internal/graph"
	"github.com/josephgoksu/causalfuse/types"
)

// Batch is one split in model-ready form.
type Batch struct {
	X [][]float32
	Y []int
	// Groups holds metadata column 0 per row (nil for the train split).
	Groups []int
}

// Len returns the number of rows.
func (b Batch) Len() int { return len(b.Y) }

// Tensors are the train/val/test batches restricted to the selected features.
type Tensors struct {
	// Features are the column indices used, ascending.
	Features   []int
	NumClasses int
	Train      Batch
	Val        Batch
	Test       Batch
}

// Materialize turns a fused structure into tensors and its SelectedNodeSet.
//
// The selected features are those adjacent to a task's label node. A nil
// structure selects every feature; so does a structure whose selection is
// empty, in which case the returned NodeSet is empty. Shape or index
// problems are reported as ErrMaterialization.
func Materialize(store *SampleStore, fused graph.PerTask) (*Tensors, graph.NodeSet, error) {
	var selected graph.NodeSet
	var features []int
	if fused == nil {
		features = allFeatures(store.NumFeatures)
		selected = make(graph.NodeSet, len(features))
		for i, f := range features {
			selected[i] = graph.FeatureNode(f)
		}
	} else {
		selected = fused.Selected(store.Tasks)
		features = selected.Features()
		for _, f := range features {
			if f >= store.NumFeatures {
				return nil, nil, materializationError("feature f%d outside %d reduced features", f, store.NumFeatures)
			}
		}
		if len(features) == 0 {
			features = allFeatures(store.NumFeatures)
		}
	}

	t, err := build(store, features)
	if err != nil {
		return nil, nil, err
	}
	return t, selected, nil
}

func build(store *SampleStore, features []int) (*Tensors, error) {
	t := &Tensors{Features: features}
	maxLabel := -1

	for _, task := range store.Tasks {
		m, ok := store.Train[task]
		if !ok {
			return nil, materializationError("no training samples for task %q", task)
		}
		b, hi, err := slice(m, nil, features, store.NumFeatures, "train/"+task)
		if err != nil {
			return nil, err
		}
		t.Train.X = append(t.Train.X, b.X...)
		t.Train.Y = append(t.Train.Y, b.Y...)
		maxLabel = max(maxLabel, hi)
	}

	var err error
	var hi int
	if t.Val, hi, err = slice(store.Val.Data, store.Val.Meta, features, store.NumFeatures, "val"); err != nil {
		return nil, err
	}
	maxLabel = max(maxLabel, hi)
	if t.Test, hi, err = slice(store.Test.Data, store.Test.Meta, features, store.NumFeatures, "test"); err != nil {
		return nil, err
	}
	maxLabel = max(maxLabel, hi)

	if t.Train.Len() == 0 {
		return nil, materializationError("no training rows")
	}
	t.NumClasses = max(maxLabel+1, 2)
	return t, nil
}

// slice selects feature columns and the trailing label column of m.
func slice(m, meta *Matrix, features []int, numFeatures int, name string) (Batch, int, error) {
	if m == nil {
		return Batch{}, -1, materializationError("%s: missing array", name)
	}
	if m.Cols != numFeatures+1 {
		return Batch{}, -1, materializationError("%s: %d columns, want %d features plus label", name, m.Cols, numFeatures)
	}
	if meta != nil && meta.Rows != m.Rows {
		return Batch{}, -1, materializationError("%s: %d metadata rows for %d samples", name, meta.Rows, m.Rows)
	}

	b := Batch{X: make([][]float32, m.Rows), Y: make([]int, m.Rows)}
	hi := -1
	for i := 0; i < m.Rows; i++ {
		row := m.Row(i)
		x := make([]float32, len(features))
		for j, f := range features {
			x[j] = float32(row[f])
		}
		label := row[numFeatures]
		if math.IsNaN(label) || label < 0 || label != math.Trunc(label) {
			return Batch{}, -1, materializationError("%s: row %d has invalid label %v", name, i, label)
		}
		b.X[i] = x
		b.Y[i] = int(label)
		hi = max(hi, b.Y[i])
	}

	if meta != nil {
		if meta.Cols == 0 {
			return Batch{}, -1, materializationError("%s: metadata has no columns", name)
		}
		b.Groups = make([]int, meta.Rows)
		for i := range b.Groups {
			b.Groups[i] = int(meta.At(i, 0))
		}
	}
	return b, hi, nil
}

func allFeatures(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func materializationError(format string, args ...any) error {
	return types.NewStageError(types.ErrMaterialization, "materialize", "", fmt.Errorf(format, args...))
}
