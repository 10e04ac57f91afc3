package estimator

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/josephgoksu/causalfuse/internal/graph"
	"github.com/openfluke/loom/nn"
)

// Default settings of the correlation estimator.
const (
	DefaultCorrThreshold = 0.1
)

// CorrEstimator links each feature to a task's label when their absolute
// Pearson correlation reaches a threshold. Settings: "threshold" (float) and
// "max_parents" (int, 0 for no limit).
type CorrEstimator struct{}

// Estimate implements Estimator.
func (CorrEstimator) Estimate(ctx context.Context, req Request) (graph.PerTask, error) {
	if req.Store == nil {
		return nil, fmt.Errorf("corr: no sample store")
	}
	threshold, err := floatSetting(req.Settings, "threshold", DefaultCorrThreshold)
	if err != nil {
		return nil, err
	}
	maxParents, err := intSetting(req.Settings, "max_parents", 0)
	if err != nil {
		return nil, err
	}

	n := req.Store.NumFeatures
	out := make(graph.PerTask, len(req.Tasks))
	for _, task := range req.Tasks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := req.Store.Rows(task)
		if err != nil {
			return nil, err
		}
		if len(rows) < 2 {
			return nil, fmt.Errorf("corr: task %s needs at least 2 samples, got %d", task, len(rows))
		}

		result := nn.ComputeCorrelationMatrix(rows, nil)
		if result == nil || len(result.Correlation.Matrix) != n+1 {
			return nil, fmt.Errorf("corr: task %s: correlation matrix has wrong shape", task)
		}
		labelRow := result.Correlation.Matrix[n]

		type scored struct {
			feature int
			abs     float64
		}
		var picked []scored
		for i := 0; i < n; i++ {
			c := math.Abs(float64(labelRow[i]))
			if math.IsNaN(c) || c < threshold {
				continue
			}
			picked = append(picked, scored{feature: i, abs: c})
		}
		sort.SliceStable(picked, func(a, b int) bool { return picked[a].abs > picked[b].abs })
		if maxParents > 0 && len(picked) > maxParents {
			picked = picked[:maxParents]
		}

		edges := make([]graph.Edge, len(picked))
		for i, p := range picked {
			edges[i] = graph.Edge{From: graph.FeatureNode(p.feature), To: task}
		}
		out[task] = graph.New(graph.Empty(n, task).Nodes(), edges)
	}
	return out, nil
}

func floatSetting(settings map[string]any, key string, def float64) (float64, error) {
	v, ok := settings[key]
	if !ok {
		return def, nil
	}
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	default:
		return 0, fmt.Errorf("setting %s: want a number, got %T", key, v)
	}
}

func intSetting(settings map[string]any, key string, def int) (int, error) {
	v, ok := settings[key]
	if !ok {
		return def, nil
	}
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case float64:
		if x != math.Trunc(x) {
			return 0, fmt.Errorf("setting %s: want an integer, got %v", key, x)
		}
		return int(x), nil
	default:
		return 0, fmt.Errorf("setting %s: want an integer, got %T", key, v)
	}
}
