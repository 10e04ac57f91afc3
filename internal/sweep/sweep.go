package sweep

import (
	"context"
	"errors"
	"fmt"

	"github.com/josephgoksu/causalfuse/internal/graph"
	"github.com/josephgoksu/causalfuse/internal/logger"
	"github.com/josephgoksu/causalfuse/types"
)

// Stage wires one strategy into the sweep loop. T is the materialized
// candidate handed from Materialize to Train.
type Stage[T any] struct {
	Points []Point

	// Fuse returns the fused structure at a point.
	Fuse func(ctx context.Context, p Point) (graph.PerTask, error)

	// Materialize derives the training candidate and its selected nodes.
	Materialize func(fused graph.PerTask) (T, graph.NodeSet, error)

	// Train trains and evaluates one candidate.
	Train func(ctx context.Context, p Point, candidate T) (Scores, error)

	// Header, if set, is logged before each point.
	Header func(p Point) string

	// OnFused, if set, observes every fused structure before materialization.
	OnFused func(p Point, fused graph.PerTask) error
}

// Outcome is the state one sweep owns: its results, its dedup cache and counters.
type Outcome struct {
	Results *Results
	Cache   *DedupCache
	Trained int
	Skipped int
}

// Run visits every point in order. A point whose selected node set was
// already trained in this sweep is logged and skipped. Any error aborts the
// sweep and no outcome is returned.
func Run[T any](ctx context.Context, rc *logger.RunContext, stage Stage[T]) (*Outcome, error) {
	out := &Outcome{Results: NewResults(), Cache: NewDedupCache()}

	for _, p := range stage.Points {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rc.Stage("sweep:" + p.Key)
		if stage.Header != nil {
			rc.Log.Info(stage.Header(p))
		}

		fused, err := stage.Fuse(ctx, p)
		if err != nil {
			return nil, classify(err, types.ErrFusionFailure, "fuse", p.Key)
		}
		if stage.OnFused != nil {
			if err := stage.OnFused(p, fused); err != nil {
				return nil, err
			}
		}

		candidate, nodes, err := stage.Materialize(fused)
		if err != nil {
			return nil, classify(err, types.ErrMaterialization, "materialize", p.Key)
		}
		fp := nodes.Fingerprint()
		rc.Log.Info("selected nodes", "point", p.Key, "nodes", fp.String())

		if first, ok := out.Cache.Contains(fp); ok {
			rc.Log.Info("Nodes cached, skipping training on these nodes", "point", p.Key, "first", first)
			out.Skipped++
			continue
		}

		scores, err := stage.Train(ctx, p, candidate)
		if err != nil {
			return nil, classify(err, types.ErrTraining, "train", p.Key)
		}
		if err := out.Results.Add(Entry{Key: p.Key, Value: p.Value, Nodes: nodes.Canonical(), Scores: scores}); err != nil {
			return nil, err
		}
		out.Cache.Add(fp, p.Key)
		out.Trained++
		rc.Log.Info("candidate scored", "point", p.Key,
			"val", fmt.Sprintf("%.3f", scores.Validation), "test", fmt.Sprintf("%.3f", scores.Test))
	}
	return out, nil
}

// classify wraps err with kind unless it already carries a stage error or a
// context error.
func classify(err, kind error, stage, key string) error {
	var se *types.StageError
	if errors.As(err, &se) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return types.NewStageError(kind, stage, key, err)
}
