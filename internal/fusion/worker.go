package fusion

import (
	"context"

	"github.com/josephgoksu/causalfuse/internal/bridge"
	"github.com/josephgoksu/causalfuse/internal/estimator"
	"github.com/josephgoksu/causalfuse/internal/graph"
	"github.com/josephgoksu/causalfuse/types"
)

// WorkerVote delegates vote fusion to an external worker.
type WorkerVote struct {
	Runner     *bridge.Runner
	Collection *estimator.Collection
	Tasks      types.TaskSet
	Params     VoteParams
	Seed       int64
}

// Fuse implements VoteEngine.
func (w *WorkerVote) Fuse(ctx context.Context, threshold float64) (graph.PerTask, error) {
	var resp bridge.StructuresResponse
	err := w.Runner.Call(ctx, bridge.OpVote, bridge.VoteRequest{
		Collection: wireCollection(w.Collection),
		Tasks:      w.Tasks,
		Threshold:  threshold,
		LR:         w.Params.LR,
		Epochs:     w.Params.Epochs,
		Seed:       w.Seed,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.PerTask(w.Tasks)
}

// WorkerSearch delegates search fusion to an external worker.
type WorkerSearch struct {
	Runner     *bridge.Runner
	Collection *estimator.Collection
	Tasks      types.TaskSet
	Params     SearchParams
	Seed       int64
}

// Trajectory implements SearchEngine.
func (w *WorkerSearch) Trajectory(ctx context.Context) (Trajectory, error) {
	var resp bridge.TrajectoryResponse
	err := w.Runner.Call(ctx, bridge.OpSearch, bridge.SearchRequest{
		Collection: wireCollection(w.Collection),
		Tasks:      w.Tasks,
		NTriplets:  w.Params.NTriplets,
		MinIters:   w.Params.MinIters,
		MaxIters:   w.Params.MaxIters,
		Step:       w.Params.Step,
		Seed:       w.Seed,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return Trajectory(resp.Trajectories), nil
}

func wireCollection(c *estimator.Collection) []bridge.NamedEstimate {
	names := c.Names()
	out := make([]bridge.NamedEstimate, len(names))
	for i, name := range names {
		p, _ := c.Get(name)
		out[i] = bridge.NamedEstimate{Name: name, Structures: p}
	}
	return out
}
