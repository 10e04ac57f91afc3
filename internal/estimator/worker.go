package estimator

import (
	"context"

	"github.com/josephgoksu/causalfuse/internal/bridge"
	"github.com/josephgoksu/causalfuse/internal/graph"
)

// WorkerEstimator runs estimators in an external worker process.
type WorkerEstimator struct {
	Runner  *bridge.Runner
	Dataset bridge.Dataset
}

// Estimate implements Estimator.
func (w *WorkerEstimator) Estimate(ctx context.Context, req Request) (graph.PerTask, error) {
	var resp bridge.StructuresResponse
	err := w.Runner.Call(ctx, bridge.OpEstimate, bridge.EstimateRequest{
		Estimator:  req.Kind.String(),
		Family:     req.Kind.Family().String(),
		Dataset:    w.Dataset,
		Settings:   req.Settings,
		ThirdParty: req.ThirdParty,
		Seed:       req.Seed,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.PerTask(req.Tasks)
}
