package estimator

import (
	"context"
	"fmt"

	"github.com/josephgoksu/causalfuse/internal/dataset"
	"github.com/josephgoksu/causalfuse/internal/graph"
	"github.com/josephgoksu/causalfuse/types"
)

// Request is one estimator invocation.
type Request struct {
	Kind       Kind
	Store      *dataset.SampleStore
	Tasks      types.TaskSet
	Settings   map[string]any
	ThirdParty bool
	Seed       int64
}

// Estimator produces one structure estimate per task.
type Estimator interface {
	Estimate(ctx context.Context, req Request) (graph.PerTask, error)
}

// Func adapts a function to the Estimator interface.
type Func func(ctx context.Context, req Request) (graph.PerTask, error)

// Estimate calls f.
func (f Func) Estimate(ctx context.Context, req Request) (graph.PerTask, error) {
	return f(ctx, req)
}

// Resolver maps a kind to the implementation that runs it.
type Resolver interface {
	Resolve(k Kind) (Estimator, error)
}

// Pool resolves kinds to in-process implementations first and to a fallback
// (normally the worker bridge) otherwise.
type Pool struct {
	impls    map[Kind]Estimator
	fallback Estimator
}

// NewPool returns a Pool with the native estimators registered. fallback may
// be nil, in which case only native kinds resolve.
func NewPool(fallback Estimator) *Pool {
	p := &Pool{impls: make(map[Kind]Estimator), fallback: fallback}
	p.Register(Corr, CorrEstimator{})
	return p
}

// Register sets the implementation for k, replacing any previous one.
func (p *Pool) Register(k Kind, e Estimator) {
	p.impls[k] = e
}

// Resolve implements Resolver.
func (p *Pool) Resolve(k Kind) (Estimator, error) {
	if e, ok := p.impls[k]; ok {
		return e, nil
	}
	if p.fallback != nil {
		return p.fallback, nil
	}
	return nil, fmt.Errorf("estimator %s has no in-process implementation; configure worker.command", k)
}

// Native reports whether k resolves without a fallback.
func (p *Pool) Native(k Kind) bool {
	_, ok := p.impls[k]
	return ok
}
