package estimator

import (
	"context"
	"fmt"

	"github.com/josephgoksu/causalfuse/internal/dataset"
	"github.com/josephgoksu/causalfuse/internal/graph"
	"github.com/josephgoksu/causalfuse/internal/logger"
	"github.com/josephgoksu/causalfuse/types"
)

// Collection maps estimator names to their per-task estimates, keeping
// insertion order. It is read-only once built.
type Collection struct {
	names  []string
	byName map[string]graph.PerTask
}

// NewCollection returns an empty collection.
func NewCollection() *Collection {
	return &Collection{byName: make(map[string]graph.PerTask)}
}

// Add appends an entry. Names must be unique.
func (c *Collection) Add(name string, estimates graph.PerTask) error {
	if _, ok := c.byName[name]; ok {
		return fmt.Errorf("duplicate estimate %q", name)
	}
	c.names = append(c.names, name)
	c.byName[name] = estimates
	return nil
}

// Len returns the number of entries.
func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.names)
}

// Names returns the entry names in insertion order.
func (c *Collection) Names() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.names...)
}

// Get returns the estimates recorded under name.
func (c *Collection) Get(name string) (graph.PerTask, bool) {
	if c == nil {
		return nil, false
	}
	p, ok := c.byName[name]
	return p, ok
}

// Task returns every entry's estimate for one task, in insertion order.
func (c *Collection) Task(task string) []*graph.Structure {
	out := make([]*graph.Structure, 0, c.Len())
	for _, name := range c.Names() {
		out = append(out, c.byName[name][task])
	}
	return out
}

// BuildCollection invokes every planned estimator once, in order, and returns
// the resulting collection. The first failure aborts the build with an
// EstimatorFailure and no collection.
func BuildCollection(ctx context.Context, rc *logger.RunContext, resolver Resolver, store *dataset.SampleStore, plan Plan) (*Collection, error) {
	c := NewCollection()
	for _, entry := range plan {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		family := entry.Kind.Family()
		rc.Stage("estimate:" + entry.Name)
		rc.Log.Info(fmt.Sprintf("Running %s...", entry.Name), "estimator", entry.Name, "family", family.String())

		est, err := resolver.Resolve(entry.Kind)
		if err != nil {
			return nil, types.NewStageError(types.ErrEstimatorFailure, "estimate", entry.Name, err)
		}
		estimates, err := est.Estimate(ctx, Request{
			Kind:       entry.Kind,
			Store:      store,
			Tasks:      rc.Tasks,
			Settings:   entry.Settings,
			ThirdParty: family.ThirdParty(),
			Seed:       rc.Seed,
		})
		if err != nil {
			return nil, types.NewStageError(types.ErrEstimatorFailure, "estimate", entry.Name, err)
		}
		for _, task := range rc.Tasks {
			if estimates[task] == nil {
				return nil, types.NewStageError(types.ErrEstimatorFailure, "estimate", entry.Name,
					fmt.Errorf("no estimate for task %q", task))
			}
		}
		if err := c.Add(entry.Name, estimates); err != nil {
			return nil, types.NewStageError(types.ErrEstimatorFailure, "estimate", entry.Name, err)
		}
		rc.Log.Debug("estimate ready", "estimator", entry.Name, "edges", countEdges(estimates))
	}
	return c, nil
}

func countEdges(p graph.PerTask) int {
	n := 0
	for _, s := range p {
		n += s.NumEdges()
	}
	return n
}
