// Package fusion combines an estimate collection into consensus structures,
// either by weighted vote at a threshold or by iterative search with
// snapshots at fixed iteration counts.
package fusion

import (
	"context"
	"fmt"

	"github.com/josephgoksu/causalfuse/internal/estimator"
	"github.com/josephgoksu/causalfuse/internal/graph"
	"github.com/josephgoksu/causalfuse/types"
)

// VoteEngine fuses the collection at one threshold. Calls are independent.
type VoteEngine interface {
	Fuse(ctx context.Context, threshold float64) (graph.PerTask, error)
}

// SearchEngine runs the search once and returns every checkpoint snapshot.
type SearchEngine interface {
	Trajectory(ctx context.Context) (Trajectory, error)
}

// VoteParams configure the vote combiner.
type VoteParams struct {
	LR     float64
	Epochs int
}

// SearchParams configure the search and its checkpoints.
type SearchParams struct {
	NTriplets int
	MinIters  int
	MaxIters  int
	Step      int
}

// Validate checks that the checkpoint range is well formed.
func (p SearchParams) Validate() error {
	if p.Step <= 0 {
		return fmt.Errorf("search step must be positive, got %d", p.Step)
	}
	if p.MinIters < 0 || p.MaxIters < p.MinIters {
		return fmt.Errorf("search iterations [%d, %d] are not an ascending range", p.MinIters, p.MaxIters)
	}
	if p.NTriplets <= 0 {
		return fmt.Errorf("n_triplets must be positive, got %d", p.NTriplets)
	}
	return nil
}

// Checkpoints returns the number of snapshots: floor((max-min)/step)+1.
func (p SearchParams) Checkpoints() int {
	if p.Step <= 0 || p.MaxIters < p.MinIters {
		return 0
	}
	return (p.MaxIters-p.MinIters)/p.Step + 1
}

// Iteration returns the iteration count of snapshot i.
func (p SearchParams) Iteration(i int) int {
	return p.MinIters + i*p.Step
}

// Trajectory holds, per task, the ordered snapshots of one search.
type Trajectory map[string][]*graph.Structure

// At returns snapshot i for every task.
func (t Trajectory) At(tasks []string, i int) graph.PerTask {
	out := make(graph.PerTask, len(tasks))
	for _, task := range tasks {
		out[task] = t[task][i]
	}
	return out
}

func (t Trajectory) check(tasks []string, want int) error {
	for _, task := range tasks {
		snaps, ok := t[task]
		if !ok {
			return fmt.Errorf("no trajectory for task %q", task)
		}
		if len(snaps) != want {
			return fmt.Errorf("task %q: trajectory has %d snapshots, want %d", task, len(snaps), want)
		}
		for i, s := range snaps {
			if s == nil {
				return fmt.Errorf("task %q: snapshot %d is empty", task, i)
			}
		}
	}
	return nil
}

// degenerate returns the fixed fusion result for collections of size 0 or 1.
func degenerate(c *estimator.Collection, tasks types.TaskSet, numFeatures int) (graph.PerTask, bool) {
	switch c.Len() {
	case 0:
		out := make(graph.PerTask, len(tasks))
		for _, task := range tasks {
			out[task] = graph.Empty(numFeatures, task)
		}
		return out, true
	case 1:
		only, _ := c.Get(c.Names()[0])
		return only, true
	default:
		return nil, false
	}
}

type guardedVote struct {
	collection  *estimator.Collection
	tasks       types.TaskSet
	numFeatures int
	inner       VoteEngine
}

// GuardVote wraps inner so collections of size 0 or 1 never reach it, and so
// every result carries one structure per task.
func GuardVote(c *estimator.Collection, tasks types.TaskSet, numFeatures int, inner VoteEngine) VoteEngine {
	return &guardedVote{collection: c, tasks: tasks, numFeatures: numFeatures, inner: inner}
}

func (g *guardedVote) Fuse(ctx context.Context, threshold float64) (graph.PerTask, error) {
	if fixed, ok := degenerate(g.collection, g.tasks, g.numFeatures); ok {
		return fixed, nil
	}
	fused, err := g.inner.Fuse(ctx, threshold)
	if err != nil {
		return nil, fusionError("vote", err)
	}
	for _, task := range g.tasks {
		if fused[task] == nil {
			return nil, fusionError("vote", fmt.Errorf("no fused structure for task %q", task))
		}
	}
	return fused, nil
}

type guardedSearch struct {
	collection  *estimator.Collection
	tasks       types.TaskSet
	numFeatures int
	params      SearchParams
	inner       SearchEngine
}

// GuardSearch wraps inner with the same degenerate-collection handling as
// GuardVote and rejects trajectories of the wrong length.
func GuardSearch(c *estimator.Collection, tasks types.TaskSet, numFeatures int, params SearchParams, inner SearchEngine) SearchEngine {
	return &guardedSearch{collection: c, tasks: tasks, numFeatures: numFeatures, params: params, inner: inner}
}

func (g *guardedSearch) Trajectory(ctx context.Context) (Trajectory, error) {
	n := g.params.Checkpoints()
	if n == 0 {
		return nil, fusionError("search", fmt.Errorf("empty checkpoint range [%d, %d] step %d",
			g.params.MinIters, g.params.MaxIters, g.params.Step))
	}
	if fixed, ok := degenerate(g.collection, g.tasks, g.numFeatures); ok {
		traj := make(Trajectory, len(g.tasks))
		for _, task := range g.tasks {
			snaps := make([]*graph.Structure, n)
			for i := range snaps {
				snaps[i] = fixed[task]
			}
			traj[task] = snaps
		}
		return traj, nil
	}

	traj, err := g.inner.Trajectory(ctx)
	if err != nil {
		return nil, fusionError("search", err)
	}
	if err := traj.check(g.tasks, n); err != nil {
		return nil, fusionError("search", err)
	}
	return traj, nil
}

func fusionError(strategy string, err error) error {
	return types.NewStageError(types.ErrFusionFailure, "fuse", strategy, err)
}
