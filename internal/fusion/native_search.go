package fusion

import (
	"context"

	"github.com/josephgoksu/causalfuse/internal/estimator"
	"github.com/josephgoksu/causalfuse/internal/graph"
	"github.com/josephgoksu/causalfuse/internal/logger"
	"github.com/josephgoksu/causalfuse/types"
)

type searchOp int

const (
	opAdd searchOp = iota
	opRemove
	opReverse
	numOps
)

// NativeSearch is an in-process greedy local search. Each iteration samples
// NTriplets (source, target, operation) proposals over the candidate edges,
// applies the best one that improves agreement with the collection and keeps
// the graph acyclic, and stops improving once no proposal helps.
type NativeSearch struct {
	collection *estimator.Collection
	tasks      types.TaskSet
	params     SearchParams
	seed       int64
}

// NewNativeSearch returns an in-process search engine over c.
func NewNativeSearch(c *estimator.Collection, tasks types.TaskSet, params SearchParams, seed int64) *NativeSearch {
	return &NativeSearch{collection: c, tasks: tasks, params: params, seed: seed}
}

// Trajectory implements SearchEngine.
func (s *NativeSearch) Trajectory(ctx context.Context) (Trajectory, error) {
	if err := s.params.Validate(); err != nil {
		return nil, err
	}
	rng := logger.NewRNG(s.seed)
	traj := make(Trajectory, len(s.tasks))

	for _, task := range s.tasks {
		estimates := s.collection.Task(task)
		candidates, votes := voteMatrix(estimates)
		nodes := unionNodes(estimates)

		support := make([]int, len(candidates))
		index := make(map[graph.Edge]int, len(candidates))
		for i, row := range votes {
			for _, v := range row {
				if v > 0 {
					support[i]++
				}
			}
			index[candidates[i]] = i
		}
		m := len(estimates)
		// gain of including candidate i: estimators agreeing minus those disagreeing
		gain := func(i int) int { return 2*support[i] - m }

		state := newDigraph()
		snaps := make([]*graph.Structure, 0, s.params.Checkpoints())
		next := 0
		for iter := 0; iter <= s.params.MaxIters; iter++ {
			if next < s.params.Checkpoints() && iter == s.params.Iteration(next) {
				snaps = append(snaps, graph.New(nodes, state.edges()))
				next++
			}
			if iter == s.params.MaxIters || len(candidates) == 0 {
				continue
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			bestDelta := 0
			var best func()
			for k := 0; k < s.params.NTriplets; k++ {
				e := candidates[rng.IntN(len(candidates))]
				op := searchOp(rng.IntN(int(numOps)))
				delta, apply := s.propose(state, e, op, index, gain)
				if apply != nil && delta > bestDelta {
					bestDelta, best = delta, apply
				}
			}
			if best != nil {
				best()
			}
		}
		traj[task] = snaps
	}
	return traj, nil
}

// propose scores applying op to edge e. A nil apply means the proposal is
// not applicable or would create a cycle.
func (s *NativeSearch) propose(g *digraph, e graph.Edge, op searchOp, index map[graph.Edge]int, gain func(int) int) (int, func()) {
	i := index[e]
	switch op {
	case opAdd:
		if g.has(e) || g.reaches(e.To, e.From) {
			return 0, nil
		}
		return gain(i), func() { g.add(e) }
	case opRemove:
		if !g.has(e) {
			return 0, nil
		}
		return -gain(i), func() { g.remove(e) }
	case opReverse:
		if !g.has(e) {
			return 0, nil
		}
		rev := graph.Edge{From: e.To, To: e.From}
		delta := -gain(i)
		if j, ok := index[rev]; ok {
			delta += gain(j)
		}
		g.remove(e)
		cyclic := g.reaches(rev.To, rev.From)
		g.add(e)
		if cyclic {
			return 0, nil
		}
		return delta, func() {
			g.remove(e)
			g.add(rev)
		}
	default:
		return 0, nil
	}
}

// digraph is the mutable working graph of one search.
type digraph struct {
	out map[string]map[string]bool
}

func newDigraph() *digraph {
	return &digraph{out: make(map[string]map[string]bool)}
}

func (g *digraph) has(e graph.Edge) bool { return g.out[e.From][e.To] }

func (g *digraph) add(e graph.Edge) {
	if g.out[e.From] == nil {
		g.out[e.From] = make(map[string]bool)
	}
	g.out[e.From][e.To] = true
}

func (g *digraph) remove(e graph.Edge) { delete(g.out[e.From], e.To) }

// reaches reports whether to is reachable from from.
func (g *digraph) reaches(from, to string) bool {
	if from == to {
		return true
	}
	seen := map[string]bool{from: true}
	stack := []string{from}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for next := range g.out[n] {
			if next == to {
				return true
			}
			if !seen[next] {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}
	return false
}

func (g *digraph) edges() []graph.Edge {
	var out []graph.Edge
	for from, tos := range g.out {
		for to := range tos {
			out = append(out, graph.Edge{From: from, To: to})
		}
	}
	return out
}
