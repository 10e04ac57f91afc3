package fusion

import (
	"context"
	"math"

	"github.com/josephgoksu/causalfuse/internal/estimator"
	"github.com/josephgoksu/causalfuse/internal/graph"
	"github.com/josephgoksu/causalfuse/types"
)

const (
	initialAccuracy = 0.7
	minProb         = 1e-6
)

// NativeVote is an in-process weighted vote. Each candidate edge (an edge any
// estimator proposed) is a sample; each estimator votes for or against it.
// Estimator weights are the log-odds of their agreement with the current
// posterior, refit for Epochs rounds at rate LR on every call. The threshold
// is the prior probability that an edge is absent.
type NativeVote struct {
	collection *estimator.Collection
	tasks      types.TaskSet
	params     VoteParams
}

// NewNativeVote returns an in-process vote engine over c.
func NewNativeVote(c *estimator.Collection, tasks types.TaskSet, params VoteParams) *NativeVote {
	return &NativeVote{collection: c, tasks: tasks, params: params}
}

// Fuse implements VoteEngine.
func (v *NativeVote) Fuse(ctx context.Context, threshold float64) (graph.PerTask, error) {
	prior := logit(clamp(1-threshold, minProb, 1-minProb))
	out := make(graph.PerTask, len(v.tasks))

	for _, task := range v.tasks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		estimates := v.collection.Task(task)
		edges, votes := voteMatrix(estimates)
		weights := v.fitWeights(votes, prior)

		var kept []graph.Edge
		for i, e := range edges {
			if posterior(votes[i], weights, prior) > 0.5 {
				kept = append(kept, e)
			}
		}
		out[task] = graph.New(unionNodes(estimates), kept)
	}
	return out, nil
}

// fitWeights moves each estimator's weight toward the log-odds of its
// agreement with the posterior under the current weights.
func (v *NativeVote) fitWeights(votes [][]float64, prior float64) []float64 {
	m := v.collection.Len()
	weights := make([]float64, m)
	for j := range weights {
		weights[j] = logit(initialAccuracy)
	}
	if len(votes) == 0 {
		return weights
	}
	rate := clamp(v.params.LR, 0, 1)

	for epoch := 0; epoch < v.params.Epochs; epoch++ {
		post := make([]float64, len(votes))
		for i, row := range votes {
			post[i] = posterior(row, weights, prior)
		}
		for j := range weights {
			agree := 0.0
			for i, row := range votes {
				if row[j] > 0 {
					agree += post[i]
				} else {
					agree += 1 - post[i]
				}
			}
			acc := clamp(agree/float64(len(votes)), 0.05, 0.95)
			weights[j] += rate * (logit(acc) - weights[j])
		}
	}
	return weights
}

// voteMatrix lists the candidate edges in sorted order and, for each, a
// +1/-1 vote per estimator.
func voteMatrix(estimates []*graph.Structure) ([]graph.Edge, [][]float64) {
	var all []graph.Edge
	for _, s := range estimates {
		all = append(all, s.Edges()...)
	}
	candidates := graph.New(nil, all).Edges()

	votes := make([][]float64, len(candidates))
	for i, e := range candidates {
		row := make([]float64, len(estimates))
		for j, s := range estimates {
			if s.HasEdge(e.From, e.To) {
				row[j] = 1
			} else {
				row[j] = -1
			}
		}
		votes[i] = row
	}
	return candidates, votes
}

func posterior(row, weights []float64, prior float64) float64 {
	z := prior
	for j, vote := range row {
		z += vote * weights[j]
	}
	return sigmoid(z)
}

func unionNodes(estimates []*graph.Structure) []string {
	var nodes []string
	for _, s := range estimates {
		nodes = append(nodes, s.Nodes()...)
	}
	return nodes
}

func sigmoid(z float64) float64 { return 1 / (1 + math.Exp(-z)) }

func logit(p float64) float64 { return math.Log(p / (1 - p)) }

func clamp(x, lo, hi float64) float64 { return math.Max(lo, math.Min(hi, x)) }
