package ui

import (
	"strings"
	"testing"

	"github.com/josephgoksu/causalfuse/internal/estimator"
	"github.com/josephgoksu/causalfuse/internal/graph"
	"github.com/josephgoksu/causalfuse/internal/pipeline"
	"github.com/josephgoksu/causalfuse/internal/sweep"
	"github.com/josephgoksu/causalfuse/types"
	"github.com/stretchr/testify/assert"
)

func TestRenderRun(t *testing.T) {
	best := sweep.Entry{Key: "0.3", Value: 0.3, Nodes: graph.NodeSet{"f1", "f3"}, Scores: sweep.Scores{Validation: 0.81234, Test: 0.7}}
	s := &pipeline.Summary{
		RunID:    "run-1",
		Dataset:  "waterbirds",
		Scoring:  "wilds",
		Fuser:    "COmnivore_V",
		Strategy: types.StrategyVote,
		Baseline: &sweep.Scores{Validation: 0.5, Test: 0.61},
		Individual: []pipeline.Individual{
			{Name: "pc", Nodes: graph.NodeSet{"f2"}, Scores: sweep.Scores{Validation: 0.4, Test: 0.3}},
		},
		Candidates: []sweep.Entry{
			{Key: "0.1", Value: 0.1, Nodes: graph.NodeSet{"f1"}, Scores: sweep.Scores{Validation: 0.6, Test: 0.5}},
			best,
		},
		Best:    best,
		Points:  4,
		Trained: 2,
		Skipped: 2,
	}

	out := RenderRun(s)

	assert.Contains(t, out, "threshold")
	assert.Contains(t, out, "{f1,f3}")
	assert.Contains(t, out, "0.812")
	assert.Contains(t, out, "Baseline test accuracy: 0.610")
	assert.Contains(t, out, "Best model test accuracy: 0.700")
	assert.Contains(t, out, "2 skipped")
	assert.Contains(t, out, "Individual estimates")
	assert.Contains(t, out, "waterbirds")
}

func TestRenderRun_SearchAxisLabel(t *testing.T) {
	out := RenderRun(&pipeline.Summary{Strategy: types.StrategySearch, Fuser: "search"})
	assert.Contains(t, out, "iteration")
	assert.NotContains(t, out, "Baseline")
}

func TestRenderEstimators(t *testing.T) {
	pool := estimator.NewPool(nil)
	out := RenderEstimators(pool.Native)

	assert.Contains(t, out, "Notears")
	assert.Contains(t, out, "Pycausal")
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, " corr ") {
			assert.Contains(t, line, "native")
		}
		if strings.Contains(line, " fges ") {
			assert.Contains(t, line, "worker")
		}
	}
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Classic", Title("classic"))
	assert.Equal(t, "Low Rank", Title("low_rank"))
}
