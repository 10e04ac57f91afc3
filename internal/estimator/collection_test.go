package estimator

import (
	"context"
	"errors"
	"testing"

	"github.com/josephgoksu/causalfuse/internal/dataset"
	"github.com/josephgoksu/causalfuse/internal/graph"
	"github.com/josephgoksu/causalfuse/internal/logger"
	"github.com/josephgoksu/causalfuse/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEstimator returns a fixed result or error and records the kinds it ran.
type fakeEstimator struct {
	Result graph.PerTask
	Err    error
	FailOn Kind
	Calls  []Kind
	Reqs   []Request
}

func (f *fakeEstimator) Estimate(_ context.Context, req Request) (graph.PerTask, error) {
	f.Calls = append(f.Calls, req.Kind)
	f.Reqs = append(f.Reqs, req)
	if f.Err != nil && req.Kind == f.FailOn {
		return nil, f.Err
	}
	return f.Result, nil
}

type fakeResolver struct {
	est Estimator
	err error
}

func (r fakeResolver) Resolve(Kind) (Estimator, error) { return r.est, r.err }

func singleEdge(from string) graph.PerTask {
	return graph.PerTask{"y": graph.New(nil, []graph.Edge{{From: from, To: "y"}})}
}

func TestBuildCollection_InsertionOrder(t *testing.T) {
	fake := &fakeEstimator{Result: singleEdge("f0")}
	plan := Plan{
		{Name: "pc", Kind: PC, Settings: map[string]any{"alpha": 0.1}},
		{Name: "golem", Kind: Golem},
		{Name: "fges", Kind: FGES},
	}
	rc := logger.Discard(types.TaskSet{"y"}, 7)

	c, err := BuildCollection(context.Background(), rc, fakeResolver{est: fake}, &dataset.SampleStore{}, plan)
	require.NoError(t, err)

	assert.Equal(t, []string{"pc", "golem", "fges"}, c.Names())
	assert.Equal(t, []Kind{PC, Golem, FGES}, fake.Calls)
	assert.Equal(t, 3, c.Len())
	assert.Len(t, c.Task("y"), 3)

	assert.False(t, fake.Reqs[0].ThirdParty)
	assert.True(t, fake.Reqs[2].ThirdParty)
	assert.Equal(t, int64(7), fake.Reqs[0].Seed)
	assert.Equal(t, map[string]any{"alpha": 0.1}, fake.Reqs[0].Settings)
}

func TestBuildCollection_FailureAbortsWithoutPartialResult(t *testing.T) {
	boom := errors.New("solver diverged")
	fake := &fakeEstimator{Result: singleEdge("f0"), FailOn: GES, Err: boom}
	plan := Plan{{Name: "pc", Kind: PC}, {Name: "ges", Kind: GES}, {Name: "anm", Kind: ANM}}

	c, err := BuildCollection(context.Background(), logger.Discard(types.TaskSet{"y"}, 1), fakeResolver{est: fake}, nil, plan)
	require.Error(t, err)
	assert.Nil(t, c)
	assert.True(t, errors.Is(err, types.ErrEstimatorFailure))
	assert.True(t, errors.Is(err, boom))
	assert.Contains(t, err.Error(), "ges")
	assert.Equal(t, []Kind{PC, GES}, fake.Calls, "estimators after the failure must not run")
}

func TestBuildCollection_MissingTaskEstimate(t *testing.T) {
	fake := &fakeEstimator{Result: singleEdge("f0")}
	rc := logger.Discard(types.TaskSet{"y", "z"}, 1)

	_, err := BuildCollection(context.Background(), rc, fakeResolver{est: fake}, nil, Plan{{Name: "pc", Kind: PC}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrEstimatorFailure))
}

func TestBuildCollection_ResolveError(t *testing.T) {
	_, err := BuildCollection(context.Background(), logger.Discard(types.TaskSet{"y"}, 1),
		fakeResolver{err: errors.New("no worker")}, nil, Plan{{Name: "pc", Kind: PC}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrEstimatorFailure))
}

func TestBuildCollection_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fake := &fakeEstimator{Result: singleEdge("f0")}

	_, err := BuildCollection(ctx, logger.Discard(types.TaskSet{"y"}, 1), fakeResolver{est: fake}, nil, Plan{{Name: "pc", Kind: PC}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, fake.Calls)
}

func TestCollection_AddRejectsDuplicate(t *testing.T) {
	c := NewCollection()
	require.NoError(t, c.Add("pc", singleEdge("f0")))
	assert.Error(t, c.Add("pc", singleEdge("f1")))

	got, ok := c.Get("pc")
	require.True(t, ok)
	assert.True(t, got["y"].HasEdge("f0", "y"))
}

func TestPool_Resolve(t *testing.T) {
	p := NewPool(nil)
	e, err := p.Resolve(Corr)
	require.NoError(t, err)
	assert.IsType(t, CorrEstimator{}, e)
	assert.True(t, p.Native(Corr))

	_, err = p.Resolve(PC)
	assert.Error(t, err)

	fallback := &fakeEstimator{}
	e, err = NewPool(fallback).Resolve(PC)
	require.NoError(t, err)
	assert.Same(t, fallback, e)
}

func TestCorrEstimator(t *testing.T) {
	// f0 tracks the label exactly, f1 is orthogonal to it.
	train, err := dataset.FromRows([][]float64{
		{0, 0, 0},
		{1, 0, 1},
		{0, 1, 0},
		{1, 1, 1},
	})
	require.NoError(t, err)
	store := &dataset.SampleStore{Tasks: types.TaskSet{"y"}, NumFeatures: 2, Train: map[string]*dataset.Matrix{"y": train}}

	got, err := CorrEstimator{}.Estimate(context.Background(), Request{Kind: Corr, Store: store, Tasks: store.Tasks})
	require.NoError(t, err)

	s := got["y"]
	assert.True(t, s.HasEdge("f0", "y"))
	assert.False(t, s.HasEdge("f1", "y"))
	assert.Equal(t, []string{"f0", "f1", "y"}, s.Nodes())
}

func TestCorrEstimator_BadSetting(t *testing.T) {
	store := &dataset.SampleStore{Tasks: types.TaskSet{"y"}, NumFeatures: 1}
	_, err := CorrEstimator{}.Estimate(context.Background(), Request{
		Store:    store,
		Tasks:    store.Tasks,
		Settings: map[string]any{"threshold": "high"},
	})
	assert.Error(t, err)
}
