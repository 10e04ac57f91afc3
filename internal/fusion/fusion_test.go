package fusion

import (
	"context"
	"errors"
	"testing"

	"github.com/josephgoksu/causalfuse/internal/estimator"
	"github.com/josephgoksu/causalfuse/internal/graph"
	"github.com/josephgoksu/causalfuse/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tasks = types.TaskSet{"y"}

func edges(pairs ...string) []graph.Edge {
	var out []graph.Edge
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, graph.Edge{From: pairs[i], To: pairs[i+1]})
	}
	return out
}

func collectionOf(t *testing.T, estimates ...[]graph.Edge) *estimator.Collection {
	t.Helper()
	c := estimator.NewCollection()
	for i, e := range estimates {
		s := graph.New(graph.Empty(3, "y").Nodes(), e)
		require.NoError(t, c.Add(string(rune('A'+i)), graph.PerTask{"y": s}))
	}
	return c
}

// stubVote counts calls and returns a fixed result.
type stubVote struct {
	result graph.PerTask
	err    error
	calls  int
}

func (s *stubVote) Fuse(context.Context, float64) (graph.PerTask, error) {
	s.calls++
	return s.result, s.err
}

type stubSearch struct {
	traj  Trajectory
	err   error
	calls int
}

func (s *stubSearch) Trajectory(context.Context) (Trajectory, error) {
	s.calls++
	return s.traj, s.err
}

func TestSearchParams_Checkpoints(t *testing.T) {
	tests := []struct {
		p    SearchParams
		want int
	}{
		{SearchParams{MinIters: 10, MaxIters: 30, Step: 10}, 3},
		{SearchParams{MinIters: 10, MaxIters: 35, Step: 10}, 3},
		{SearchParams{MinIters: 5, MaxIters: 5, Step: 1}, 1},
		{SearchParams{MinIters: 0, MaxIters: 10, Step: 0}, 0},
		{SearchParams{MinIters: 20, MaxIters: 10, Step: 5}, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.p.Checkpoints(), "%+v", tt.p)
	}

	p := SearchParams{MinIters: 10, MaxIters: 30, Step: 10}
	assert.Equal(t, []int{10, 20, 30}, []int{p.Iteration(0), p.Iteration(1), p.Iteration(2)})
}

func TestGuardVote_EmptyCollection(t *testing.T) {
	inner := &stubVote{}
	fused, err := GuardVote(estimator.NewCollection(), tasks, 3, inner).Fuse(context.Background(), 0.5)
	require.NoError(t, err)

	assert.Equal(t, 0, inner.calls)
	assert.Equal(t, []string{"f0", "f1", "f2", "y"}, fused["y"].Nodes())
	assert.Zero(t, fused["y"].NumEdges())
}

func TestGuardVote_SingleEstimateReturnedUnchanged(t *testing.T) {
	c := collectionOf(t, edges("f1", "y"))
	inner := &stubVote{}

	fused, err := GuardVote(c, tasks, 3, inner).Fuse(context.Background(), 0.9)
	require.NoError(t, err)

	only, _ := c.Get("A")
	assert.Same(t, only["y"], fused["y"])
	assert.Equal(t, 0, inner.calls)
}

func TestGuardVote_WrapsFailures(t *testing.T) {
	c := collectionOf(t, edges("f1", "y"), edges("f2", "y"))

	_, err := GuardVote(c, tasks, 3, &stubVote{err: errors.New("combiner crashed")}).Fuse(context.Background(), 0.1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrFusionFailure))

	_, err = GuardVote(c, tasks, 3, &stubVote{result: graph.PerTask{}}).Fuse(context.Background(), 0.1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrFusionFailure))
}

func TestGuardSearch_DegenerateRepeatsSnapshot(t *testing.T) {
	params := SearchParams{NTriplets: 2, MinIters: 10, MaxIters: 30, Step: 10}
	c := collectionOf(t, edges("f0", "y"))

	traj, err := GuardSearch(c, tasks, 3, params, &stubSearch{}).Trajectory(context.Background())
	require.NoError(t, err)
	require.Len(t, traj["y"], 3)
	for i := range traj["y"] {
		assert.True(t, traj.At(tasks, i)["y"].HasEdge("f0", "y"))
	}
}

func TestGuardSearch_WrongLengthIsFusionFailure(t *testing.T) {
	params := SearchParams{NTriplets: 2, MinIters: 10, MaxIters: 30, Step: 10}
	c := collectionOf(t, edges("f0", "y"), edges("f1", "y"))
	short := Trajectory{"y": {graph.Empty(3, "y"), graph.Empty(3, "y")}}

	_, err := GuardSearch(c, tasks, 3, params, &stubSearch{traj: short}).Trajectory(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrFusionFailure))
	assert.Contains(t, err.Error(), "2 snapshots, want 3")
}

func TestNativeVote_MajorityAndThreshold(t *testing.T) {
	c := collectionOf(t,
		edges("f0", "y", "f1", "y"),
		edges("f0", "y"),
		edges("f0", "y", "f2", "f0"),
	)
	engine := NewNativeVote(c, tasks, VoteParams{LR: 0.5, Epochs: 10})

	mid, err := engine.Fuse(context.Background(), 0.5)
	require.NoError(t, err)
	assert.True(t, mid["y"].HasEdge("f0", "y"))
	assert.False(t, mid["y"].HasEdge("f1", "y"))
	assert.False(t, mid["y"].HasEdge("f2", "f0"))

	permissive, err := engine.Fuse(context.Background(), 0.0)
	require.NoError(t, err)
	assert.Equal(t, 3, permissive["y"].NumEdges(), "a zero negative prior keeps every candidate")

	strict, err := engine.Fuse(context.Background(), 1.0)
	require.NoError(t, err)
	assert.Zero(t, strict["y"].NumEdges())
}

func TestNativeVote_CallsAreIndependent(t *testing.T) {
	c := collectionOf(t, edges("f0", "y", "f1", "y"), edges("f0", "y"), edges("f1", "y"))
	engine := NewNativeVote(c, tasks, VoteParams{LR: 0.3, Epochs: 20})

	first, err := engine.Fuse(context.Background(), 0.4)
	require.NoError(t, err)
	_, err = engine.Fuse(context.Background(), 0.9)
	require.NoError(t, err)
	again, err := engine.Fuse(context.Background(), 0.4)
	require.NoError(t, err)

	assert.True(t, first["y"].Equal(again["y"]))
}

func TestNativeSearch_TrajectoryShapeAndDeterminism(t *testing.T) {
	c := collectionOf(t,
		edges("f0", "y", "f1", "y"),
		edges("f0", "y", "f2", "y"),
		edges("f0", "y", "f1", "y"),
	)
	params := SearchParams{NTriplets: 6, MinIters: 0, MaxIters: 40, Step: 20}

	a, err := NewNativeSearch(c, tasks, params, 2023).Trajectory(context.Background())
	require.NoError(t, err)
	b, err := NewNativeSearch(c, tasks, params, 2023).Trajectory(context.Background())
	require.NoError(t, err)

	require.Len(t, a["y"], 3)
	assert.Zero(t, a["y"][0].NumEdges(), "iteration 0 is the empty start graph")
	for i := range a["y"] {
		assert.True(t, a["y"][i].Equal(b["y"][i]), "snapshot %d differs for equal seeds", i)
	}
	// f2->y has minority support and is never worth adding.
	assert.False(t, a["y"][2].HasEdge("f2", "y"))
}

func TestNativeSearch_StaysAcyclic(t *testing.T) {
	c := collectionOf(t,
		edges("f0", "f1", "f1", "f2", "f2", "f0"),
		edges("f0", "f1", "f1", "f2", "f2", "f0"),
	)
	params := SearchParams{NTriplets: 10, MinIters: 50, MaxIters: 50, Step: 1}

	traj, err := NewNativeSearch(c, tasks, params, 1).Trajectory(context.Background())
	require.NoError(t, err)

	final := traj["y"][0]
	assert.Less(t, final.NumEdges(), 3, "the full 3-cycle must never be formed")
}

func TestNativeSearch_InvalidParams(t *testing.T) {
	_, err := NewNativeSearch(collectionOf(t), tasks, SearchParams{NTriplets: 1, MinIters: 0, MaxIters: 10}, 1).
		Trajectory(context.Background())
	assert.Error(t, err)
}
