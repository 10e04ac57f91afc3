package bridge

import (
	"fmt"

	"github.com/josephgoksu/causalfuse/internal/graph"
)

// Worker operations.
const (
	OpEstimate = "estimate"
	OpVote     = "vote"
	OpSearch   = "search"
)

// Dataset tells a worker where to read the run's arrays. Workers load the
// .npy files themselves rather than receiving samples inline.
type Dataset struct {
	Name        string   `json:"dataset_name"`
	LoadPath    string   `json:"load_path"`
	NOrig       int      `json:"n_orig_features"`
	NumFeatures int      `json:"n_pca_features"`
	Tasks       []string `json:"tasks"`
}

// EstimateRequest asks a worker to run one weak estimator.
type EstimateRequest struct {
	Estimator  string         `json:"estimator"`
	Family     string         `json:"family"`
	Dataset    Dataset        `json:"dataset"`
	Settings   map[string]any `json:"settings,omitempty"`
	ThirdParty bool           `json:"third_party"`
	Seed       int64          `json:"seed"`
}

// NamedEstimate is one collection entry on the wire.
type NamedEstimate struct {
	Name       string                      `json:"name"`
	Structures map[string]*graph.Structure `json:"structures"`
}

// VoteRequest asks a worker to fuse the collection at one threshold.
type VoteRequest struct {
	Collection []NamedEstimate `json:"collection"`
	Tasks      []string        `json:"tasks"`
	Threshold  float64         `json:"threshold"`
	LR         float64         `json:"lr"`
	Epochs     int             `json:"epochs"`
	Seed       int64           `json:"seed"`
}

// SearchRequest asks a worker for a full search trajectory.
type SearchRequest struct {
	Collection []NamedEstimate `json:"collection"`
	Tasks      []string        `json:"tasks"`
	NTriplets  int             `json:"n_triplets"`
	MinIters   int             `json:"min_iters"`
	MaxIters   int             `json:"max_iters"`
	Step       int             `json:"step"`
	Seed       int64           `json:"seed"`
}

// StructuresResponse carries one structure per task.
type StructuresResponse struct {
	Structures map[string]*graph.Structure `json:"structures"`
}

// PerTask checks that every task has a structure and returns them.
func (r StructuresResponse) PerTask(tasks []string) (graph.PerTask, error) {
	out := make(graph.PerTask, len(tasks))
	for _, task := range tasks {
		s, ok := r.Structures[task]
		if !ok || s == nil {
			return nil, fmt.Errorf("worker returned no structure for task %q", task)
		}
		out[task] = s
	}
	return out, nil
}

// TrajectoryResponse carries one ordered snapshot list per task.
type TrajectoryResponse struct {
	Trajectories map[string][]*graph.Structure `json:"trajectories"`
}
