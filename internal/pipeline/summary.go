package pipeline

import (
	"fmt"

	"github.com/josephgoksu/causalfuse/internal/graph"
	"github.com/josephgoksu/causalfuse/internal/logger"
	"github.com/josephgoksu/causalfuse/internal/sweep"
	"github.com/josephgoksu/causalfuse/types"
	"gopkg.in/yaml.v3"
)

// ResultsFileName is the summary written into the run directory on success.
const ResultsFileName = "results.yaml"

// Individual is the score of training on one estimator's structure alone.
type Individual struct {
	Name         string        `yaml:"name"`
	Nodes        graph.NodeSet `yaml:"nodes"`
	sweep.Scores `yaml:",inline"`
}

// Summary is the outcome of one run.
type Summary struct {
	RunID    string         `yaml:"run_id"`
	Dataset  string         `yaml:"dataset"`
	Scoring  string         `yaml:"scoring"`
	Fuser    string         `yaml:"fuser"`
	Strategy types.Strategy `yaml:"strategy"`
	Seed     int64          `yaml:"seed"`

	Baseline   *sweep.Scores `yaml:"baseline,omitempty"`
	Individual []Individual  `yaml:"individual,omitempty"`
	Candidates []sweep.Entry `yaml:"candidates"`
	Best       sweep.Entry   `yaml:"best"`

	Points  int `yaml:"points"`
	Trained int `yaml:"trained"`
	Skipped int `yaml:"skipped"`
}

// Lines returns the three closing lines printed after a run.
func (s *Summary) Lines() []string {
	var lines []string
	if s.Baseline != nil {
		lines = append(lines, fmt.Sprintf("Baseline test accuracy: %.3f", s.Baseline.Test))
	}
	return append(lines,
		fmt.Sprintf("Best validation set accuracy: %.3f", s.Best.Validation),
		fmt.Sprintf("Best model test accuracy: %.3f", s.Best.Test),
	)
}

func writeSummary(rc *logger.RunContext, s *Summary) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	return rc.WriteFile(ResultsFileName, data)
}
