// Package trainer trains and evaluates the downstream predictor on a
// materialized candidate.
package trainer

import (
	"context"

	"github.com/josephgoksu/causalfuse/internal/dataset"
	"github.com/josephgoksu/causalfuse/internal/logger"
)

// Options are the end-model hyperparameters.
type Options struct {
	Epochs    int
	LR        float64
	L2        float64
	BatchSize int
	// Alpha is the hidden layer width.
	Alpha int
	// LogFreq logs progress every LogFreq epochs; 0 disables it.
	LogFreq int
}

// Input is one training job.
type Input struct {
	Tensors *dataset.Tensors
	Options Options
	// Score overrides plain accuracy for validation and test when set.
	Score ScoreFunc
}

// Result holds the held-out scores of one trained model.
type Result struct {
	Validation float64
	Test       float64
}

// Trainer trains one model and evaluates it on the validation and test splits.
// Randomness comes from rc.RNG only.
type Trainer interface {
	Train(ctx context.Context, rc *logger.RunContext, in Input) (Result, error)
}

// Evaluate scores predictions on one split, using score when set.
func Evaluate(score ScoreFunc, pred []int, b dataset.Batch) float64 {
	if score == nil {
		return Accuracy(pred, b.Y)
	}
	return score(pred, b.Y, b.Groups)
}
