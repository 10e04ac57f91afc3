// Package sweep runs a fusion strategy across its hyperparameter axis,
// skipping candidates whose selected features were already trained, and
// selects the best candidate by validation score.
package sweep

import (
	"fmt"
	"math"
	"strconv"

	"github.com/josephgoksu/causalfuse/internal/fusion"
)

const (
	// axisEpsilon absorbs float error when counting points of a half-open range.
	axisEpsilon = 1e-9

	// MaxPoints caps the length of any sweep axis.
	MaxPoints = 10000
)

// Point is one position on a sweep axis.
type Point struct {
	// Index is the position in sweep order.
	Index int
	// Value is the threshold (vote) or iteration count (search).
	Value float64
	// Key identifies the point in results.
	Key string
}

// VoteAxis returns the thresholds of the half-open range [start, stop) in
// ascending order: start + i*step for i < floor((stop-start)/step).
func VoteAxis(start, stop, step float64) ([]Point, error) {
	if !(step > 0) || math.IsInf(step, 0) {
		return nil, fmt.Errorf("threshold step must be positive, got %v", step)
	}
	if math.IsNaN(start) || math.IsNaN(stop) || math.IsInf(start, 0) || math.IsInf(stop, 0) {
		return nil, fmt.Errorf("threshold range [%v, %v) must be finite", start, stop)
	}
	count := math.Floor((stop-start)/step + axisEpsilon)
	if count > MaxPoints {
		return nil, fmt.Errorf("threshold range yields more than %d points", MaxPoints)
	}
	n := int(math.Max(count, 0))
	points := make([]Point, n)
	for i := range points {
		v := roundValue(start + float64(i)*step)
		points[i] = Point{Index: i, Value: v, Key: strconv.FormatFloat(v, 'f', -1, 64)}
	}
	return points, nil
}

// VoteAxisFromRange unpacks a configured [start, stop, step] triple.
func VoteAxisFromRange(r []float64) ([]Point, error) {
	if len(r) != 3 {
		return nil, fmt.Errorf("threshold range needs [start, stop, step], got %d values", len(r))
	}
	return VoteAxis(r[0], r[1], r[2])
}

// SearchAxis returns one point per search checkpoint, keyed by iteration count.
func SearchAxis(p fusion.SearchParams) ([]Point, error) {
	if p.Step <= 0 {
		return nil, fmt.Errorf("iteration step must be positive, got %d", p.Step)
	}
	n := p.Checkpoints()
	if n > MaxPoints {
		return nil, fmt.Errorf("iteration range yields more than %d checkpoints", MaxPoints)
	}
	points := make([]Point, n)
	for i := range points {
		iter := p.Iteration(i)
		points[i] = Point{Index: i, Value: float64(iter), Key: strconv.Itoa(iter)}
	}
	return points, nil
}

func roundValue(v float64) float64 {
	return math.Round(v*1e9) / 1e9
}
