package trainer

import (
	"math"
	"slices"
)

// ScoreFunc scores predictions against labels, with each row's group id
// taken from metadata column 0.
type ScoreFunc func(pred, labels, groups []int) float64

var wildsDatasets = []string{
	"waterbirds", "celebA", "camelyon17", "fmow", "iwildcam", "civilcomments",
	"poverty", "amazon", "rxrx1", "globalwheat", "py150", "ogb-molpcba",
}

var domainbedDatasets = []string{
	"ColoredMNIST", "RotatedMNIST", "VLCS", "PACS", "OfficeHome",
	"TerraIncognita", "DomainNet", "SVIRO",
}

// ScoringFor returns the benchmark-family score for a dataset: worst-group
// accuracy for wilds datasets, mean per-domain accuracy for domainbed
// datasets, and nil (plain accuracy) otherwise.
func ScoringFor(dataset string) ScoreFunc {
	switch {
	case slices.Contains(wildsDatasets, dataset):
		return WorstGroupAccuracy
	case slices.Contains(domainbedDatasets, dataset):
		return MeanGroupAccuracy
	default:
		return nil
	}
}

// Family names the scoring family of a dataset for reports.
func Family(dataset string) string {
	switch {
	case slices.Contains(wildsDatasets, dataset):
		return "wilds"
	case slices.Contains(domainbedDatasets, dataset):
		return "domainbed"
	default:
		return "plain"
	}
}

// Accuracy is the fraction of correct predictions. Empty input scores 0.
func Accuracy(pred, labels []int) float64 {
	if len(labels) == 0 {
		return 0
	}
	correct := 0
	for i, y := range labels {
		if pred[i] == y {
			correct++
		}
	}
	return float64(correct) / float64(len(labels))
}

// WorstGroupAccuracy is the minimum per-group accuracy.
func WorstGroupAccuracy(pred, labels, groups []int) float64 {
	accs := groupAccuracies(pred, labels, groups)
	if len(accs) == 0 {
		return Accuracy(pred, labels)
	}
	worst := math.Inf(1)
	for _, a := range accs {
		worst = math.Min(worst, a)
	}
	return worst
}

// MeanGroupAccuracy is the unweighted mean of per-group accuracies.
func MeanGroupAccuracy(pred, labels, groups []int) float64 {
	accs := groupAccuracies(pred, labels, groups)
	if len(accs) == 0 {
		return Accuracy(pred, labels)
	}
	sum := 0.0
	for _, a := range accs {
		sum += a
	}
	return sum / float64(len(accs))
}

func groupAccuracies(pred, labels, groups []int) map[int]float64 {
	if len(groups) != len(labels) {
		return nil
	}
	total := make(map[int]int)
	correct := make(map[int]int)
	for i, g := range groups {
		total[g]++
		if pred[i] == labels[i] {
			correct[g]++
		}
	}
	out := make(map[int]float64, len(total))
	for g, n := range total {
		out[g] = float64(correct[g]) / float64(n)
	}
	return out
}
