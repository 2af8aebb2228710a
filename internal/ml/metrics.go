package ml

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Accuracy is the fraction of predictions equal to the truth.
func Accuracy(truth, pred []float64) float64 {
	if len(truth) == 0 {
		return 0
	}
	hit := 0
	for i := range truth {
		if truth[i] == pred[i] {
			hit++
		}
	}
	return float64(hit) / float64(len(truth))
}

// R2 is the coefficient of determination of pred against truth. It may be
// negative. A constant truth scores 1 for exact predictions and 0 otherwise.
func R2(truth, pred []float64) float64 {
	if len(truth) == 0 {
		return 0
	}
	if stat.Variance(truth, nil) == 0 || len(truth) == 1 {
		for i := range truth {
			if truth[i] != pred[i] {
				return 0
			}
		}
		return 1
	}
	r2 := stat.RSquaredFrom(pred, truth, nil)
	if math.IsNaN(r2) || math.IsInf(r2, 0) {
		return 0
	}
	return r2
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
