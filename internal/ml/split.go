package ml

import (
	"fmt"
	"math"
	"math/rand"
)

// Split holds row indices of the train and test partitions.
type Split struct {
	Train []int
	Test  []int
}

// TrainTestSplit shuffles n row indices with seed and holds out
// ceil(testFraction*n) of them. The same inputs always give the same split.
func TrainTestSplit(n int, testFraction float64, seed int64) (Split, error) {
	if testFraction <= 0 || testFraction >= 1 {
		return Split{}, fmt.Errorf("test fraction %.3f outside (0, 1)", testFraction)
	}
	nTest := int(math.Ceil(testFraction * float64(n)))
	if n < 2 || nTest >= n {
		return Split{}, fmt.Errorf("%w: %d rows", ErrTooFewRows, n)
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return Split{Train: perm[nTest:], Test: perm[:nTest]}, nil
}

func pickRows(x [][]float64, y []float64, idx []int) ([][]float64, []float64) {
	xs := make([][]float64, len(idx))
	ys := make([]float64, len(idx))
	for k, i := range idx {
		xs[k] = x[i]
		ys[k] = y[i]
	}
	return xs, ys
}
