package ml

import (
	"math"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// ForestConfig controls random forest fitting.
type ForestConfig struct {
	Trees int
	Seed  int64
	// Workers bounds the number of trees fitted concurrently; 0 uses GOMAXPROCS.
	Workers int
}

// Forest is a bagged ensemble of CART trees.
type Forest struct {
	task     Task
	classes  int
	features int
	trees    []*tree
}

// FitForest fits a classification or regression forest. For classification
// y must hold class indices in [0, classes). Each tree draws a bootstrap
// sample; classification trees consider sqrt(p) features per split and
// regression trees consider all of them. Results depend only on the seed,
// not on the number of workers.
func FitForest(x [][]float64, y []float64, task Task, classes int, cfg ForestConfig) (*Forest, error) {
	if len(x) == 0 {
		return nil, ErrTooFewRows
	}
	if cfg.Trees <= 0 {
		cfg.Trees = 100
	}
	p := len(x[0])
	prm := treeParams{maxFeatures: p}
	if task == Classification {
		prm.classes = classes
		prm.maxFeatures = int(math.Max(1, math.Floor(math.Sqrt(float64(p)))))
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	master := rand.New(rand.NewSource(cfg.Seed))
	seeds := make([]int64, cfg.Trees)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	f := &Forest{task: task, classes: classes, features: p, trees: make([]*tree, cfg.Trees)}
	var g errgroup.Group
	g.SetLimit(workers)
	for i := range f.trees {
		i := i
		g.Go(func() error {
			rng := rand.New(rand.NewSource(seeds[i]))
			idx := make([]int, len(x))
			for k := range idx {
				idx[k] = rng.Intn(len(x))
			}
			f.trees[i] = growTree(x, y, idx, p, prm, rng)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return f, nil
}

// Predict returns one prediction per row: the class index with the highest
// mean probability (lowest index on ties) or the mean of tree outputs.
func (f *Forest) Predict(x [][]float64) []float64 {
	out := make([]float64, len(x))
	for i, row := range x {
		if f.task == Regression {
			var sum float64
			for _, t := range f.trees {
				sum += t.predict(row)[0]
			}
			out[i] = sum / float64(len(f.trees))
			continue
		}
		proba := make([]float64, f.classes)
		for _, t := range f.trees {
			floats.Add(proba, t.predict(row))
		}
		out[i] = float64(floats.MaxIdx(proba))
	}
	return out
}

// Importances returns the mean decrease in impurity per feature, normalised
// per tree, averaged over trees that split at least once and normalised to
// sum to 1.
func (f *Forest) Importances() []float64 {
	out := make([]float64, f.features)
	used := 0
	for _, t := range f.trees {
		total := floats.Sum(t.importance)
		if len(t.nodes) < 2 || total <= 0 {
			continue
		}
		imp := append([]float64(nil), t.importance...)
		floats.Scale(1/total, imp)
		floats.Add(out, imp)
		used++
	}
	if used == 0 {
		return out
	}
	if total := floats.Sum(out); total > 0 {
		floats.Scale(1/total, out)
	}
	return out
}
