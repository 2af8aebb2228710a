package ml

import (
	"sort"
)

// Config controls splitting, fitting and reporting.
type Config struct {
	Trees        int
	TestFraction float64
	Seed         int64
	Workers      int
	TopFeatures  int
}

// DefaultConfig returns 100 trees, an 80/20 split and seed 42.
func DefaultConfig() Config {
	return Config{Trees: 100, TestFraction: 0.2, Seed: 42, TopFeatures: 5}
}

// FeatureWeight is one ranked feature importance.
type FeatureWeight struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// Result summarises a fitted model and its held-out score.
type Result struct {
	ModelType   string          `json:"model_type"`
	Task        Task            `json:"task"`
	Target      string          `json:"target"`
	Metric      string          `json:"metric"`
	Score       float64         `json:"score"`
	TopFeatures []FeatureWeight `json:"top_features"`
	Pruned      []string        `json:"pruned_columns,omitempty"`
	TrainRows   int             `json:"train_rows"`
	TestRows    int             `json:"test_rows"`
}

// Train splits p, fits a forest for its task and scores it on the held-out
// rows. Scores are percentages rounded to 2 places; importances are rounded
// to 3 places and the top ones are ranked by weight, ties kept in column order.
func Train(p *Prepared, cfg Config) (*Result, error) {
	if len(p.Features) == 0 {
		return nil, trainingErr("encoding", ErrNoFeatures)
	}
	y := p.Y
	classes := 0
	if p.Task == Classification {
		var err error
		if y, classes, err = classIndices(p.Y); err != nil {
			return nil, trainingErr("encoding", err)
		}
	}
	sp, err := TrainTestSplit(len(p.X), cfg.TestFraction, cfg.Seed)
	if err != nil {
		return nil, trainingErr("split", err)
	}
	xTrain, yTrain := pickRows(p.X, y, sp.Train)
	xTest, yTest := pickRows(p.X, y, sp.Test)

	forest, err := FitForest(xTrain, yTrain, p.Task, classes, ForestConfig{Trees: cfg.Trees, Seed: cfg.Seed, Workers: cfg.Workers})
	if err != nil {
		return nil, trainingErr("fit", err)
	}
	pred := forest.Predict(xTest)

	res := &Result{
		Task:      p.Task,
		Target:    p.Target,
		Pruned:    p.Pruned,
		TrainRows: len(sp.Train),
		TestRows:  len(sp.Test),
	}
	if p.Task == Classification {
		res.ModelType, res.Metric = "Random Forest Classifier", "Accuracy"
		res.Score = round(Accuracy(yTest, pred)*100, 2)
	} else {
		res.ModelType, res.Metric = "Random Forest Regressor", "R2 Score"
		res.Score = round(R2(yTest, pred)*100, 2)
	}
	res.TopFeatures = topFeatures(p.Features, forest.Importances(), cfg.TopFeatures)
	return res, nil
}

// classIndices maps each distinct target value to its rank in ascending order.
func classIndices(y []float64) ([]float64, int, error) {
	seen := map[float64]struct{}{}
	for _, v := range y {
		seen[v] = struct{}{}
	}
	if len(seen) < 2 {
		return nil, 0, ErrTooFewClasses
	}
	vals := make([]float64, 0, len(seen))
	for v := range seen {
		vals = append(vals, v)
	}
	sort.Float64s(vals)
	rank := make(map[float64]int, len(vals))
	for i, v := range vals {
		rank[v] = i
	}
	out := make([]float64, len(y))
	for i, v := range y {
		out[i] = float64(rank[v])
	}
	return out, len(vals), nil
}

func topFeatures(names []string, weights []float64, k int) []FeatureWeight {
	order := make([]int, len(names))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return weights[order[a]] > weights[order[b]] })
	if k > 0 && len(order) > k {
		order = order[:k]
	}
	out := make([]FeatureWeight, len(order))
	for i, j := range order {
		out[i] = FeatureWeight{Feature: names[j], Importance: round(weights[j], 3)}
	}
	return out
}
