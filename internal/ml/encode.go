package ml

import (
	"strings"

	"github.com/KaramelBytes/autoanalyst-cli/internal/frame"
)

// Task is the kind of supervised problem implied by a target column.
type Task int

const (
	Classification Task = iota
	Regression
)

func (t Task) String() string {
	if t == Regression {
		return "regression"
	}
	return "classification"
}

// MarshalText renders the task name in JSON and YAML output.
func (t Task) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// PrepareOptions holds the encoder thresholds.
type PrepareOptions struct {
	// MaxCategories drops non-target text columns with more distinct values.
	MaxCategories int
	// MaxClasses is the largest distinct count of a numeric target still
	// treated as classification.
	MaxClasses int
}

// DefaultPrepareOptions returns the standard encoder thresholds.
func DefaultPrepareOptions() PrepareOptions {
	return PrepareOptions{MaxCategories: 50, MaxClasses: 20}
}

// Prepared is a numeric feature matrix and target vector ready for training.
type Prepared struct {
	Target   string
	Task     Task
	Features []string
	// X is row-major: X[i][j] is row i of feature j.
	X [][]float64
	Y []float64
	// Pruned lists the high-cardinality columns that were dropped.
	Pruned []string
}

// ResolveTarget finds the target column: exact name first, then a
// case-insensitive match of trimmed names.
func ResolveTarget(ds *frame.Dataset, name string) (string, error) {
	if ds.Index(name) >= 0 {
		return name, nil
	}
	want := strings.ToLower(strings.TrimSpace(name))
	for _, c := range ds.Columns {
		if strings.ToLower(strings.TrimSpace(c.Name)) == want {
			return c.Name, nil
		}
	}
	return "", &ColumnNotFoundError{Target: name, Available: ds.Names()}
}

// InferTask decides the task from the unencoded target: text targets and
// numeric targets with at most maxClasses distinct values are classification.
func InferTask(target *frame.Column, maxClasses int) Task {
	if target.Kind == frame.KindText || target.Distinct() <= maxClasses {
		return Classification
	}
	return Regression
}

// Prepare resolves the target on a prepared dataset, prunes high-cardinality
// text columns, infers the task and label-encodes the remaining text.
func Prepare(ds *frame.Dataset, target string, opt PrepareOptions) (*Prepared, error) {
	name, err := ResolveTarget(ds, target)
	if err != nil {
		return nil, err
	}
	tcol, _ := ds.Column(name)
	p := &Prepared{Target: name}

	var features []*frame.Column
	for _, c := range ds.Columns {
		if c.Name == name {
			continue
		}
		if c.Kind == frame.KindText && c.Distinct() > opt.MaxCategories {
			p.Pruned = append(p.Pruned, c.Name)
			continue
		}
		features = append(features, c)
	}
	p.Task = InferTask(tcol, opt.MaxClasses)

	if len(features) == 0 {
		return nil, trainingErr("encoding", ErrNoFeatures)
	}
	cols := make([][]float64, len(features))
	for j, c := range features {
		p.Features = append(p.Features, c.Name)
		cols[j] = encode(c)
	}
	rows := ds.Rows()
	p.X = make([][]float64, rows)
	for i := range p.X {
		row := make([]float64, len(cols))
		for j := range cols {
			row[j] = cols[j][i]
		}
		p.X[i] = row
	}
	p.Y = encode(tcol)
	return p, nil
}

// encode returns numeric values as they are and label-encodes text in the
// order each distinct value is first seen.
func encode(c *frame.Column) []float64 {
	if c.Kind == frame.KindNumeric {
		return append([]float64(nil), c.Nums...)
	}
	codes := make(map[string]float64)
	out := make([]float64, c.Len())
	for i := range out {
		v := c.Text(i)
		code, ok := codes[v]
		if !ok {
			code = float64(len(codes))
			codes[v] = code
		}
		out[i] = code
	}
	return out
}
