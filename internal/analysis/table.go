package analysis

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/KaramelBytes/autoanalyst-cli/internal/frame"
)

// Options controls profiling of a dataset.
type Options struct {
	// PreviewRows caps the head preview.
	PreviewRows int
	// SampleRows caps the random chart sample.
	SampleRows int
	// Seed drives the chart sample. 0 picks a time-based seed.
	Seed int64
	// TopValues is how many frequent values per text column the Markdown report lists.
	TopValues int
}

// DefaultOptions returns reasonable defaults for dataset profiling.
func DefaultOptions() Options {
	return Options{
		PreviewRows: 5,
		SampleRows:  50,
		TopValues:   8,
	}
}

// ColumnProfile describes one column of the profiled dataset.
type ColumnProfile struct {
	Name    string
	Type    frame.Kind
	Missing int
	Unique  int
	// Top holds the most frequent values of text columns.
	Top []CategoryCount
}

// CategoryCount is a text value and its frequency.
type CategoryCount struct {
	Value string
	Count int
}

// ColumnStats is the describe() table of a numeric column. Std is NaN when
// fewer than two values are observed.
type ColumnStats struct {
	Name   string
	Count  float64
	Mean   float64
	Std    float64
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
}

// Series is a named list of values, nil for missing cells.
type Series struct {
	Name   string
	Values []any
}

// Summary is the structural and statistical profile of a dataset.
type Summary struct {
	DatasetID string
	Rows      int
	Columns   []ColumnProfile
	// Preview holds the first rows, one value per column, nil for missing.
	Preview [][]any
	// NumericStats and ChartData are nil when the stats step failed; the
	// reason is in StatsError.
	NumericStats []ColumnStats
	StatsError   string
	ChartData    []Series
}

// Cols returns the column count.
func (s *Summary) Cols() int { return len(s.Columns) }

// ColumnNames returns the column names in dataset order.
func (s *Summary) ColumnNames() []string {
	out := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		out[i] = c.Name
	}
	return out
}

// Profiler builds summaries of raw datasets.
type Profiler struct {
	opt Options
}

// NewProfiler returns a profiler with the given options.
func NewProfiler(opt Options) *Profiler {
	if opt.PreviewRows < 0 {
		opt.PreviewRows = 0
	}
	if opt.SampleRows < 0 {
		opt.SampleRows = 0
	}
	return &Profiler{opt: opt}
}

// Summarize profiles ds. Columns with at least one numeric cell are
// reported as numeric; the coerced values live only inside this call.
func (p *Profiler) Summarize(id string, ds *frame.Dataset) *Summary {
	cols := make([]*frame.Column, len(ds.Columns))
	for i, c := range ds.Columns {
		cols[i], _ = frame.CoerceNumeric(c, frame.AtLeastOne)
	}
	rows := ds.Rows()
	s := &Summary{DatasetID: id, Rows: rows}
	for _, c := range cols {
		cp := ColumnProfile{Name: c.Name, Type: c.Kind, Missing: c.Missing(), Unique: c.Distinct()}
		if c.Kind == frame.KindText {
			cp.Top = topValues(c, p.opt.TopValues)
		}
		s.Columns = append(s.Columns, cp)
	}
	for i := 0; i < min(p.opt.PreviewRows, rows); i++ {
		rec := make([]any, len(cols))
		for j, c := range cols {
			rec[j] = c.Value(i)
		}
		s.Preview = append(s.Preview, rec)
	}

	var numeric []*frame.Column
	for _, c := range cols {
		if c.Kind == frame.KindNumeric {
			numeric = append(numeric, c)
		}
	}
	if len(numeric) == 0 {
		return s
	}
	described := make([]ColumnStats, 0, len(numeric))
	observed := 0
	for _, c := range numeric {
		vals := c.Observed()
		if len(vals) == 0 {
			described = append(described, emptyStats(c.Name))
			continue
		}
		st, err := describe(c.Name, vals)
		if err != nil {
			s.StatsError = fmt.Sprintf("column %q: %v", c.Name, err)
			return s
		}
		described = append(described, st)
		observed++
	}
	if observed == 0 {
		s.StatsError = ErrNoNumericValues.Error()
		return s
	}
	s.NumericStats = described
	s.ChartData = p.sample(numeric, rows)
	return s
}

// sample draws min(SampleRows, rows) rows without replacement.
func (p *Profiler) sample(cols []*frame.Column, rows int) []Series {
	seed := p.opt.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	idx := rng.Perm(rows)[:min(p.opt.SampleRows, rows)]
	out := make([]Series, len(cols))
	for j, c := range cols {
		vals := make([]any, len(idx))
		for k, i := range idx {
			vals[k] = c.Value(i)
		}
		out[j] = Series{Name: c.Name, Values: vals}
	}
	return out
}

// ErrNoNumericValues is recorded in Summary.StatsError when every numeric
// column is entirely missing.
var ErrNoNumericValues = errors.New("numeric columns have no observed values")

// emptyStats describes an all-missing column: count 0, every other field NaN.
func emptyStats(name string) ColumnStats {
	nan := math.NaN()
	return ColumnStats{Name: name, Mean: nan, Std: nan, Min: nan, Q1: nan, Median: nan, Q3: nan, Max: nan}
}

// describe computes count, mean, sample std, min, quartiles and max.
func describe(name string, vals []float64) (ColumnStats, error) {
	data := stats.Float64Data(vals)
	mean, err := stats.Mean(data)
	if err != nil {
		return ColumnStats{}, err
	}
	lo, err := stats.Min(data)
	if err != nil {
		return ColumnStats{}, err
	}
	hi, err := stats.Max(data)
	if err != nil {
		return ColumnStats{}, err
	}
	std := math.NaN()
	if len(vals) > 1 {
		if std, err = stats.StandardDeviationSample(data); err != nil {
			return ColumnStats{}, err
		}
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	return ColumnStats{
		Name:   name,
		Count:  float64(len(vals)),
		Mean:   mean,
		Std:    std,
		Min:    lo,
		Q1:     quantile(sorted, 0.25),
		Median: quantile(sorted, 0.5),
		Q3:     quantile(sorted, 0.75),
		Max:    hi,
	}, nil
}

func topValues(c *frame.Column, limit int) []CategoryCount {
	if limit <= 0 {
		return nil
	}
	counts := map[string]int{}
	for i, v := range c.Strs {
		if !c.Null[i] {
			counts[v]++
		}
	}
	tops := make([]CategoryCount, 0, len(counts))
	for k, v := range counts {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if len(tops) > limit {
		tops = tops[:limit]
	}
	return tops
}

// quantile interpolates linearly between the closest ranks of sorted.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
