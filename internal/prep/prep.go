// Package prep turns a raw dataset into one ready for encoding: trimmed
// names, coerced numbers, decomposed dates and no missing cells.
package prep

import (
	"math"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/KaramelBytes/autoanalyst-cli/internal/frame"
)

// Options holds the pipeline thresholds.
type Options struct {
	// NumericThreshold is the fraction of all cells that must parse for a
	// text column to become numeric. The comparison is strict.
	NumericThreshold float64
	// Unknown replaces missing text cells.
	Unknown string
}

// DefaultOptions returns the standard pipeline settings.
func DefaultOptions() Options {
	return Options{NumericThreshold: 0.5, Unknown: "Unknown"}
}

// Preprocess returns a prepared copy of raw. Every column of the result is
// numeric or text and has no missing cells. raw is not modified.
func Preprocess(raw *frame.Dataset, opt Options) *frame.Dataset {
	ds := raw.Clone()
	for _, c := range ds.Columns {
		c.Name = strings.TrimSpace(c.Name)
	}
	coerceNumbers(ds, frame.MoreThan(opt.NumericThreshold))
	decomposeDates(ds)
	for _, c := range ds.Columns {
		switch c.Kind {
		case frame.KindNumeric:
			fillMedian(c)
		case frame.KindText:
			fillText(c, opt.Unknown)
		}
	}
	return ds
}

func coerceNumbers(ds *frame.Dataset, keep frame.Threshold) {
	for i, c := range ds.Columns {
		if c.Kind != frame.KindText {
			continue
		}
		stripped := make([]string, len(c.Strs))
		for j, s := range c.Strs {
			stripped[j] = frame.StripDecoration(s)
		}
		if num, ok := frame.CoerceNumeric(frame.NewText(c.Name, stripped, c.Null), keep); ok {
			ds.Columns[i] = num
		}
	}
}

// decomposeDates replaces every fully parseable date column with numeric
// <name>_Year and <name>_Month columns placed after the existing ones.
func decomposeDates(ds *frame.Dataset) {
	kept := make([]*frame.Column, 0, len(ds.Columns))
	var derived []*frame.Column
	for _, c := range ds.Columns {
		t, ok := frame.CoerceTemporal(c)
		if !ok {
			kept = append(kept, c)
			continue
		}
		years := make([]float64, t.Len())
		months := make([]float64, t.Len())
		for i, ts := range t.Times {
			if t.Null[i] {
				years[i], months[i] = math.NaN(), math.NaN()
				continue
			}
			years[i], months[i] = float64(ts.Year()), float64(ts.Month())
		}
		derived = append(derived,
			frame.NewNumeric(c.Name+"_Year", years),
			frame.NewNumeric(c.Name+"_Month", months))
	}
	ds.Columns = kept
	for _, d := range derived {
		if i := ds.Index(d.Name); i >= 0 {
			ds.Columns[i] = d
			continue
		}
		ds.Columns = append(ds.Columns, d)
	}
}

// fillMedian imputes missing cells with the median of the observed ones.
// A column with no observed values is filled with 0.
func fillMedian(c *frame.Column) {
	if c.Missing() == 0 {
		return
	}
	fill := 0.0
	if obs := c.Observed(); len(obs) > 0 {
		fill, _ = stats.Median(stats.Float64Data(obs))
	}
	for i := range c.Nums {
		if c.Null[i] {
			c.Nums[i] = fill
			c.Null[i] = false
		}
	}
}

func fillText(c *frame.Column, unknown string) {
	for i := range c.Strs {
		if c.Null[i] {
			c.Strs[i] = unknown
			c.Null[i] = false
		}
		c.Strs[i] = strings.TrimSpace(c.Strs[i])
	}
}
