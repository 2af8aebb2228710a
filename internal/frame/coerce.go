package frame

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// missingTokens are cell contents read as missing values.
var missingTokens = map[string]struct{}{
	"": {}, "NA": {}, "N/A": {}, "n/a": {}, "<NA>": {}, "NaN": {}, "nan": {}, "-NaN": {}, "-nan": {},
	"null": {}, "NULL": {}, "None": {}, "#N/A": {}, "#NA": {},
}

// IsMissing reports whether a trimmed cell denotes a missing value.
func IsMissing(s string) bool {
	_, ok := missingTokens[s]
	return ok
}

// ParseNumber parses a finite decimal number. Hex and underscore forms are rejected.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, "_xXpP") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

var decoration = strings.NewReplacer("$", "", ",", "", "%", "", "€", "", "£", "")

// StripDecoration removes currency symbols, thousands separators and percent
// signs. When the stripped text is not a number the original is returned.
func StripDecoration(s string) string {
	clean := strings.TrimSpace(decoration.Replace(s))
	if _, ok := ParseNumber(clean); ok {
		return clean
	}
	return s
}

// Threshold decides whether a column converts given the number of cells
// that parsed and the total number of cells, missing ones included.
type Threshold func(parsed, total int) bool

// AtLeastOne converts a column when any cell parses.
func AtLeastOne(parsed, _ int) bool { return parsed >= 1 }

// MoreThan converts a column when strictly more than frac of all cells parse.
func MoreThan(frac float64) Threshold {
	return func(parsed, total int) bool {
		return float64(parsed) > frac*float64(total)
	}
}

// CoerceNumeric reinterprets a text column as numeric when keep accepts the
// parse count. Cells that fail to parse become missing. Numeric columns are
// returned unchanged. The boolean reports whether the result is numeric.
func CoerceNumeric(c *Column, keep Threshold) (*Column, bool) {
	switch c.Kind {
	case KindNumeric:
		return c, true
	case KindTemporal:
		return c, false
	}
	nums := make([]float64, c.Len())
	parsed := 0
	for i, s := range c.Strs {
		if c.Null[i] {
			nums[i] = math.NaN()
			continue
		}
		f, ok := ParseNumber(s)
		if !ok {
			nums[i] = math.NaN()
			continue
		}
		nums[i] = f
		parsed++
	}
	if !keep(parsed, c.Len()) {
		return c, false
	}
	return NewNumeric(c.Name, nums), true
}

// timeLayouts are tried in order; month-first precedes day-first.
var timeLayouts = []string{
	time.RFC3339, "2006-01-02", "2006/01/02", "01/02/2006", "02/01/2006",
	"2006-01-02 15:04", "2006-01-02 15:04:05", "2006-01-02T15:04:05",
	"1/2/2006", "2/1/2006", "1/2/2006 15:04", "1/2/2006 15:04:05",
	"Jan 2, 2006", "January 2, 2006", "2 Jan 2006", "02-Jan-2006",
}

// CoerceTemporal converts a text column to temporal when it has at least one
// value and a single layout parses every non-missing value. The first such
// layout is applied to the whole column, so a day-first column is never read
// month-first for the cells where both would parse. Otherwise the column is
// returned untouched.
func CoerceTemporal(c *Column) (*Column, bool) {
	if c.Kind == KindTemporal {
		return c, true
	}
	if c.Kind != KindText {
		return c, false
	}
	for _, layout := range timeLayouts {
		if times, ok := parseColumn(c, layout); ok {
			return NewTemporal(c.Name, times, append([]bool(nil), c.Null...)), true
		}
	}
	return c, false
}

// parseColumn parses every non-missing cell of c with layout. It fails when
// any cell does not parse or when there is nothing to parse.
func parseColumn(c *Column, layout string) ([]time.Time, bool) {
	times := make([]time.Time, c.Len())
	seen := 0
	for i, s := range c.Strs {
		if c.Null[i] {
			continue
		}
		t, err := time.Parse(layout, strings.TrimSpace(s))
		if err != nil {
			return nil, false
		}
		times[i] = t
		seen++
	}
	return times, seen > 0
}
