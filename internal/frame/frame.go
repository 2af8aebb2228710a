package frame

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind is the runtime type of a column.
type Kind int

const (
	KindText Kind = iota
	KindNumeric
	KindTemporal
)

// String returns the type name reported in profile summaries.
func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "float64"
	case KindTemporal:
		return "datetime64"
	default:
		return "object"
	}
}

// Column is a named, homogeneously typed sequence of cells. Exactly one of
// Nums, Strs or Times is populated, selected by Kind. Null marks missing
// cells for every kind; missing numeric cells also hold NaN.
type Column struct {
	Name  string
	Kind  Kind
	Nums  []float64
	Strs  []string
	Times []time.Time
	Null  []bool
}

// NewNumeric builds a numeric column; NaN values are treated as missing.
func NewNumeric(name string, vals []float64) *Column {
	null := make([]bool, len(vals))
	for i, v := range vals {
		null[i] = math.IsNaN(v)
	}
	return &Column{Name: name, Kind: KindNumeric, Nums: vals, Null: null}
}

// NewText builds a text column. A nil null mask means no missing cells.
func NewText(name string, vals []string, null []bool) *Column {
	if null == nil {
		null = make([]bool, len(vals))
	}
	return &Column{Name: name, Kind: KindText, Strs: vals, Null: null}
}

// NewTemporal builds a temporal column.
func NewTemporal(name string, vals []time.Time, null []bool) *Column {
	if null == nil {
		null = make([]bool, len(vals))
	}
	return &Column{Name: name, Kind: KindTemporal, Times: vals, Null: null}
}

// Len returns the number of cells.
func (c *Column) Len() int { return len(c.Null) }

// IsNull reports whether cell i is missing.
func (c *Column) IsNull(i int) bool { return c.Null[i] }

// Missing counts missing cells.
func (c *Column) Missing() int {
	n := 0
	for _, v := range c.Null {
		if v {
			n++
		}
	}
	return n
}

// Observed returns the non-missing values of a numeric column.
func (c *Column) Observed() []float64 {
	if c.Kind != KindNumeric {
		return nil
	}
	out := make([]float64, 0, len(c.Nums))
	for i, v := range c.Nums {
		if !c.Null[i] {
			out = append(out, v)
		}
	}
	return out
}

// Text renders cell i as text. Missing cells render as "".
func (c *Column) Text(i int) string {
	if c.Null[i] {
		return ""
	}
	switch c.Kind {
	case KindNumeric:
		return strconv.FormatFloat(c.Nums[i], 'f', -1, 64)
	case KindTemporal:
		return c.Times[i].Format(time.RFC3339)
	default:
		return c.Strs[i]
	}
}

// Value returns cell i as a JSON-friendly value: nil when missing,
// float64 for numeric cells and string otherwise.
func (c *Column) Value(i int) any {
	if c.Null[i] {
		return nil
	}
	if c.Kind == KindNumeric {
		return c.Nums[i]
	}
	return c.Text(i)
}

// Distinct counts distinct non-missing values.
func (c *Column) Distinct() int {
	switch c.Kind {
	case KindNumeric:
		seen := make(map[float64]struct{})
		for i, v := range c.Nums {
			if !c.Null[i] {
				seen[v] = struct{}{}
			}
		}
		return len(seen)
	default:
		seen := make(map[string]struct{})
		for i := range c.Null {
			if !c.Null[i] {
				seen[c.Text(i)] = struct{}{}
			}
		}
		return len(seen)
	}
}

// Clone returns a deep copy.
func (c *Column) Clone() *Column {
	out := &Column{Name: c.Name, Kind: c.Kind, Null: append([]bool(nil), c.Null...)}
	if c.Nums != nil {
		out.Nums = append([]float64(nil), c.Nums...)
	}
	if c.Strs != nil {
		out.Strs = append([]string(nil), c.Strs...)
	}
	if c.Times != nil {
		out.Times = append([]time.Time(nil), c.Times...)
	}
	return out
}

// Dataset is an ordered sequence of equally long columns. Column names are
// not required to be unique.
type Dataset struct {
	Columns []*Column
}

// New assembles a dataset, rejecting columns of unequal length.
func New(cols ...*Column) (*Dataset, error) {
	for _, c := range cols {
		if c.Len() != cols[0].Len() {
			return nil, fmt.Errorf("column %q has %d rows, expected %d", c.Name, c.Len(), cols[0].Len())
		}
	}
	return &Dataset{Columns: cols}, nil
}

// Rows returns the row count.
func (d *Dataset) Rows() int {
	if len(d.Columns) == 0 {
		return 0
	}
	return d.Columns[0].Len()
}

// Names returns the column names in order.
func (d *Dataset) Names() []string {
	out := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		out[i] = c.Name
	}
	return out
}

// Index returns the position of the first column named name, or -1.
func (d *Dataset) Index(name string) int {
	for i, c := range d.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Column returns the first column named name.
func (d *Dataset) Column(name string) (*Column, bool) {
	i := d.Index(name)
	if i < 0 {
		return nil, false
	}
	return d.Columns[i], true
}

// Clone returns a deep copy so callers can transform it freely.
func (d *Dataset) Clone() *Dataset {
	out := &Dataset{Columns: make([]*Column, len(d.Columns))}
	for i, c := range d.Columns {
		out.Columns[i] = c.Clone()
	}
	return out
}

// FromRecords builds a dataset from a header and string rows. Short rows are
// padded with missing cells. A column is numeric when every non-missing
// cell parses as a number; otherwise it is text.
func FromRecords(header []string, rows [][]string) *Dataset {
	d := &Dataset{Columns: make([]*Column, len(header))}
	for j, name := range header {
		raw := make([]string, len(rows))
		null := make([]bool, len(rows))
		numeric := true
		nums := make([]float64, len(rows))
		for i, r := range rows {
			cell := ""
			if j < len(r) {
				cell = strings.TrimSpace(r[j])
			}
			if IsMissing(cell) {
				null[i] = true
				nums[i] = math.NaN()
				continue
			}
			raw[i] = cell
			if numeric {
				f, ok := ParseNumber(cell)
				if !ok {
					numeric = false
					continue
				}
				nums[i] = f
			}
		}
		if numeric {
			d.Columns[j] = &Column{Name: name, Kind: KindNumeric, Nums: nums, Null: null}
		} else {
			d.Columns[j] = NewText(name, raw, null)
		}
	}
	return d
}
