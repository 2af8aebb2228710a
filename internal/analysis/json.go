package analysis

import (
	"bytes"
	"encoding/json"
	"math"

	"github.com/KaramelBytes/autoanalyst-cli/internal/frame"
)

// object is a JSON object that keeps insertion order.
type object []member

type member struct {
	Key   string
	Value any
}

func (o object) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			b.WriteByte(',')
		}
		k, err := json.Marshal(m.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(m.Value)
		if err != nil {
			return nil, err
		}
		b.Write(k)
		b.WriteByte(':')
		b.Write(v)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// finite maps NaN and infinities to null.
func finite(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

// MarshalJSON emits the summary with every per-column object keyed in
// dataset column order.
func (s *Summary) MarshalJSON() ([]byte, error) {
	types := make(object, len(s.Columns))
	missing := make(object, len(s.Columns))
	for i, c := range s.Columns {
		types[i] = member{c.Name, c.Type.String()}
		missing[i] = member{c.Name, c.Missing}
	}
	preview := make([]object, len(s.Preview))
	for i, row := range s.Preview {
		rec := make(object, len(row))
		for j, v := range row {
			rec[j] = member{s.Columns[j].Name, v}
		}
		preview[i] = rec
	}
	out := object{
		{"dataset_id", s.DatasetID},
		{"rows", s.Rows},
		{"cols", s.Cols()},
		{"column_names", s.ColumnNames()},
		{"data_types", types},
		{"missing_values", missing},
		{"preview", preview},
	}
	if s.NumericStats != nil {
		st := make(object, len(s.NumericStats))
		for i, c := range s.NumericStats {
			st[i] = member{c.Name, object{
				{"count", finite(c.Count)},
				{"mean", finite(c.Mean)},
				{"std", finite(c.Std)},
				{"min", finite(c.Min)},
				{"25%", finite(c.Q1)},
				{"50%", finite(c.Median)},
				{"75%", finite(c.Q3)},
				{"max", finite(c.Max)},
			}}
		}
		out = append(out, member{"numeric_stats", st})
	}
	if s.ChartData != nil {
		cd := make(object, len(s.ChartData))
		for i, c := range s.ChartData {
			cd[i] = member{c.Name, c.Values}
		}
		out = append(out, member{"chart_data", cd})
	}
	if s.StatsError != "" {
		out = append(out, member{"numeric_stats_error", s.StatsError})
	}
	return out.MarshalJSON()
}

// RecordsJSON encodes the first limit rows of ds as a JSON array of records
// keyed in column order. Missing cells are null; limit <= 0 means all rows.
func RecordsJSON(ds *frame.Dataset, limit int) ([]byte, error) {
	n := ds.Rows()
	if limit > 0 && limit < n {
		n = limit
	}
	recs := make([]object, n)
	for i := range recs {
		rec := make(object, len(ds.Columns))
		for j, c := range ds.Columns {
			rec[j] = member{c.Name, c.Value(i)}
		}
		recs[i] = rec
	}
	return json.Marshal(recs)
}
