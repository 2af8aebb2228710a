package analysis

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/autoanalyst-cli/internal/frame"
)

func titanic() *frame.Dataset {
	return frame.FromRecords(
		[]string{"Survived", "Name", "Age", "Fare"},
		[][]string{
			{"0", "Braund", "22", "7.25"},
			{"1", "Cumings", "38", "71.28"},
			{"1", "Heikkinen", "", "7.92"},
			{"1", "Futrelle", "35", "unknown"},
			{"0", "Allen", "35", "8.05"},
			{"0", "Moran", "", "8.46"},
			{"0", "McCarthy", "54", "51.86"},
		},
	)
}

func TestSummarize_Structure(t *testing.T) {
	raw := titanic()
	s := NewProfiler(Options{PreviewRows: 5, SampleRows: 50, Seed: 7}).Summarize("ds-1", raw)

	assert.Equal(t, "ds-1", s.DatasetID)
	assert.Equal(t, 7, s.Rows)
	assert.Equal(t, 4, s.Cols())
	assert.Equal(t, []string{"Survived", "Name", "Age", "Fare"}, s.ColumnNames())

	kinds := make([]frame.Kind, 0, 4)
	missing := make([]int, 0, 4)
	for _, c := range s.Columns {
		kinds = append(kinds, c.Type)
		missing = append(missing, c.Missing)
	}
	assert.Equal(t, []frame.Kind{frame.KindNumeric, frame.KindText, frame.KindNumeric, frame.KindNumeric}, kinds)
	// "unknown" in Fare becomes missing once the column is coerced.
	assert.Equal(t, []int{0, 0, 2, 1}, missing)

	// The caller's dataset is untouched.
	fare, _ := raw.Column("Fare")
	assert.Equal(t, frame.KindText, fare.Kind)
	assert.Equal(t, "unknown", fare.Strs[3])
}

func TestSummarize_PreviewAndSampleCaps(t *testing.T) {
	s := NewProfiler(Options{PreviewRows: 5, SampleRows: 50, Seed: 1}).Summarize("x", titanic())
	require.Len(t, s.Preview, 5)
	assert.Nil(t, s.Preview[2][2], "missing Age renders as null")
	assert.Equal(t, "Braund", s.Preview[0][1])

	require.Len(t, s.ChartData, 3, "only numeric columns are sampled")
	for _, series := range s.ChartData {
		assert.Len(t, series.Values, 7, "sample is capped by dataset size")
	}

	rows := make([][]string, 120)
	for i := range rows {
		rows[i] = []string{fmt.Sprint(i)}
	}
	big := NewProfiler(DefaultOptions()).Summarize("big", frame.FromRecords([]string{"n"}, rows))
	assert.Len(t, big.Preview, 5)
	require.Len(t, big.ChartData, 1)
	vals := big.ChartData[0].Values
	assert.Len(t, vals, 50)
	seen := map[float64]bool{}
	for _, v := range vals {
		f := v.(float64)
		assert.False(t, seen[f], "sampled without replacement")
		seen[f] = true
	}
}

func TestSummarize_SeededSampleIsDeterministic(t *testing.T) {
	p := NewProfiler(Options{SampleRows: 3, Seed: 42})
	a := p.Summarize("x", titanic())
	b := p.Summarize("x", titanic())
	assert.Equal(t, a.ChartData, b.ChartData)
}

func TestDescribe(t *testing.T) {
	st, err := describe("v", []float64{4, 1, 3, 2})
	require.NoError(t, err)
	assert.Equal(t, 4.0, st.Count)
	assert.InDelta(t, 2.5, st.Mean, 1e-12)
	assert.InDelta(t, 1.2909944487, st.Std, 1e-9)
	assert.Equal(t, 1.0, st.Min)
	assert.InDelta(t, 1.75, st.Q1, 1e-12)
	assert.InDelta(t, 2.5, st.Median, 1e-12)
	assert.InDelta(t, 3.25, st.Q3, 1e-12)
	assert.Equal(t, 4.0, st.Max)

	one, err := describe("v", []float64{3})
	require.NoError(t, err)
	assert.True(t, math.IsNaN(one.Std))

	_, err = describe("v", nil)
	require.Error(t, err)
}

func TestSummarize_StatsFailureIsRecovered(t *testing.T) {
	ds := frame.FromRecords(
		[]string{"label", "empty", "blank"},
		[][]string{{"a", "", "NA"}, {"b", "NA", ""}},
	)
	s := NewProfiler(DefaultOptions()).Summarize("x", ds)
	assert.Equal(t, 2, s.Rows)
	assert.Equal(t, ErrNoNumericValues.Error(), s.StatsError)
	assert.Nil(t, s.NumericStats)
	assert.Nil(t, s.ChartData)

	b, err := json.Marshal(s)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Contains(t, out, "numeric_stats_error")
	assert.NotContains(t, out, "numeric_stats")
	assert.NotContains(t, out, "chart_data")
	assert.Contains(t, s.Markdown(), "numeric statistics unavailable")
}

func TestSummarize_EmptyColumnKeepsOtherStats(t *testing.T) {
	ds := frame.FromRecords(
		[]string{"age", "fare", "notes"},
		[][]string{{"22", "7.25", ""}, {"38", "71.3", ""}, {"26", "7.9", ""}},
	)
	s := NewProfiler(Options{PreviewRows: 5, SampleRows: 50, Seed: 1}).Summarize("t", ds)
	assert.Empty(t, s.StatsError)
	require.Len(t, s.NumericStats, 3)
	assert.Equal(t, 3.0, s.NumericStats[0].Count)
	assert.InDelta(t, 28.666666, s.NumericStats[0].Mean, 1e-5)
	assert.Equal(t, 71.3, s.NumericStats[1].Max)
	notes := s.NumericStats[2]
	assert.Equal(t, "notes", notes.Name)
	assert.Zero(t, notes.Count)
	assert.True(t, math.IsNaN(notes.Mean))
	require.Len(t, s.ChartData, 3)
	assert.Equal(t, []any{nil, nil, nil}, s.ChartData[2].Values)
	assert.Len(t, s.ChartData[0].Values, 3)

	b, err := json.Marshal(s)
	require.NoError(t, err)
	var out struct {
		Stats map[string]map[string]any `json:"numeric_stats"`
		Chart map[string][]any          `json:"chart_data"`
	}
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, 0.0, out.Stats["notes"]["count"])
	assert.Nil(t, out.Stats["notes"]["mean"])
	assert.Contains(t, out.Stats["notes"], "mean")
	assert.Equal(t, 7.25, out.Stats["fare"]["min"])
	assert.Equal(t, []any{nil, nil, nil}, out.Chart["notes"])
	assert.Contains(t, s.Markdown(), "- notes: float64 (missing 3, 100.0%; unique 0)\n")
}

func TestSummaryJSON_OrderAndNulls(t *testing.T) {
	ds := frame.FromRecords(
		[]string{"zeta", "alpha", "mid"},
		[][]string{{"1", "x", "2"}, {"", "y", "3"}},
	)
	s := NewProfiler(Options{PreviewRows: 5, SampleRows: 50, Seed: 3}).Summarize("ord", ds)
	b, err := json.Marshal(s)
	require.NoError(t, err)
	js := string(b)

	types := js[strings.Index(js, `"data_types"`):]
	assert.Less(t, strings.Index(types, `"zeta"`), strings.Index(types, `"alpha"`))
	assert.Less(t, strings.Index(types, `"alpha"`), strings.Index(types, `"mid"`))
	assert.Contains(t, js, `{"zeta":null,"alpha":"y","mid":3}`)
	assert.Contains(t, js, `"data_types":{"zeta":"float64","alpha":"object","mid":"float64"}`)
	assert.Contains(t, js, `"std":null`, "single observed value has no sample std")

	var out struct {
		Rows         int                           `json:"rows"`
		Cols         int                           `json:"cols"`
		NumericStats map[string]map[string]float64 `json:"numeric_stats"`
	}
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, 2, out.Rows)
	assert.Equal(t, 3, out.Cols)
	assert.Equal(t, 2.5, out.NumericStats["mid"]["50%"])
}

func TestMarkdown(t *testing.T) {
	s := NewProfiler(Options{PreviewRows: 2, SampleRows: 5, Seed: 1, TopValues: 3}).Summarize("ds-9", titanic())
	md := s.Markdown()
	for _, want := range []string{
		"[DATASET SUMMARY]",
		"Dataset: ds-9",
		"Rows: 7",
		"[SCHEMA]",
		"- Age: float64 (missing 2, 28.6%; unique 4)",
		"- Name: object",
		"[HEAD AND SAMPLE ROWS]",
		"| Survived | Name | Age | Fare |",
		"| 1 | Cumings | 38 | 71.28 |",
	} {
		assert.Contains(t, md, want)
	}
	assert.NotContains(t, md, "[NOTES]")
}

func TestQuantile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}
	assert.Equal(t, 1.0, quantile(sorted, 0))
	assert.Equal(t, 3.0, quantile(sorted, 0.5))
	assert.Equal(t, 5.0, quantile(sorted, 1))
	assert.InDelta(t, 2.0, quantile(sorted, 0.25), 1e-12)
	assert.True(t, math.IsNaN(quantile(nil, 0.5)))
}

func TestRecordsJSON(t *testing.T) {
	ds := frame.FromRecords([]string{"b", "a"}, [][]string{{"1", "x"}, {"", "y"}, {"3", ""}})
	b, err := RecordsJSON(ds, 2)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"b":1,"a":"x"},{"b":null,"a":"y"}]`, string(b))
	assert.True(t, strings.HasPrefix(string(b), `[{"b":1,"a":"x"}`), "keys keep column order")

	b, err = RecordsJSON(ds, 0)
	require.NoError(t, err)
	var all []map[string]any
	require.NoError(t, json.Unmarshal(b, &all))
	assert.Len(t, all, 3)
}
