// Package report renders profiles and training results for export.
package report

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/KaramelBytes/autoanalyst-cli/internal/analysis"
	"github.com/KaramelBytes/autoanalyst-cli/internal/ml"
)

// Markdown combines the dataset profile with an optional [MODEL] section.
func Markdown(s *analysis.Summary, res *ml.Result) string {
	var b strings.Builder
	b.WriteString(s.Markdown())
	if res == nil {
		return b.String()
	}
	if !strings.HasSuffix(b.String(), "\n") {
		b.WriteString("\n")
	}
	b.WriteString("\n[MODEL]\n")
	fmt.Fprintf(&b, "Model: %s\n", res.ModelType)
	fmt.Fprintf(&b, "Task: %s\n", res.Task)
	fmt.Fprintf(&b, "Target: %s\n", res.Target)
	fmt.Fprintf(&b, "%s: %.2f%%\n", res.Metric, res.Score)
	fmt.Fprintf(&b, "Rows: %d train / %d test\n", res.TrainRows, res.TestRows)
	if len(res.Pruned) > 0 {
		fmt.Fprintf(&b, "Dropped high-cardinality columns: %s\n", strings.Join(res.Pruned, ", "))
	}
	if len(res.TopFeatures) > 0 {
		b.WriteString("\n| Rank | Feature | Importance |\n|---:|---|---:|\n")
		for i, f := range res.TopFeatures {
			fmt.Fprintf(&b, "| %d | %s | %.3f |\n", i+1, strings.ReplaceAll(f.Feature, "|", "/"), f.Importance)
		}
	}
	return b.String()
}

// ImportanceRow is one CSV line of the importance export.
type ImportanceRow struct {
	Rank       int     `csv:"rank"`
	Feature    string  `csv:"feature"`
	Importance float64 `csv:"importance"`
}

// WriteImportancesCSV writes the ranked top features of res with a header.
func WriteImportancesCSV(w io.Writer, res *ml.Result) error {
	if res == nil {
		return errors.New("no training result")
	}
	rows := make([]*ImportanceRow, len(res.TopFeatures))
	for i, f := range res.TopFeatures {
		rows[i] = &ImportanceRow{Rank: i + 1, Feature: f.Feature, Importance: f.Importance}
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("write importances: %w", err)
	}
	return nil
}
