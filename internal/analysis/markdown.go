package analysis

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/autoanalyst-cli/internal/frame"
)

// Markdown renders a compact report suitable for prompts or standalone docs.
func (s *Summary) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if s.DatasetID != "" {
		b.WriteString(fmt.Sprintf("Dataset: %s\n", s.DatasetID))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", s.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", s.Cols()))

	stats := make(map[string]ColumnStats, len(s.NumericStats))
	for _, st := range s.NumericStats {
		stats[st.Name] = st
	}
	b.WriteString("[SCHEMA]\n")
	for _, c := range s.Columns {
		missPct := 0.0
		if s.Rows > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(s.Rows)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (missing %d, %.1f%%; unique %d)", safeName(c.Name), c.Type, c.Missing, missPct, c.Unique))
		if st, ok := stats[c.Name]; ok && c.Type == frame.KindNumeric && st.Count > 0 {
			b.WriteString(fmt.Sprintf(": min %.4g, p25 %.4g, median %.4g, p75 %.4g, max %.4g, mean %.4g, std %.4g",
				st.Min, st.Q1, st.Median, st.Q3, st.Max, st.Mean, st.Std))
		}
		if len(c.Top) > 0 {
			b.WriteString(": top ")
			for i, kv := range c.Top {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
			}
		}
		b.WriteString("\n")
	}

	if len(s.Preview) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		b.WriteString("| ")
		for i, c := range s.Columns {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeName(c.Name))
		}
		b.WriteString(" |\n| ")
		for i := range s.Columns {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString("---")
		}
		b.WriteString(" |\n")
		for _, row := range s.Preview {
			b.WriteString("| ")
			for i, v := range row {
				if i > 0 {
					b.WriteString(" | ")
				}
				val := formatCell(v)
				if len(val) > 80 {
					val = val[:77] + "..."
				}
				b.WriteString(safeVal(val))
			}
			b.WriteString(" |\n")
		}
	}
	if s.StatsError != "" {
		b.WriteString("\n[NOTES]\n")
		b.WriteString("- numeric statistics unavailable: ")
		b.WriteString(s.StatsError)
		b.WriteString("\n")
	}
	return b.String()
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case float64:
		return fmt.Sprintf("%g", x)
	default:
		return fmt.Sprint(x)
	}
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
