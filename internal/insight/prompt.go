package insight

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/autoanalyst-cli/internal/history"
)

func autoscanPrompt(summaryJSON string) string {
	return fmt.Sprintf(`Act as a Data Analyst. Analyze this summary:
%s

1. **Executive Brief**: 2 sentences on data health.
2. **Key Insight**: 1 major pattern.
3. **Recommendations**: Generate 3 SHORT, SIMPLE questions a non-technical user could ask to visualize the data.
   - Focus on: Bar Charts, Pie Charts, Line Charts.
   - Format: Just the question text.

Return the questions as a JSON list of strings inside QUESTIONS tags.
Example: <QUESTIONS>["Show a bar chart of Pclass", "Show a pie chart of Sex", "Compare Age vs Fare"]</QUESTIONS>
`, summaryJSON)
}

const chartExample = `<CHART>
{
  "type": "bar",
  "data": {
    "labels": ["Label A", "Label B"],
    "datasets": [
      {"label": "Metric", "data": [10, 20], "backgroundColor": ["#3b82f6", "#60a5fa"]}
    ]
  },
  "options": {"responsive": true, "maintainAspectRatio": false}
}
</CHART>`

func chatPrompt(query, records string, turns []history.Turn) string {
	var b strings.Builder
	b.WriteString("You are a Data Visualization Expert.\n\n")
	if len(turns) > 0 {
		b.WriteString("CONVERSATION SO FAR:\n")
		for _, t := range turns {
			fmt.Fprintf(&b, "%s: %s\n", strings.ToUpper(t.Role), t.Text)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "USER QUERY:\n%s\n\n", query)
	fmt.Fprintf(&b, "RAW DATA (use it to calculate accurate counts):\n%s\n\n", records)
	b.WriteString(`INSTRUCTIONS:
1. THOUGHT: <THOUGHT>Plan the logic.</THOUGHT>
2. CODE: <CODE>Python code that reproduces the answer.</CODE>
3. ANSWER: Concise explanation (max 50 words).
4. CHART: If the user asks for a plot, return Chart.js JSON in CHART tags.

STRICT CHART JSON FORMAT (Chart.js):
`)
	b.WriteString(chartExample)
	b.WriteString("\n")
	return b.String()
}
