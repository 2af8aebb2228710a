package insight

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	questionsRe = regexp.MustCompile(`(?s)<QUESTIONS>(.*?)</QUESTIONS>`)
	thoughtRe   = regexp.MustCompile(`(?s)<THOUGHT>(.*?)</THOUGHT>`)
	codeRe      = regexp.MustCompile(`(?s)<CODE>(.*?)</CODE>`)
	chartRe     = regexp.MustCompile(`(?s)<CHART>(.*?)</CHART>`)
	fenceRe     = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
)

// ParseQuestions extracts the JSON string list inside <QUESTIONS> tags.
// It returns nil when the tags are absent or hold invalid JSON.
func ParseQuestions(text string) []string {
	m := questionsRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	var qs []string
	if err := json.Unmarshal([]byte(unfence(m[1])), &qs); err != nil {
		return nil
	}
	out := qs[:0]
	for _, q := range qs {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}
	return out
}

// Reply is a chat answer split into its tagged parts.
type Reply struct {
	Thought string `json:"thought,omitempty"`
	Code    string `json:"code,omitempty"`
	// Answer is the text left once every tagged part is removed.
	Answer string `json:"answer"`
	// Chart is the Chart.js config, present only when it is valid JSON.
	Chart json.RawMessage `json:"chart,omitempty"`
}

// ParseReply splits a model answer into thought, code, chart and the
// remaining free text.
func ParseReply(text string) *Reply {
	r := &Reply{}
	if m := thoughtRe.FindStringSubmatch(text); m != nil {
		r.Thought = strings.TrimSpace(m[1])
	}
	if m := codeRe.FindStringSubmatch(text); m != nil {
		r.Code = unfence(m[1])
	}
	if m := chartRe.FindStringSubmatch(text); m != nil {
		if js := unfence(m[1]); json.Valid([]byte(js)) {
			r.Chart = json.RawMessage(js)
		}
	}
	rest := text
	for _, re := range []*regexp.Regexp{thoughtRe, codeRe, chartRe, questionsRe} {
		rest = re.ReplaceAllString(rest, "")
	}
	r.Answer = strings.TrimSpace(rest)
	return r
}

// unfence trims s and drops a surrounding Markdown code fence.
func unfence(s string) string {
	s = strings.TrimSpace(s)
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}
