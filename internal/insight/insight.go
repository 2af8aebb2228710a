// Package insight turns dataset summaries and raw records into language
// model prompts, and routes direct "train"/"predict" requests to the engine.
package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/KaramelBytes/autoanalyst-cli/internal/ai"
	"github.com/KaramelBytes/autoanalyst-cli/internal/analysis"
	"github.com/KaramelBytes/autoanalyst-cli/internal/dataset"
	"github.com/KaramelBytes/autoanalyst-cli/internal/history"
	"github.com/KaramelBytes/autoanalyst-cli/internal/ml"
	"github.com/KaramelBytes/autoanalyst-cli/internal/utils"
)

// Engine is the part of engine.Engine the analyst needs.
type Engine interface {
	Profile(ctx context.Context, id string) (*analysis.Summary, error)
	Train(ctx context.Context, id, target string) (*ml.Result, error)
}

// Options configures prompts and model calls.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float64
	// ChatRows caps the raw records embedded in a chat prompt.
	ChatRows int
	// HistoryTurns caps the earlier turns embedded in a chat prompt.
	HistoryTurns int
	// RecordTokens truncates the embedded records to roughly this many
	// tokens; 0 leaves them whole.
	RecordTokens int
}

// DefaultOptions mirrors the config defaults.
func DefaultOptions() Options {
	return Options{Model: "openai/gpt-4o-mini", MaxTokens: 2048, Temperature: 0.2, ChatRows: 2000, HistoryTurns: 5}
}

// Analyst answers questions about stored datasets.
type Analyst struct {
	engine Engine
	store  dataset.Store
	rt     ai.Runtime
	opt    Options
	log    logrus.FieldLogger
}

// New returns an analyst. rt may be nil; calls that need the model then fail
// with ErrOffline while direct training still works.
func New(e Engine, store dataset.Store, rt ai.Runtime, opt Options, log logrus.FieldLogger) *Analyst {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Analyst{engine: e, store: store, rt: rt, opt: opt, log: log}
}

// ErrOffline is returned when no language model runtime is configured.
var ErrOffline = errors.New("language model offline: no runtime configured")

// ErrEmptyQuery is returned by Chat for a blank query.
var ErrEmptyQuery = errors.New("query cannot be empty")

// Autoscan is the model's first look at a dataset.
type Autoscan struct {
	DatasetID string   `json:"dataset_id"`
	Response  string   `json:"response"`
	Questions []string `json:"questions"`
}

// Autoscan sends the dataset summary to the model and asks for a brief, one
// insight and three suggested visualisation questions.
func (a *Analyst) Autoscan(ctx context.Context, id string) (*Autoscan, error) {
	if a.rt == nil {
		return nil, ErrOffline
	}
	sum, err := a.engine.Profile(ctx, id)
	if err != nil {
		return nil, err
	}
	js, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode summary: %w", err)
	}
	text, err := a.generate(ctx, id, "autoscan", autoscanPrompt(string(js)))
	if err != nil {
		return nil, err
	}
	return &Autoscan{DatasetID: id, Response: text, Questions: ParseQuestions(text)}, nil
}

// ChatRequest is one user query with the conversation so far.
type ChatRequest struct {
	DatasetID string         `json:"dataset_id"`
	Query     string         `json:"query"`
	History   []history.Turn `json:"history,omitempty"`
}

// ChatResponse carries the raw answer plus its parsed parts.
type ChatResponse struct {
	Response string     `json:"response"`
	Reply    *Reply     `json:"reply,omitempty"`
	Model    *ml.Result `json:"model,omitempty"`
}

// Chat answers a query. A query that asks to predict or train, and does not
// ask how or for a strategy, trains a model on the first column named in the
// query and answers without calling the language model. Anything else is
// sent to the model together with the raw records and recent history.
func (a *Analyst) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if IsTrainCommand(query) {
		res, ok, err := a.trainFromQuery(ctx, req.DatasetID, query)
		if err != nil {
			return nil, err
		}
		if ok {
			return &ChatResponse{Response: FormatResult(res), Model: res}, nil
		}
	}
	if a.rt == nil {
		return nil, ErrOffline
	}
	raw, err := a.store.Load(ctx, req.DatasetID)
	if err != nil {
		return nil, err
	}
	records, err := analysis.RecordsJSON(raw, a.opt.ChatRows)
	if err != nil {
		return nil, fmt.Errorf("encode records: %w", err)
	}
	data := string(records)
	if n := a.opt.RecordTokens; n > 0 && utils.CountTokens(data) > n {
		a.log.WithFields(logrus.Fields{"dataset_id": req.DatasetID, "record_tokens": n}).Warn("truncating records in chat prompt")
		data = utils.TruncateToTokenLimit(data, n)
	}
	prompt := chatPrompt(query, data, history.Last(req.History, a.opt.HistoryTurns))
	text, err := a.generate(ctx, req.DatasetID, "chat", prompt)
	if err != nil {
		return nil, err
	}
	return &ChatResponse{Response: text, Reply: ParseReply(text)}, nil
}

// IsTrainCommand reports whether query is a direct training request.
func IsTrainCommand(query string) bool {
	q := strings.ToLower(query)
	return (strings.Contains(q, "predict") || strings.Contains(q, "train")) &&
		!(strings.Contains(q, "how") || strings.Contains(q, "strategy"))
}

// MentionedColumn returns the first column, in dataset order, whose
// lowercased trimmed name occurs in query.
func MentionedColumn(columns []string, query string) (string, bool) {
	q := strings.ToLower(query)
	for _, c := range columns {
		name := strings.ToLower(strings.TrimSpace(c))
		if name != "" && strings.Contains(q, name) {
			return c, true
		}
	}
	return "", false
}

func (a *Analyst) trainFromQuery(ctx context.Context, id, query string) (*ml.Result, bool, error) {
	sum, err := a.engine.Profile(ctx, id)
	if err != nil {
		return nil, false, err
	}
	target, ok := MentionedColumn(sum.ColumnNames(), query)
	if !ok {
		a.log.WithField("dataset_id", id).Debug("train command names no column; falling back to the model")
		return nil, false, nil
	}
	a.log.WithFields(logrus.Fields{"dataset_id": id, "target": target}).Info("training from chat")
	res, err := a.engine.Train(ctx, id, target)
	if err != nil {
		return nil, false, err
	}
	return res, true, nil
}

func (a *Analyst) generate(ctx context.Context, id, kind, prompt string) (string, error) {
	log := a.log.WithFields(logrus.Fields{"dataset_id": id, "kind": kind, "model": a.opt.Model})
	log.WithField("prompt_tokens", utils.CountTokens(prompt)).Debug("sending prompt")
	start := time.Now()
	resp, err := a.rt.Generate(ctx, ai.GenerateRequest{
		Model:       a.opt.Model,
		Messages:    []ai.Message{{Role: "user", Content: prompt}},
		MaxTokens:   a.opt.MaxTokens,
		Temperature: a.opt.Temperature,
	})
	if err != nil {
		log.WithError(err).Warn("model call failed")
		return "", fmt.Errorf("%s: %w", kind, err)
	}
	log.WithFields(logrus.Fields{"request_id": resp.RequestID, "elapsed": time.Since(start).Round(time.Millisecond)}).Debug("model replied")
	return resp.Text(), nil
}

// FormatResult renders a training result as a short Markdown answer.
func FormatResult(res *ml.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### ML Results\n\nI trained a **%s** to predict **%s**.\n\n", res.ModelType, res.Target)
	fmt.Fprintf(&b, "**%s:** %g%%\n\n**Top Factors:**\n", res.Metric, res.Score)
	for _, f := range res.TopFeatures {
		fmt.Fprintf(&b, "- %s: %g\n", f.Feature, f.Importance)
	}
	return b.String()
}
