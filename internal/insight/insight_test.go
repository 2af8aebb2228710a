package insight

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/autoanalyst-cli/internal/ai"
	"github.com/KaramelBytes/autoanalyst-cli/internal/dataset"
	"github.com/KaramelBytes/autoanalyst-cli/internal/engine"
	"github.com/KaramelBytes/autoanalyst-cli/internal/frame"
	"github.com/KaramelBytes/autoanalyst-cli/internal/history"
	"github.com/KaramelBytes/autoanalyst-cli/internal/ml"
)

type fakeRuntime struct {
	mu    sync.Mutex
	reply string
	err   error
	reqs  []ai.GenerateRequest
}

func (f *fakeRuntime) Generate(_ context.Context, req ai.GenerateRequest) (*ai.GenerateResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return &ai.GenerateResponse{Choices: []ai.Choice{{Message: ai.Message{Role: "assistant", Content: f.reply}}}}, nil
}

func (f *fakeRuntime) prompt(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.reqs)
	return f.reqs[len(f.reqs)-1].Messages[0].Content
}

func customers() *frame.Dataset {
	rows := make([][]string, 40)
	for i := range rows {
		plan := []string{"basic", "pro"}[i%2]
		rows[i] = []string{plan, fmt.Sprint(10 + i), fmt.Sprint(i % 2)}
	}
	rows[3][1] = ""
	return frame.FromRecords([]string{"Plan", "Tenure", "Churned"}, rows)
}

func newAnalyst(t *testing.T, rt ai.Runtime, opt Options) *Analyst {
	t.Helper()
	store := dataset.NewMemoryStore()
	store.Put("cust", customers())
	eopt := engine.DefaultOptions()
	eopt.Profile.Seed = 1
	eopt.Train.Trees = 10
	log, _ := test.NewNullLogger()
	return New(engine.New(store, eopt), store, rt, opt, log)
}

func TestIsTrainCommand(t *testing.T) {
	cases := map[string]bool{
		"predict Churned":              true,
		"Train a model on tenure":      true,
		"how would you predict churn?": false,
		"what strategy to train":       false,
		"show me a predict chart":      false, // "show" contains "how"
		"plot tenure by plan":          false,
		"PREDICT the plan please":      true,
		"retrain everything":           true,
	}
	for q, want := range cases {
		assert.Equal(t, want, IsTrainCommand(q), q)
	}
}

func TestMentionedColumn(t *testing.T) {
	cols := []string{" Plan ", "Tenure", "Churned"}
	got, ok := MentionedColumn(cols, "predict churned from tenure")
	require.True(t, ok)
	assert.Equal(t, "Tenure", got, "first in column order wins")

	_, ok = MentionedColumn(cols, "predict revenue")
	assert.False(t, ok)
}

func TestChat_TrainCommandSkipsModel(t *testing.T) {
	rt := &fakeRuntime{reply: "unused"}
	a := newAnalyst(t, rt, DefaultOptions())

	resp, err := a.Chat(context.Background(), ChatRequest{DatasetID: "cust", Query: "Predict churned"})
	require.NoError(t, err)
	require.NotNil(t, resp.Model)
	assert.Equal(t, "Churned", resp.Model.Target)
	assert.Equal(t, ml.Classification, resp.Model.Task)
	assert.Contains(t, resp.Response, "I trained a **Random Forest Classifier** to predict **Churned**")
	assert.Contains(t, resp.Response, "**Accuracy:**")
	assert.Empty(t, rt.reqs)
}

func TestChat_TrainCommandWithoutColumnFallsBackToModel(t *testing.T) {
	rt := &fakeRuntime{reply: "<THOUGHT>t</THOUGHT>no target"}
	a := newAnalyst(t, rt, DefaultOptions())

	resp, err := a.Chat(context.Background(), ChatRequest{DatasetID: "cust", Query: "predict revenue"})
	require.NoError(t, err)
	assert.Nil(t, resp.Model)
	assert.Equal(t, "no target", resp.Reply.Answer)
	assert.Len(t, rt.reqs, 1)
}

func TestChat_VisualizationPrompt(t *testing.T) {
	rt := &fakeRuntime{reply: "Two plans.\n<CHART>{\"type\":\"pie\"}</CHART>"}
	opt := DefaultOptions()
	opt.ChatRows = 3
	opt.HistoryTurns = 2
	a := newAnalyst(t, rt, opt)

	turns := []history.Turn{
		{Role: history.RoleUser, Text: "oldest"},
		{Role: history.RoleUser, Text: "first question"},
		{Role: history.RoleAI, Text: "first answer"},
	}
	resp, err := a.Chat(context.Background(), ChatRequest{DatasetID: "cust", Query: "pie chart of plan", History: turns})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"pie"}`, string(resp.Reply.Chart))
	assert.Equal(t, "Two plans.", resp.Reply.Answer)

	p := rt.prompt(t)
	assert.Contains(t, p, "USER QUERY:\npie chart of plan")
	assert.Contains(t, p, `[{"Plan":"basic","Tenure":10,"Churned":0},{"Plan":"pro","Tenure":11,"Churned":1},{"Plan":"basic","Tenure":12,"Churned":0}]`)
	assert.NotContains(t, p, `"Tenure":13`)
	assert.Contains(t, p, "USER: first question\nAI: first answer\n")
	assert.NotContains(t, p, "oldest")
	assert.Equal(t, opt.Model, rt.reqs[0].Model)
}

func TestChat_RecordTokensTruncatesRecords(t *testing.T) {
	rt := &fakeRuntime{reply: "ok"}
	opt := DefaultOptions()
	opt.RecordTokens = 10
	a := newAnalyst(t, rt, opt)

	_, err := a.Chat(context.Background(), ChatRequest{DatasetID: "cust", Query: "plot plan"})
	require.NoError(t, err)
	p := rt.prompt(t)
	assert.Contains(t, p, `[{"Plan":"basic","Tenure":10,"C`)
	assert.NotContains(t, p, `"Tenure":11`)
}

func TestChat_Errors(t *testing.T) {
	a := newAnalyst(t, nil, DefaultOptions())
	ctx := context.Background()

	_, err := a.Chat(ctx, ChatRequest{DatasetID: "cust", Query: "  "})
	assert.ErrorIs(t, err, ErrEmptyQuery)

	_, err = a.Chat(ctx, ChatRequest{DatasetID: "cust", Query: "plot plan"})
	assert.ErrorIs(t, err, ErrOffline)

	_, err = a.Chat(ctx, ChatRequest{DatasetID: "missing", Query: "predict plan"})
	assert.ErrorIs(t, err, dataset.ErrNotFound)

	rt := &fakeRuntime{err: &ai.ServerError{APIError: &ai.APIError{StatusCode: 502}}}
	a = newAnalyst(t, rt, DefaultOptions())
	_, err = a.Chat(ctx, ChatRequest{DatasetID: "cust", Query: "plot plan"})
	var se *ai.ServerError
	assert.True(t, errors.As(err, &se))
}

func TestAutoscan(t *testing.T) {
	rt := &fakeRuntime{reply: "Healthy data.\n<QUESTIONS>[\"Show a bar chart of Plan\", \" \", \"Pie of Churned\"]</QUESTIONS>"}
	a := newAnalyst(t, rt, DefaultOptions())

	res, err := a.Autoscan(context.Background(), "cust")
	require.NoError(t, err)
	assert.Equal(t, []string{"Show a bar chart of Plan", "Pie of Churned"}, res.Questions)
	assert.True(t, strings.HasPrefix(res.Response, "Healthy data."))

	p := rt.prompt(t)
	assert.Contains(t, p, `"dataset_id": "cust"`)
	assert.Contains(t, p, "<QUESTIONS>")

	_, err = newAnalyst(t, nil, DefaultOptions()).Autoscan(context.Background(), "cust")
	assert.ErrorIs(t, err, ErrOffline)
}

func TestFormatResult(t *testing.T) {
	out := FormatResult(&ml.Result{
		ModelType: "Random Forest Regressor", Target: "Price", Metric: "R2 Score", Score: 87.5,
		TopFeatures: []ml.FeatureWeight{{Feature: "Area", Importance: 0.712}},
	})
	assert.Contains(t, out, "**R2 Score:** 87.5%")
	assert.Contains(t, out, "- Area: 0.712\n")
}
