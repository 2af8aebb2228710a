// Package engine exposes profiling and training of stored datasets. Every
// call reloads the raw dataset, so calls never share mutable state.
package engine

import (
	"context"

	"github.com/KaramelBytes/autoanalyst-cli/internal/analysis"
	"github.com/KaramelBytes/autoanalyst-cli/internal/dataset"
	"github.com/KaramelBytes/autoanalyst-cli/internal/ml"
	"github.com/KaramelBytes/autoanalyst-cli/internal/prep"
)

// Options bundles the settings of every stage.
type Options struct {
	Profile analysis.Options
	Prep    prep.Options
	Encode  ml.PrepareOptions
	Train   ml.Config
}

// DefaultOptions returns the default settings of every stage.
func DefaultOptions() Options {
	return Options{
		Profile: analysis.DefaultOptions(),
		Prep:    prep.DefaultOptions(),
		Encode:  ml.DefaultPrepareOptions(),
		Train:   ml.DefaultConfig(),
	}
}

// Engine runs profiling and training against a dataset store.
type Engine struct {
	store dataset.Store
	opt   Options
}

// New returns an engine reading from store.
func New(store dataset.Store, opt Options) *Engine {
	return &Engine{store: store, opt: opt}
}

// Profile summarises the dataset. Statistics failures are reported inside
// the summary; only load failures return an error.
func (e *Engine) Profile(ctx context.Context, id string) (*analysis.Summary, error) {
	raw, err := e.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return analysis.NewProfiler(e.opt.Profile).Summarize(id, raw), nil
}

// Train preprocesses the dataset, resolves target and fits a model.
func (e *Engine) Train(ctx context.Context, id, target string) (*ml.Result, error) {
	raw, err := e.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := ml.Prepare(prep.Preprocess(raw, e.opt.Prep), target, e.opt.Encode)
	if err != nil {
		return nil, err
	}
	return ml.Train(p, e.opt.Train)
}
