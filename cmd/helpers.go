package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/KaramelBytes/autoanalyst-cli/internal/ai"
	"github.com/KaramelBytes/autoanalyst-cli/internal/analysis"
	cfgpkg "github.com/KaramelBytes/autoanalyst-cli/internal/config"
	"github.com/KaramelBytes/autoanalyst-cli/internal/dataset"
	"github.com/KaramelBytes/autoanalyst-cli/internal/engine"
	"github.com/KaramelBytes/autoanalyst-cli/internal/insight"
	"github.com/KaramelBytes/autoanalyst-cli/internal/ml"
	"github.com/KaramelBytes/autoanalyst-cli/internal/prep"
	"github.com/KaramelBytes/autoanalyst-cli/internal/utils"
)

// engineOptions maps configuration keys onto every engine stage.
func engineOptions(c *cfgpkg.Global) engine.Options {
	return engine.Options{
		Profile: analysis.Options{
			PreviewRows: c.PreviewRows,
			SampleRows:  c.SampleRows,
			Seed:        c.SampleSeed,
			TopValues:   analysis.DefaultOptions().TopValues,
		},
		Prep: prep.Options{NumericThreshold: c.NumericThreshold, Unknown: c.UnknownToken},
		Encode: ml.PrepareOptions{
			MaxCategories: c.MaxCategories,
			MaxClasses:    c.MaxClasses,
		},
		Train: ml.Config{
			Trees:        c.NTrees,
			TestFraction: c.TestFraction,
			Seed:         c.Seed,
			Workers:      c.Workers,
			TopFeatures:  c.TopFeatures,
		},
	}
}

func openStore(c *cfgpkg.Global) (*dataset.FileStore, error) {
	return dataset.NewFileStore(utils.ExpandHome(c.DataDir), logger)
}

// resolveDataset lets commands take either a stored dataset id or a path to
// a local file. A local file is decoded into a throwaway in-memory store
// keyed by its base name.
func resolveDataset(ctx context.Context, c *cfgpkg.Global, arg string) (dataset.Store, string, error) {
	if fi, err := os.Stat(arg); err == nil && !fi.IsDir() {
		f, err := os.Open(arg)
		if err != nil {
			return nil, "", fmt.Errorf("open %s: %w", arg, err)
		}
		defer f.Close()
		ds, err := dataset.Decode(arg, f)
		if err != nil {
			return nil, "", err
		}
		id := filepath.Base(arg)
		mem := dataset.NewMemoryStore()
		mem.Put(id, ds)
		logger.WithField("file", arg).Debug("using local file")
		return mem, id, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	store, err := openStore(c)
	if err != nil {
		return nil, "", err
	}
	return store, arg, nil
}

type runtimeOptions struct {
	ProviderFlag string
	OllamaHost   string
}

func buildRuntime(c *cfgpkg.Global, opts runtimeOptions) (ai.Runtime, string, error) {
	rc := ai.RuntimeConfig{
		HTTPTimeout: time.Duration(c.HTTPTimeoutSec) * time.Second,
		RetryMax:    c.RetryMaxAttempts,
		BaseDelay:   time.Duration(c.RetryBaseDelayMs) * time.Millisecond,
		MaxDelay:    time.Duration(c.RetryMaxDelayMs) * time.Millisecond,
		APIKey:      os.Getenv("OPENROUTER_API_KEY"),
		Host:        c.OllamaHost,
	}
	if rc.APIKey == "" {
		rc.APIKey = c.APIKey
	}
	if h := strings.TrimSpace(opts.OllamaHost); h != "" {
		rc.Host = h
	}
	provider := strings.ToLower(strings.TrimSpace(opts.ProviderFlag))
	if provider == "" {
		provider = strings.ToLower(c.Provider)
	}
	if provider == "local" {
		provider = ai.ProviderOllama
	}
	rt, err := ai.NewRuntime(provider, rc)
	return rt, provider, err
}

func insightOptions(c *cfgpkg.Global, model string) insight.Options {
	opt := insight.Options{
		Model:        c.Model,
		MaxTokens:    c.MaxTokens,
		Temperature:  c.Temperature,
		ChatRows:     c.ChatRows,
		HistoryTurns: c.HistoryTurns,
		RecordTokens: c.RecordTokens,
	}
	if model != "" {
		opt.Model = model
	}
	return opt
}

// writeOutput prints content or writes it to path when one is given.
func writeOutput(w io.Writer, path, content string) error {
	if path == "" {
		_, err := io.WriteString(w, content)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := utils.EnsureDir(dir); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := utils.SafeWriteFile(path, []byte(content)); err != nil {
		return err
	}
	fmt.Fprintf(w, "✓ Wrote %s\n", path)
	return nil
}

func printJSON(w io.Writer, v any) error {
	b, err := utils.PrettyJSON(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
