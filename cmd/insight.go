package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/autoanalyst-cli/internal/config"
	"github.com/KaramelBytes/autoanalyst-cli/internal/dataset"
	"github.com/KaramelBytes/autoanalyst-cli/internal/engine"
	"github.com/KaramelBytes/autoanalyst-cli/internal/history"
	"github.com/KaramelBytes/autoanalyst-cli/internal/insight"
	"github.com/KaramelBytes/autoanalyst-cli/internal/utils"
)

var (
	aiProvider   string
	aiModel      string
	aiOllamaHost string
	chatNoMemory bool
	chatClear    bool
	chatJSON     bool
)

func newAnalyst(c *cfgpkg.Global, store dataset.Store) (*insight.Analyst, error) {
	rt, provider, err := buildRuntime(c, runtimeOptions{ProviderFlag: aiProvider, OllamaHost: aiOllamaHost})
	if err != nil {
		return nil, err
	}
	opt := insightOptions(c, aiModel)
	logger.WithField("provider", provider).WithField("model", opt.Model).Debug("language model selected")
	return insight.New(engine.New(store, engineOptions(c)), store, rt, opt, logger), nil
}

var autoscanCmd = &cobra.Command{
	Use:   "autoscan <dataset-id|file>",
	Short: "Ask the language model for a data health brief and suggested questions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		store, id, err := resolveDataset(cmd.Context(), c, args[0])
		if err != nil {
			return err
		}
		a, err := newAnalyst(c, store)
		if err != nil {
			return err
		}
		res, err := a.Autoscan(cmd.Context(), id)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, strings.TrimSpace(res.Response))
		if len(res.Questions) > 0 {
			fmt.Fprintln(out, "\nSuggested questions:")
			for _, q := range res.Questions {
				fmt.Fprintf(out, "  - %s\n", q)
			}
		}
		return nil
	},
}

var chatCmd = &cobra.Command{
	Use:   "chat <dataset-id|file> <query...>",
	Short: "Ask a question about a dataset, or say \"predict <column>\" to train a model",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		store, id, err := resolveDataset(cmd.Context(), c, args[0])
		if err != nil {
			return err
		}
		var hist *history.Store
		if !chatNoMemory {
			if hist, err = history.NewStore(utils.ExpandHome(c.HistoryDir)); err != nil {
				return err
			}
		}
		if chatClear {
			if hist == nil {
				return errors.New("--clear needs history enabled")
			}
			if err := hist.Clear(id); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Cleared chat history")
			if len(args) == 1 {
				return nil
			}
		}
		query := strings.Join(args[1:], " ")
		req := insight.ChatRequest{DatasetID: id, Query: query}
		if hist != nil {
			turns, err := hist.Load(id)
			if err != nil {
				// local files are keyed by name and keep no history
				logger.WithError(err).Debug("chat history unavailable")
				hist = nil
			}
			req.History = turns
		}
		a, err := newAnalyst(c, store)
		if err != nil {
			return err
		}
		resp, err := a.Chat(cmd.Context(), req)
		if err != nil {
			return err
		}
		if hist != nil {
			if err := hist.Append(id,
				history.Turn{Role: history.RoleUser, Text: query},
				history.Turn{Role: history.RoleAI, Text: resp.Response},
			); err != nil {
				logger.WithError(err).Warn("chat history not saved")
			}
		}
		if chatJSON {
			return printJSON(cmd.OutOrStdout(), resp)
		}
		out := cmd.OutOrStdout()
		if resp.Reply == nil {
			fmt.Fprint(out, resp.Response)
			return nil
		}
		fmt.Fprintln(out, resp.Reply.Answer)
		if resp.Reply.Code != "" {
			fmt.Fprintf(out, "\n--- code ---\n%s\n", resp.Reply.Code)
		}
		if len(resp.Reply.Chart) > 0 {
			fmt.Fprintf(out, "\n--- chart (Chart.js) ---\n%s\n", resp.Reply.Chart)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(autoscanCmd)
	rootCmd.AddCommand(chatCmd)
	for _, c := range []*cobra.Command{autoscanCmd, chatCmd} {
		c.Flags().StringVar(&aiProvider, "provider", "", "openrouter or ollama (overrides config)")
		c.Flags().StringVar(&aiModel, "model", "", "model name (overrides config)")
		c.Flags().StringVar(&aiOllamaHost, "ollama-host", "", "Ollama base URL (overrides config)")
	}
	chatCmd.Flags().BoolVar(&chatNoMemory, "no-history", false, "do not read or record chat history")
	chatCmd.Flags().BoolVar(&chatClear, "clear", false, "clear the chat history of the dataset first")
	chatCmd.Flags().BoolVar(&chatJSON, "json", false, "print the full response as JSON")
}
