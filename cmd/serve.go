package cmd

import (
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/autoanalyst-cli/internal/engine"
	"github.com/KaramelBytes/autoanalyst-cli/internal/history"
	"github.com/KaramelBytes/autoanalyst-cli/internal/insight"
	"github.com/KaramelBytes/autoanalyst-cli/internal/metrics"
	"github.com/KaramelBytes/autoanalyst-cli/internal/server"
	"github.com/KaramelBytes/autoanalyst-cli/internal/utils"
)

var (
	serveAddr      string
	serveMaxUpload int64
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (upload, analyze, train, chat, report, metrics)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		if serveAddr != "" {
			c.ListenAddr = serveAddr
		}
		store, err := openStore(c)
		if err != nil {
			return err
		}
		hist, err := history.NewStore(utils.ExpandHome(c.HistoryDir))
		if err != nil {
			return err
		}
		rt, provider, err := buildRuntime(c, runtimeOptions{ProviderFlag: aiProvider, OllamaHost: aiOllamaHost})
		if err != nil {
			return err
		}
		opt := insightOptions(c, aiModel)
		eng := engine.New(store, engineOptions(c))
		logger.WithField("provider", provider).WithField("model", opt.Model).WithField("data_dir", store.Dir()).Info("starting server")
		srv := server.New(server.Config{
			Datasets:       store,
			Engine:         eng,
			Analyst:        insight.New(eng, store, rt, opt, logger),
			History:        hist,
			Metrics:        metrics.New(),
			Log:            logger,
			MaxUploadBytes: serveMaxUpload,
			HistoryTurns:   c.HistoryTurns,
		})
		return srv.ListenAndServe(cmd.Context(), c.ListenAddr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides listen_addr)")
	serveCmd.Flags().Int64Var(&serveMaxUpload, "max-upload-bytes", server.DefaultMaxUploadBytes, "largest accepted upload")
	serveCmd.Flags().StringVar(&aiProvider, "provider", "", "openrouter or ollama (overrides config)")
	serveCmd.Flags().StringVar(&aiModel, "model", "", "model name (overrides config)")
	serveCmd.Flags().StringVar(&aiOllamaHost, "ollama-host", "", "Ollama base URL (overrides config)")
}
