package cmd

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/autoanalyst-cli/internal/engine"
	"github.com/KaramelBytes/autoanalyst-cli/internal/ml"
	"github.com/KaramelBytes/autoanalyst-cli/internal/report"
)

var (
	repTarget     string
	repFormat     string
	repOutputPath string
)

var reportCmd = &cobra.Command{
	Use:   "report <dataset-id|file>",
	Short: "Export the profile, and optionally a trained model, as Markdown or CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format := strings.ToLower(repFormat)
		if format != "md" && format != "csv" {
			return fmt.Errorf("unsupported --format: %s (use md|csv)", repFormat)
		}
		if format == "csv" && repTarget == "" {
			return fmt.Errorf("--format csv requires --target")
		}
		c, err := requireConfig()
		if err != nil {
			return err
		}
		store, id, err := resolveDataset(cmd.Context(), c, args[0])
		if err != nil {
			return err
		}
		eng := engine.New(store, engineOptions(c))
		var res *ml.Result
		if repTarget != "" {
			if res, err = eng.Train(cmd.Context(), id, repTarget); err != nil {
				return err
			}
		}
		if format == "csv" {
			var buf bytes.Buffer
			if err := report.WriteImportancesCSV(&buf, res); err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), repOutputPath, buf.String())
		}
		sum, err := eng.Profile(cmd.Context(), id)
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), repOutputPath, report.Markdown(sum, res))
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVarP(&repTarget, "target", "t", "", "also train a model on this column")
	reportCmd.Flags().StringVar(&repFormat, "format", "md", "md or csv (csv exports the top feature importances)")
	reportCmd.Flags().StringVarP(&repOutputPath, "output", "o", "", "write the report to a file")
}
