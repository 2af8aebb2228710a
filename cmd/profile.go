package cmd

import (
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/autoanalyst-cli/internal/engine"
)

var (
	profJSON       bool
	profOutputPath string
	profSampleRows int
	profSeed       int64
)

var profileCmd = &cobra.Command{
	Use:     "profile <dataset-id|file>",
	Aliases: []string{"analyze"},
	Short:   "Summarise a dataset: types, missing values, statistics and samples",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		store, id, err := resolveDataset(cmd.Context(), c, args[0])
		if err != nil {
			return err
		}
		opt := engineOptions(c)
		if cmd.Flags().Changed("sample-rows") {
			opt.Profile.SampleRows = profSampleRows
		}
		if cmd.Flags().Changed("seed") {
			opt.Profile.Seed = profSeed
		}
		sum, err := engine.New(store, opt).Profile(cmd.Context(), id)
		if err != nil {
			return err
		}
		if sum.StatsError != "" {
			logger.WithField("dataset_id", id).WithField("reason", sum.StatsError).Warn("numeric statistics unavailable")
		}
		if profJSON {
			if profOutputPath == "" {
				return printJSON(cmd.OutOrStdout(), sum)
			}
			b, err := sum.MarshalJSON()
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), profOutputPath, string(b))
		}
		return writeOutput(cmd.OutOrStdout(), profOutputPath, sum.Markdown())
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.Flags().BoolVar(&profJSON, "json", false, "print the summary as JSON")
	profileCmd.Flags().StringVarP(&profOutputPath, "output", "o", "", "write the summary to a file")
	profileCmd.Flags().IntVar(&profSampleRows, "sample-rows", 0, "rows drawn for chart data (overrides config)")
	profileCmd.Flags().Int64Var(&profSeed, "seed", 0, "sampling seed (overrides config; 0 = random)")
}
