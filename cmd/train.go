package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/autoanalyst-cli/internal/engine"
	"github.com/KaramelBytes/autoanalyst-cli/internal/ml"
	"github.com/KaramelBytes/autoanalyst-cli/internal/report"
)

var (
	trainTarget     string
	trainJSON       bool
	trainTrees      int
	trainSeed       int64
	trainWorkers    int
	trainCSVPath    string
	trainTestSplits float64
)

var trainCmd = &cobra.Command{
	Use:   "train <dataset-id|file>",
	Short: "Clean a dataset and fit a random forest on the target column",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(trainTarget) == "" {
			return errors.New("--target is required")
		}
		c, err := requireConfig()
		if err != nil {
			return err
		}
		store, id, err := resolveDataset(cmd.Context(), c, args[0])
		if err != nil {
			return err
		}
		opt := engineOptions(c)
		f := cmd.Flags()
		if f.Changed("trees") {
			opt.Train.Trees = trainTrees
		}
		if f.Changed("seed") {
			opt.Train.Seed = trainSeed
		}
		if f.Changed("workers") {
			opt.Train.Workers = trainWorkers
		}
		if f.Changed("test-fraction") {
			opt.Train.TestFraction = trainTestSplits
		}
		logger.WithFields(logrus.Fields{"dataset_id": id, "target": trainTarget, "trees": opt.Train.Trees}).Debug("training")
		res, err := engine.New(store, opt).Train(cmd.Context(), id, trainTarget)
		if err != nil {
			return err
		}
		if trainCSVPath != "" {
			if err := writeImportances(trainCSVPath, res); err != nil {
				return err
			}
		}
		if trainJSON {
			return printJSON(cmd.OutOrStdout(), res)
		}
		printResult(cmd, res)
		return nil
	},
}

func printResult(cmd *cobra.Command, res *ml.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ %s on %q (%s)\n", res.ModelType, res.Target, res.Task)
	fmt.Fprintf(out, "%s: %.2f%%  (train %d rows, test %d rows)\n", res.Metric, res.Score, res.TrainRows, res.TestRows)
	if len(res.Pruned) > 0 {
		fmt.Fprintf(out, "Dropped high-cardinality columns: %s\n", strings.Join(res.Pruned, ", "))
	}
	fmt.Fprintln(out, "Top features:")
	for i, f := range res.TopFeatures {
		fmt.Fprintf(out, "  %d. %s  %.3f\n", i+1, f.Feature, f.Importance)
	}
}

func writeImportances(path string, res *ml.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := report.WriteImportancesCSV(f, res); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func init() {
	rootCmd.AddCommand(trainCmd)
	trainCmd.Flags().StringVarP(&trainTarget, "target", "t", "", "column to predict (case-insensitive)")
	trainCmd.Flags().BoolVar(&trainJSON, "json", false, "print the result as JSON")
	trainCmd.Flags().IntVar(&trainTrees, "trees", 0, "number of trees (overrides config)")
	trainCmd.Flags().Int64Var(&trainSeed, "seed", 0, "split and forest seed (overrides config)")
	trainCmd.Flags().IntVar(&trainWorkers, "workers", 0, "trees fitted in parallel (overrides config; 0 = all CPUs)")
	trainCmd.Flags().Float64Var(&trainTestSplits, "test-fraction", 0, "held-out share of rows (overrides config)")
	trainCmd.Flags().StringVar(&trainCSVPath, "importances-csv", "", "also write the top features to this CSV file")
}
