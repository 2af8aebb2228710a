package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Store a CSV/TSV/XLSX dataset and print its id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		store, err := openStore(c)
		if err != nil {
			return err
		}
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open %s: %w", args[0], err)
		}
		defer f.Close()
		m, err := store.Save(cmd.Context(), args[0], f)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✓ Stored %s (%d rows, %d columns)\n", m.Name, m.Rows, m.Cols)
		fmt.Fprintf(out, "dataset_id: %s\n", m.ID)
		return nil
	},
}

var datasetsCmd = &cobra.Command{
	Use:     "datasets",
	Aliases: []string{"list", "ls"},
	Short:   "List stored datasets, newest first",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		store, err := openStore(c)
		if err != nil {
			return err
		}
		list, err := store.List()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintln(out, "No datasets stored")
			return nil
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tROWS\tCOLS\tUPLOADED")
		for _, m := range list {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", m.ID, m.Name, m.Rows, m.Cols, m.UploadedAt.Local().Format("2006-01-02 15:04"))
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(datasetsCmd)
}
