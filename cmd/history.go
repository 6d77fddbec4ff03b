package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/synapse/internal/config"
	"github.com/papapumpkin/synapse/internal/ledger"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded runs from the ledger",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().String("ledger", "", "ledger database path")
	historyCmd.Flags().Int("last", 20, "show only the most recent runs (0 = all)")
	historyCmd.Flags().Int64("steps", 0, "show the time-steps of one run by ID")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyFlagOverrides(cmd, &cfg)

	store, err := ledger.Open(cmd.Context(), cfg.LedgerPath)
	if err != nil {
		return err
	}
	defer store.Close()

	out := cmd.OutOrStdout()

	if runID, _ := cmd.Flags().GetInt64("steps"); runID > 0 {
		steps, err := store.Steps(cmd.Context(), runID)
		if err != nil {
			return err
		}
		for _, step := range steps {
			if len(step.Fired) == 0 {
				fmt.Fprintf(out, "%4d  —\n", step.Seq)
				continue
			}
			fmt.Fprintf(out, "%4d  %s\n", step.Seq, strings.Join(step.Fired, "  "))
		}
		return nil
	}

	limit, _ := cmd.Flags().GetInt("last")
	runs, err := store.Runs(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "no recorded runs")
		return nil
	}

	w := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNETWORK\tSTATUS\tSTEPS\tSTARTED")
	for _, r := range runs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n",
			r.ID, r.Network, r.Status, r.TimeSteps, r.StartedAt.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}
