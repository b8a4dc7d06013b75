package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kartoza/plasma-dashboard/internal/models"
	"github.com/kartoza/plasma-dashboard/internal/store"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and manage stored predictions",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored predictions, newest first",
		Args:  cobra.NoArgs,
		RunE:  runHistoryList,
	}
	list.Flags().IntP("limit", "l", 20, "max results (0 = all)")
	list.Flags().String("status", "", "filter by status: safe, warning or danger")
	list.Flags().StringP("format", "f", "text", "output format: text or json")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Print one stored prediction as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryGet,
	}

	rm := &cobra.Command{
		Use:   "rm <id>...",
		Short: "Delete stored predictions",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runHistoryRm,
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every stored prediction",
		Args:  cobra.NoArgs,
		RunE:  runHistoryClear,
	}

	cmd.AddCommand(list, get, rm, clearCmd)
	return cmd
}

// historyRow is the list view of a stored prediction
type historyRow struct {
	ID             string                   `json:"id"`
	CreatedAt      time.Time                `json:"createdAt"`
	Status         models.Status            `json:"status"`
	Parameters     models.ProcessParameters `json:"parameters"`
	QualityMetrics models.QualityMetrics    `json:"qualityMetrics"`
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	statusFlag, _ := cmd.Flags().GetString("status")
	format, _ := cmd.Flags().GetString("format")

	opts := store.ListOptions{Limit: limit}
	if statusFlag != "" {
		status, ok := models.ParseStatus(statusFlag)
		if !ok {
			return fmt.Errorf("unknown status %q (want safe, warning or danger)", statusFlag)
		}
		opts.Status = status
	}

	repo, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer repo.Close()

	results, err := repo.List(cmd.Context(), opts)
	if err != nil {
		return err
	}

	if format == "json" {
		rows := make([]historyRow, 0, len(results))
		for _, r := range results {
			rows = append(rows, historyRow{
				ID:             r.ID,
				CreatedAt:      r.CreatedAt,
				Status:         r.Status,
				Parameters:     r.Parameters,
				QualityMetrics: r.QualityMetrics,
			})
		}
		return writeJSON(cmd.OutOrStdout(), rows)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tSTATUS\tRF (W)\tPRESSURE\tUNIFORMITY\tCD SHIFT")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%g\t%g\t%.2f\t%.2f\n",
			r.ID, r.CreatedAt.Format(time.RFC3339), r.Status,
			r.Parameters.RFPower, r.Parameters.Pressure,
			r.QualityMetrics.EtchUniformity, r.QualityMetrics.CDShift)
	}
	return tw.Flush()
}

func runHistoryGet(cmd *cobra.Command, args []string) error {
	repo, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer repo.Close()

	r, err := repo.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	return writeJSON(cmd.OutOrStdout(), r)
}

func runHistoryRm(cmd *cobra.Command, args []string) error {
	repo, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer repo.Close()

	for _, id := range args {
		if err := repo.Delete(cmd.Context(), id); err != nil {
			return fmt.Errorf("%s: %w", id, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
	}
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	repo, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := repo.Clear(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "history cleared")
	return nil
}
