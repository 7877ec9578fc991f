package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/ghostbiz/internal/store"
)

var statusCheckpoint string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show verification checkpoint counts by status",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		target := cfg.CheckpointTarget()
		if statusCheckpoint != "" {
			target = statusCheckpoint
		}
		st, err := store.Open(ctx, cfg.Checkpoint.Driver, target)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Load(ctx); err != nil {
			return eris.Wrap(err, "status: load checkpoint")
		}
		if st.Len() == 0 {
			zap.L().Info("checkpoint is empty", zap.String("target", target))
			return nil
		}

		formatStatusCounts(os.Stdout, store.StatusCounts(st.Outcomes()), st.Len())
		return nil
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusCheckpoint, "checkpoint", "", "checkpoint path or database URL (default from checkpoint.*)")
	rootCmd.AddCommand(statusCmd)
}

func formatStatusCounts(out io.Writer, counts map[string]int, total int) {
	statuses := make([]string, 0, len(counts))
	for s := range counts {
		statuses = append(statuses, s)
	}
	sort.Slice(statuses, func(i, j int) bool {
		if counts[statuses[i]] != counts[statuses[j]] {
			return counts[statuses[i]] > counts[statuses[j]]
		}
		return statuses[i] < statuses[j]
	})

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "STATUS\tCOUNT")
	_, _ = fmt.Fprintln(w, "------\t-----")
	for _, s := range statuses {
		label := s
		if label == "" {
			label = "(empty)"
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\n", label, counts[s])
	}
	_, _ = fmt.Fprintf(w, "TOTAL\t%d\n", total)
	_ = w.Flush()
}
