package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/ghostbiz/internal/store"
	"github.com/sells-group/ghostbiz/internal/verify"
	"github.com/sells-group/ghostbiz/pkg/google"
)

var (
	verifyQuery      queryFlags
	verifyCheckpoint string
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check each OSM business against Google Places, resuming from the checkpoint",
	Long: "Builds the business table, then looks up every business without a checkpoint entry in Google Places. " +
		"Businesses that already have a website in OSM are recorded without a lookup. " +
		"Each outcome is written to the checkpoint immediately, so an interrupted run can simply be restarted.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		// Refuse before fetching anything.
		if verify.IsPlaceholderKey(cfg.Google.Key) {
			return eris.Wrap(verify.ErrMissingCredential, "set GOOGLE_API_KEY or google.key")
		}

		target := cfg.CheckpointTarget()
		if verifyCheckpoint != "" {
			target = verifyCheckpoint
		}
		runID := uuid.NewString()
		st, err := store.Open(ctx, cfg.Checkpoint.Driver, target, store.WithRunID(runID))
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		zap.L().Info("verify: checkpoint opened",
			zap.String("driver", cfg.Checkpoint.Driver),
			zap.String("target", target),
			zap.String("run_id", runID),
		)

		res, err := buildTable(ctx, cfg, &verifyQuery)
		if err != nil {
			return err
		}

		client := google.NewClient(cfg.Google.Key,
			google.WithBaseURL(cfg.Google.BaseURL),
			google.WithTimeout(time.Duration(cfg.Google.TimeoutSecs)*time.Second),
		)
		sum, err := verify.New(client, st, cfg.Verify()).Run(ctx, res.Records)
		printSummary(os.Stdout, sum)
		if err != nil {
			return eris.Wrap(err, "verify")
		}
		return nil
	},
}

func init() {
	verifyQuery.register(verifyCmd)
	verifyCmd.Flags().StringVar(&verifyCheckpoint, "checkpoint", "", "checkpoint path or database URL (default from checkpoint.*)")
	rootCmd.AddCommand(verifyCmd)
}

func printSummary(out io.Writer, s verify.Summary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "records\t%d\n", s.Total)
	_, _ = fmt.Fprintf(w, "already checkpointed\t%d\n", s.Checkpointed)
	_, _ = fmt.Fprintf(w, "processed\t%d\n", s.Processed())
	_, _ = fmt.Fprintf(w, "  has osm website\t%d\n", s.HasWebsite)
	_, _ = fmt.Fprintf(w, "  found\t%d\n", s.Found)
	_, _ = fmt.Fprintf(w, "  not found\t%d\n", s.NotFound)
	_, _ = fmt.Fprintf(w, "  api errors\t%d\n", s.Errors)
	_ = w.Flush()
}
