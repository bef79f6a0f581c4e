package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

// NewOrphansCmd lists quiz creations whose reward escrow never confirmed.
func NewOrphansCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "orphans",
		Short: "List quizzes created on the backend without a confirmed reward pool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				logger.Warn("postgres not configured; the in-memory ledger only covers the current process")
			}
			ledger, closeLedger, err := openLedger(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeLedger()

			records, err := ledger.Orphans(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No orphaned quizzes")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "QUIZ\tSTATUS\tCREATOR\tCOST (WEI)\tCREATED\tERROR")
			for _, r := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					r.QuizID, r.Status, truncateAddress(r.CreatorWallet), r.TotalCostWei,
					r.CreatedAt.Local().Format(time.DateTime), r.Error)
			}
			return w.Flush()
		},
	}
}
