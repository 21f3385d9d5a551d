package main

import (
	"context"
	"fmt"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

const backfillBatch = 100

func backfillCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "backfill-cards",
		Short: "Issue business cards for merchants that have none",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.close()

			ctx := context.Background()
			svc, err := a.services(ctx, promclient.NewRegistry())
			if err != nil {
				return err
			}
			report, err := svc.cards.Backfill(ctx, limit)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "scanned %d merchants: %d cards issued, %d failed\n",
				report.Scanned, report.Issued, report.Failed)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", backfillBatch, "maximum merchants to process")
	return cmd
}
