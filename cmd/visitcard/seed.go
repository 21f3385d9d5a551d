package main

import (
	"context"
	"fmt"

	"github.com/fallousenghor/visit-backend/internal/seed"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the default accounts and demo merchants",
		Long: `Create the default ADMIN and AGENT accounts and two demo merchants with
opening hours, payment methods, an active subscription and a business card.

Accounts are taken from SEED_ADMIN_EMAIL, SEED_ADMIN_PASSWORD, SEED_AGENT_EMAIL
and SEED_AGENT_PASSWORD. Running the command again resets the account passwords
and skips merchants that already exist.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.close()

			if err := runMigrations(a); err != nil {
				return err
			}
			ctx := context.Background()
			svc, err := a.services(ctx, promclient.NewRegistry())
			if err != nil {
				return err
			}

			report, err := seed.New(svc.auth, svc.merchants, svc.merchRepo, svc.subs, a.log).Run(ctx, a.cfg.Seed)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "admin:     %s (created: %t)\n", a.cfg.Seed.AdminEmail, report.AdminCreated)
			fmt.Fprintf(out, "agent:     %s (created: %t)\n", a.cfg.Seed.AgentEmail, report.AgentCreated)
			fmt.Fprintf(out, "merchants: %d created, %d already present\n", report.MerchantsCreated, report.MerchantsSkipped)
			for _, w := range report.Warnings {
				fmt.Fprintf(out, "warning:   %s\n", w)
			}
			return nil
		},
	}
}
