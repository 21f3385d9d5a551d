package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/fallousenghor/visit-backend/internal/model"
	"github.com/fallousenghor/visit-backend/internal/service"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func resetAdminCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "reset-admin",
		Short: "Reset the admin password and reactivate the account",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.close()

			if email == "" {
				email = a.cfg.Seed.AdminEmail
			}
			if password == "" {
				password = a.cfg.Seed.AdminPassword
			}
			if len(password) < 6 {
				return errors.New("password must be at least 6 characters")
			}

			ctx := context.Background()
			svc, err := a.services(ctx, promclient.NewRegistry())
			if err != nil {
				return err
			}
			user, created, err := svc.auth.EnsureAccount(ctx, service.RegisterInput{
				Email: email, Password: password, FirstName: "Admin", LastName: "SmartCard",
			}, model.RoleAdmin)
			if err != nil {
				return err
			}

			action := "reset"
			if created {
				action = "created"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %s %s\n", user.Email, action)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "admin email (default SEED_ADMIN_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "new password (default SEED_ADMIN_PASSWORD)")
	return cmd
}
