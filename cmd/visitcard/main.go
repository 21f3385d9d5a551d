package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const serviceName = "visitcard"

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           serviceName,
		Short:         "Smart business card backend for merchants",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(resetAdminCmd())
	rootCmd.AddCommand(backfillCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
