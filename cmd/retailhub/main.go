package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/retailhub/retailhub/internal/interfaces/cli/migrate"
	"github.com/retailhub/retailhub/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "retailhub",
		Short: "RetailHub multi-tenant retail API",
		Long:  `RetailHub serves the tenant-scoped retail API and manages its database schema.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
