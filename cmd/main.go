package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/corray333/backend-labs/reservation/internal/app"
	"github.com/corray333/backend-labs/reservation/internal/config"
	"github.com/corray333/backend-labs/reservation/internal/dal/postgres"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "reservation-svc",
		Short: "order stock reservation service",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.MustInit()
		},
		Run: func(cmd *cobra.Command, args []string) {
			app.MustNewApp().Run()
		},
	}
	rootCmd.AddCommand(
		serveCommand(),
		sweepCommand(),
		migrateCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "run the HTTP and gRPC servers with background workers",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			app.MustNewApp().Run()
		},
	}
}

func sweepCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "run one reconciliation sweep over pending orders and exit",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			report := app.MustNewSweeper().Run(cmd.Context())
			fmt.Printf(
				"scanned=%d processed=%d expired=%d exhausted=%d skipped=%d failed=%d\n",
				report.Scanned, report.Processed, report.Expired, report.Exhausted, report.Skipped, report.Failed,
			)
		},
	}
}

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "apply database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			client, err := postgres.NewClient(ctx, postgres.DSN())
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.Migrate(ctx); err != nil {
				return err
			}
			fmt.Println("Migrated up")

			return nil
		},
	}
}
