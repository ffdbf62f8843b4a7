package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/supportdesk/supportdesk/internal/app"
	"github.com/supportdesk/supportdesk/internal/config"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo users, orders, and payments into the database",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err = cfg.Validate(); err != nil {
			return fmt.Errorf("validating config: %w", err)
		}

		logger := newLogger()
		ctx := cmd.Context()

		a, err := app.Setup(ctx, cfg, logger)
		if err != nil {
			return fmt.Errorf("initializing application: %w", err)
		}
		defer func() {
			if closeErr := a.Close(); closeErr != nil {
				logger.Warn("shutdown error", "error", closeErr)
			}
		}()

		if err := a.Store.SeedDemo(ctx); err != nil {
			return fmt.Errorf("seeding demo data: %w", err)
		}
		logger.Info("demo data seeded")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
