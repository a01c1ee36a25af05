package main

import (
	"github.com/spf13/cobra"

	"github.com/10mm-gms/blueprint/internal/config"
	"github.com/10mm-gms/blueprint/internal/database"
	"github.com/10mm-gms/blueprint/internal/seed"
)

func (c *cli) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load seed data (only when AUTO_SEED_DATA=true)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := c.setup(config.Overrides{})
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx := cmd.Context()

			var db seed.Database
			if cfg.AutoSeedData && cfg.DatabaseURL != "" {
				conn, err := database.New(ctx, cfg.DatabaseURL)
				if err != nil {
					return err
				}
				defer conn.Close()
				db = conn
			}

			return seed.Run(ctx, cfg, db, logger)
		},
	}
}
