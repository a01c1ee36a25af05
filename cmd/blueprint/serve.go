package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/10mm-gms/blueprint/internal/config"
	"github.com/10mm-gms/blueprint/internal/seed"
	"github.com/10mm-gms/blueprint/internal/server"
)

func (c *cli) serveCmd() *cobra.Command {
	var overrides config.Overrides

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the API and web servers",
		Long: `Starts both HTTP servers and blocks until SIGINT or SIGTERM.

When AUTO_SEED_DATA=true the seed steps run before the servers accept traffic.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := c.setup(overrides)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx := cmd.Context()

			app, err := server.NewApp(ctx, cfg, c.mobile, logger)
			if err != nil {
				logger.Error("failed to initialize application", zap.Error(err))
				return err
			}

			var db seed.Database
			if app.DB != nil {
				db = app.DB
			}
			if err := seed.Run(ctx, cfg, db, logger); err != nil {
				app.DB.Close()
				return err
			}

			return app.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&overrides.Port, "port", "", "API server port (overrides PORT)")
	cmd.Flags().StringVar(&overrides.WebPort, "web-port", "", "web server port (overrides WEB_PORT)")
	return cmd
}
