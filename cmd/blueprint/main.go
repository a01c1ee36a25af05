package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/10mm-gms/blueprint/internal/config"
	"github.com/10mm-gms/blueprint/internal/logging"
	"github.com/10mm-gms/blueprint/internal/mobileconfig"
)

func main() {
	// Load .env before the mobile runtime is resolved (ignore errors if file doesn't exist)
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(mobileconfig.FromEnv(), os.Stdout, logging.New)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loggerFactory builds the process logger from the configured level and environment.
type loggerFactory func(level, environment string) (*zap.Logger, error)

// cli carries state shared by every subcommand.
type cli struct {
	mobile    mobileconfig.Runtime
	out       io.Writer
	newLogger loggerFactory

	siteFile string
}

func newRootCmd(mobile mobileconfig.Runtime, out io.Writer, newLogger loggerFactory) *cobra.Command {
	c := &cli{mobile: mobile, out: out, newLogger: newLogger}

	root := &cobra.Command{
		Use:   "blueprint",
		Short: "Application blueprint: API and web servers with staff sign in",
		Long: `blueprint runs the API server (PORT, default 8000) and the server-rendered
web site (WEB_PORT, default 5173) from one process.

Configuration comes from the environment (and a .env file when present),
optionally layered over a YAML site file given with --config or SITE_CONFIG.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&c.siteFile, "config", "", "path to YAML site configuration file")

	root.AddCommand(
		c.serveCmd(),
		c.mobileConfigCmd(),
		c.seedCmd(),
		c.notifyCmd(),
	)
	return root
}

// setup loads configuration and builds the logger. Callers must Sync the logger.
func (c *cli) setup(overrides config.Overrides) (*config.Config, *zap.Logger, error) {
	overrides.SiteFile = c.siteFile

	cfg, err := config.Load(&overrides)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := c.newLogger(cfg.LogLevel, cfg.Environment)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, logger, nil
}
