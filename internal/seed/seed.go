// Package seed loads development data when AUTO_SEED_DATA is enabled.
package seed

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/10mm-gms/blueprint/internal/config"
)

// Database is what seeding needs from the database layer.
type Database interface {
	Health(ctx context.Context) error
}

// Step is one named unit of seed data.
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// Run applies steps in order. It does nothing unless cfg.AutoSeedData is set.
// When db is non-nil its connectivity is checked before any step runs.
func Run(ctx context.Context, cfg *config.Config, db Database, logger *zap.Logger, steps ...Step) error {
	if !cfg.AutoSeedData {
		logger.Debug("seeding skipped: AUTO_SEED_DATA not enabled")
		return nil
	}

	logger.Info("seeding database", zap.String("product", cfg.ProductName))

	if db != nil {
		if err := db.Health(ctx); err != nil {
			return fmt.Errorf("seed: database not reachable: %w", err)
		}
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := step.Run(ctx); err != nil {
			return fmt.Errorf("seed step %q: %w", step.Name, err)
		}
		logger.Info("seed step applied", zap.String("step", step.Name))
	}

	logger.Info("seeding complete", zap.String("product", cfg.ProductName), zap.Int("steps", len(steps)))
	return nil
}
