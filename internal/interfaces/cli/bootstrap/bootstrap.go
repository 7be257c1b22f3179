// Package bootstrap loads configuration, logging and the database for CLI commands.
package bootstrap

import (
	"fmt"
	"os"

	"github.com/hatchery-inc/hatchery/internal/infrastructure/config"
	"github.com/hatchery-inc/hatchery/internal/infrastructure/database"
	"github.com/hatchery-inc/hatchery/internal/infrastructure/migration"
	"github.com/hatchery-inc/hatchery/internal/shared/logger"
)

// Options are the persistent flags shared by every command.
type Options struct {
	Env        string
	ConfigPath string
}

// ResolveEnv lets the ENV variable override the --env flag.
func (o Options) ResolveEnv() string {
	if envVar := os.Getenv("ENV"); envVar != "" {
		return envVar
	}
	return o.Env
}

// Init loads the configuration, initializes the logger and opens the database.
// Callers must defer database.Close.
func Init(opts Options) (*config.Config, logger.Interface, error) {
	env := opts.ResolveEnv()

	cfg, err := config.Load(MapEnvToMode(env), opts.ConfigPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger, cfg.Server.Mode); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger()

	if err := database.Init(&cfg.Database); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return cfg, log, nil
}

// Migrate applies pending migrations with the configured strategy.
func Migrate(cfg *config.Config, log logger.Interface) error {
	strategy, err := migration.NewStrategy(&cfg.Database, log)
	if err != nil {
		return err
	}
	log.Infow("running migrations", "strategy", strategy.GetName())
	return strategy.Migrate(database.Get())
}

// MapEnvToMode maps a deployment environment onto a gin mode.
func MapEnvToMode(environment string) string {
	switch environment {
	case "production", "prod", "release":
		return "release"
	case "test", "testing":
		return "test"
	default:
		return "debug"
	}
}
