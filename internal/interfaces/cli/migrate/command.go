package migrate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hatchery-inc/hatchery/internal/infrastructure/database"
	"github.com/hatchery-inc/hatchery/internal/infrastructure/migration"
	"github.com/hatchery-inc/hatchery/internal/interfaces/cli/bootstrap"
)

var (
	opts  bootstrap.Options
	steps int
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
		Long:  `Manage database migrations with the strategy configured in database.migration_strategy.`,
	}

	cmd.PersistentFlags().StringVarP(&opts.Env, "env", "e", "development", "Environment (development, test, production)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")

	cmd.AddCommand(
		newUpCommand(),
		newDownCommand(),
		newStatusCommand(),
	)

	return cmd
}

func newUpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Run all pending migrations",
		RunE:  runUp,
	}
}

func newDownCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Rollback migrations",
		RunE:  runDown,
	}

	cmd.Flags().IntVarP(&steps, "steps", "n", 1, "Number of migrations to rollback")

	return cmd
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE:  runStatus,
	}
}

func runUp(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap.Init(opts)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := bootstrap.Migrate(cfg, log); err != nil {
		log.Errorw("migration failed", "error", err)
		return fmt.Errorf("migration failed: %w", err)
	}

	log.Infow("migrations completed successfully")
	return nil
}

func runDown(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap.Init(opts)
	if err != nil {
		return err
	}
	defer database.Close()

	strategy, err := migration.NewStrategy(&cfg.Database, log)
	if err != nil {
		return err
	}

	log.Infow("running down migrations", "strategy", strategy.GetName(), "steps", steps)
	if err := strategy.MigrateDown(database.Get(), steps); err != nil {
		log.Errorw("down migration failed", "error", err)
		return fmt.Errorf("down migration failed: %w", err)
	}

	log.Infow("down migration completed successfully")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap.Init(opts)
	if err != nil {
		return err
	}
	defer database.Close()

	strategy, err := migration.NewStrategy(&cfg.Database, log)
	if err != nil {
		return err
	}

	version, err := strategy.Version(database.Get())
	if err != nil {
		log.Errorw("failed to get migration version", "error", err)
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nMigration Status:\n")
	fmt.Fprintf(out, "  Environment:     %s\n", opts.ResolveEnv())
	fmt.Fprintf(out, "  Strategy:        %s\n", strategy.GetName())
	fmt.Fprintf(out, "  Current Version: %d\n", version)

	if goose, ok := strategy.(*migration.GooseStrategy); ok {
		if err := goose.Status(database.Get()); err != nil {
			return fmt.Errorf("failed to get detailed status: %w", err)
		}
	}
	return nil
}
