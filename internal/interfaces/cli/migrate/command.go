package migrate

import (
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/retailhub/retailhub/internal/infrastructure/config"
	"github.com/retailhub/retailhub/internal/infrastructure/database"
	"github.com/retailhub/retailhub/internal/infrastructure/migration"
	"github.com/retailhub/retailhub/internal/shared/constants"
	"github.com/retailhub/retailhub/internal/shared/logger"
)

var (
	env   string
	steps int
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
		Long:  `Apply, roll back and inspect the versioned SQL migrations embedded in the binary.`,
	}

	cmd.PersistentFlags().StringVarP(&env, "env", "e", constants.EnvDevelopment, "Environment (development, test, production)")

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

// withDatabase loads config, opens the database and hands both to fn.
func withDatabase(fn func(db *gorm.DB, strategy *migration.GooseStrategy, log logger.Interface) error) error {
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(&cfg.Logger, cfg.Server.Mode); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger().Named("migrate")

	db, err := database.Open(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Warnw("failed to close database", "error", err)
		}
	}()

	return fn(db, migration.NewGooseStrategy(log), log)
}

func runUp(cmd *cobra.Command, args []string) error {
	return withDatabase(func(db *gorm.DB, strategy *migration.GooseStrategy, log logger.Interface) error {
		log.Infow("running up migrations", "environment", env)
		if err := strategy.Migrate(db); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		return nil
	})
}

func runDown(cmd *cobra.Command, args []string) error {
	if steps < 1 {
		return fmt.Errorf("steps must be at least 1")
	}
	return withDatabase(func(db *gorm.DB, strategy *migration.GooseStrategy, log logger.Interface) error {
		log.Infow("running down migrations", "environment", env, "steps", steps)
		if err := strategy.Down(db, steps); err != nil {
			return fmt.Errorf("down migration failed: %w", err)
		}
		return nil
	})
}

func runStatus(cmd *cobra.Command, args []string) error {
	return withDatabase(func(db *gorm.DB, strategy *migration.GooseStrategy, log logger.Interface) error {
		version, err := strategy.Version(db)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "\nMigration Status:\n")
		fmt.Fprintf(out, "  Environment:     %s\n", env)
		fmt.Fprintf(out, "  Current Version: %d\n", version)
		return strategy.Status(db)
	})
}
