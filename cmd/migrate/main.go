// Command migrate manages the MES database schema: GORM auto-migration of the
// tables, the golang-migrate SQL migrations and per-plant numbering rule seeds.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"

	_ "github.com/lib/pq"
	"github.com/mes/backend/internal/infrastructure/config"
	"github.com/mes/backend/internal/infrastructure/logger"
	"github.com/mes/backend/internal/infrastructure/migration"
	"github.com/mes/backend/internal/infrastructure/persistence"
	"github.com/mes/backend/migrations"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	migrationsPath string
	logLevel       string
	log            *zap.Logger
	cfg            *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "migrate",
	Short:         "Manage the MES database schema",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if log, err = logger.New(&logger.Config{Level: logLevel, Format: "console", Output: "stdout"}); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		if cfg, err = config.Load(); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if migrationsPath == "" {
			migrationsPath = cfg.Database.MigrationsPath
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&migrationsPath, "path", "", "migrations directory (default: embedded migrations)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	seedCmd.Flags().String("company", "", "company code")
	seedCmd.Flags().String("plant", "", "plant code")
	_ = seedCmd.MarkFlagRequired("company")
	_ = seedCmd.MarkFlagRequired("plant")

	rootCmd.AddCommand(upCmd, downCmd, stepsCmd, versionCmd, forceCmd, createCmd, autoMigrateCmd, seedCmd)
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending SQL migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(func(m *migration.Migrator) error { return m.Up() })
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back all SQL migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(func(m *migration.Migrator) error { return m.Down() })
	},
}

var stepsCmd = &cobra.Command{
	Use:   "steps N",
	Short: "Apply N migrations (negative rolls back)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid step count %q", args[0])
		}
		return withMigrator(func(m *migration.Migrator) error { return m.Steps(n) })
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the applied migration version",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(func(m *migration.Migrator) error {
			v, dirty, err := m.Version()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %v)\n", v, dirty)
			return nil
		})
	},
}

var forceCmd = &cobra.Command{
	Use:   "force VERSION",
	Short: "Set the migration version without running migrations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q", args[0])
		}
		return withMigrator(func(m *migration.Migrator) error { return m.Force(v) })
	},
}

var createCmd = &cobra.Command{
	Use:   "create NAME [DESCRIPTION]",
	Short: "Scaffold the next up/down migration pair",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := migrationsPath
		if dir == "" {
			dir = "migrations"
		}
		desc := ""
		if len(args) > 1 {
			desc = args[1]
		}
		mf, err := migration.CreateMigration(dir, args[0], desc)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), mf.UpPath)
		fmt.Fprintln(cmd.OutOrStdout(), mf.DownPath)
		return nil
	},
}

var autoMigrateCmd = &cobra.Command{
	Use:   "automigrate",
	Short: "Create or alter every MES table with GORM",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := persistence.NewDatabase(cmd.Context(), &cfg.Database, persistence.WithLogger(log))
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.AutoMigrate(); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		log.Info("Schema auto-migrated", zap.Int("models", len(persistence.Models())))
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the default numbering rules of a plant",
	RunE: func(cmd *cobra.Command, args []string) error {
		company, _ := cmd.Flags().GetString("company")
		plant, _ := cmd.Flags().GetString("plant")
		db, err := persistence.NewDatabase(cmd.Context(), &cfg.Database, persistence.WithLogger(log))
		if err != nil {
			return err
		}
		defer db.Close()
		n, err := migration.SeedRules(context.Background(), db.DB, company, plant)
		if err != nil {
			return err
		}
		log.Info("Numbering rules seeded",
			zap.String("company", company),
			zap.String("plant", plant),
			zap.Int("inserted", n))
		return nil
	},
}

func withMigrator(fn func(m *migration.Migrator) error) error {
	sqlDB, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer sqlDB.Close()

	var m *migration.Migrator
	if migrationsPath != "" {
		m, err = migration.NewFromPath(sqlDB, migrationsPath, log)
	} else {
		m, err = migration.New(sqlDB, migrations.FS, log)
	}
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("close migrator", zap.Error(err))
		}
	}()
	return fn(m)
}

func main() {
	err := rootCmd.Execute()
	if log != nil {
		_ = logger.Sync(log)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
