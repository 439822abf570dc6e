package main

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/smartbizhq/smartbiz-engine/pkg/config"
	"github.com/smartbizhq/smartbiz-engine/pkg/database"
)

var migrationsPath string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Long: `Applies all pending schema migrations to the configured database.
Safe to run repeatedly: already-applied migrations are skipped.`,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().StringVar(&migrationsPath, "migrations", "migrations", "Path to the migrations directory")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(Version)
	if err != nil {
		return err
	}

	dbCfg := cfg.Database
	dbCfg.Host = config.ResolveHostForDocker(dbCfg.Host)

	db, err := sql.Open("pgx", dbCfg.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(cmd.Context()); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	logger.Info("Running migrations",
		zap.String("path", migrationsPath),
		zap.String("database", dbCfg.Database))

	if err := database.RunMigrations(db, migrationsPath, logger); err != nil {
		return err
	}

	logger.Info("Migrations complete")
	return nil
}
