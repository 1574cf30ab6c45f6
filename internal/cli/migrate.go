package cli

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"

	"quiz-player/internal/catalog"
	"quiz-player/internal/config"
	"quiz-player/internal/infra/postgres"
	pgmigrations "quiz-player/internal/infra/postgres/migrations"
)

// NewMigrateCmd applies database migrations and optionally seeds the catalog
// tables from a quiz directory.
func NewMigrateCmd(configPath *string) *cobra.Command {
	var seedDir string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations(cmd.Context(), *configPath, seedDir)
		},
	}
	cmd.Flags().StringVar(&seedDir, "seed", "", "import quiz and trophy files from this directory")
	return cmd
}

func runMigrations(ctx context.Context, configPath, seedDir string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := setupLogger(cfg)
	defer log.Sync() //nolint:errcheck

	if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
		return err
	}
	if seedDir == "" {
		return nil
	}
	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()
	return seedCatalog(ctx, postgres.NewSource(pool), seedDir, log)
}

func runMigrationsWithConfig(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)

	if err := migrator.Init(ctx); err != nil {
		return err
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return err
	}
	if group.IsZero() {
		log.Info("no new migrations")
		return nil
	}
	log.Info("migrations applied", zap.String("group", group.String()))
	return nil
}

// seedCatalog imports every quiz listed by the directory scan, in index order.
func seedCatalog(ctx context.Context, src *postgres.Source, dir string, log *zap.Logger) error {
	index, err := catalog.ScanDir(dir, time.Now(), log)
	if err != nil {
		return err
	}
	for i, id := range index.Quizzes {
		data, err := os.ReadFile(filepath.Join(dir, id+".json"))
		if err != nil {
			return err
		}
		if err := src.SaveQuiz(ctx, id, i, data); err != nil {
			return err
		}
	}
	if data, err := os.ReadFile(filepath.Join(dir, catalog.TrophiesFile)); err == nil {
		if err := src.SaveTrophies(ctx, data); err != nil {
			return err
		}
	}
	log.Info("catalog seeded", zap.Int("quizzes", len(index.Quizzes)), zap.String("dir", dir))
	return nil
}
