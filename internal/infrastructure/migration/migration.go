package migration

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"
	"go.uber.org/zap"
)

// Migration represents a database migration
type Migration struct {
	Name string
	Up   func(ctx context.Context, pool *pgxpool.Pool) error
}

// RunMigrations executes all necessary database migrations on startup
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, log *zap.Logger) error {
	log.Info("starting database migrations")

	migrations := []Migration{
		{
			Name: "create_extraction_jobs",
			Up:   createExtractionJobs,
		},
		{
			Name: "add_column_schema_to_extraction_jobs",
			Up:   addColumnSchemaToExtractionJobs,
		},
	}

	for _, m := range migrations {
		if err := m.Up(ctx, pool); err != nil {
			log.Error("migration failed", zap.String("name", m.Name), zap.Error(err))
			return err
		}
		log.Info("migration completed", zap.String("name", m.Name))
	}

	log.Info("all migrations completed successfully")
	return nil
}

func createExtractionJobs(ctx context.Context, pool *pgxpool.Pool) error {
	query := `
		CREATE TABLE IF NOT EXISTS extraction_jobs (
			id UUID PRIMARY KEY,
			paper_path TEXT NOT NULL,
			reader TEXT NOT NULL,
			model TEXT,
			status TEXT NOT NULL,
			metadata JSONB DEFAULT '{}'::jsonb,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
	`
	_, err := pool.Exec(ctx, query)
	return err
}

// addColumnSchemaToExtractionJobs adds the column_schema column if it
// doesn't exist.
func addColumnSchemaToExtractionJobs(ctx context.Context, pool *pgxpool.Pool) error {
	query := `
		ALTER TABLE extraction_jobs
		ADD COLUMN IF NOT EXISTS column_schema TEXT;
	`
	_, err := pool.Exec(ctx, query)
	return err
}
