package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v4/pgxpool"

	"paper2table/internal/domain"
)

// JobsRepo persists extraction jobs. A nil pool degrades every operation to
// a no-op so the pipeline still works without a database.
type JobsRepo struct {
	pool *pgxpool.Pool
}

func NewJobsRepo(pool *pgxpool.Pool) *JobsRepo {
	return &JobsRepo{pool: pool}
}

// Save upserts the job row.
func (r *JobsRepo) Save(ctx context.Context, j *domain.ExtractionJob) error {
	if r.pool == nil {
		return nil
	}

	metaB, _ := json.Marshal(j.Metadata)

	_, err := r.pool.Exec(ctx, `INSERT INTO extraction_jobs (id, paper_path, reader, model, column_schema, status, metadata, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (id) DO UPDATE SET paper_path = EXCLUDED.paper_path, reader = EXCLUDED.reader, model = EXCLUDED.model, column_schema = EXCLUDED.column_schema, status = EXCLUDED.status, metadata = EXCLUDED.metadata, updated_at = EXCLUDED.updated_at`,
		j.ID, j.PaperPath, j.Reader, j.Model, j.ColumnSchema, j.Status, metaB, j.CreatedAt, j.UpdatedAt)
	return err
}

// Get loads one job by id.
func (r *JobsRepo) Get(ctx context.Context, id string) (*domain.ExtractionJob, error) {
	if r.pool == nil {
		return nil, nil
	}

	var j domain.ExtractionJob
	var metaB []byte
	err := r.pool.QueryRow(ctx, `SELECT id, paper_path, reader, COALESCE(model, ''), COALESCE(column_schema, ''), status, metadata, created_at, updated_at
		FROM extraction_jobs WHERE id = $1`, id).
		Scan(&j.ID, &j.PaperPath, &j.Reader, &j.Model, &j.ColumnSchema, &j.Status, &metaB, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(metaB) > 0 {
		if err := json.Unmarshal(metaB, &j.Metadata); err != nil {
			return nil, err
		}
	}
	return &j, nil
}
