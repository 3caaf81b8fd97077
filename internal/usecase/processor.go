package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"paper2table/internal/config"
	"paper2table/internal/domain"
	"paper2table/internal/reader"
	"paper2table/internal/schema"
	"paper2table/internal/stats"
	"paper2table/internal/writer"
	ai "paper2table/pkg/ai"
)

// JobsRepo is the persistence the processor needs.
type JobsRepo interface {
	Save(ctx context.Context, j *domain.ExtractionJob) error
}

// Processor drives one extraction job end to end: pick a backend, extract,
// validate, write the artifact, update the job.
type Processor struct {
	repo JobsRepo
	cfg  config.Config
	log  *zap.Logger
}

func NewProcessor(repo JobsRepo, cfg config.Config, log *zap.Logger) *Processor {
	return &Processor{repo: repo, cfg: cfg, log: log}
}

// Process runs the job and persists its outcome. Failures are recorded on
// the job before being returned.
func (p *Processor) Process(ctx context.Context, job *domain.ExtractionJob) error {
	if err := p.process(ctx, job); err != nil {
		job.Status = "failed"
		if job.Metadata == nil {
			job.Metadata = map[string]interface{}{}
		}
		job.Metadata["error"] = err.Error()
		job.UpdatedAt = time.Now()
		if p.repo != nil {
			if saveErr := p.repo.Save(ctx, job); saveErr != nil {
				p.log.Warn("failed to save failed job", zap.Error(saveErr))
			}
		}
		return err
	}
	return nil
}

func (p *Processor) process(ctx context.Context, job *domain.ExtractionJob) error {
	read, err := p.buildReader(job)
	if err != nil {
		return err
	}

	log := p.log.Sugar().Named("processor")
	log.Infow("processing paper", "job", job.ID, "paper", job.PaperPath, "reader", job.Reader)

	result, err := read(ctx, job.PaperPath)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	// readers build schema-shaped output, but the artifact contract is the
	// schema itself, so check before writing
	data, err := result.Encode()
	if err != nil {
		return err
	}
	if err := schema.ValidateBytes(data); err != nil {
		return fmt.Errorf("extraction result validation failed: %w", err)
	}

	outputDir := p.cfg.OutputDirectory
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return err
	}
	if err := writer.WriteFile(result, job.PaperPath, outputDir); err != nil {
		return err
	}
	artifact := filepath.Join(outputDir, writer.TablesBasename(job.PaperPath))

	paperStats := stats.ComputePaperStats(result)
	if job.Metadata == nil {
		job.Metadata = map[string]interface{}{}
	}
	job.Metadata["generated_tables"] = artifact
	job.Metadata["tables"] = paperStats.Tables
	job.Metadata["rows"] = paperStats.Rows

	job.Status = "completed"
	job.UpdatedAt = time.Now()

	log.Infow("paper processed", "job", job.ID, "tables", paperStats.Tables, "rows", paperStats.Rows)

	if p.repo != nil {
		if err := p.repo.Save(ctx, job); err != nil {
			return err
		}
	}
	return nil
}

// buildReader picks the extraction backend for the job, falling back to the
// configured defaults.
func (p *Processor) buildReader(job *domain.ExtractionJob) (reader.ReadFunc, error) {
	backend := job.Reader
	if backend == "" {
		backend = p.cfg.DefaultReader
	}
	switch backend {
	case "agent":
		model := job.Model
		if model == "" {
			model = p.cfg.DefaultModel
		}
		client := ai.NewClient(p.cfg.AIServiceURL, model, p.log)
		agentReader, err := reader.NewAgentReader(client, job.ColumnSchema, 0, p.log)
		if err != nil {
			return nil, err
		}
		return agentReader.ReadTables, nil
	case "layout":
		return reader.NewLayoutReader("", p.log).ReadTables, nil
	default:
		return nil, fmt.Errorf("unknown reader: %s", backend)
	}
}
