package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	repo "paper2table/internal/adapter/repository"
	"paper2table/internal/domain"
	"paper2table/internal/usecase"
)

// JobsRepo is the subset of the repository the handler needs.
type JobsRepo interface {
	Save(ctx context.Context, j *domain.ExtractionJob) error
	Get(ctx context.Context, id string) (*domain.ExtractionJob, error)
}

type Handler struct {
	processor *usecase.Processor
	repo      JobsRepo
	log       *zap.Logger
}

func NewHandler(p *usecase.Processor, r JobsRepo, log *zap.Logger) *Handler {
	return &Handler{processor: p, repo: r, log: log}
}

type startReq struct {
	PaperPath    string `json:"paperPath"`
	Reader       string `json:"reader,omitempty"`
	Model        string `json:"model,omitempty"`
	ColumnSchema string `json:"columnSchema,omitempty"`
}

// StartJob accepts an extraction request, persists the pending job and
// processes it in the background.
func (h *Handler) StartJob(c *fiber.Ctx) error {
	var req startReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}
	if req.PaperPath == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "paperPath is required"})
	}

	job := &domain.ExtractionJob{
		ID:           uuid.New(),
		PaperPath:    req.PaperPath,
		Reader:       req.Reader,
		Model:        req.Model,
		ColumnSchema: req.ColumnSchema,
		Status:       "pending",
		Metadata:     map[string]interface{}{},
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	// persist initial job (best-effort)
	if h.repo != nil {
		if err := h.repo.Save(context.Background(), job); err != nil {
			h.log.Warn("failed to save job", zap.Error(err))
		}
	}

	go func(j *domain.ExtractionJob) {
		ctx := context.Background()
		if err := h.processor.Process(ctx, j); err != nil {
			h.log.Error("job failed", zap.String("job", j.ID.String()), zap.Error(err))
		}
	}(job)

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"jobId": job.ID.String(), "status": "started"})
}

// GetJob reports one job's current state.
func (h *Handler) GetJob(c *fiber.Ctx) error {
	job, err := h.repo.Get(c.Context(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "job not found"})
	}
	if job == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "job store not available"})
	}
	return c.JSON(job)
}

type mergeReq struct {
	ResultsetsDir string `json:"resultsetsDir"`
	OutputDir     string `json:"outputDir"`
}

// MergeResultsets merges every resultset under resultsetsDir into
// outputDir and reports per-basename outcomes.
func (h *Handler) MergeResultsets(c *fiber.Ctx) error {
	var req mergeReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}
	if req.ResultsetsDir == "" || req.OutputDir == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "resultsetsDir and outputDir are required"})
	}

	dirs, err := repo.ListResultsetDirs(req.ResultsetsDir)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	outcomes, err := usecase.MergeResultsets(dirs, req.OutputDir)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	report := make([]fiber.Map, 0, len(outcomes))
	for _, outcome := range outcomes {
		report = append(report, fiber.Map{
			"basename": outcome.Basename,
			"status":   outcome.Status,
			"detail":   outcome.Detail,
		})
	}
	return c.JSON(fiber.Map{"outcomes": report})
}
