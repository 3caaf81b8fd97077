package main

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httpadapter "paper2table/internal/adapter/http"
	repo "paper2table/internal/adapter/repository"
	"paper2table/internal/config"
	"paper2table/internal/infrastructure/migration"
	"paper2table/internal/usecase"
	infra "paper2table/pkg/infrastructure"
	"paper2table/pkg/logging"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logging.Must(cfg.LogLevel, cfg.LogFormat)
	defer log.Sync()

	jobsPool, err := infra.NewJobsPool(ctx, cfg.JobsDatabaseURL)
	if err != nil {
		log.Warn("jobs DB not available, continuing without persistence", zap.Error(err))
	} else {
		if err := migration.RunMigrations(ctx, jobsPool, log); err != nil {
			log.Fatal("migrations failed", zap.Error(err))
		}
	}

	jobsRepo := repo.NewJobsRepo(jobsPool)
	processor := usecase.NewProcessor(jobsRepo, cfg, log)

	app := fiber.New()

	h := httpadapter.NewHandler(processor, jobsRepo, log)
	app.Post("/jobs/extract", h.StartJob)
	app.Get("/jobs/:id", h.GetJob)
	app.Post("/jobs/merge", h.MergeResultsets)

	log.Info("listening", zap.String("port", cfg.Port))
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}
