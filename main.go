package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"causalsim/adapters/excel"
	"causalsim/adapters/memory"
	"causalsim/adapters/postgres"
	"causalsim/app"
	"causalsim/internal"
	"causalsim/internal/bootstrap"
	"causalsim/internal/config"
	"causalsim/internal/randomize"
	"causalsim/internal/rng"
	"causalsim/ports"
	"causalsim/ui"
)

func main() {
	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	logger := internal.DefaultLogger

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	var repo ports.StudyRepository
	if cfg.Database.URL != "" {
		db, err := postgres.Connect(cfg.Database.URL)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		if err := postgres.Migrate(context.Background(), db); err != nil {
			log.Fatalf("failed to migrate database: %v", err)
		}
		repo = postgres.NewStudyRepository(db)
		logger.Info("using postgres study repository")
	} else {
		repo = memory.NewStudyRepository()
		logger.Warn("DATABASE_URL not set; studies are held in memory only")
	}

	streams := rng.NewSplitStream()
	simulator := randomize.NewSimulator(streams, cfg.Simulation.Workers)
	resampler := bootstrap.NewResampler(streams, cfg.Simulation.Workers)
	service := app.NewStudyService(simulator, resampler, repo, excel.NewStudyWriter(), cfg.Simulation.MaxTrials)

	api := ui.NewApp(service, ui.Defaults{Trials: cfg.Simulation.DefaultTrials})
	logger.Info("listening on :%s", cfg.Server.Port)
	if err := api.ListenAndServe(cfg.Server.Port); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
