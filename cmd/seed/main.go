package main

// Seed pipeline step configuration and prompt templates from a YAML file:
//   go run ./cmd/seed

import (
	"context"
	"log"
	"os"

	"review-backend/internal/pipelineconfig"
	"review-backend/internal/shared/config"
	"review-backend/internal/shared/storage/db"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	seed, err := pipelineconfig.LoadSeedFile(cfg.SeedFile)
	if err != nil {
		log.Printf("failed to load seed file %s: %v", cfg.SeedFile, err)
		os.Exit(1)
	}

	opts := db.OptionsFromEnv(db.DefaultMigrateOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		log.Printf("failed to connect database: %v", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	repo := &pipelineconfig.PGRepo{DB: sqlDB}
	applied, err := pipelineconfig.Apply(ctx, repo, repo, seed)
	if err != nil {
		log.Printf("seed failed: %v", err)
		os.Exit(1)
	}
	log.Printf("seed applied: %d step configs from %s", applied, cfg.SeedFile)
}
