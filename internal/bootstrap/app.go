// Package bootstrap wires configuration, storage, the pipeline registry and
// HTTP handlers into a runnable application.
package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"review-backend/internal/llm"
	openai "review-backend/internal/llm/openai"
	"review-backend/internal/nlp"
	"review-backend/internal/pipeline"
	"review-backend/internal/pipelineconfig"
	"review-backend/internal/queue"
	"review-backend/internal/results"
	"review-backend/internal/reviews"
	"review-backend/internal/runs"
	"review-backend/internal/shared/config"
	"review-backend/internal/shared/server"
	"review-backend/internal/shared/storage/db"
	"review-backend/internal/shared/telemetry"
	"review-backend/internal/steps"
	"review-backend/internal/tickets"
)

// App holds shared dependencies for the api and worker binaries.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Queue  queue.Client

	Registry    *pipeline.Registry
	ConfigCache *pipelineconfig.Cache

	ReviewsRepo reviews.Repo
	ResultsRepo results.Repo
	TicketsRepo tickets.Repo
	ConfigRepo  pipelineconfig.Repo
	Templates   pipelineconfig.TemplateRepo

	RunsService *runs.Service

	ReviewsHandler *reviews.Handler
	RunsHandler    *runs.Handler
	ResultsHandler *results.Handler
	TicketsHandler *tickets.Handler
}

// Build constructs the application graph. A missing or unreachable database
// falls back to in-memory repositories outside production.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	app := &App{Config: cfg}

	app.DB = buildDB(ctx, cfg)
	if err := app.buildRepos(ctx); err != nil {
		return nil, err
	}

	q, err := buildQueue(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.Queue = q

	app.ConfigCache = pipelineconfig.NewCache(app.ConfigRepo, cfg.ConfigCacheTTL)

	app.Registry = pipeline.NewRegistry()
	deps := steps.Deps{
		Scorer:     nlp.NewLexiconScorer(),
		Entities:   nlp.NewKeywordExtractor(),
		LLM:        buildLLM(cfg),
		Templates:  app.Templates,
		Results:    app.ResultsRepo,
		Tickets:    app.TicketsRepo,
		LLMModel:   cfg.LLMModel,
		LLMTimeout: cfg.LLMTimeout,
	}
	if err := steps.RegisterAll(app.Registry, deps); err != nil {
		return nil, err
	}

	app.RunsService = &runs.Service{
		Reviews:        app.ReviewsRepo,
		Config:         app.ConfigCache,
		Registry:       app.Registry,
		Queue:          app.Queue,
		DefaultRunType: cfg.DefaultRunType,
	}

	app.ReviewsHandler = &reviews.Handler{Repo: app.ReviewsRepo}
	app.RunsHandler = &runs.Handler{Svc: app.RunsService}
	app.ResultsHandler = &results.Handler{Repo: app.ResultsRepo}
	app.TicketsHandler = &tickets.Handler{Repo: app.TicketsRepo}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:  cfg,
		Reviews: app.ReviewsHandler,
		Runs:    app.RunsHandler,
		Results: app.ResultsHandler,
		Tickets: app.TicketsHandler,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) *sql.DB {
	if cfg.DatabaseURL == "" {
		if cfg.Env == "production" {
			log.Fatal("DATABASE_URL is required in production")
		}
		telemetry.Warn("bootstrap.db.memory", map[string]any{
			"reason": "DATABASE_URL not set",
		})
		return nil
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	conn, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if cfg.Env == "production" {
			log.Fatalf("database connect: %v", err)
		}
		telemetry.Warn("bootstrap.db.memory", map[string]any{
			"reason": "connect failed",
			"error":  err.Error(),
		})
		return nil
	}
	return conn
}

func (app *App) buildRepos(ctx context.Context) error {
	if app.DB != nil {
		app.ReviewsRepo = &reviews.PGRepo{DB: app.DB}
		app.ResultsRepo = &results.PGRepo{DB: app.DB}
		app.TicketsRepo = &tickets.PGRepo{DB: app.DB}
		pgCfg := &pipelineconfig.PGRepo{DB: app.DB}
		app.ConfigRepo = pgCfg
		app.Templates = pgCfg
		return nil
	}

	resultsRepo := results.NewMemoryRepo()
	reviewsRepo := reviews.NewMemoryRepo()
	reviewsRepo.Analyzed = resultsRepo.Has

	cfgRepo := pipelineconfig.NewMemoryRepo()
	app.ReviewsRepo = reviewsRepo
	app.ResultsRepo = resultsRepo
	app.TicketsRepo = tickets.NewMemoryRepo()
	app.ConfigRepo = cfgRepo
	app.Templates = cfgRepo

	// Memory mode has no migrations, so the pipeline configuration comes
	// straight from the seed file.
	return seedMemoryConfig(ctx, app.Config, cfgRepo)
}

func seedMemoryConfig(ctx context.Context, cfg config.Config, repo *pipelineconfig.MemoryRepo) error {
	seed, err := pipelineconfig.LoadSeedFile(cfg.SeedFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			telemetry.Warn("bootstrap.seed.missing", map[string]any{
				"path": cfg.SeedFile,
			})
			return nil
		}
		return err
	}
	applied, err := pipelineconfig.Apply(ctx, repo, repo, seed)
	if err != nil {
		return err
	}
	telemetry.Info("bootstrap.seed.applied", map[string]any{
		"path":  cfg.SeedFile,
		"steps": applied,
	})
	return nil
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if cfg.QueueURL == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx, cfg.QueueURL)
}

func buildLLM(cfg config.Config) llm.Client {
	if cfg.LLMProvider == "openai" {
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey != "" {
			client, err := openai.NewClient(apiKey, cfg.LLMTimeout)
			if err == nil {
				return client
			}
			telemetry.Warn("bootstrap.llm.fallback", map[string]any{
				"error": err.Error(),
			})
		} else {
			telemetry.Warn("bootstrap.llm.fallback", map[string]any{
				"reason": "OPENAI_API_KEY not set",
			})
		}
	}
	return llm.PlaceholderClient{}
}
