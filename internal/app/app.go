package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"ContentForge/internal/config"
	"ContentForge/internal/crew"
	"ContentForge/internal/domain"
	"ContentForge/internal/infrastructure/llm"
	"ContentForge/internal/infrastructure/ml"
	"ContentForge/internal/infrastructure/research"
	"ContentForge/internal/infrastructure/scheduler"
	"ContentForge/internal/infrastructure/storage"
	"ContentForge/internal/infrastructure/telegram"
	"ContentForge/internal/logging"
	"ContentForge/internal/ports"
	"ContentForge/internal/progress"
	"ContentForge/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg          config.Config
	orchestrator *usecase.Orchestrator
	scheduler    *usecase.Scheduler
	db           *sql.DB
	logger       *slog.Logger
}

// New builds a runnable application instance. Snapshots go to Postgres when
// a DSN is configured, otherwise to process memory.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	var (
		store ports.ProgressStore
		db    *sql.DB
	)
	if cfg.Database.DSN != "" {
		opened, err := storage.Open(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("connect storage: %w", err)
		}
		db = opened
		store = storage.NewPostgresStore(db)
	} else {
		baseLogger.Warn("no database DSN configured, keeping progress in memory")
		store = storage.NewMemoryStore()
	}

	catalog, err := buildCatalog(cfg.Pipeline)
	if err != nil {
		return nil, fmt.Errorf("build stage catalog: %w", err)
	}

	completer := llm.NewChatGPTClient(cfg.ChatGPT)
	scorer := ml.NewClient(cfg.Scoring.InferenceURL, cfg.Scoring.APIKey)
	source := research.NewWebSource(nil, cfg.Research.Sites, logging.Component(baseLogger, "research"))

	registry := crew.NewRegistry()
	crewLogger := logging.Component(baseLogger, "crew")
	registry.Register(crew.NewTopicCrew(completer, scorer, crewLogger))
	registry.Register(crew.NewResearchCrew(completer, scorer, source, crewLogger))
	registry.Register(crew.NewWritingCrew(completer, scorer, crewLogger))
	registry.Register(crew.NewStyleCrew(completer, scorer, "", crewLogger))
	registry.Register(crew.NewReviewCrew(completer, scorer, crewLogger))

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.BotToken != "" {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	}

	orchestrator := usecase.NewOrchestrator(usecase.OrchestratorDeps{
		Catalog:       catalog,
		Executors:     registry.Executors(),
		Store:         store,
		Notifier:      notifier,
		OperationType: cfg.Pipeline.OperationType,
		GateThreshold: cfg.Pipeline.GateThreshold,
		Logger:        logging.Component(baseLogger, "orchestrator"),
	})

	jobs := make([]usecase.ProductionJob, 0, len(cfg.Jobs))
	for _, job := range cfg.Jobs {
		jobs = append(jobs, usecase.ProductionJob{
			Name: job.Name,
			Seed: domain.SeedParams{Category: job.Category, Count: job.Count},
		})
	}

	driver := scheduler.NewCronScheduler(cfg.Scheduler.CronExpression)
	runScheduler := usecase.NewScheduler(driver, orchestrator, jobs, logging.Component(baseLogger, "scheduler"))

	return &Application{
		cfg:          cfg,
		orchestrator: orchestrator,
		scheduler:    runScheduler,
		db:           db,
		logger:       baseLogger,
	}, nil
}

// Orchestrator exposes the run driver for callers that want one-shot runs
// or progress polling.
func (a *Application) Orchestrator() *usecase.Orchestrator {
	return a.orchestrator
}

// Run starts the recurring production schedule and blocks until the context
// is done.
func (a *Application) Run(ctx context.Context) error {
	if a.scheduler == nil {
		return nil
	}

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	<-ctx.Done()
	return a.Close(context.Background())
}

// Close stops the scheduler and releases the database handle.
func (a *Application) Close(ctx context.Context) error {
	if a.scheduler != nil {
		if err := a.scheduler.Stop(ctx); err != nil {
			return fmt.Errorf("stop scheduler: %w", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			return fmt.Errorf("close database: %w", err)
		}
	}
	return nil
}

// buildCatalog maps configured weights onto the fixed stage order, falling
// back to the standard article pipeline when no weights are configured.
func buildCatalog(cfg config.PipelineConfig) (*progress.Catalog, error) {
	if len(cfg.StageWeights) == 0 {
		return progress.ArticleProductionCatalog(), nil
	}

	order := progress.ArticleProductionCatalog().Stages()
	weights := make(map[progress.Stage]float64, len(cfg.StageWeights))
	for name, weight := range cfg.StageWeights {
		weights[progress.Stage(name)] = weight
	}

	return progress.NewCatalog(order, weights)
}
