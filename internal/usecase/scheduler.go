package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ContentForge/internal/domain"
	"ContentForge/internal/ports"
)

// ProductionJob names one recurring run: a seed plus a label for logging.
type ProductionJob struct {
	Name string
	Seed domain.SeedParams
}

// Scheduler wires the cron-like driver with recurring production runs.
type Scheduler struct {
	driver       ports.Scheduler
	orchestrator *Orchestrator
	jobs         []ProductionJob
	logger       *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring production runs.
func NewScheduler(driver ports.Scheduler, orchestrator *Orchestrator, jobs []ProductionJob, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		driver:       driver,
		orchestrator: orchestrator,
		jobs:         jobs,
		logger:       logger,
	}
}

// Start registers the production jobs with the provided scheduler. Each tick
// runs every job sequentially with a fresh entity id.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.orchestrator == nil {
		return nil
	}

	job := func(trigger time.Time) {
		for _, production := range s.jobs {
			entityID := uuid.NewString()
			results, err := s.orchestrator.Run(ctx, entityID, production.Seed)
			if err != nil {
				if s.logger != nil {
					s.logger.Error("scheduled run failed",
						"job", production.Name, "entity_id", entityID, "error", err)
				}
				continue
			}
			if s.logger != nil {
				s.logger.Info("scheduled run finished",
					"job", production.Name, "entity_id", entityID,
					"accepted", len(results), "trigger", trigger.Format(time.RFC3339))
			}
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
