package usecase

import (
	"context"
	"testing"
	"time"

	"ContentForge/internal/domain"
	"ContentForge/internal/infrastructure/storage"
	"ContentForge/internal/progress"
)

// manualDriver captures the job so the test can trigger ticks itself.
type manualDriver struct {
	job     func(time.Time)
	stopped bool
}

func (d *manualDriver) Start(_ context.Context, job func(time.Time)) error {
	d.job = job
	return nil
}

func (d *manualDriver) Stop(context.Context) error {
	d.stopped = true
	return nil
}

func TestSchedulerRunsConfiguredJobs(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	orchestrator := newTestOrchestrator(store, scriptedExecutors(progress.ArticleProductionCatalog()))

	driver := &manualDriver{}
	sched := NewScheduler(driver, orchestrator, []ProductionJob{
		{Name: "daily-tech", Seed: domain.SeedParams{Category: "tech", Count: 1}},
	}, nil)

	if err := sched.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if driver.job == nil {
		t.Fatal("job not registered with driver")
	}

	driver.job(time.Now())

	summary, ok := orchestrator.ProgressSummary()
	if !ok {
		t.Fatal("no run happened on tick")
	}
	if summary.OverallStatus != progress.OverallCompleted {
		t.Fatalf("run status %s, want %s", summary.OverallStatus, progress.OverallCompleted)
	}

	if err := sched.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if !driver.stopped {
		t.Fatal("driver not stopped")
	}
}
