package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"ContentForge/internal/domain"
	"ContentForge/internal/ports"
	"ContentForge/internal/progress"
)

// DefaultGateThreshold is the feedback score an item needs to advance to the
// next stage. The comparison is inclusive.
const DefaultGateThreshold = 0.7

// OrchestratorDeps wires the collaborators of one pipeline orchestrator.
type OrchestratorDeps struct {
	Catalog       *progress.Catalog
	Executors     map[progress.Stage]ports.StageExecutor
	Store         ports.ProgressStore
	Notifier      ports.Notifier
	OperationType string
	GateThreshold float64
	Logger        *slog.Logger
}

// Orchestrator drives one production run end to end: it walks the catalog
// stages in order, feeds each stage the previous stage's accepted outputs,
// applies the quality gate, and tracks progress through a Tracker with a
// write-through snapshot after every stage-boundary mutation.
type Orchestrator struct {
	catalog   *progress.Catalog
	executors map[progress.Stage]ports.StageExecutor
	store     ports.ProgressStore
	notifier  ports.Notifier
	opType    string
	gate      float64
	logger    *slog.Logger

	pauseRequested atomic.Bool

	mu       sync.Mutex
	tracker  *progress.Tracker
	recordID string
}

// ProgressSummary is the externally pollable view of a run.
type ProgressSummary struct {
	EntityID           string                 `json:"entity_id"`
	RecordID           string                 `json:"record_id"`
	OperationType      string                 `json:"operation_type"`
	CurrentStage       progress.Stage         `json:"current_stage"`
	OverallStatus      progress.OverallStatus `json:"overall_status"`
	ProgressPercentage float64                `json:"progress_percentage"`
	DurationSeconds    float64                `json:"duration_seconds"`
	ErrorCount         int                    `json:"error_count"`
}

// NewOrchestrator constructs the run driver. A zero gate threshold falls
// back to the default.
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	gate := deps.GateThreshold
	if gate == 0 {
		gate = DefaultGateThreshold
	}
	opType := deps.OperationType
	if opType == "" {
		opType = "article_production"
	}
	return &Orchestrator{
		catalog:   deps.Catalog,
		executors: deps.Executors,
		store:     deps.Store,
		notifier:  deps.Notifier,
		opType:    opType,
		gate:      gate,
		logger:    deps.Logger,
	}
}

// Run executes the full pipeline for one entity. It returns the accepted
// results of the last stage that produced any; an empty slice with a nil
// error means every item was gated out along the way. A fatal stage error
// fails the run and is returned to the caller.
func (o *Orchestrator) Run(ctx context.Context, entityID string, seed domain.SeedParams) ([]domain.StageResult, error) {
	tracker := progress.NewTracker(entityID, o.opType, o.catalog, o.logger)

	recordID, err := o.store.Create(ctx, entityID, o.opType, tracker.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("create progress record: %w", err)
	}

	o.mu.Lock()
	o.tracker = tracker
	o.recordID = recordID
	o.mu.Unlock()

	items := seedItems(seed)
	var results []domain.StageResult

	for _, stage := range o.catalog.Stages() {
		if o.pauseRequested.Load() {
			o.pauseRequested.Store(false)
			o.pause(ctx)
			return results, nil
		}

		o.withTracker(func(t *progress.Tracker) { t.StartStage(stage, len(items)) })
		o.persist(ctx)

		accepted, processed, avg, stageErr := o.runStage(ctx, stage, items)
		if stageErr != nil {
			o.withTracker(func(t *progress.Tracker) { t.FailProcess(stageErr.Error()) })
			o.persist(ctx)
			o.notify(ctx)
			return nil, fmt.Errorf("stage %s: %w", stage, stageErr)
		}

		o.withTracker(func(t *progress.Tracker) {
			t.UpdateStageProgress(stage, progress.StageUpdate{
				CompletedItems: &processed,
				AvgScore:       &avg,
			})
			t.CompleteStage(stage)
		})
		o.persist(ctx)

		if len(accepted) == 0 {
			o.info("run stopped, no items passed the gate", "entity_id", entityID, "stage", stage)
			o.notify(ctx)
			return []domain.StageResult{}, nil
		}

		results = accepted
		items = itemsOf(accepted)
	}

	o.info("run completed", "entity_id", entityID, "accepted", len(results))
	o.notify(ctx)
	return results, nil
}

// RequestPause asks the run to pause at the next stage boundary. In-flight
// executor calls are not interrupted.
func (o *Orchestrator) RequestPause() {
	o.pauseRequested.Store(true)
}

// Resume reopens a paused run from its persisted snapshot so the caller can
// re-enter the pipeline. The tracker transition and the snapshot write both
// happen here; re-feeding work items is the caller's re-invocation.
func (o *Orchestrator) Resume(ctx context.Context, recordID string) error {
	snapshot, err := o.store.Load(ctx, recordID)
	if err != nil {
		return fmt.Errorf("load progress record: %w", err)
	}
	if snapshot == nil {
		return fmt.Errorf("progress record %s not found", recordID)
	}

	tracker, err := progress.Restore(snapshot, o.catalog, o.logger)
	if err != nil {
		return fmt.Errorf("restore tracker: %w", err)
	}
	if err := tracker.ResumeProcess(); err != nil {
		return err
	}

	o.mu.Lock()
	o.tracker = tracker
	o.recordID = recordID
	o.mu.Unlock()

	o.persist(ctx)
	return nil
}

// ProgressSummary reports the current run state for external polling. The
// second return is false before the first run starts.
func (o *Orchestrator) ProgressSummary() (ProgressSummary, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.tracker == nil {
		return ProgressSummary{}, false
	}
	return ProgressSummary{
		EntityID:           o.tracker.EntityID(),
		RecordID:           o.recordID,
		OperationType:      o.opType,
		CurrentStage:       o.tracker.CurrentStage(),
		OverallStatus:      o.tracker.OverallStatus(),
		ProgressPercentage: o.tracker.ProgressPercentage(),
		DurationSeconds:    o.tracker.TotalDuration(),
		ErrorCount:         o.tracker.ErrorCount(),
	}, true
}

// runStage executes one stage over all carried items. Item-level errors drop
// the item and are logged; fatal errors and context cancellation abort the
// stage. Returns the gated survivors, the processed count, and the mean score.
func (o *Orchestrator) runStage(ctx context.Context, stage progress.Stage, items []domain.WorkItem) ([]domain.StageResult, int, float64, error) {
	executor, ok := o.executors[stage]
	if !ok {
		return nil, 0, 0, fmt.Errorf("internal error: no executor registered for stage %s", stage)
	}

	var (
		accepted  []domain.StageResult
		processed int
		scoreSum  float64
	)

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, 0, 0, err
		}

		result, err := executor.Execute(ctx, item)
		if err != nil {
			if ports.IsFatal(err) {
				return nil, 0, 0, err
			}
			o.withTracker(func(t *progress.Tracker) {
				t.AddErrorLog(stage, fmt.Sprintf("item %s: %v", item.ID, err))
			})
			o.warn("item dropped", "stage", stage, "item_id", item.ID, "error", err)
			continue
		}

		processed++
		scoreSum += result.Score
		if result.Score >= o.gate {
			accepted = append(accepted, result)
		} else {
			o.info("item gated out", "stage", stage, "item_id", item.ID, "score", result.Score)
		}
	}

	avg := 0.0
	if processed > 0 {
		avg = scoreSum / float64(processed)
	}
	return accepted, processed, avg, nil
}

func (o *Orchestrator) pause(ctx context.Context) {
	o.withTracker(func(t *progress.Tracker) {
		if err := t.PauseProcess(); err != nil {
			o.warn("pause request ignored", "error", err)
		}
	})
	o.persist(ctx)
}

// persist writes the current snapshot through to the store. A failed save is
// logged and the run proceeds: the in-memory tracker stays authoritative.
func (o *Orchestrator) persist(ctx context.Context) {
	o.mu.Lock()
	recordID := o.recordID
	snapshot := o.tracker.Snapshot()
	o.mu.Unlock()

	if err := o.store.Save(ctx, recordID, snapshot); err != nil {
		o.warn("snapshot save failed", "record_id", recordID, "error", err)
	}
}

func (o *Orchestrator) notify(ctx context.Context) {
	if o.notifier == nil {
		return
	}
	summary, ok := o.ProgressSummary()
	if !ok {
		return
	}
	if err := o.notifier.PublishSummary(ctx, formatSummary(summary)); err != nil {
		o.warn("summary notification failed", "error", err)
	}
}

func (o *Orchestrator) withTracker(fn func(*progress.Tracker)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fn(o.tracker)
}

func seedItems(seed domain.SeedParams) []domain.WorkItem {
	count := seed.Count
	if count < 1 {
		count = 1
	}
	items := make([]domain.WorkItem, 0, count)
	now := time.Now().UTC()
	for i := 0; i < count; i++ {
		items = append(items, domain.WorkItem{
			ID:        uuid.NewString(),
			Category:  seed.Category,
			CreatedAt: now,
		})
	}
	return items
}

func itemsOf(results []domain.StageResult) []domain.WorkItem {
	items := make([]domain.WorkItem, 0, len(results))
	for _, result := range results {
		items = append(items, result.Item)
	}
	return items
}

func formatSummary(s ProgressSummary) string {
	return fmt.Sprintf("Run %s (%s)\nStage: %s\nStatus: %s\nProgress: %.1f%%\nErrors: %d\nDuration: %.0fs",
		s.EntityID,
		s.OperationType,
		s.CurrentStage,
		s.OverallStatus,
		s.ProgressPercentage,
		s.ErrorCount,
		s.DurationSeconds)
}

func (o *Orchestrator) info(msg string, args ...any) {
	if o.logger != nil {
		o.logger.Info(msg, args...)
	}
}

func (o *Orchestrator) warn(msg string, args ...any) {
	if o.logger != nil {
		o.logger.Warn(msg, args...)
	}
}
