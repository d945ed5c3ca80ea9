package progress

import (
	"fmt"
	"log/slog"
	"time"
)

// Tracker enforces the pipeline state machine over a Record. It is pure
// in-memory behavior: no I/O, no locking. Exactly one tracker mutates a
// given entity's record at any time; serializing access is the caller's job.
type Tracker struct {
	catalog *Catalog
	record  *Record
	logger  *slog.Logger
	now     func() time.Time
}

// StageUpdate is a partial update for one stage; nil fields are left alone.
type StageUpdate struct {
	CompletedItems *int
	AvgScore       *float64
	Message        *string
	ErrorIncrement int
}

// NewTracker creates a tracker with a fresh pending record.
func NewTracker(entityID, operationType string, catalog *Catalog, logger *slog.Logger) *Tracker {
	now := time.Now
	return &Tracker{
		catalog: catalog,
		record:  NewRecord(entityID, operationType, catalog, now().UTC()),
		logger:  logger,
		now:     now,
	}
}

// Restore rebuilds a tracker from a persisted snapshot, re-establishing the
// pre-populated stage arena for any catalog stage the snapshot lacks.
func Restore(snapshot *Record, catalog *Catalog, logger *slog.Logger) (*Tracker, error) {
	if snapshot == nil {
		return nil, fmt.Errorf("nil snapshot")
	}
	if snapshot.FormatVersion > SnapshotFormatVersion {
		return nil, fmt.Errorf("snapshot format %d is newer than supported %d",
			snapshot.FormatVersion, SnapshotFormatVersion)
	}

	record := snapshot.Clone()
	if record.Stages == nil {
		record.Stages = map[Stage]*StageState{}
	}
	for _, stage := range catalog.Stages() {
		if _, ok := record.Stages[stage]; !ok {
			record.Stages[stage] = &StageState{Status: StatusPending}
		}
	}
	record.FormatVersion = SnapshotFormatVersion

	return &Tracker{
		catalog: catalog,
		record:  record,
		logger:  logger,
		now:     time.Now,
	}, nil
}

// EntityID returns the id of the entity this run produces.
func (t *Tracker) EntityID() string {
	return t.record.EntityID
}

// CurrentStage returns the stage the run is positioned at.
func (t *Tracker) CurrentStage() Stage {
	return t.record.CurrentStage
}

// OverallStatus returns the run-level status.
func (t *Tracker) OverallStatus() OverallStatus {
	return t.record.OverallStatus
}

// ErrorCount returns the aggregate error counter across all stages.
func (t *Tracker) ErrorCount() int {
	return t.record.ErrorCount
}

// StartStage marks a stage in progress and makes it current. Unknown stages
// are a warning-level no-op rather than a fatal error. Calls after the run
// reached a terminal status are ignored.
func (t *Tracker) StartStage(stage Stage, totalItems int) {
	if t.record.Terminal() {
		t.warn("start ignored on terminal run", "stage", stage, "status", t.record.OverallStatus)
		return
	}

	state, ok := t.record.Stages[stage]
	if !ok {
		t.warn("start for unknown stage", "stage", stage)
		return
	}

	started := t.now().UTC()
	state.Status = StatusInProgress
	state.StartTime = &started
	state.TotalItems = totalItems

	t.record.CurrentStage = stage
	t.record.OverallStatus = OverallInProgress
}

// UpdateStageProgress applies the non-nil parts of the update to a stage.
// An error increment bumps the stage counter and recomputes the aggregate.
func (t *Tracker) UpdateStageProgress(stage Stage, update StageUpdate) {
	state, ok := t.record.Stages[stage]
	if !ok {
		t.warn("update for unknown stage", "stage", stage)
		return
	}

	if update.CompletedItems != nil {
		state.CompletedItems = *update.CompletedItems
	}
	if update.AvgScore != nil {
		state.AvgScore = *update.AvgScore
	}
	if update.Message != nil {
		state.Message = *update.Message
	}
	if update.ErrorIncrement != 0 {
		state.ErrorCount += update.ErrorIncrement
		t.record.recomputeErrorCount()
	}
}

// CompleteStage closes a stage and advances the run to its successor. The
// last catalog stage completes the whole process. Completing a stage the
// catalog does not know is an invariant violation and fails the run.
func (t *Tracker) CompleteStage(stage Stage) {
	if t.record.Terminal() {
		t.warn("complete ignored on terminal run", "stage", stage, "status", t.record.OverallStatus)
		return
	}

	state, ok := t.record.Stages[stage]
	if !ok || !t.catalog.Contains(stage) {
		t.FailProcess(fmt.Sprintf("internal error: completed stage %s is not in the pipeline", stage))
		return
	}

	ended := t.now().UTC()
	state.Status = StatusCompleted
	state.EndTime = &ended
	if state.StartTime != nil {
		state.DurationSeconds = ended.Sub(*state.StartTime).Seconds()
	}

	next, ok := t.catalog.Next(stage)
	if !ok {
		t.CompleteProcess()
		return
	}
	t.record.CurrentStage = next
}

// CompleteProcess marks the whole run completed. Terminal.
func (t *Tracker) CompleteProcess() {
	if t.record.Terminal() {
		t.warn("complete ignored on terminal run", "status", t.record.OverallStatus)
		return
	}
	done := t.now().UTC()
	t.record.CurrentStage = StageCompleted
	t.record.OverallStatus = OverallCompleted
	t.record.CompletedAt = &done
}

// FailProcess marks the run failed, tags the stage that was active with the
// message, and records the failure in the history log. Terminal.
func (t *Tracker) FailProcess(message string) {
	if t.record.Terminal() {
		t.warn("fail ignored on terminal run", "status", t.record.OverallStatus)
		return
	}

	failedAt := t.record.CurrentStage
	if state, ok := t.record.Stages[failedAt]; ok {
		state.Status = StatusFailed
		state.Message = message
	}

	done := t.now().UTC()
	t.record.History = append(t.record.History, HistoryEntry{
		Time:  done,
		Stage: failedAt,
		Error: message,
	})
	t.record.CurrentStage = StageFailed
	t.record.OverallStatus = OverallFailed
	t.record.CompletedAt = &done
}

// PauseProcess suspends the run at the current stage. Only pending or
// in-progress runs can pause.
func (t *Tracker) PauseProcess() error {
	switch t.record.OverallStatus {
	case OverallPending, OverallInProgress:
	default:
		return fmt.Errorf("cannot pause run in status %s", t.record.OverallStatus)
	}

	paused := t.record.CurrentStage
	t.record.PausedFromStage = paused
	if state, ok := t.record.Stages[paused]; ok {
		state.Status = StatusPaused
	}
	t.record.OverallStatus = OverallPaused
	return nil
}

// ResumeProcess reopens a paused run. It prefers the recorded pause marker;
// when the marker is unknown or already completed it falls back to the first
// non-completed stage in pipeline order and logs the repair.
func (t *Tracker) ResumeProcess() error {
	if t.record.OverallStatus != OverallPaused {
		return fmt.Errorf("cannot resume run in status %s", t.record.OverallStatus)
	}

	stage := t.record.PausedFromStage
	state, ok := t.record.Stages[stage]
	if !ok || state.Status == StatusCompleted {
		fallback, found := t.firstUnfinishedStage()
		if !found {
			return fmt.Errorf("internal error: no stage left to resume")
		}
		t.warn("pause marker unusable, resuming first unfinished stage",
			"marker", stage, "fallback", fallback)
		stage = fallback
		state = t.record.Stages[stage]
	}

	state.Status = StatusInProgress
	t.record.CurrentStage = stage
	t.record.OverallStatus = OverallInProgress
	t.record.PausedFromStage = ""
	return nil
}

// AddErrorLog appends an audit entry. When a stage is named its error
// counter is bumped and the aggregate recomputed; with an empty stage the
// entry is attributed to the current stage without touching counters.
func (t *Tracker) AddErrorLog(stage Stage, message string) {
	named := stage != ""
	if !named {
		stage = t.record.CurrentStage
	}

	t.record.History = append(t.record.History, HistoryEntry{
		Time:  t.now().UTC(),
		Stage: stage,
		Error: message,
	})

	if !named {
		return
	}
	if state, ok := t.record.Stages[stage]; ok {
		state.ErrorCount++
		t.record.recomputeErrorCount()
	}
}

// ProgressPercentage computes the weighted completion of the run in [0,100].
// A completed stage contributes its full weight; an in-progress stage
// contributes proportionally to its item counts.
func (t *Tracker) ProgressPercentage() float64 {
	if t.record.OverallStatus == OverallCompleted {
		return 100
	}

	total := 0.0
	for _, stage := range t.catalog.Stages() {
		state, ok := t.record.Stages[stage]
		if !ok {
			continue
		}
		weight := t.catalog.Weight(stage)
		switch {
		case state.Status == StatusCompleted:
			total += weight
		case state.Status == StatusInProgress && state.TotalItems > 0:
			total += weight * float64(state.CompletedItems) / float64(state.TotalItems)
		}
	}

	percent := total * 100
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}

// TotalDuration returns run wall time in seconds, up to now for live runs.
func (t *Tracker) TotalDuration() float64 {
	if t.record.StartedAt == nil {
		return 0
	}
	end := t.now().UTC()
	if t.record.CompletedAt != nil {
		end = *t.record.CompletedAt
	}
	return end.Sub(*t.record.StartedAt).Seconds()
}

// Snapshot returns a deep copy of the record for persistence. This is the
// only way tracker state leaves the tracker.
func (t *Tracker) Snapshot() *Record {
	return t.record.Clone()
}

func (t *Tracker) firstUnfinishedStage() (Stage, bool) {
	for _, stage := range t.catalog.Stages() {
		if t.record.Stages[stage].Status != StatusCompleted {
			return stage, true
		}
	}
	return "", false
}

func (t *Tracker) warn(msg string, args ...any) {
	if t.logger != nil {
		t.logger.Warn(msg, args...)
	}
}
