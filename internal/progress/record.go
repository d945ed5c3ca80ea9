package progress

import "time"

// SnapshotFormatVersion is stamped into every persisted record so future
// format changes can be detected on load.
const SnapshotFormatVersion = 1

// StageState is the per-stage slice of a run's progress.
type StageState struct {
	Status          StageStatus `json:"status"`
	StartTime       *time.Time  `json:"start_time,omitempty"`
	EndTime         *time.Time  `json:"end_time,omitempty"`
	TotalItems      int         `json:"total_items"`
	CompletedItems  int         `json:"completed_items"`
	AvgScore        float64     `json:"avg_score"`
	ErrorCount      int         `json:"error_count"`
	Message         string      `json:"message,omitempty"`
	DurationSeconds float64     `json:"duration_seconds,omitempty"`
}

// HistoryEntry is one line of the append-only audit log.
type HistoryEntry struct {
	Time  time.Time `json:"time"`
	Stage Stage     `json:"stage"`
	Error string    `json:"error"`
}

// Record is the serializable state of one pipeline run. It is plain data:
// all mutation goes through a Tracker, and persistence stores it verbatim.
type Record struct {
	FormatVersion   int                   `json:"format_version"`
	EntityID        string                `json:"entity_id"`
	OperationType   string                `json:"operation_type"`
	CurrentStage    Stage                 `json:"current_stage"`
	Stages          map[Stage]*StageState `json:"stages"`
	OverallStatus   OverallStatus         `json:"overall_status"`
	StartedAt       *time.Time            `json:"started_at,omitempty"`
	CompletedAt     *time.Time            `json:"completed_at,omitempty"`
	PausedFromStage Stage                 `json:"paused_from_stage,omitempty"`
	ErrorCount      int                   `json:"error_count"`
	History         []HistoryEntry        `json:"stage_history"`
}

// NewRecord builds a fresh record for the given entity with every catalog
// stage pre-populated as pending. Stage entries are never created lazily.
func NewRecord(entityID, operationType string, catalog *Catalog, now time.Time) *Record {
	stages := make(map[Stage]*StageState, len(catalog.Stages()))
	for _, stage := range catalog.Stages() {
		stages[stage] = &StageState{Status: StatusPending}
	}

	started := now
	return &Record{
		FormatVersion: SnapshotFormatVersion,
		EntityID:      entityID,
		OperationType: operationType,
		CurrentStage:  catalog.First(),
		Stages:        stages,
		OverallStatus: OverallPending,
		StartedAt:     &started,
	}
}

// Clone deep-copies the record so callers can hand it to persistence without
// aliasing tracker-owned state.
func (r *Record) Clone() *Record {
	copied := *r

	copied.Stages = make(map[Stage]*StageState, len(r.Stages))
	for stage, state := range r.Stages {
		s := *state
		if state.StartTime != nil {
			t := *state.StartTime
			s.StartTime = &t
		}
		if state.EndTime != nil {
			t := *state.EndTime
			s.EndTime = &t
		}
		copied.Stages[stage] = &s
	}

	if r.StartedAt != nil {
		t := *r.StartedAt
		copied.StartedAt = &t
	}
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		copied.CompletedAt = &t
	}

	copied.History = append([]HistoryEntry(nil), r.History...)
	return &copied
}

// Terminal reports whether the run reached an absorbing status.
func (r *Record) Terminal() bool {
	return r.OverallStatus == OverallCompleted || r.OverallStatus == OverallFailed
}

// recomputeErrorCount refreshes the aggregate from per-stage counters.
func (r *Record) recomputeErrorCount() {
	total := 0
	for _, state := range r.Stages {
		total += state.ErrorCount
	}
	r.ErrorCount = total
}
