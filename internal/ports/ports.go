package ports

import (
	"context"
	"errors"
	"time"

	"ContentForge/internal/domain"
	"ContentForge/internal/progress"
)

// StageExecutor performs the actual work of one pipeline stage for one item.
// Expected per-item quality failures come back as low-scored results, not
// errors; an error means something actually broke.
type StageExecutor interface {
	Stage() progress.Stage
	Execute(ctx context.Context, item domain.WorkItem) (domain.StageResult, error)
}

// ProgressStore persists run snapshots keyed by an opaque record id.
// Load returns (nil, nil) when the record does not exist.
type ProgressStore interface {
	Create(ctx context.Context, entityID, operationType string, snapshot *progress.Record) (string, error)
	Load(ctx context.Context, recordID string) (*progress.Record, error)
	Save(ctx context.Context, recordID string, snapshot *progress.Record) error
	Delete(ctx context.Context, recordID string) error
}

// FeedbackScorer rates a stage's output for one item in [0,1]. Automatic
// scorers and injected human review both implement this.
type FeedbackScorer interface {
	Score(ctx context.Context, stage progress.Stage, item domain.WorkItem) (float64, error)
}

// ChatCompleter wraps an LLM chat-completion API for the content crews.
type ChatCompleter interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ResearchSource gathers reference material for a topic from the web.
type ResearchSource interface {
	Gather(ctx context.Context, topic string) ([]string, error)
}

// Notifier streams run summaries to an external channel.
type Notifier interface {
	PublishSummary(ctx context.Context, summary string) error
}

// Scheduler controls when production runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}

// fatalError marks an executor failure that must abort the whole run
// instead of dropping a single item.
type fatalError struct {
	err error
}

func (e *fatalError) Error() string { return e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }

// Fatal wraps an error so the orchestrator fails the run on it.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &fatalError{err: err}
}

// IsFatal reports whether the error carries the fatal marker or stems from
// a cancelled context.
func IsFatal(err error) bool {
	var fe *fatalError
	if errors.As(err, &fe) {
		return true
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
