// Package crew implements the stage executors of the content pipeline.
// Each crew performs one stage's work for one item, then asks the feedback
// scorer to rate the output; the orchestrator gates on that score.
package crew

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"ContentForge/internal/domain"
	"ContentForge/internal/ports"
	"ContentForge/internal/progress"
)

type baseCrew struct {
	completer ports.ChatCompleter
	scorer    ports.FeedbackScorer
	logger    *slog.Logger
}

func (b baseCrew) complete(ctx context.Context, system, user string) (string, error) {
	if b.completer == nil {
		return "", fmt.Errorf("chat completer not configured")
	}
	text, err := b.completer.Complete(ctx, system, user)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (b baseCrew) score(ctx context.Context, stage progress.Stage, item domain.WorkItem) (float64, error) {
	if b.scorer == nil {
		return 0, fmt.Errorf("feedback scorer not configured")
	}
	score, err := b.scorer.Score(ctx, stage, item)
	if err != nil {
		return 0, fmt.Errorf("score item %s: %w", item.ID, err)
	}
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score, nil
}

func (b baseCrew) debug(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Debug(msg, args...)
	}
}

// firstLine trims the response down to a single line of text.
func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}
