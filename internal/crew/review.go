package crew

import (
	"context"
	"fmt"
	"log/slog"

	"ContentForge/internal/domain"
	"ContentForge/internal/ports"
	"ContentForge/internal/progress"
)

// ReviewCrew performs the final editorial pass. Its score decides whether
// the article ships.
type ReviewCrew struct {
	baseCrew
}

var _ ports.StageExecutor = (*ReviewCrew)(nil)

// NewReviewCrew wires the completion and scoring clients.
func NewReviewCrew(completer ports.ChatCompleter, scorer ports.FeedbackScorer, logger *slog.Logger) *ReviewCrew {
	return &ReviewCrew{baseCrew{completer: completer, scorer: scorer, logger: logger}}
}

// Stage identifies the crew inside the registry.
func (c *ReviewCrew) Stage() progress.Stage {
	return progress.StageArticleReview
}

// Execute applies review feedback to the draft and scores the final text.
func (c *ReviewCrew) Execute(ctx context.Context, item domain.WorkItem) (domain.StageResult, error) {
	prompt := fmt.Sprintf(
		"Review this article for accuracy and readability, fixing what you find. Reply with the corrected article only.\n\nTitle: %s\n\n%s",
		item.Title, item.Content)

	reviewed, err := c.complete(ctx, "You are a senior editor.", prompt)
	if err != nil {
		return domain.StageResult{}, fmt.Errorf("review article: %w", err)
	}
	if reviewed != "" {
		item.Content = reviewed
	}

	score, err := c.score(ctx, c.Stage(), item)
	if err != nil {
		return domain.StageResult{}, err
	}

	c.debug("review finished", "item_id", item.ID, "score", score)
	return domain.StageResult{Item: item, Score: score}, nil
}
