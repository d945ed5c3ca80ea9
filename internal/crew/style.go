package crew

import (
	"context"
	"fmt"
	"log/slog"

	"ContentForge/internal/domain"
	"ContentForge/internal/ports"
	"ContentForge/internal/progress"
)

// StyleCrew rewrites the draft to match the publication's voice.
type StyleCrew struct {
	baseCrew
	styleGuide string
}

var _ ports.StageExecutor = (*StyleCrew)(nil)

// NewStyleCrew wires the clients and an optional style-guide prompt.
func NewStyleCrew(completer ports.ChatCompleter, scorer ports.FeedbackScorer, styleGuide string, logger *slog.Logger) *StyleCrew {
	if styleGuide == "" {
		styleGuide = "Clear, direct prose for a technical audience."
	}
	return &StyleCrew{
		baseCrew:   baseCrew{completer: completer, scorer: scorer, logger: logger},
		styleGuide: styleGuide,
	}
}

// Stage identifies the crew inside the registry.
func (c *StyleCrew) Stage() progress.Stage {
	return progress.StageStyleAdaptation
}

// Execute restyles the draft body and scores the result.
func (c *StyleCrew) Execute(ctx context.Context, item domain.WorkItem) (domain.StageResult, error) {
	prompt := fmt.Sprintf("Rewrite this article to match the style guide.\nStyle guide: %s\n\n%s",
		c.styleGuide, item.Content)

	restyled, err := c.complete(ctx, "You are a copy editor.", prompt)
	if err != nil {
		return domain.StageResult{}, fmt.Errorf("adapt style: %w", err)
	}
	if restyled == "" {
		return domain.StageResult{}, fmt.Errorf("empty restyled draft for item %s", item.ID)
	}
	item.Content = restyled

	score, err := c.score(ctx, c.Stage(), item)
	if err != nil {
		return domain.StageResult{}, err
	}

	c.debug("style adapted", "item_id", item.ID, "score", score)
	return domain.StageResult{Item: item, Score: score}, nil
}
