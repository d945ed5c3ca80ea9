package crew

import (
	"context"
	"fmt"
	"log/slog"

	"ContentForge/internal/domain"
	"ContentForge/internal/ports"
	"ContentForge/internal/progress"
)

// TopicCrew discovers one candidate topic per seed item.
type TopicCrew struct {
	baseCrew
}

var _ ports.StageExecutor = (*TopicCrew)(nil)

// NewTopicCrew wires the completion and scoring clients.
func NewTopicCrew(completer ports.ChatCompleter, scorer ports.FeedbackScorer, logger *slog.Logger) *TopicCrew {
	return &TopicCrew{baseCrew{completer: completer, scorer: scorer, logger: logger}}
}

// Stage identifies the crew inside the registry.
func (c *TopicCrew) Stage() progress.Stage {
	return progress.StageTopicDiscovery
}

// Execute proposes a topic for the item's category and scores it.
func (c *TopicCrew) Execute(ctx context.Context, item domain.WorkItem) (domain.StageResult, error) {
	prompt := fmt.Sprintf(
		"Propose one specific, timely article topic in the %q category. Reply with the topic on a single line.",
		item.Category)

	response, err := c.complete(ctx, "You are an editorial planner.", prompt)
	if err != nil {
		return domain.StageResult{}, fmt.Errorf("discover topic: %w", err)
	}

	item.Topic = firstLine(response)
	if item.Topic == "" {
		return domain.StageResult{}, fmt.Errorf("empty topic for category %s", item.Category)
	}

	score, err := c.score(ctx, c.Stage(), item)
	if err != nil {
		return domain.StageResult{}, err
	}

	c.debug("topic discovered", "item_id", item.ID, "topic", item.Topic, "score", score)
	return domain.StageResult{Item: item, Score: score}, nil
}
