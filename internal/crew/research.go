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

// ResearchCrew gathers reference material for a topic and condenses it into
// research notes for the writing stage.
type ResearchCrew struct {
	baseCrew
	source ports.ResearchSource
}

var _ ports.StageExecutor = (*ResearchCrew)(nil)

// NewResearchCrew wires an optional web source next to the LLM clients.
func NewResearchCrew(completer ports.ChatCompleter, scorer ports.FeedbackScorer, source ports.ResearchSource, logger *slog.Logger) *ResearchCrew {
	return &ResearchCrew{
		baseCrew: baseCrew{completer: completer, scorer: scorer, logger: logger},
		source:   source,
	}
}

// Stage identifies the crew inside the registry.
func (c *ResearchCrew) Stage() progress.Stage {
	return progress.StageTopicResearch
}

// Execute collects references, condenses them into notes, and scores the item.
func (c *ResearchCrew) Execute(ctx context.Context, item domain.WorkItem) (domain.StageResult, error) {
	var references []string
	if c.source != nil {
		refs, err := c.source.Gather(ctx, item.Topic)
		if err != nil {
			c.debug("reference gathering failed, continuing without", "item_id", item.ID, "error", err)
		} else {
			references = refs
		}
	}

	prompt := fmt.Sprintf("Write concise research notes for an article on %q.", item.Topic)
	if len(references) > 0 {
		prompt += "\nReference material:\n- " + strings.Join(references, "\n- ")
	}

	notes, err := c.complete(ctx, "You are a research assistant.", prompt)
	if err != nil {
		return domain.StageResult{}, fmt.Errorf("research topic: %w", err)
	}

	item.Notes = notes
	if item.Notes == "" {
		return domain.StageResult{}, fmt.Errorf("empty research notes for topic %s", item.Topic)
	}

	score, err := c.score(ctx, c.Stage(), item)
	if err != nil {
		return domain.StageResult{}, err
	}

	c.debug("research done", "item_id", item.ID, "references", len(references), "score", score)
	return domain.StageResult{Item: item, Score: score}, nil
}
