package crew

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"ContentForge/internal/domain"
	"ContentForge/internal/ports"
	"ContentForge/internal/progress"
)

// WritingCrew drafts the article body from the research notes.
type WritingCrew struct {
	baseCrew
}

var _ ports.StageExecutor = (*WritingCrew)(nil)

// NewWritingCrew wires the completion and scoring clients.
func NewWritingCrew(completer ports.ChatCompleter, scorer ports.FeedbackScorer, logger *slog.Logger) *WritingCrew {
	return &WritingCrew{baseCrew{completer: completer, scorer: scorer, logger: logger}}
}

// Stage identifies the crew inside the registry.
func (c *WritingCrew) Stage() progress.Stage {
	return progress.StageArticleWriting
}

// Execute drafts title and body, then scores the draft.
func (c *WritingCrew) Execute(ctx context.Context, item domain.WorkItem) (domain.StageResult, error) {
	prompt := fmt.Sprintf(
		"Write an article on %q using these notes:\n%s\nReply as JSON: {\"title\": ..., \"body\": ...}",
		item.Topic, item.Notes)

	response, err := c.complete(ctx, "You are a staff writer.", prompt)
	if err != nil {
		return domain.StageResult{}, fmt.Errorf("write draft: %w", err)
	}

	title, body := parseDraft(response)
	if body == "" {
		return domain.StageResult{}, fmt.Errorf("empty draft for topic %s", item.Topic)
	}
	item.Title = title
	item.Content = body

	score, err := c.score(ctx, c.Stage(), item)
	if err != nil {
		return domain.StageResult{}, err
	}

	c.debug("draft written", "item_id", item.ID, "title", item.Title, "score", score)
	return domain.StageResult{Item: item, Score: score}, nil
}

// parseDraft decodes the expected JSON response, falling back to treating
// the whole response as the body when the model ignored the format.
func parseDraft(response string) (title, body string) {
	var draft struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}
	if err := json.Unmarshal([]byte(response), &draft); err == nil && draft.Body != "" {
		return strings.TrimSpace(draft.Title), strings.TrimSpace(draft.Body)
	}
	return firstLine(response), strings.TrimSpace(response)
}
