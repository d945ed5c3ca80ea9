package crew

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ContentForge/internal/domain"
	"ContentForge/internal/progress"
)

type stubCompleter struct {
	response string
	err      error
	lastUser string
}

func (s *stubCompleter) Complete(_ context.Context, _, user string) (string, error) {
	s.lastUser = user
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

type stubScorer struct {
	score float64
	err   error
}

func (s *stubScorer) Score(context.Context, progress.Stage, domain.WorkItem) (float64, error) {
	return s.score, s.err
}

func TestTopicCrewExecute(t *testing.T) {
	t.Parallel()

	completer := &stubCompleter{response: "Edge computing at the last mile\nextra commentary"}
	crew := NewTopicCrew(completer, &stubScorer{score: 0.82}, nil)

	result, err := crew.Execute(context.Background(), domain.WorkItem{ID: "i1", Category: "technology"})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	if result.Item.Topic != "Edge computing at the last mile" {
		t.Fatalf("topic %q, want first response line", result.Item.Topic)
	}
	if result.Score != 0.82 {
		t.Fatalf("score %f, want 0.82", result.Score)
	}
	if !strings.Contains(completer.lastUser, "technology") {
		t.Fatalf("prompt does not carry the category: %q", completer.lastUser)
	}
}

func TestTopicCrewEmptyResponse(t *testing.T) {
	t.Parallel()

	crew := NewTopicCrew(&stubCompleter{response: "   "}, &stubScorer{score: 0.9}, nil)
	if _, err := crew.Execute(context.Background(), domain.WorkItem{Category: "tech"}); err == nil {
		t.Fatal("expected error for empty topic")
	}
}

func TestScoreClampedToUnitInterval(t *testing.T) {
	t.Parallel()

	crew := NewTopicCrew(&stubCompleter{response: "some topic"}, &stubScorer{score: 1.7}, nil)
	result, err := crew.Execute(context.Background(), domain.WorkItem{Category: "tech"})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if result.Score != 1 {
		t.Fatalf("score %f, want clamp to 1", result.Score)
	}
}

func TestScorerErrorPropagates(t *testing.T) {
	t.Parallel()

	crew := NewTopicCrew(&stubCompleter{response: "some topic"}, &stubScorer{err: errors.New("scoring down")}, nil)
	if _, err := crew.Execute(context.Background(), domain.WorkItem{ID: "i1", Category: "tech"}); err == nil {
		t.Fatal("expected scorer error to surface")
	}
}

func TestWritingCrewParsesJSONDraft(t *testing.T) {
	t.Parallel()

	completer := &stubCompleter{response: `{"title": "The Last Mile", "body": "Edge computing..."}`}
	crew := NewWritingCrew(completer, &stubScorer{score: 0.9}, nil)

	result, err := crew.Execute(context.Background(), domain.WorkItem{Topic: "edge", Notes: "notes"})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if result.Item.Title != "The Last Mile" {
		t.Fatalf("title %q, want The Last Mile", result.Item.Title)
	}
	if result.Item.Content != "Edge computing..." {
		t.Fatalf("body %q not applied", result.Item.Content)
	}
}

func TestWritingCrewFallsBackToPlainText(t *testing.T) {
	t.Parallel()

	completer := &stubCompleter{response: "A headline\nBody text follows."}
	crew := NewWritingCrew(completer, &stubScorer{score: 0.9}, nil)

	result, err := crew.Execute(context.Background(), domain.WorkItem{Topic: "edge"})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if result.Item.Title != "A headline" {
		t.Fatalf("fallback title %q, want first line", result.Item.Title)
	}
	if !strings.Contains(result.Item.Content, "Body text follows.") {
		t.Fatalf("fallback body lost: %q", result.Item.Content)
	}
}

func TestResearchCrewSurvivesSourceFailure(t *testing.T) {
	t.Parallel()

	crew := NewResearchCrew(
		&stubCompleter{response: "condensed notes"},
		&stubScorer{score: 0.8},
		failingSource{},
		nil,
	)

	result, err := crew.Execute(context.Background(), domain.WorkItem{Topic: "edge"})
	if err != nil {
		t.Fatalf("source failure must not abort the item: %v", err)
	}
	if result.Item.Notes != "condensed notes" {
		t.Fatalf("notes %q not set", result.Item.Notes)
	}
}

type failingSource struct{}

func (failingSource) Gather(context.Context, string) ([]string, error) {
	return nil, errors.New("sites unreachable")
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	topic := NewTopicCrew(&stubCompleter{response: "t"}, &stubScorer{score: 0.9}, nil)
	registry.Register(topic)

	resolved, err := registry.Resolve(progress.StageTopicDiscovery)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved != topic {
		t.Fatal("resolved a different executor")
	}

	if _, err := registry.Resolve(progress.StageArticleReview); err == nil {
		t.Fatal("expected error for unregistered stage")
	}

	executors := registry.Executors()
	if len(executors) != 1 {
		t.Fatalf("executors map has %d entries, want 1", len(executors))
	}
}
