package ml

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ContentForge/internal/domain"
	"ContentForge/internal/progress"
)

func TestScore(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/score" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if payload["stage"] != "article_review" {
			t.Errorf("stage %v, want article_review", payload["stage"])
		}

		_, _ = w.Write([]byte(`{"score": 0.83}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "key")
	score, err := client.Score(context.Background(), progress.StageArticleReview, domain.WorkItem{
		Topic:   "edge",
		Content: "final text",
	})
	if err != nil {
		t.Fatalf("Score error: %v", err)
	}
	if score != 0.83 {
		t.Fatalf("score %f, want 0.83", score)
	}
}

func TestScoreServiceFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	if _, err := client.Score(context.Background(), progress.StageTopicDiscovery, domain.WorkItem{}); err == nil {
		t.Fatal("expected error on failure status")
	}
}
