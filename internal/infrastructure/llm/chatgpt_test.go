package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ContentForge/internal/config"
)

func TestCompleteReturnsFirstChoice(t *testing.T) {
	t.Parallel()

	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")

		var payload struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(payload.Messages) != 2 || payload.Messages[0].Role != "system" {
			t.Errorf("unexpected messages: %+v", payload.Messages)
		}

		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"a fine topic"}}]}`))
	}))
	defer server.Close()

	client := NewChatGPTClient(config.ChatGPTConfig{
		Endpoint: server.URL,
		Model:    "gpt-4o-mini",
		APIKey:   "key",
	})

	text, err := client.Complete(context.Background(), "system prompt", "user prompt")
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if text != "a fine topic" {
		t.Fatalf("unexpected completion: %q", text)
	}
	if gotAuth != "Bearer key" {
		t.Fatalf("authorization header %q", gotAuth)
	}
}

func TestCompleteErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewChatGPTClient(config.ChatGPTConfig{Endpoint: server.URL, Model: "m", APIKey: "k"})
	if _, err := client.Complete(context.Background(), "", "prompt"); err == nil {
		t.Fatal("expected error on HTTP failure status")
	}

	misconfigured := NewChatGPTClient(config.ChatGPTConfig{})
	if _, err := misconfigured.Complete(context.Background(), "", "prompt"); err == nil {
		t.Fatal("expected error from misconfigured client")
	}
}
