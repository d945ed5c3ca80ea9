package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ContentForge/internal/domain"
	"ContentForge/internal/ports"
	"ContentForge/internal/progress"
)

// Client talks to an external scoring service that rates stage outputs.
// It is the automatic half of the feedback loop; human review plugs into
// the same port.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ ports.FeedbackScorer = (*Client)(nil)

// NewClient creates a reusable HTTP client.
func NewClient(endpoint, apiKey string) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
}

// Score submits the item's stage output and returns the service's rating.
func (c *Client) Score(ctx context.Context, stage progress.Stage, item domain.WorkItem) (float64, error) {
	if c.http == nil {
		return 0, fmt.Errorf("scoring client misconfigured")
	}

	payload := map[string]any{
		"stage":   string(stage),
		"topic":   item.Topic,
		"title":   item.Title,
		"notes":   item.Notes,
		"content": item.Content,
	}

	var resp struct {
		Score float64 `json:"score"`
	}
	if err := c.post(ctx, "/score", payload, &resp); err != nil {
		return 0, err
	}

	return resp.Score, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			return fmt.Errorf("unexpected status %s, close body: %v", resp.Status, closeErr)
		}
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if v == nil {
		if err := resp.Body.Close(); err != nil {
			return fmt.Errorf("close response body: %w", err)
		}
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		_ = resp.Body.Close()
		return fmt.Errorf("decode response: %w", err)
	}

	if err := resp.Body.Close(); err != nil {
		return fmt.Errorf("close response body: %w", err)
	}

	return nil
}
