package research

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ContentForge/internal/config"
	"ContentForge/internal/ports"
)

const defaultMaxSnippets = 8

// WebSource pulls reference snippets for a topic from configured sites.
type WebSource struct {
	client      *http.Client
	sites       []config.ResearchSiteConfig
	maxSnippets int
	logger      *slog.Logger
}

var _ ports.ResearchSource = (*WebSource)(nil)

// NewWebSource wires an HTTP client; maxSnippets defaults to 8.
func NewWebSource(client *http.Client, sites []config.ResearchSiteConfig, logger *slog.Logger) *WebSource {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &WebSource{
		client:      client,
		sites:       sites,
		maxSnippets: defaultMaxSnippets,
		logger:      logger,
	}
}

// Gather walks the configured sites and collects text snippets that mention
// the topic. An unreachable site is skipped, not fatal.
func (s *WebSource) Gather(ctx context.Context, topic string) ([]string, error) {
	if len(s.sites) == 0 {
		return nil, fmt.Errorf("no research sites configured")
	}

	keywords := topicKeywords(topic)
	snippets := make([]string, 0, s.maxSnippets)
	seen := map[string]struct{}{}

	for _, site := range s.sites {
		if len(snippets) >= s.maxSnippets {
			break
		}

		doc, err := s.fetchDocument(ctx, site.URL)
		if err != nil {
			s.debug("site skipped", "site", site.Name, "error", err)
			continue
		}

		for _, snippet := range extractSnippets(doc, keywords, s.maxSnippets-len(snippets)) {
			if _, ok := seen[snippet]; ok {
				continue
			}
			seen[snippet] = struct{}{}
			snippets = append(snippets, snippet)
		}
	}

	return snippets, nil
}

func (s *WebSource) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "ContentForge/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("site returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

// extractSnippets returns heading/paragraph texts matching any keyword,
// capped at limit. With no keywords every candidate matches.
func extractSnippets(doc *goquery.Document, keywords []string, limit int) []string {
	var collected []string

	doc.Find("h1, h2, h3, p, dd").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		text := strings.Join(strings.Fields(sel.Text()), " ")
		if text == "" {
			return true
		}
		if !matchesAny(text, keywords) {
			return true
		}
		collected = append(collected, text)
		return len(collected) < limit
	})

	return collected
}

func matchesAny(text string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	lower := strings.ToLower(text)
	for _, keyword := range keywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// topicKeywords splits a topic into lowercase terms worth matching on,
// dropping short stop-ish words.
func topicKeywords(topic string) []string {
	fields := strings.Fields(strings.ToLower(topic))
	keywords := make([]string, 0, len(fields))
	for _, field := range fields {
		field = strings.Trim(field, ".,:;!?\"'()")
		if len(field) < 4 {
			continue
		}
		keywords = append(keywords, field)
	}
	return keywords
}

func (s *WebSource) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
