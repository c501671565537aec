// Package websearch queries a SearxNG-compatible metasearch endpoint
// as the fallback evidence source.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/marketmind/researchd/internal/domain"
)

// Compile-time check: Client implements the web search capability.
var _ domain.WebSearchTool = (*Client)(nil)

// Config holds the search service settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client is an HTTP search client.
type Client struct {
	http    *http.Client
	baseURL string
	logger  *zap.Logger
}

// NewClient creates a search client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: cfg.BaseURL,
		logger:  logger,
	}
}

type searchResponse struct {
	Results []struct {
		Title   string `json:"title"`
		Content string `json:"content"`
		URL     string `json:"url"`
		Engine  string `json:"engine"`
	} `json:"results"`
}

// Search implements domain.WebSearchTool.
func (c *Client) Search(ctx context.Context, query string, k int) ([]domain.WebHit, error) {
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if k <= 0 {
		k = 5
	}

	q := url.Values{"q": {query}, "format": {"json"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("web search: %w", domain.ErrSourceUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("search service error", zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("web search: status %d: %w", resp.StatusCode, domain.ErrSourceUnavailable)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	hits := make([]domain.WebHit, 0, k)
	for _, r := range body.Results {
		if len(hits) == k {
			break
		}
		hits = append(hits, domain.WebHit{
			Title:   r.Title,
			Snippet: r.Content,
			URL:     r.URL,
			Source:  r.Engine,
		})
	}
	return hits, nil
}
