// Package marketdata fetches live instrument snapshots from a
// quote-API-compatible HTTP service.
package marketdata

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

// Compile-time check: Client implements the market data capability.
var _ domain.MarketDataTool = (*Client)(nil)

// Config holds the quote service settings.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client is an HTTP quote client.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	logger  *zap.Logger
}

// NewClient creates a quote client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		logger:  logger,
	}
}

// quoteResponse mirrors the quote service payload.
type quoteResponse struct {
	Symbol       string             `json:"symbol"`
	Name         string             `json:"name"`
	Price        float64            `json:"price"`
	ChangePct    float64            `json:"change_pct"`
	Currency     string             `json:"currency"`
	Fundamentals map[string]float64 `json:"fundamentals,omitempty"`
	Technicals   map[string]float64 `json:"technicals,omitempty"`
	AsOf         time.Time          `json:"as_of"`
}

// Snapshot implements domain.MarketDataTool. deep requests the extended
// payload with fundamentals and technicals.
func (c *Client) Snapshot(ctx context.Context, symbol string, deep bool) (domain.MarketSnapshot, error) {
	if symbol == "" {
		return domain.MarketSnapshot{}, fmt.Errorf("symbol is required")
	}

	q := url.Values{"symbol": {symbol}}
	if deep {
		q.Set("modules", "fundamentals,technicals")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/quote?"+q.Encode(), nil)
	if err != nil {
		return domain.MarketSnapshot{}, fmt.Errorf("build quote request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.MarketSnapshot{}, fmt.Errorf("quote %s: %w", symbol, domain.ErrSourceUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("quote service error",
			zap.String("symbol", symbol),
			zap.Int("status", resp.StatusCode),
		)
		return domain.MarketSnapshot{}, fmt.Errorf("quote %s: status %d: %w",
			symbol, resp.StatusCode, domain.ErrSourceUnavailable)
	}

	var body quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.MarketSnapshot{}, fmt.Errorf("decode quote %s: %w", symbol, err)
	}

	snap := domain.MarketSnapshot{
		Symbol:       body.Symbol,
		Name:         body.Name,
		Price:        body.Price,
		ChangePct:    body.ChangePct,
		Currency:     body.Currency,
		Fundamentals: body.Fundamentals,
		Technicals:   body.Technicals,
		AsOf:         body.AsOf,
	}
	if snap.Symbol == "" {
		snap.Symbol = symbol
	}
	if snap.AsOf.IsZero() {
		snap.AsOf = time.Now()
	}
	return snap, nil
}
