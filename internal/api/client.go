package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/atfloor/floorcli/internal/models"
)

// Client talks to the Trading Floor HTTP API. It performs exactly one
// validating decode per response and never retries; cadence and failure
// policy belong to the poller.
type Client struct {
	http *resty.Client
}

// New creates a client against the given base URL.
func New(baseURL string, timeout time.Duration) *Client {
	c := resty.New()
	c.SetBaseURL(baseURL)
	c.SetTimeout(timeout)
	c.SetHeader("Accept", "application/json")
	return &Client{http: c}
}

// Health probes GET /health. Any transport error or non-2xx status is a
// failure; the body is ignored.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).Get("/health")
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("health check: status %d", resp.StatusCode())
	}
	return nil
}

// AgentsStatus fetches GET /agents/status and validates each entry.
func (c *Client) AgentsStatus(ctx context.Context) (*models.AgentStatusResponse, error) {
	var out models.AgentStatusResponse
	if err := c.getJSON(ctx, "/agents/status", nil, &out); err != nil {
		return nil, err
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

// Decisions fetches GET /trading/decisions. Entries with unknown actions
// are dropped, not fatal.
func (c *Client) Decisions(ctx context.Context) ([]models.Decision, error) {
	var wire models.DecisionsResponse
	if err := c.getJSON(ctx, "/trading/decisions", nil, &wire); err != nil {
		return nil, err
	}
	decisions := make([]models.Decision, 0, len(wire.Decisions))
	for i := range wire.Decisions {
		d, err := wire.Decisions[i].Decode()
		if err != nil {
			continue
		}
		decisions = append(decisions, d)
	}
	return decisions, nil
}

// CurrentPrices fetches GET /market/current.
func (c *Client) CurrentPrices(ctx context.Context) (models.Prices, error) {
	var out models.PricesResponse
	if err := c.getJSON(ctx, "/market/current", nil, &out); err != nil {
		return nil, err
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out.Prices, nil
}

// HistoricalPrices fetches GET /market/historical for one symbol.
func (c *Client) HistoricalPrices(ctx context.Context, symbol, period string) (*models.HistoricalResponse, error) {
	var out models.HistoricalResponse
	params := map[string]string{"symbol": symbol, "period": period}
	if err := c.getJSON(ctx, "/market/historical", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExecuteTrading posts a full trading cycle and decodes the voting result.
func (c *Client) ExecuteTrading(ctx context.Context, req models.MarketDataRequest) (*models.VotingResult, error) {
	var wire models.VotingResultWire
	if err := c.postJSON(ctx, "/trading/execute", req, &wire); err != nil {
		return nil, err
	}
	result, err := wire.Decode()
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Analyze posts an analysis-only cycle (tier 1 + tier 2, no voting).
func (c *Client) Analyze(ctx context.Context, req models.MarketDataRequest) (*models.AnalysisResponse, error) {
	var out models.AnalysisResponse
	if err := c.postJSON(ctx, "/trading/analyze", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TradingHistory fetches persisted voting records from GET /trading/history.
func (c *Client) TradingHistory(ctx context.Context, limit int) (*models.HistoryResponse, error) {
	return c.history(ctx, "/trading/history", limit)
}

// AnalysisHistory fetches persisted analysis records from GET /analysis/history.
func (c *Client) AnalysisHistory(ctx context.Context, limit int) (*models.HistoryResponse, error) {
	return c.history(ctx, "/analysis/history", limit)
}

func (c *Client) history(ctx context.Context, path string, limit int) (*models.HistoryResponse, error) {
	var out models.HistoryResponse
	params := map[string]string{"limit": strconv.Itoa(limit)}
	if err := c.getJSON(ctx, path, params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params map[string]string, out any) error {
	req := c.http.R().SetContext(ctx)
	if params != nil {
		req.SetQueryParams(params)
	}
	resp, err := req.Get(path)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	if resp.IsError() {
		return fmt.Errorf("GET %s: status %d", path, resp.StatusCode())
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("GET %s: decode: %w", path, err)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(path)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	if resp.IsError() {
		return fmt.Errorf("POST %s: status %d", path, resp.StatusCode())
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("POST %s: decode: %w", path, err)
	}
	return nil
}
