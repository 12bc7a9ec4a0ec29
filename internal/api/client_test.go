package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atfloor/floorcli/internal/models"
)

func newTestClient(handler http.Handler) (*Client, func()) {
	srv := httptest.NewServer(handler)
	return New(srv.URL, 5 * time.Second), srv.Close
}

func TestHealthNon2xxIsError(t *testing.T) {
	client, done := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer done()

	require.Error(t, client.Health(context.Background()))
}

func TestAgentsStatusDropsInvalidEntries(t *testing.T) {
	client, done := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/agents/status", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"agents": [
				{"id": "risk", "name": "Risk-Calculator", "tier": 2, "status": "active", "confidence": 87.4, "last_action": "VaR updated"},
				{"name": "no-id-agent", "tier": 1, "status": "active", "confidence": 50},
				{"id": "sentiment", "tier": 9, "status": "meditating", "confidence": 140}
			],
			"system_status": "operational"
		}`))
	}))
	defer done()

	resp, err := client.AgentsStatus(context.Background())
	require.NoError(t, err)
	require.Len(t, resp.Agents, 2)

	assert.Equal(t, "risk", resp.Agents[0].ID)
	assert.Equal(t, 87, resp.Agents[0].RoundedConfidence())

	// Out-of-range fields are defaulted, not fatal.
	assert.Equal(t, "sentiment", resp.Agents[1].ID)
	assert.Equal(t, 0, resp.Agents[1].Tier)
	assert.Equal(t, "", resp.Agents[1].Status)
	assert.Equal(t, 100, resp.Agents[1].RoundedConfidence())
}

func TestDecisionsSkipsUnknownActions(t *testing.T) {
	client, done := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"decisions": [
			{"timestamp": "2026-08-30T12:00:00Z", "asset": "BTC", "action": "buy", "confidence": 82, "reasoning": "momentum"},
			{"timestamp": "2026-08-30T12:01:00Z", "asset": "ETH", "action": "YOLO", "confidence": 99}
		]}`))
	}))
	defer done()

	decisions, err := client.Decisions(context.Background())
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	assert.Equal(t, models.ActionBuy, decisions[0].Action)
	assert.Equal(t, "BTC", decisions[0].Asset)
}

func TestCurrentPricesRejectsEmpty(t *testing.T) {
	client, done := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"prices": {"BTC": 0, "ETH": -3}}`))
	}))
	defer done()

	_, err := client.CurrentPrices(context.Background())
	require.Error(t, err)
}

func TestExecuteTradingDecodesVotes(t *testing.T) {
	client, done := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/trading/execute", r.URL.Path)
		w.Write([]byte(`{
			"consensus_action": "SELL",
			"overall_confidence": 91,
			"agent_votes": {"risk": "SELL", "executor": "SELL", "intruder": "SELL", "strategy": "maybe"},
			"risk_assessment": "whale movement detected",
			"democracy_summary": "8 of 9 agents aligned"
		}`))
	}))
	defer done()

	req := models.NewMarketDataRequest(models.FallbackPrices(), models.TriggerManualFallback, time.Now())
	result, err := client.ExecuteTrading(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, models.ActionSell, result.ConsensusAction)
	assert.InDelta(t, 91.0, result.OverallConfidence, 0.001)
	assert.Equal(t, "whale movement detected", result.RiskAssessment)
	// Unknown agent ids and unparsable votes are dropped.
	assert.Len(t, result.AgentVotes, 2)
	assert.NotContains(t, result.AgentVotes, "intruder")
	assert.NotContains(t, result.AgentVotes, "strategy")
}
