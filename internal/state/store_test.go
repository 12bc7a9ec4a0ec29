package state

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atfloor/floorcli/internal/models"
)

func TestMergeRetainsAgentsMissingFromResponse(t *testing.T) {
	store := New()

	store.ApplyAgents([]models.AgentStatusWire{
		{ID: "risk", Name: "Risk-Calculator", Tier: 2, Status: models.StatusActive, Confidence: 88, LastAction: "VaR recalculated"},
	})
	before := store.Snapshot().Agents["risk"]
	require.Equal(t, 88, before.Confidence)

	// Next response omits "risk" entirely; its fields must survive intact.
	store.ApplyAgents([]models.AgentStatusWire{
		{ID: "sentiment", Tier: 1, Status: models.StatusProcessing, Confidence: 71, LastAction: "Scanning social feeds"},
	})

	after := store.Snapshot().Agents["risk"]
	assert.Equal(t, before, after)
}

func TestMergeRetainsFieldsOmittedInEntry(t *testing.T) {
	store := New()

	store.ApplyAgents([]models.AgentStatusWire{
		{ID: "executor", Name: "Trade-Executor", Tier: 3, Status: models.StatusDeciding, Confidence: 90, LastAction: "Sizing BTC position"},
	})
	// Partial entry: no name, zeroed tier, unknown status already blanked by
	// validation. Only confidence is replaced wholesale.
	store.ApplyAgents([]models.AgentStatusWire{
		{ID: "executor", Confidence: 42},
	})

	got := store.Snapshot().Agents["executor"]
	assert.Equal(t, "Trade-Executor", got.Name)
	assert.Equal(t, 3, got.Tier)
	assert.Equal(t, models.StatusDeciding, got.Status)
	assert.Equal(t, "Sizing BTC position", got.LastAction)
	assert.Equal(t, 42, got.Confidence)
}

func TestUnknownAgentIDsIgnored(t *testing.T) {
	store := New()
	store.ApplyAgents([]models.AgentStatusWire{
		{ID: "quant_wizard", Tier: 1, Confidence: 99, LastAction: "should not appear"},
	})

	snap := store.Snapshot()
	assert.Len(t, snap.Agents, 9)
	assert.NotContains(t, snap.Agents, "quant_wizard")
}

func TestDecisionListBoundedMostRecentFirst(t *testing.T) {
	store := New()
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 8; i++ {
		store.AddDecision(models.Decision{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Asset:     "BTC",
			Action:    models.ActionHold,
			Reasoning: fmt.Sprintf("decision %d", i),
		})
	}

	decisions := store.Snapshot().Decisions
	require.Len(t, decisions, models.MaxDecisions)
	assert.Equal(t, "decision 7", decisions[0].Reasoning)
	assert.Equal(t, "decision 3", decisions[4].Reasoning)
}

func TestFetchedDecisionsEmptyRetainsExisting(t *testing.T) {
	store := New()
	store.AddDecision(models.Decision{Asset: "ETH", Action: models.ActionBuy})

	store.ApplyFetchedDecisions(nil)

	require.Len(t, store.Snapshot().Decisions, 1)
}

func TestSetPricesIgnoresEmpty(t *testing.T) {
	store := New()
	store.SetPrices(models.Prices{"BTC": 50000})
	store.SetPrices(models.Prices{})

	assert.Equal(t, 50000.0, store.PricesSnapshot()["BTC"])
}

func TestSubscribeCoalescesNotifications(t *testing.T) {
	store := New()
	ch := store.Subscribe()

	for i := 0; i < 10; i++ {
		store.SetConnection(ConnectionStatus(i % 3))
	}

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected a notification")
	}
}

func TestSnapshotIsIndependentCopy(t *testing.T) {
	store := New()
	snap := store.Snapshot()
	snap.Prices["BTC"] = -1

	assert.NotEqual(t, -1.0, store.PricesSnapshot()["BTC"])
}
