package poller

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/atfloor/floorcli/internal/models"
	"github.com/atfloor/floorcli/internal/state"
)

// FloorAPI is the slice of the HTTP client the poller and trigger consume.
type FloorAPI interface {
	AgentsStatus(ctx context.Context) (*models.AgentStatusResponse, error)
	Decisions(ctx context.Context) ([]models.Decision, error)
	CurrentPrices(ctx context.Context) (models.Prices, error)
	ExecuteTrading(ctx context.Context, req models.MarketDataRequest) (*models.VotingResult, error)
	Analyze(ctx context.Context, req models.MarketDataRequest) (*models.AnalysisResponse, error)
}

// Trigger wraps the outbound trading-cycle calls with pre-flight price
// enrichment and post-flight reconciliation. It never lets a failure
// escape: callers always receive a settled (result, ok) pair. An in-flight
// guard rejects overlap since the backend cycle is slow and not
// reentrant-safe.
type Trigger struct {
	api      FloorAPI
	store    *state.Store
	log      *slog.Logger
	inFlight atomic.Bool
}

// NewTrigger wires a trigger to the store.
func NewTrigger(api FloorAPI, store *state.Store, log *slog.Logger) *Trigger {
	return &Trigger{api: api, store: store, log: log}
}

// InFlight reports whether a cycle is currently running; the UI disables
// its controls while true.
func (t *Trigger) InFlight() bool {
	return t.inFlight.Load()
}

// gatherPrices fetches a fresh price set for the outgoing payload. When the
// live fetch fails the hardcoded fallback set is substituted and the
// trigger label carries the _fallback suffix so downstream consumers can
// tell synthetic inputs from real ones.
func (t *Trigger) gatherPrices(ctx context.Context, scheduled bool) (models.Prices, string) {
	live, manual := models.TriggerScheduled, models.TriggerManual
	liveFb, manualFb := models.TriggerScheduledFallback, models.TriggerManualFallback

	prices, err := t.api.CurrentPrices(ctx)
	if err != nil {
		t.log.Warn("live price fetch failed, using fallback payload", "error", err)
		if scheduled {
			return models.FallbackPrices(), liveFb
		}
		return models.FallbackPrices(), manualFb
	}
	t.store.SetPrices(prices)
	if scheduled {
		return prices, live
	}
	return prices, manual
}

// ExecuteVoting runs one full trading cycle. On success the voting snapshot
// is stored and, when a consensus action is present, a decision synthesized
// from the real result is prepended to the bounded history. Failures log
// and return (nil, false); the user retries manually.
func (t *Trigger) ExecuteVoting(ctx context.Context, scheduled bool) (*models.VotingResult, bool) {
	if !t.inFlight.CompareAndSwap(false, true) {
		t.log.Debug("trading cycle already in flight, skipping")
		return nil, false
	}
	defer t.inFlight.Store(false)

	prices, trigger := t.gatherPrices(ctx, scheduled)
	req := models.NewMarketDataRequest(prices, trigger, time.Now())

	result, err := t.api.ExecuteTrading(ctx, req)
	if err != nil {
		t.log.Warn("trading cycle failed", "trigger", trigger, "error", err)
		return nil, false
	}

	t.store.SetVotingResult(result)
	if result.ConsensusAction != "" {
		t.store.AddDecision(models.DecisionFromVoting(result, time.Now()))
	}
	t.log.Info("trading cycle complete",
		"action", result.ConsensusAction,
		"confidence", result.OverallConfidence,
		"trigger", trigger)
	return result, true
}

// RunAnalysis runs an analysis-only cycle (tier 1 + tier 2, no voting).
func (t *Trigger) RunAnalysis(ctx context.Context, scheduled bool) (*models.AnalysisResponse, bool) {
	if !t.inFlight.CompareAndSwap(false, true) {
		t.log.Debug("analysis already in flight, skipping")
		return nil, false
	}
	defer t.inFlight.Store(false)

	prices, trigger := t.gatherPrices(ctx, scheduled)
	req := models.NewMarketDataRequest(prices, trigger, time.Now())

	resp, err := t.api.Analyze(ctx, req)
	if err != nil {
		t.log.Warn("analysis cycle failed", "trigger", trigger, "error", err)
		return nil, false
	}
	return resp, true
}
