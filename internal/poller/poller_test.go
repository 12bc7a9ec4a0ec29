package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atfloor/floorcli/internal/config"
	"github.com/atfloor/floorcli/internal/logger"
	"github.com/atfloor/floorcli/internal/models"
	"github.com/atfloor/floorcli/internal/state"
)

// flakyAPI serves one good agents payload, then fails everything.
type flakyAPI struct {
	fakeAPI
	mu2        sync.Mutex
	agentCalls int
}

func (f *flakyAPI) AgentsStatus(ctx context.Context) (*models.AgentStatusResponse, error) {
	f.mu2.Lock()
	defer f.mu2.Unlock()
	f.agentCalls++
	if f.agentCalls > 1 {
		return nil, errors.New("backend warming up")
	}
	return &models.AgentStatusResponse{
		Agents: []models.AgentStatusWire{
			{ID: "onchain", Tier: 1, Status: models.StatusActive, Confidence: 77, LastAction: "Watching mempool"},
		},
	}, nil
}

func (f *flakyAPI) Decisions(ctx context.Context) ([]models.Decision, error) {
	return nil, errors.New("backend warming up")
}

func (f *flakyAPI) CurrentPrices(ctx context.Context) (models.Prices, error) {
	return nil, errors.New("backend warming up")
}

func TestPollerInitialFetchAndFailureRetention(t *testing.T) {
	api := &flakyAPI{}
	store := state.New()
	trigger := NewTrigger(api, store, logger.Discard())
	p := New(api, store, trigger, config.Default(), logger.Discard())

	require.NoError(t, p.Start(context.Background()))
	defer p.Stop()

	require.Eventually(t, func() bool {
		return store.Snapshot().Agents["onchain"].Confidence == 77
	}, time.Second, 5*time.Millisecond)

	// Later failures must not regress the merged view.
	p.fetchAgents()
	p.fetchDecisions()
	p.fetchPrices()

	snap := store.Snapshot()
	assert.Equal(t, 77, snap.Agents["onchain"].Confidence)
	assert.Equal(t, "Watching mempool", snap.Agents["onchain"].LastAction)
	// Seed fallback prices still present after the failed price fetch.
	assert.Equal(t, models.FallbackPrices(), snap.Prices)
}

func TestPollerStopIsIdempotentAndFast(t *testing.T) {
	api := &fakeAPI{result: models.VotingResult{ConsensusAction: models.ActionHold}}
	store := state.New()
	trigger := NewTrigger(api, store, logger.Discard())
	p := New(api, store, trigger, config.Default(), logger.Discard())

	require.NoError(t, p.Start(context.Background()))

	done := make(chan struct{})
	go func() {
		p.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return promptly")
	}
}
