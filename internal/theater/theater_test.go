package theater

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atfloor/floorcli/internal/models"
)

func waitIdle(t *testing.T, th *Theater) {
	t.Helper()
	require.Eventually(t, func() bool { return !th.Running() }, 5*time.Second, time.Millisecond)
}

func TestVotingRunFullSequence(t *testing.T) {
	th := New(WithScale(0.001), WithSeed(1))
	th.Start(ModeVoting, models.FallbackPrices())
	waitIdle(t, th)

	assert.Equal(t, PhaseComplete, th.Phase())

	thoughts := th.Thoughts()
	require.Len(t, thoughts, 9, "one thought per roster agent")
	// Tier order is preserved: collectors first, executors last.
	assert.Equal(t, "Market-Data-Collector", thoughts[0].Agent)
	assert.Equal(t, "Trade-Executor", thoughts[8].Agent)

	for _, thought := range thoughts {
		assert.GreaterOrEqual(t, thought.Confidence, 65)
		assert.LessOrEqual(t, thought.Confidence, 95)
		assert.NotEmpty(t, thought.Text)
	}

	demo := th.DemoResult()
	require.NotNil(t, demo)
	assert.Equal(t, models.ActionBuy, demo.ConsensusAction)
	assert.Len(t, demo.AgentVotes, 9)
}

func TestAnalysisRunSkipsVotingPhases(t *testing.T) {
	th := New(WithScale(0.001), WithSeed(2))
	th.Start(ModeAnalysis, models.FallbackPrices())
	waitIdle(t, th)

	assert.Equal(t, PhaseAnalysisComplete, th.Phase())
	assert.Len(t, th.Thoughts(), 6, "tier 1 and tier 2 only")
	assert.Nil(t, th.DemoResult(), "no fabricated consensus in analysis mode")
}

func TestThoughtsInterpolateDisplayedPrices(t *testing.T) {
	th := New(WithScale(0.001), WithSeed(3))
	th.Start(ModeAnalysis, models.Prices{"BTC": 77777, "ETH": 3210, "SOL": 145.5, "BNB": 600})
	waitIdle(t, th)

	var found bool
	for _, thought := range th.Thoughts() {
		if thought.Agent == "Technical-Analyst" {
			found = true
			assert.Contains(t, thought.Text, "77777")
		}
	}
	assert.True(t, found)
}

func TestResetReturnsToInit(t *testing.T) {
	th := New(WithScale(1)) // real delays so the run is mid-flight
	th.Start(ModeVoting, models.FallbackPrices())
	require.True(t, th.Running())

	th.Reset()

	assert.Equal(t, PhaseInit, th.Phase())
	assert.Empty(t, th.Thoughts())
	assert.Nil(t, th.DemoResult())
	assert.False(t, th.Running())

	// A cancelled driver must not resurrect state afterwards.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, PhaseInit, th.Phase())
}

func TestStartWhileRunningIsNoop(t *testing.T) {
	th := New(WithScale(1))
	th.Start(ModeVoting, models.FallbackPrices())
	defer th.Reset()

	th.Start(ModeVoting, models.FallbackPrices())
	assert.True(t, th.Running())
}

func TestReconcilePrefersRealResult(t *testing.T) {
	th := New(WithScale(0.001), WithSeed(4))
	th.Start(ModeVoting, models.FallbackPrices())
	waitIdle(t, th)
	require.NotNil(t, th.DemoResult())

	real := &models.VotingResult{
		ConsensusAction:   models.ActionSell,
		OverallConfidence: 91,
		RiskAssessment:    "whale movement detected",
	}
	got := th.Reconcile(real)
	require.NotNil(t, got)
	assert.Equal(t, models.ActionSell, got.ConsensusAction, "real result wins over the demo action")

	// Without a real result the demo is the only thing left to show.
	fallback := th.Reconcile(nil)
	require.NotNil(t, fallback)
	assert.Equal(t, models.ActionBuy, fallback.ConsensusAction)
}

func TestRunClearsPreviousLog(t *testing.T) {
	th := New(WithScale(0.001), WithSeed(5))
	th.Start(ModeAnalysis, models.FallbackPrices())
	waitIdle(t, th)
	require.Len(t, th.Thoughts(), 6)

	th.Reset()
	th.Start(ModeAnalysis, models.FallbackPrices())
	waitIdle(t, th)
	assert.Len(t, th.Thoughts(), 6, "log is cleared at the start of each run")
}
