package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/atfloor/floorcli/internal/models"
)

func TestRenderVotingResult(t *testing.T) {
	out := renderVotingResult(&models.VotingResult{
		ConsensusAction:   models.ActionBuy,
		OverallConfidence: 82.5,
		AgentVotes: map[string]models.Action{
			"risk":     models.ActionHold,
			"strategy": models.ActionBuy,
		},
		RiskAssessment:   "moderate exposure",
		DemocracySummary: "7 of 9 agents favor entry",
	})

	assert.Contains(t, out, "DEMOCRATIC VOTING RESULT")
	assert.Contains(t, out, "BUY")
	assert.Contains(t, out, "82.5")
	assert.Contains(t, out, "Risk-Calculator")
	assert.Contains(t, out, "Strategy-Synthesizer")
	assert.Contains(t, out, "7 of 9 agents favor entry")
	// Agents that did not vote stay out of the breakdown.
	assert.NotContains(t, out, "Trade-Executor")
}

func TestRenderHistory(t *testing.T) {
	out := renderHistory(&historyResult{
		title: "TRADING HISTORY",
		resp: &models.HistoryResponse{
			Records: []models.HistoryRecord{
				{
					ID:        "01J5ZX3Q9W3F0M3V1B2N4C5D6E",
					Kind:      "trading_decision",
					CreatedAt: "2026-08-30T12:00:00Z",
					Payload: map[string]any{
						"consensus_action":   "SELL",
						"overall_confidence": 91.0,
					},
				},
			},
			TotalCount: 4,
		},
	})

	assert.Contains(t, out, "TRADING HISTORY")
	assert.Contains(t, out, "SELL")
	assert.Contains(t, out, "01J5ZX3Q9W3F0M3V1B2N4C5D6E")
	assert.Contains(t, out, "1 of 4 records")
}

func TestRenderHistoryEmpty(t *testing.T) {
	out := renderHistory(&historyResult{title: "ANALYSIS HISTORY", resp: &models.HistoryResponse{}})
	assert.Contains(t, out, "no records")
}
