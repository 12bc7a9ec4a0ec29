package theater

import (
	"fmt"
	"time"

	"github.com/atfloor/floorcli/internal/models"
)

// Per-member delays grow with tier depth so the narrative feels like
// heavier reasoning the deeper it gets.
const (
	dataCollectionDelay = 1 * time.Second
	tier1Delay          = 1500 * time.Millisecond
	tier2Delay          = 2 * time.Second
	tier3Delay          = 3 * time.Second
	consensusDelay      = 2 * time.Second
)

// Per-tier confidence bands for the fabricated thoughts.
var confidenceBands = map[int][2]int{
	1: {70, 85},
	2: {65, 90},
	3: {75, 95},
}

// cannedThought interpolates the displayed price snapshot into a fixed
// reasoning line per agent.
func cannedThought(agentID string, prices models.Prices) string {
	btc := prices["BTC"]
	eth := prices["ETH"]
	sol := prices["SOL"]

	switch agentID {
	case "market_data":
		return fmt.Sprintf("Aggregated order books across 12 venues. BTC trading at $%.0f with tightening spreads.", btc)
	case "sentiment":
		return fmt.Sprintf("Social volume up 18%% in the last hour. Fear & Greed holding neutral while BTC sits at $%.0f.", btc)
	case "onchain":
		return fmt.Sprintf("Exchange netflow negative for 6 consecutive blocks. Whale wallets accumulating near $%.0f.", btc)
	case "technical":
		return fmt.Sprintf("BTC holding above the 50-period EMA at $%.0f. RSI at 58, MACD histogram flattening.", btc)
	case "risk":
		return fmt.Sprintf("Portfolio VaR within limits. ETH at $%.0f keeps cross-asset exposure under the 2%% ceiling.", eth)
	case "correlation":
		return fmt.Sprintf("BTC-ETH 30d correlation at 0.84; SOL decoupling at $%.2f widens the diversification window.", sol)
	case "strategy":
		return fmt.Sprintf("Synthesizing tier reports. Momentum and on-chain signals align around the $%.0f level.", btc)
	case "portfolio":
		return "Rebalancing proposal drafted: target weights preserve the risk budget across all four assets."
	case "executor":
		return "Execution plan staged. Slippage model suggests TWAP over 15 minutes for any resulting order."
	}
	return "Processing market data."
}

func tierSteps(tier int, delay time.Duration, prices models.Prices) []step {
	band := confidenceBands[tier]
	steps := make([]step, 0, len(models.Roster))
	for _, entry := range models.Roster {
		if entry.Tier != tier {
			continue
		}
		id, name := entry.ID, entry.Name
		steps = append(steps, step{delay: delay, fn: func(t *Theater) {
			t.appendThought(name, cannedThought(id, prices), band[0], band[1])
		}})
	}
	return steps
}

// buildScript lays out the full timed sequence for one run. The voting
// variant ends with a fabricated unanimous consensus purely for visual
// payoff; the analysis variant stops after tier 2.
func buildScript(mode Mode, prices models.Prices) []step {
	var steps []step

	steps = append(steps,
		step{delay: 0, fn: func(t *Theater) { t.setPhase(PhaseDataCollection) }},
		step{delay: dataCollectionDelay, fn: func(t *Theater) { t.setPhase(PhaseTier1) }},
	)
	steps = append(steps, tierSteps(1, tier1Delay, prices)...)
	steps = append(steps, step{delay: 0, fn: func(t *Theater) { t.setPhase(PhaseTier2) }})
	steps = append(steps, tierSteps(2, tier2Delay, prices)...)

	if mode == ModeAnalysis {
		steps = append(steps, step{delay: 0, fn: func(t *Theater) {
			t.setPhase(PhaseAnalysisComplete)
		}})
		return steps
	}

	steps = append(steps, step{delay: 0, fn: func(t *Theater) { t.setPhase(PhaseTier3) }})
	steps = append(steps, tierSteps(3, tier3Delay, prices)...)
	steps = append(steps,
		step{delay: 0, fn: func(t *Theater) { t.setPhase(PhaseConsensus) }},
		step{delay: consensusDelay, fn: func(t *Theater) {
			t.setDemo(demoConsensus(t))
			t.setPhase(PhaseComplete)
		}},
	)
	return steps
}

// demoConsensus fabricates the visual-payoff result: fixed action,
// unanimous votes across all nine agents, canned summary. Display only.
func demoConsensus(t *Theater) models.VotingResult {
	votes := make(map[string]models.Action, len(models.Roster))
	for _, entry := range models.Roster {
		votes[entry.ID] = models.ActionBuy
	}
	return models.VotingResult{
		ConsensusAction:   models.ActionBuy,
		OverallConfidence: float64(80 + t.rng.Intn(11)),
		AgentVotes:        votes,
		DemocracySummary:  "All nine agents reached unanimous consensus after three-tier deliberation.",
		Timestamp:         t.now().UTC(),
	}
}
