package connection

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/atfloor/floorcli/internal/models"
	"github.com/atfloor/floorcli/internal/state"
)

// Dispatch consumes pushed frames and folds them into the store until the
// channel closes or ctx is cancelled. Frames that fail to decode are logged
// and skipped; a bad frame must never take the dashboard down.
func Dispatch(ctx context.Context, msgs <-chan models.WSMessage, store *state.Store, log *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			Apply(store, msg, log)
		}
	}
}

// Apply folds one frame into the store.
func Apply(store *state.Store, msg models.WSMessage, log *slog.Logger) {
	switch msg.Type {
	case models.MsgAgentsUpdate:
		var resp models.AgentStatusResponse
		if err := json.Unmarshal(msg.Data, &resp); err != nil {
			log.Warn("bad agents_update frame", "error", err)
			return
		}
		if err := resp.Validate(); err != nil {
			log.Warn("invalid agents_update frame", "error", err)
			return
		}
		store.ApplyAgents(resp.Agents)

	case models.MsgTradingDecision:
		// The backend pushes the full voting result of the cycle, the same
		// shape /trading/execute returns.
		var wire models.VotingResultWire
		if err := json.Unmarshal(msg.Data, &wire); err != nil {
			log.Warn("bad trading_decision frame", "error", err)
			return
		}
		v, err := wire.Decode()
		if err != nil {
			log.Warn("undecodable trading decision", "error", err)
			return
		}
		store.SetVotingResult(&v)
		store.AddDecision(models.DecisionFromVoting(&v, time.Now()))

	case models.MsgMarketUpdate:
		var resp models.PricesResponse
		if err := json.Unmarshal(msg.Data, &resp); err != nil {
			log.Warn("bad market_update frame", "error", err)
			return
		}
		if err := resp.Validate(); err != nil {
			log.Warn("empty market_update frame", "error", err)
			return
		}
		store.SetPrices(resp.Prices)

	case models.MsgConnectionConfirmed, models.MsgSystemStatus, models.MsgEcho:
		// Informational only.

	default:
		log.Debug("unknown frame type", "type", msg.Type)
	}
}
