package models

import (
	"fmt"
	"strings"
	"time"
)

// Action is a trading action the floor can resolve to.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// ParseAction normalizes a wire action string. Anything outside the known
// set is an error so malformed responses never reach the store.
func ParseAction(s string) (Action, error) {
	switch Action(strings.ToUpper(strings.TrimSpace(s))) {
	case ActionBuy:
		return ActionBuy, nil
	case ActionSell:
		return ActionSell, nil
	case ActionHold:
		return ActionHold, nil
	}
	return "", fmt.Errorf("unknown action %q", s)
}

// Decision is one entry in the bounded, most-recent-first decision list.
type Decision struct {
	Timestamp  time.Time `json:"timestamp"`
	Asset      string    `json:"asset"`
	Action     Action    `json:"action"`
	Confidence int       `json:"confidence"`
	Reasoning  string    `json:"reasoning"`
}

// MaxDecisions caps the visible decision history.
const MaxDecisions = 5

// VotingResult is the latest democratic voting snapshot. Each voting call
// overwrites it entirely; there is no voting history on the client.
type VotingResult struct {
	ConsensusAction   Action            `json:"consensus_action"`
	OverallConfidence float64           `json:"overall_confidence"`
	AgentVotes        map[string]Action `json:"agent_votes"`
	RiskAssessment    string            `json:"risk_assessment"`
	DemocracySummary  string            `json:"democracy_summary"`
	Timestamp         time.Time         `json:"timestamp"`
}

// DecisionFromVoting converts an authoritative voting result into the
// decision entry shown in history. Only real network results come through
// here, whether fetched or pushed; the fabricated theater outcome never
// does.
func DecisionFromVoting(v *VotingResult, now time.Time) Decision {
	reasoning := v.DemocracySummary
	if reasoning == "" {
		reasoning = v.RiskAssessment
	}
	ts := v.Timestamp
	if ts.IsZero() {
		ts = now.UTC()
	}
	return Decision{
		Timestamp:  ts,
		Asset:      "PORTFOLIO",
		Action:     v.ConsensusAction,
		Confidence: int(v.OverallConfidence + 0.5),
		Reasoning:  reasoning,
	}
}

// timestampLayouts covers the formats the backend has been seen emitting:
// RFC3339 with and without sub-seconds, plus Python isoformat without a zone.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

// ParseTimestamp normalizes a wire timestamp to a UTC instant. The zero
// time is returned when nothing matches; callers substitute their own
// notion of now.
func ParseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
