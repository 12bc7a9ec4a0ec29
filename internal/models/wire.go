package models

import (
	"fmt"
	"math"
)

// Wire shapes for the Trading Floor HTTP API. Each carries a Validate that
// runs once at the network boundary so duck-typed responses are rejected or
// defaulted before they reach the merge logic.

// AgentStatusWire is one entry of GET /agents/status.
type AgentStatusWire struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Tier        int     `json:"tier"`
	Status      string  `json:"status"`
	Confidence  float64 `json:"confidence"`
	LastAction  string  `json:"last_action"`
	LastUpdated string  `json:"last_updated"`
}

// Validate defaults out-of-range fields in place. Only a missing id is a
// hard error; everything else degrades to a safe value.
func (w *AgentStatusWire) Validate() error {
	if w.ID == "" {
		return fmt.Errorf("agent status entry missing id")
	}
	if w.Tier < 1 || w.Tier > 3 {
		w.Tier = 0 // unknown, merge keeps the local tier
	}
	switch w.Status {
	case StatusActive, StatusProcessing, StatusDeciding, StatusStandby, StatusFallback:
	default:
		w.Status = ""
	}
	if math.IsNaN(w.Confidence) || w.Confidence < 0 {
		w.Confidence = 0
	}
	if w.Confidence > 100 {
		w.Confidence = 100
	}
	return nil
}

// RoundedConfidence converts the wire float to the 0-100 integer the view
// model holds.
func (w *AgentStatusWire) RoundedConfidence() int {
	return int(math.Round(w.Confidence))
}

// AgentStatusResponse is the full GET /agents/status body.
type AgentStatusResponse struct {
	Agents       []AgentStatusWire `json:"agents"`
	Timestamp    string            `json:"timestamp"`
	SystemStatus string            `json:"system_status"`
}

// Validate drops entries that fail their own validation rather than failing
// the whole response; a backend still warming up may return a subset.
func (r *AgentStatusResponse) Validate() error {
	valid := r.Agents[:0]
	for i := range r.Agents {
		if err := r.Agents[i].Validate(); err == nil {
			valid = append(valid, r.Agents[i])
		}
	}
	r.Agents = valid
	return nil
}

// DecisionWire is one entry of GET /trading/decisions.
type DecisionWire struct {
	Timestamp  string  `json:"timestamp"`
	Asset      string  `json:"asset"`
	Action     string  `json:"action"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Decode converts a wire decision to the view model, rejecting unknown
// actions.
func (w *DecisionWire) Decode() (Decision, error) {
	action, err := ParseAction(w.Action)
	if err != nil {
		return Decision{}, err
	}
	if w.Asset == "" {
		return Decision{}, fmt.Errorf("decision missing asset")
	}
	conf := w.Confidence
	if conf < 0 {
		conf = 0
	}
	if conf > 100 {
		conf = 100
	}
	return Decision{
		Timestamp:  ParseTimestamp(w.Timestamp),
		Asset:      w.Asset,
		Action:     action,
		Confidence: int(math.Round(conf)),
		Reasoning:  w.Reasoning,
	}, nil
}

// DecisionsResponse is the full GET /trading/decisions body.
type DecisionsResponse struct {
	Decisions []DecisionWire `json:"decisions"`
	Timestamp string         `json:"timestamp"`
}

// PricesResponse is the GET /market/current body.
type PricesResponse struct {
	Prices    Prices `json:"prices"`
	Timestamp string `json:"timestamp"`
}

// Validate drops non-positive quotes; a zero price is a feed glitch, not a
// market event.
func (r *PricesResponse) Validate() error {
	if len(r.Prices) == 0 {
		return fmt.Errorf("price response empty")
	}
	for sym, px := range r.Prices {
		if px <= 0 || math.IsNaN(px) || math.IsInf(px, 0) {
			delete(r.Prices, sym)
		}
	}
	if len(r.Prices) == 0 {
		return fmt.Errorf("price response had no usable quotes")
	}
	return nil
}

// HistoricalResponse is the GET /market/historical body.
type HistoricalResponse struct {
	Data      []HistoricalPoint `json:"data"`
	Symbol    string            `json:"symbol"`
	Period    string            `json:"period"`
	Timestamp string            `json:"timestamp"`
}

// VotingResultWire is the POST /trading/execute response.
type VotingResultWire struct {
	ConsensusAction   string            `json:"consensus_action"`
	OverallConfidence float64           `json:"overall_confidence"`
	AgentVotes        map[string]string `json:"agent_votes"`
	RiskAssessment    string            `json:"risk_assessment"`
	DemocracySummary  string            `json:"democracy_summary"`
	Timestamp         string            `json:"timestamp"`
}

// Decode converts the wire voting result, dropping votes for unknown agents
// or unknown actions.
func (w *VotingResultWire) Decode() (VotingResult, error) {
	action, err := ParseAction(w.ConsensusAction)
	if err != nil {
		return VotingResult{}, fmt.Errorf("voting result: %w", err)
	}
	conf := w.OverallConfidence
	if conf < 0 {
		conf = 0
	}
	if conf > 100 {
		conf = 100
	}
	votes := make(map[string]Action, len(w.AgentVotes))
	for id, v := range w.AgentVotes {
		if !KnownAgent(id) {
			continue
		}
		if a, err := ParseAction(v); err == nil {
			votes[id] = a
		}
	}
	return VotingResult{
		ConsensusAction:   action,
		OverallConfidence: conf,
		AgentVotes:        votes,
		RiskAssessment:    w.RiskAssessment,
		DemocracySummary:  w.DemocracySummary,
		Timestamp:         ParseTimestamp(w.Timestamp),
	}, nil
}

// AnalysisResponse is the POST /trading/analyze body. The analysis payload
// itself is implementation-defined free text.
type AnalysisResponse struct {
	Analysis     map[string]any `json:"analysis"`
	Timestamp    string         `json:"timestamp"`
	AnalysisType string         `json:"analysis_type"`
}

// HistoryRecord is one persisted decision or analysis record from the
// /trading/history and /analysis/history endpoints.
type HistoryRecord struct {
	ID        string         `json:"id"`
	Kind      string         `json:"kind"`
	Payload   map[string]any `json:"payload"`
	CreatedAt string         `json:"created_at"`
}

// HistoryResponse wraps a history listing.
type HistoryResponse struct {
	Records    []HistoryRecord `json:"records"`
	TotalCount int             `json:"total_count"`
	Timestamp  string          `json:"timestamp"`
}
