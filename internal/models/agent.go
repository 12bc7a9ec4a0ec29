package models

// Agent status values reported by the backend. Purely descriptive; the
// dashboard maps them to a color swatch.
const (
	StatusActive     = "active"
	StatusProcessing = "processing"
	StatusDeciding   = "deciding"
	StatusStandby    = "standby"
	StatusFallback   = "error-fallback"
)

// AgentView is the locally held view of a single floor agent. The nine
// records are created once at startup and only field-updated afterwards.
type AgentView struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Tier       int    `json:"tier"`
	Status     string `json:"status"`
	Confidence int    `json:"confidence"`
	LastAction string `json:"last_action"`
}

// RosterEntry fixes an agent's identity and tier for the life of the session.
type RosterEntry struct {
	ID   string
	Name string
	Tier int
}

// Roster is the fixed nine-agent floor: tier 1 gathers intelligence, tier 2
// analyzes, tier 3 decides and executes. Order is display order.
var Roster = []RosterEntry{
	{ID: "market_data", Name: "Market-Data-Collector", Tier: 1},
	{ID: "sentiment", Name: "Sentiment-Analyzer", Tier: 1},
	{ID: "onchain", Name: "On-Chain-Monitor", Tier: 1},
	{ID: "technical", Name: "Technical-Analyst", Tier: 2},
	{ID: "risk", Name: "Risk-Calculator", Tier: 2},
	{ID: "correlation", Name: "Correlation-Analyzer", Tier: 2},
	{ID: "strategy", Name: "Strategy-Synthesizer", Tier: 3},
	{ID: "portfolio", Name: "Portfolio-Optimizer", Tier: 3},
	{ID: "executor", Name: "Trade-Executor", Tier: 3},
}

// KnownAgent reports whether id belongs to the fixed roster. Unknown ids
// coming back from the backend are ignored by the merge step.
func KnownAgent(id string) bool {
	for _, e := range Roster {
		if e.ID == id {
			return true
		}
	}
	return false
}

// TierMembers returns the roster ids belonging to one tier, in display order.
func TierMembers(tier int) []string {
	var ids []string
	for _, e := range Roster {
		if e.Tier == tier {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

// InitialAgents builds the startup view: every roster agent on standby with
// placeholder text until the first successful status fetch.
func InitialAgents() map[string]*AgentView {
	agents := make(map[string]*AgentView, len(Roster))
	for _, e := range Roster {
		agents[e.ID] = &AgentView{
			ID:         e.ID,
			Name:       e.Name,
			Tier:       e.Tier,
			Status:     StatusStandby,
			Confidence: 0,
			LastAction: "Connecting to backend...",
		}
	}
	return agents
}
