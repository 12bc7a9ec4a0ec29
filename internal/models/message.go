package models

import (
	"encoding/json"
	"time"
)

// WebSocket message types exchanged on /ws/trading-floor.
const (
	MsgConnectionConfirmed = "connection_confirmed"
	MsgSystemStatus        = "system_status"
	MsgAgentsUpdate        = "agents_update"
	MsgTradingDecision     = "trading_decision"
	MsgMarketUpdate        = "market_update"
	MsgEcho                = "echo"
)

// WSMessage is the envelope every socket frame uses in both directions.
type WSMessage struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp string          `json:"timestamp"`
}

// NewWSMessage wraps a payload in the standard envelope. Marshal errors are
// impossible for the payload types we send, so they surface as an empty Data.
func NewWSMessage(msgType string, payload any, now time.Time) WSMessage {
	raw, _ := json.Marshal(payload)
	return WSMessage{
		Type:      msgType,
		Data:      raw,
		Timestamp: now.UTC().Format(time.RFC3339),
	}
}
