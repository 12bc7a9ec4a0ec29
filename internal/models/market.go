package models

import "time"

// Prices maps an asset symbol to its last known spot price in USD.
type Prices map[string]float64

// FallbackPrices is the hardcoded substitute used when the live price feed
// is unreachable, so dependent actions still have a usable payload. Payloads
// built from it must carry a fallback-tagged trigger.
func FallbackPrices() Prices {
	return Prices{
		"BTC": 43250,
		"ETH": 2285,
		"SOL": 98.5,
		"BNB": 308,
	}
}

// Clone returns an independent copy so store snapshots never alias.
func (p Prices) Clone() Prices {
	out := make(Prices, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Trigger labels identify what caused a trading-cycle request. The
// _fallback variants mark payloads built from FallbackPrices rather than a
// live fetch.
const (
	TriggerManual            = "manual"
	TriggerManualFallback    = "manual_fallback"
	TriggerScheduled         = "scheduled"
	TriggerScheduledFallback = "scheduled_fallback"
)

// IsFallbackTrigger reports whether a payload was priced from the hardcoded
// fallback set instead of live data.
func IsFallbackTrigger(trigger string) bool {
	return len(trigger) > len("_fallback") &&
		trigger[len(trigger)-len("_fallback"):] == "_fallback"
}

// MarketDataRequest is the body for /trading/execute and /trading/analyze.
type MarketDataRequest struct {
	MarketData Prices `json:"market_data"`
	Timestamp  string `json:"timestamp"`
	Trigger    string `json:"trigger"`
}

// NewMarketDataRequest stamps a request with the current instant.
func NewMarketDataRequest(prices Prices, trigger string, now time.Time) MarketDataRequest {
	return MarketDataRequest{
		MarketData: prices.Clone(),
		Timestamp:  now.UTC().Format(time.RFC3339),
		Trigger:    trigger,
	}
}

// HistoricalPoint is one chart sample from /market/historical.
type HistoricalPoint struct {
	Time   string  `json:"time"`
	Price  float64 `json:"price"`
	Volume float64 `json:"volume"`
}
