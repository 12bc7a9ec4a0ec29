package stubs

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/piquette/finance-go/quote"
	"github.com/shopspring/decimal"

	"github.com/atfloor/floorcli/internal/cache"
	"github.com/atfloor/floorcli/internal/models"
)

// quoteTTL is how long a live quote stays fresh before the feed is asked
// again. Polling clients hit /market/current far more often than this.
const quoteTTL = 15 * time.Second

// yahooSymbols maps floor assets to their Yahoo Finance crypto tickers.
var yahooSymbols = map[string]string{
	"BTC": "BTC-USD",
	"ETH": "ETH-USD",
	"SOL": "SOL-USD",
	"BNB": "BNB-USD",
}

// quoteFunc fetches one spot price; swapped out in tests.
type quoteFunc func(symbol string) (float64, error)

func yahooQuote(symbol string) (float64, error) {
	q, err := quote.Get(symbol)
	if err != nil {
		return 0, fmt.Errorf("quote %s: %w", symbol, err)
	}
	if q == nil || q.RegularMarketPrice <= 0 {
		return 0, fmt.Errorf("quote %s: no usable price", symbol)
	}
	return q.RegularMarketPrice, nil
}

// MarketSource serves current and historical prices for the stub floor.
// Live quotes come from Yahoo Finance; when that fails (offline dev is the
// normal case) the hardcoded fallback set is substituted.
type MarketSource struct {
	getQuote quoteFunc
	quotes   *cache.QuoteCache
	log      *slog.Logger

	// rngMu guards rng: Historical runs on concurrent handler goroutines.
	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewMarketSource builds a live-quote source with fallback.
func NewMarketSource(log *slog.Logger) *MarketSource {
	return &MarketSource{
		getQuote: yahooQuote,
		quotes:   cache.NewQuoteCache(quoteTTL),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		log:      log,
	}
}

// Current returns the floor's price map and whether it came from a live
// feed. Fresh quotes are served from cache; a failed fetch falls back per
// symbol, not wholesale.
func (m *MarketSource) Current() (models.Prices, bool) {
	prices := models.FallbackPrices()
	live := true
	for asset, ticker := range yahooSymbols {
		if px, ok := m.quotes.Get(ticker); ok {
			prices[asset] = px
			continue
		}
		px, err := m.getQuote(ticker)
		if err != nil {
			m.log.Debug("live quote failed, serving fallback", "asset", asset, "error", err)
			live = false
			continue
		}
		m.quotes.Put(ticker, px)
		prices[asset] = px
	}
	return prices, live
}

// Historical generates a 24-point random-walk chart series anchored at the
// symbol's current price.
func (m *MarketSource) Historical(symbol string, now time.Time) []models.HistoricalPoint {
	base := models.FallbackPrices()[symbol]
	if base == 0 {
		base = 50000
	}
	points := make([]models.HistoricalPoint, 0, 24)
	px := base
	m.rngMu.Lock()
	defer m.rngMu.Unlock()
	for i := 23; i >= 0; i-- {
		px *= 1 + m.rng.NormFloat64()*0.02
		points = append(points, models.HistoricalPoint{
			Time:   now.Add(-time.Duration(i) * time.Hour).Format("15:04"),
			Price:  px,
			Volume: 1_000_000,
		})
	}
	return points
}

// PriceTarget derives a decision price target from the spot price: +5% for
// BUY, -5% for SELL, flat for HOLD. Decimal math keeps the published
// targets tidy.
func PriceTarget(spot float64, action models.Action) float64 {
	price := decimal.NewFromFloat(spot)
	switch action {
	case models.ActionBuy:
		price = price.Mul(decimal.NewFromFloat(1.05))
	case models.ActionSell:
		price = price.Mul(decimal.NewFromFloat(0.95))
	}
	target, _ := price.Round(2).Float64()
	return target
}
