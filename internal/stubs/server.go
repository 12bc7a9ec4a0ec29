package stubs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/atfloor/floorcli/internal/models"
	"github.com/atfloor/floorcli/internal/storage"
)

// maxHistoryLimit caps how many records one history request may ask for.
const maxHistoryLimit = 50

// Server is a local stand-in for the real trading floor backend. It serves
// the full HTTP and websocket contract with fabricated agent activity so
// the console can be developed and demoed offline. No LLM is involved;
// responses are synthesized the same way the real backend's mock-data mode
// does.
type Server struct {
	market *MarketSource
	store  *storage.Store
	log    *slog.Logger

	// The execute cycle is modeled as slow and non-reentrant, so it gets a
	// rate limiter instead of letting callers stack cycles.
	executeLimit *rate.Limiter

	mu        sync.Mutex
	rng       *rand.Rand
	decisions []models.DecisionWire
	started   time.Time

	wsMu      sync.Mutex
	wsClients map[*websocket.Conn]struct{}
}

// NewServer wires the stub floor. store may be nil to run without history
// persistence.
func NewServer(market *MarketSource, store *storage.Store, log *slog.Logger) *Server {
	return &Server{
		market:       market,
		store:        store,
		log:          log,
		executeLimit: rate.NewLimiter(rate.Every(5*time.Second), 1),
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		started:      time.Now(),
		wsClients:    map[*websocket.Conn]struct{}{},
	}
}

// Handler builds the HTTP mux for the full API surface.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /agents/status", s.handleAgentsStatus)
	mux.HandleFunc("GET /trading/decisions", s.handleDecisions)
	mux.HandleFunc("GET /market/current", s.handleMarketCurrent)
	mux.HandleFunc("GET /market/historical", s.handleMarketHistorical)
	mux.HandleFunc("POST /trading/execute", s.handleExecute)
	mux.HandleFunc("POST /trading/analyze", s.handleAnalyze)
	mux.HandleFunc("GET /trading/history", s.historyHandler(storage.KindTradingDecision))
	mux.HandleFunc("GET /analysis/history", s.historyHandler(storage.KindAnalysisResult))
	mux.HandleFunc("GET /storage/stats", s.handleStats)
	mux.HandleFunc("GET /ws/trading-floor", s.handleWebSocket)
	return mux
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Autonomous Trading Floor API (stub)",
		"status":    "operational",
		"timestamp": isoNow(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"api_status":     "healthy",
		"uptime_seconds": int(time.Since(s.started).Seconds()),
		"timestamp":      isoNow(),
	})
}

func (s *Server) handleAgentsStatus(w http.ResponseWriter, r *http.Request) {
	statuses := []string{models.StatusActive, models.StatusProcessing, models.StatusDeciding}

	s.mu.Lock()
	agents := make([]models.AgentStatusWire, 0, len(models.Roster))
	for i, entry := range models.Roster {
		agents = append(agents, models.AgentStatusWire{
			ID:          entry.ID,
			Name:        entry.Name,
			Tier:        entry.Tier,
			Status:      statuses[(i+s.rng.Intn(3))%len(statuses)],
			Confidence:  float64(70 + s.rng.Intn(26)),
			LastAction:  fmt.Sprintf("Processing %s data", entry.Name),
			LastUpdated: isoNow(),
		})
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, models.AgentStatusResponse{
		Agents:       agents,
		Timestamp:    isoNow(),
		SystemStatus: "operational",
	})
}

func (s *Server) handleDecisions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	decisions := append([]models.DecisionWire(nil), s.decisions...)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"decisions":       decisions,
		"total_decisions": len(decisions),
		"timestamp":       isoNow(),
	})
}

func (s *Server) handleMarketCurrent(w http.ResponseWriter, r *http.Request) {
	prices, live := s.market.Current()
	writeJSON(w, http.StatusOK, map[string]any{
		"prices":    prices,
		"live":      live,
		"timestamp": isoNow(),
	})
	s.broadcast(models.NewWSMessage(models.MsgMarketUpdate, map[string]any{"prices": prices}, time.Now()))
}

func (s *Server) handleMarketHistorical(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		symbol = "BTC"
	}
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "1d"
	}
	writeJSON(w, http.StatusOK, models.HistoricalResponse{
		Data:      s.market.Historical(symbol, time.Now()),
		Symbol:    symbol,
		Period:    period,
		Timestamp: isoNow(),
	})
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	if !s.executeLimit.Allow() {
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"detail": "trading cycle already in progress",
		})
		return
	}

	var req models.MarketDataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"detail": err.Error()})
		return
	}
	s.log.Info("executing trading cycle", "trigger", req.Trigger,
		"fallback_priced", models.IsFallbackTrigger(req.Trigger))

	result := s.synthesizeVote(req)
	if s.store != nil {
		if _, err := s.store.Insert(r.Context(), storage.KindTradingDecision, result); err != nil {
			s.log.Warn("persist trading decision failed", "error", err)
		}
	}
	s.broadcast(models.NewWSMessage(models.MsgTradingDecision, result, time.Now()))
	writeJSON(w, http.StatusOK, result)
}

// synthesizeVote fabricates a democratic voting outcome: one action,
// unanimous votes, confidence in the 65-95 band. Mirrors the backend's
// mock-data mode.
func (s *Server) synthesizeVote(req models.MarketDataRequest) models.VotingResultWire {
	actions := []models.Action{models.ActionBuy, models.ActionSell, models.ActionHold}

	s.mu.Lock()
	action := actions[s.rng.Intn(len(actions))]
	confidence := 65 + s.rng.Intn(31)

	votes := make(map[string]string, len(models.Roster))
	for _, entry := range models.Roster {
		votes[entry.ID] = string(action)
	}

	spot := req.MarketData["BTC"]
	if spot == 0 {
		spot = models.FallbackPrices()["BTC"]
	}
	now := isoNow()
	decision := models.DecisionWire{
		Timestamp:  now,
		Asset:      "BTC",
		Action:     string(action),
		Confidence: float64(confidence),
		Reasoning: fmt.Sprintf("Democratic consensus: %s at a price target of $%.2f.",
			action, PriceTarget(spot, action)),
	}
	s.decisions = append([]models.DecisionWire{decision}, s.decisions...)
	if len(s.decisions) > 20 {
		s.decisions = s.decisions[:20]
	}
	s.mu.Unlock()

	return models.VotingResultWire{
		ConsensusAction:   string(action),
		OverallConfidence: float64(confidence),
		AgentVotes:        votes,
		RiskAssessment:    "Medium",
		DemocracySummary: fmt.Sprintf("All agents reached consensus on %s action with %d%% confidence.",
			action, confidence),
		Timestamp: now,
	}
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req models.MarketDataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"detail": err.Error()})
		return
	}

	s.mu.Lock()
	analysis := map[string]any{
		"analysis_results": fmt.Sprintf(
			"Technical read: RSI at %d, MACD %s, support level near $%.0f.",
			30+s.rng.Intn(41),
			[]string{"positive", "negative"}[s.rng.Intn(2)],
			req.MarketData["BTC"]*0.97),
		"tiers_completed": []string{"tier1_intelligence", "tier2_analysis"},
	}
	s.mu.Unlock()

	if s.store != nil {
		if _, err := s.store.Insert(r.Context(), storage.KindAnalysisResult, analysis); err != nil {
			s.log.Warn("persist analysis failed", "error", err)
		}
	}
	writeJSON(w, http.StatusOK, models.AnalysisResponse{
		Analysis:     analysis,
		Timestamp:    isoNow(),
		AnalysisType: "intelligence_and_analysis",
	})
}

func (s *Server) historyHandler(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.store == nil {
			writeJSON(w, http.StatusOK, models.HistoryResponse{Timestamp: isoNow()})
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit > maxHistoryLimit {
			limit = maxHistoryLimit
		}
		records, err := s.store.Recent(r.Context(), kind, limit)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"detail": err.Error()})
			return
		}
		out := make([]models.HistoryRecord, 0, len(records))
		for _, rec := range records {
			out = append(out, models.HistoryRecord{
				ID:        rec.ID,
				Kind:      rec.Kind,
				Payload:   rec.Payload,
				CreatedAt: rec.CreatedAt.UTC().Format(time.RFC3339),
			})
		}
		writeJSON(w, http.StatusOK, models.HistoryResponse{
			Records:    out,
			TotalCount: len(out),
			Timestamp:  isoNow(),
		})
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]int{}
	if s.store != nil {
		var err error
		if stats, err = s.store.Stats(r.Context()); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"detail": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"storage_stats": stats,
		"timestamp":     isoNow(),
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // local dev tool, any origin is fine
	})
	if err != nil {
		s.log.Warn("websocket accept failed", "error", err)
		return
	}

	s.wsMu.Lock()
	s.wsClients[conn] = struct{}{}
	s.wsMu.Unlock()
	defer func() {
		s.wsMu.Lock()
		delete(s.wsClients, conn)
		s.wsMu.Unlock()
		conn.Close(websocket.StatusNormalClosure, "")
	}()

	ctx := r.Context()
	confirmed := models.NewWSMessage(models.MsgConnectionConfirmed,
		map[string]any{"agents_count": len(models.Roster)}, time.Now())
	if err := wsjson.Write(ctx, conn, confirmed); err != nil {
		return
	}

	// Read loop: anything the client sends comes back as an echo.
	for {
		var msg models.WSMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			return
		}
		echo := models.NewWSMessage(models.MsgEcho, msg, time.Now())
		if err := wsjson.Write(ctx, conn, echo); err != nil {
			return
		}
	}
}

// broadcast fans a frame out to every connected socket. Write failures
// just drop the client; its own read loop will clean up.
func (s *Server) broadcast(msg models.WSMessage) {
	s.wsMu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.wsClients))
	for c := range s.wsClients {
		conns = append(conns, c)
	}
	s.wsMu.Unlock()

	for _, c := range conns {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = wsjson.Write(ctx, c, msg)
		cancel()
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func isoNow() string {
	return time.Now().UTC().Format(time.RFC3339)
}
