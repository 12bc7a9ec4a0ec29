package state

import (
	"sync"
	"time"

	"github.com/atfloor/floorcli/internal/models"
)

// ConnectionStatus is the single process-wide connectivity flag the
// dashboard renders as a badge.
type ConnectionStatus int

const (
	Disconnected ConnectionStatus = iota
	Connecting
	Connected
	ConnError
)

func (s ConnectionStatus) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case ConnError:
		return "error"
	default:
		return "disconnected"
	}
}

// Snapshot is a consistent, caller-owned copy of the full view state.
type Snapshot struct {
	Agents     map[string]models.AgentView
	Decisions  []models.Decision
	Prices     models.Prices
	Voting     *models.VotingResult
	Connection ConnectionStatus
	UpdatedAt  time.Time
}

// Store owns the merged agent/decision/price state. All mutation flows
// through its typed methods; readers get snapshots. Subscribers receive a
// coalesced wakeup after every mutation.
type Store struct {
	mu         sync.RWMutex
	agents     map[string]*models.AgentView
	decisions  []models.Decision
	prices     models.Prices
	voting     *models.VotingResult
	connection ConnectionStatus
	updatedAt  time.Time

	subs []chan struct{}
}

// New creates a store seeded with the fixed nine-agent roster and the
// fallback price set, so the dashboard has something to draw before the
// first fetch settles.
func New() *Store {
	return &Store{
		agents:     models.InitialAgents(),
		prices:     models.FallbackPrices(),
		connection: Connecting,
		updatedAt:  time.Now(),
	}
}

// Subscribe returns a channel that receives one (coalesced) signal after
// each mutation. Intended for a single long-lived reader per channel.
func (s *Store) Subscribe() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan struct{}, 1)
	s.subs = append(s.subs, ch)
	return ch
}

func (s *Store) notifyLocked() {
	s.updatedAt = time.Now()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// ApplyAgents merges a status response into the local view. For each of the
// nine fixed ids: overwrite fields the response carries, retain everything
// else. Entries for unknown ids are ignored. A partial response from a
// warming-up backend must never blank out the board.
func (s *Store) ApplyAgents(entries []models.AgentStatusWire) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range entries {
		w := &entries[i]
		local, ok := s.agents[w.ID]
		if !ok {
			continue
		}
		if w.Name != "" {
			local.Name = w.Name
		}
		if w.Tier >= 1 && w.Tier <= 3 {
			local.Tier = w.Tier
		}
		if w.Status != "" {
			local.Status = w.Status
		}
		local.Confidence = w.RoundedConfidence()
		if w.LastAction != "" {
			local.LastAction = w.LastAction
		}
	}
	s.notifyLocked()
}

// AddDecision prepends a decision, dropping the oldest past the cap.
func (s *Store) AddDecision(d models.Decision) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.decisions = append([]models.Decision{d}, s.decisions...)
	if len(s.decisions) > models.MaxDecisions {
		s.decisions = s.decisions[:models.MaxDecisions]
	}
	s.notifyLocked()
}

// ApplyFetchedDecisions replaces the visible list with the backend's
// most-recent-first history, bounded by the cap. An empty fetch retains the
// current list; a momentarily empty backend must not erase history the user
// is looking at.
func (s *Store) ApplyFetchedDecisions(ds []models.Decision) {
	if len(ds) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(ds) > models.MaxDecisions {
		ds = ds[:models.MaxDecisions]
	}
	s.decisions = append([]models.Decision(nil), ds...)
	s.notifyLocked()
}

// SetPrices replaces the price map.
func (s *Store) SetPrices(p models.Prices) {
	if len(p) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices = p.Clone()
	s.notifyLocked()
}

// SetVotingResult replaces the latest voting snapshot wholesale.
func (s *Store) SetVotingResult(v *models.VotingResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v == nil {
		s.voting = nil
	} else {
		cp := *v
		s.voting = &cp
	}
	s.notifyLocked()
}

// SetConnection updates the connectivity badge.
func (s *Store) SetConnection(c ConnectionStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.connection == c {
		return
	}
	s.connection = c
	s.notifyLocked()
}

// Connection returns the current connectivity flag.
func (s *Store) Connection() ConnectionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connection
}

// Prices returns a copy of the last known price map.
func (s *Store) PricesSnapshot() models.Prices {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prices.Clone()
}

// Snapshot returns a deep copy of the full view state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agents := make(map[string]models.AgentView, len(s.agents))
	for id, a := range s.agents {
		agents[id] = *a
	}
	snap := Snapshot{
		Agents:     agents,
		Decisions:  append([]models.Decision(nil), s.decisions...),
		Prices:     s.prices.Clone(),
		Connection: s.connection,
		UpdatedAt:  s.updatedAt,
	}
	if s.voting != nil {
		cp := *s.voting
		snap.Voting = &cp
	}
	return snap
}
