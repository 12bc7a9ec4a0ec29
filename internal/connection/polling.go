package connection

import (
	"context"
	"log/slog"
	"time"

	"github.com/atfloor/floorcli/internal/state"
)

// HealthChecker is the one API surface the polling manager needs.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// PollingManager derives connectivity purely from a periodic /health probe.
// Every tick is an independent attempt: no budget, no backoff, no
// hysteresis. It is the default transport; the push socket exists for
// latency but this variant cannot reconnect-storm.
type PollingManager struct {
	checker  HealthChecker
	store    *state.Store
	interval time.Duration
	log      *slog.Logger

	kick   chan struct{}
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPollingManager wires a health-poll connection manager to the store.
func NewPollingManager(checker HealthChecker, store *state.Store, interval time.Duration, log *slog.Logger) *PollingManager {
	return &PollingManager{
		checker:  checker,
		store:    store,
		interval: interval,
		log:      log,
		kick:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// Start launches the health loop. The first probe runs immediately.
func (m *PollingManager) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)
	go m.run(ctx)
}

func (m *PollingManager) run(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.check(ctx)
		case <-m.kick:
			m.check(ctx)
		}
	}
}

func (m *PollingManager) check(ctx context.Context) {
	if err := m.checker.Health(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		m.log.Debug("health check failed", "error", err)
		m.store.SetConnection(state.Disconnected)
		return
	}
	m.store.SetConnection(state.Connected)
}

// Reconnect fires an immediate out-of-band probe, optimistically showing
// Connecting until it settles.
func (m *PollingManager) Reconnect() {
	m.store.SetConnection(state.Connecting)
	select {
	case m.kick <- struct{}{}:
	default:
	}
}

// Close stops the loop and waits for it to exit.
func (m *PollingManager) Close() error {
	if m.cancel != nil {
		m.cancel()
		<-m.done
	}
	return nil
}
