package poller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/atfloor/floorcli/internal/config"
	"github.com/atfloor/floorcli/internal/state"
)

// Poller re-fetches each resource on its own fixed cadence and merges the
// results into the store. Failures are logged and swallowed; the previous
// state stays put and the next tick is an independent attempt. There is no
// backoff between ticks.
type Poller struct {
	api     FloorAPI
	store   *state.Store
	trigger *Trigger
	log     *slog.Logger
	cfg     *config.Config

	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
}

// New builds a poller on the given cadence config.
func New(api FloorAPI, store *state.Store, trigger *Trigger, cfg *config.Config, log *slog.Logger) *Poller {
	return &Poller{
		api:     api,
		store:   store,
		trigger: trigger,
		log:     log,
		cfg:     cfg,
	}
}

// Start registers the periodic jobs and runs each resource once
// immediately so the dashboard fills without waiting a full interval.
func (p *Poller) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)
	p.cron = cron.New()

	jobs := []struct {
		name     string
		interval time.Duration
		fn       func()
	}{
		{"agents", p.cfg.AgentsInterval, p.fetchAgents},
		{"decisions", p.cfg.DecisionsInterval, p.fetchDecisions},
		{"prices", p.cfg.PricesInterval, p.fetchPrices},
		{"cycle", p.cfg.CycleInterval, p.scheduledCycle},
	}
	for _, j := range jobs {
		spec := fmt.Sprintf("@every %s", j.interval)
		if _, err := p.cron.AddFunc(spec, j.fn); err != nil {
			return fmt.Errorf("schedule %s: %w", j.name, err)
		}
	}

	go func() {
		p.fetchAgents()
		p.fetchDecisions()
		p.fetchPrices()
	}()

	p.cron.Start()
	return nil
}

// Stop cancels in-flight fetches and waits for scheduled jobs to drain.
func (p *Poller) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	if p.cron != nil {
		<-p.cron.Stop().Done()
	}
}

func (p *Poller) fetchAgents() {
	resp, err := p.api.AgentsStatus(p.ctx)
	if err != nil {
		p.logSkip("agent status", err)
		return
	}
	p.store.ApplyAgents(resp.Agents)
}

func (p *Poller) fetchDecisions() {
	decisions, err := p.api.Decisions(p.ctx)
	if err != nil {
		p.logSkip("decisions", err)
		return
	}
	p.store.ApplyFetchedDecisions(decisions)
}

func (p *Poller) fetchPrices() {
	prices, err := p.api.CurrentPrices(p.ctx)
	if err != nil {
		p.logSkip("prices", err)
		return
	}
	p.store.SetPrices(prices)
}

// scheduledCycle is the full-cycle tick; the trigger's own in-flight guard
// keeps it from stacking on a slow backend.
func (p *Poller) scheduledCycle() {
	p.trigger.ExecuteVoting(p.ctx, true)
}

func (p *Poller) logSkip(resource string, err error) {
	if p.ctx.Err() != nil {
		return
	}
	p.log.Debug("fetch failed, keeping previous state", "resource", resource, "error", err)
}
