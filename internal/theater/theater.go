package theater

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/atfloor/floorcli/internal/models"
)

// Phase is one stage of the scripted deliberation narrative. Transitions
// are strictly linear; there are no backward edges.
type Phase string

const (
	PhaseInit             Phase = "init"
	PhaseDataCollection   Phase = "data-collection"
	PhaseTier1            Phase = "tier1"
	PhaseTier2            Phase = "tier2"
	PhaseTier3            Phase = "tier3"
	PhaseConsensus        Phase = "consensus"
	PhaseComplete         Phase = "complete"
	PhaseAnalysisComplete Phase = "analysis-complete"
)

// Mode selects the full voting narrative or the shorter analysis-only one,
// which ends after tier 2 with no consensus payoff.
type Mode int

const (
	ModeVoting Mode = iota
	ModeAnalysis
)

// Thought is one synthetic entry in the display-only deliberation log.
type Thought struct {
	Agent      string
	Text       string
	Confidence int
	Timestamp  time.Time
}

// step is one timed action of the script: wait Delay, then run fn.
type step struct {
	delay time.Duration
	fn    func(t *Theater)
}

// Theater fabricates a timed multi-agent deliberation while the one real
// backend call runs elsewhere. Everything it produces is display-only: the
// demo consensus must never be persisted as a decision. The whole sequence
// is driven by a single cancellable goroutine consuming the step list, so
// Reset tears it down atomically instead of chasing stray timers.
type Theater struct {
	mu       sync.Mutex
	phase    Phase
	thoughts []Thought
	demo     *models.VotingResult
	cancel   context.CancelFunc
	running  bool

	rng    *rand.Rand
	scale  float64
	notify func()
	now    func() time.Time
}

// Option configures a Theater.
type Option func(*Theater)

// WithScale multiplies every scripted delay; tests run at a tiny fraction.
func WithScale(f float64) Option {
	return func(t *Theater) { t.scale = f }
}

// WithSeed fixes the confidence randomness.
func WithSeed(seed int64) Option {
	return func(t *Theater) { t.rng = rand.New(rand.NewSource(seed)) }
}

// WithNotify registers a callback invoked after every visible change.
func WithNotify(fn func()) Option {
	return func(t *Theater) { t.notify = fn }
}

// New creates an idle theater in the init phase.
func New(opts ...Option) *Theater {
	t := &Theater{
		phase: PhaseInit,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		scale: 1,
		now:   time.Now,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// SetNotify swaps the change callback after construction. The dashboard
// builds the theater first and hooks its render loop in later.
func (t *Theater) SetNotify(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.notify = fn
}

// Phase returns the current phase.
func (t *Theater) Phase() Phase {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.phase
}

// Running reports whether a run is in progress.
func (t *Theater) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Thoughts returns a copy of the append-only deliberation log for the
// current run.
func (t *Theater) Thoughts() []Thought {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Thought(nil), t.thoughts...)
}

// DemoResult returns the fabricated consensus, nil before the consensus
// phase. Callers must treat it as scenery.
func (t *Theater) DemoResult() *models.VotingResult {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.demo == nil {
		return nil
	}
	cp := *t.demo
	return &cp
}

// Reconcile picks the value to display once the run completes: the real
// network result wherever one exists, the fabricated one only as a last
// resort.
func (t *Theater) Reconcile(real *models.VotingResult) *models.VotingResult {
	if real != nil {
		cp := *real
		return &cp
	}
	return t.DemoResult()
}

// Start clears the previous run and begins a new scripted sequence against
// the given price snapshot. A run already in progress is left alone.
func (t *Theater) Start(mode Mode, prices models.Prices) {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.running = true
	t.thoughts = nil
	t.demo = nil
	t.phase = PhaseInit
	t.mu.Unlock()

	go t.drive(ctx, buildScript(mode, prices.Clone()))
	t.changed()
}

// Reset cancels any run and returns every piece of theater state to init,
// independent of whatever the real network call is doing.
func (t *Theater) Reset() {
	t.mu.Lock()
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.running = false
	t.phase = PhaseInit
	t.thoughts = nil
	t.demo = nil
	t.mu.Unlock()
	t.changed()
}

// drive consumes the script sequentially. A later step never begins before
// the prior step's delay has fully elapsed.
func (t *Theater) drive(ctx context.Context, script []step) {
	for _, s := range script {
		delay := time.Duration(float64(s.delay) * t.scale)
		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		} else if ctx.Err() != nil {
			return
		}
		s.fn(t)
		t.changed()
	}

	t.mu.Lock()
	t.running = false
	t.mu.Unlock()
	t.changed()
}

func (t *Theater) setPhase(p Phase) {
	t.mu.Lock()
	t.phase = p
	t.mu.Unlock()
}

func (t *Theater) appendThought(agent, text string, lo, hi int) {
	t.mu.Lock()
	t.thoughts = append(t.thoughts, Thought{
		Agent:      agent,
		Text:       text,
		Confidence: lo + t.rng.Intn(hi-lo+1),
		Timestamp:  t.now(),
	})
	t.mu.Unlock()
}

func (t *Theater) setDemo(v models.VotingResult) {
	t.mu.Lock()
	t.demo = &v
	t.mu.Unlock()
}

func (t *Theater) changed() {
	t.mu.Lock()
	fn := t.notify
	t.mu.Unlock()
	if fn != nil {
		fn()
	}
}
