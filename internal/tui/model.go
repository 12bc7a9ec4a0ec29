package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/atfloor/floorcli/internal/connection"
	"github.com/atfloor/floorcli/internal/models"
	"github.com/atfloor/floorcli/internal/poller"
	"github.com/atfloor/floorcli/internal/state"
	"github.com/atfloor/floorcli/internal/theater"
)

// Ensure *Model satisfies tea.Model.
var _ tea.Model = (*Model)(nil)

// storeChangedMsg signals that the shared store mutated.
type storeChangedMsg struct{}

// theaterChangedMsg signals theater progress.
type theaterChangedMsg struct{}

// cycleDoneMsg carries the settled outcome of a real trading cycle.
type cycleDoneMsg struct {
	result *models.VotingResult
	ok     bool
}

// analysisDoneMsg carries the settled outcome of an analysis cycle.
type analysisDoneMsg struct {
	ok bool
}

// Deps are the collaborators the dashboard drives. Everything is injected;
// the model owns no business logic of its own.
type Deps struct {
	Store   *state.Store
	Trigger *poller.Trigger
	Theater *theater.Theater
	Manager connection.Manager
}

// Model is the root Bubble Tea model for the live dashboard.
type Model struct {
	deps    Deps
	updates <-chan struct{}
	theater chan struct{}

	spinner  spinner.Model
	width    int
	quitting bool
}

// NewModel wires the dashboard against its collaborators. The theater's
// notify hook must be registered by the caller via TheaterNotify before
// the program starts.
func NewModel(deps Deps) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return &Model{
		deps:    deps,
		updates: deps.Store.Subscribe(),
		theater: make(chan struct{}, 1),
		spinner: sp,
	}
}

// TheaterNotify returns the callback to hand theater.WithNotify; it
// coalesces progress signals into the Bubble Tea loop.
func (m *Model) TheaterNotify() func() {
	return func() {
		select {
		case m.theater <- struct{}{}:
		default:
		}
	}
}

func (m *Model) waitForStore() tea.Cmd {
	return func() tea.Msg {
		<-m.updates
		return storeChangedMsg{}
	}
}

func (m *Model) waitForTheater() tea.Cmd {
	return func() tea.Msg {
		<-m.theater
		return theaterChangedMsg{}
	}
}

// Init starts the channel pumps and the spinner.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.waitForStore(), m.waitForTheater(), m.spinner.Tick)
}

// Update handles key presses and collaborator signals.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case storeChangedMsg:
		return m, m.waitForStore()

	case theaterChangedMsg:
		return m, m.waitForTheater()

	case cycleDoneMsg:
		// The store already holds the real result; nothing to reconcile
		// here beyond letting the next render pick it up.
		return m, nil

	case analysisDoneMsg:
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "v":
		if m.deps.Trigger.InFlight() {
			return m, nil
		}
		m.deps.Theater.Start(theater.ModeVoting, m.deps.Store.PricesSnapshot())
		return m, m.runVoting()

	case "a":
		if m.deps.Trigger.InFlight() {
			return m, nil
		}
		m.deps.Theater.Start(theater.ModeAnalysis, m.deps.Store.PricesSnapshot())
		return m, m.runAnalysis()

	case "r":
		m.deps.Theater.Reset()
		m.deps.Manager.Reconnect()
		return m, nil
	}
	return m, nil
}

// runVoting performs the one real network call while the theater narrates.
// The settled result lands in the store via the trigger; the theater's
// fabricated consensus never does.
func (m *Model) runVoting() tea.Cmd {
	return func() tea.Msg {
		result, ok := m.deps.Trigger.ExecuteVoting(context.Background(), false)
		return cycleDoneMsg{result: result, ok: ok}
	}
}

func (m *Model) runAnalysis() tea.Cmd {
	return func() tea.Msg {
		_, ok := m.deps.Trigger.RunAnalysis(context.Background(), false)
		return analysisDoneMsg{ok: ok}
	}
}

// View renders the dashboard from a consistent snapshot.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	snap := m.deps.Store.Snapshot()
	return renderView(viewData{
		snap:     snap,
		phase:    m.deps.Theater.Phase(),
		thoughts: m.deps.Theater.Thoughts(),
		voting:   m.deps.Theater.Reconcile(snap.Voting),
		inFlight: m.deps.Trigger.InFlight(),
		spinner:  m.spinner.View(),
	})
}
