package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/atfloor/floorcli/internal/models"
	"github.com/atfloor/floorcli/internal/state"
	"github.com/atfloor/floorcli/internal/theater"
)

var tierLabels = map[int]string{
	1: "TIER 1 · INTELLIGENCE",
	2: "TIER 2 · ANALYSIS",
	3: "TIER 3 · STRATEGY",
}

// viewData is everything the render needs, decoupled from the live model
// so the view stays a pure function.
type viewData struct {
	snap     state.Snapshot
	phase    theater.Phase
	thoughts []theater.Thought
	voting   *models.VotingResult
	inFlight bool
	spinner  string
}

// RenderSnapshot draws the dashboard once from a snapshot, outside the
// interactive loop. Used by the one-shot status command.
func RenderSnapshot(snap state.Snapshot) string {
	return renderView(viewData{snap: snap, phase: theater.PhaseInit})
}

// renderView draws the whole dashboard. Pure: same inputs, same string.
func renderView(d viewData) string {
	var b strings.Builder

	b.WriteString(renderHeader(d))
	b.WriteString("\n")
	b.WriteString(renderPrices(d.snap.Prices))
	b.WriteString("\n\n")
	b.WriteString(renderTiers(d.snap))
	b.WriteString("\n")
	b.WriteString(renderDecisions(d.snap.Decisions))
	if d.phase != theater.PhaseInit {
		b.WriteString("\n")
		b.WriteString(renderTheater(d))
	}
	if d.voting != nil {
		b.WriteString("\n")
		b.WriteString(renderConsensus(d.voting))
	}
	b.WriteString(helpStyle.Render("v vote · a analyze · r reconnect/reset · q quit"))
	b.WriteString("\n")
	return b.String()
}

func renderHeader(d viewData) string {
	title := titleStyle.Render("AUTONOMOUS TRADING FLOOR")

	var badge string
	switch d.snap.Connection {
	case state.Connected:
		badge = connectedStyle.Render("⦿ connected")
	case state.Connecting:
		badge = connectingStyle.Render("⦿ connecting")
	case state.ConnError:
		badge = disconnectedStyle.Render("⦿ error")
	default:
		badge = disconnectedStyle.Render("⦿ disconnected")
	}

	if d.inFlight {
		badge += "  " + connectingStyle.Render(d.spinner+" cycle running")
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", badge)
}

func renderPrices(prices models.Prices) string {
	symbols := make([]string, 0, len(prices))
	for sym := range prices {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	parts := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		parts = append(parts, fmt.Sprintf("%s %s",
			dimStyle.Render(sym),
			agentNameStyle.Render(fmt.Sprintf("$%.2f", prices[sym]))))
	}
	return strings.Join(parts, "   ")
}

func renderTiers(snap state.Snapshot) string {
	var sections []string
	for tier := 1; tier <= 3; tier++ {
		var rows []string
		rows = append(rows, tierHeaderStyle.Render(tierLabels[tier]))
		for _, id := range models.TierMembers(tier) {
			agent, ok := snap.Agents[id]
			if !ok {
				continue
			}
			rows = append(rows, fmt.Sprintf("%s %-22s %s %3d%%  %s",
				statusSwatch(agent.Status),
				agentNameStyle.Render(agent.Name),
				confidenceBar(agent.Confidence),
				agent.Confidence,
				dimStyle.Render(truncate(agent.LastAction, 48))))
		}
		sections = append(sections, strings.Join(rows, "\n"))
	}
	return panelStyle.Render(strings.Join(sections, "\n\n"))
}

func renderDecisions(decisions []models.Decision) string {
	rows := []string{tierHeaderStyle.Render("RECENT DECISIONS")}
	if len(decisions) == 0 {
		rows = append(rows, dimStyle.Render("no decisions yet"))
	}
	for _, d := range decisions {
		ts := "--:--:--"
		if !d.Timestamp.IsZero() {
			ts = d.Timestamp.Local().Format("15:04:05")
		}
		rows = append(rows, fmt.Sprintf("%s  %-10s %s %3d%%  %s",
			dimStyle.Render(ts),
			agentNameStyle.Render(d.Asset),
			actionStyle(string(d.Action)).Render(fmt.Sprintf("%-4s", d.Action)),
			d.Confidence,
			dimStyle.Render(truncate(d.Reasoning, 56))))
	}
	return panelStyle.Render(strings.Join(rows, "\n"))
}

func renderTheater(d viewData) string {
	rows := []string{tierHeaderStyle.Render(
		fmt.Sprintf("DECISION THEATER · %s", strings.ToUpper(string(d.phase))))}

	thoughts := d.thoughts
	if len(thoughts) > 6 {
		thoughts = thoughts[len(thoughts)-6:]
	}
	for _, th := range thoughts {
		rows = append(rows, fmt.Sprintf("%s %s %s",
			thoughtAgentStyle.Render(th.Agent),
			dimStyle.Render(fmt.Sprintf("(%d%%)", th.Confidence)),
			truncate(th.Text, 72)))
	}
	return panelStyle.Render(strings.Join(rows, "\n"))
}

func renderConsensus(v *models.VotingResult) string {
	rows := []string{tierHeaderStyle.Render("CONSENSUS")}
	rows = append(rows, fmt.Sprintf("%s %s  %.1f%%",
		dimStyle.Render("Floor decision:"),
		actionStyle(string(v.ConsensusAction)).Render(string(v.ConsensusAction)),
		v.OverallConfidence))
	if v.DemocracySummary != "" {
		rows = append(rows, dimStyle.Render(truncate(v.DemocracySummary, 72)))
	}
	return panelStyle.Render(strings.Join(rows, "\n"))
}

// confidenceBar draws a ten-cell progress bar.
func confidenceBar(pct int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := pct / 10
	return connectedStyle.Render(strings.Repeat("█", filled)) +
		dimStyle.Render(strings.Repeat("░", 10-filled))
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
