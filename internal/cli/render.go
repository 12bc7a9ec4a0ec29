package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/atfloor/floorcli/internal/models"
)

var (
	resultTitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7C3AED")).
		Padding(0, 1)

	resultPanelStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#3B82F6")).
		Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6B7280"))

	valueStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#E5E7EB"))

	consensusStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#10B981"))
)

// renderVotingResult prints one voting outcome with the per-agent vote
// breakdown in roster order.
func renderVotingResult(v *models.VotingResult) string {
	var b strings.Builder
	b.WriteString(resultTitleStyle.Render("DEMOCRATIC VOTING RESULT"))
	b.WriteString("\n")

	rows := []string{
		fmt.Sprintf("%s %s  %s %.1f%%",
			labelStyle.Render("Consensus:"),
			consensusStyle.Render(string(v.ConsensusAction)),
			labelStyle.Render("Confidence:"),
			v.OverallConfidence),
	}
	if v.RiskAssessment != "" {
		rows = append(rows, labelStyle.Render("Risk: ")+valueStyle.Render(v.RiskAssessment))
	}
	if v.DemocracySummary != "" {
		rows = append(rows, labelStyle.Render("Summary: ")+valueStyle.Render(v.DemocracySummary))
	}

	if len(v.AgentVotes) > 0 {
		rows = append(rows, "")
		for _, entry := range models.Roster {
			vote, ok := v.AgentVotes[entry.ID]
			if !ok {
				continue
			}
			rows = append(rows, fmt.Sprintf("%s %s",
				valueStyle.Render(fmt.Sprintf("%-22s", entry.Name)),
				string(vote)))
		}
	}

	b.WriteString(resultPanelStyle.Render(strings.Join(rows, "\n")))
	b.WriteString("\n")
	return b.String()
}

// renderAnalysis prints an analysis cycle outcome. The analysis body is
// free-form keyed text, so it is listed in key order.
func renderAnalysis(resp *models.AnalysisResponse) string {
	var b strings.Builder
	b.WriteString(resultTitleStyle.Render("MARKET ANALYSIS"))
	b.WriteString("\n")

	rows := []string{labelStyle.Render("Type: ") + valueStyle.Render(resp.AnalysisType)}

	keys := make([]string, 0, len(resp.Analysis))
	for k := range resp.Analysis {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		rows = append(rows, fmt.Sprintf("%s %v", labelStyle.Render(k+":"), resp.Analysis[k]))
	}

	b.WriteString(resultPanelStyle.Render(strings.Join(rows, "\n")))
	b.WriteString("\n")
	return b.String()
}

type historyResult struct {
	title string
	resp  *models.HistoryResponse
}

// renderHistory prints persisted records newest first.
func renderHistory(h *historyResult) string {
	var b strings.Builder
	b.WriteString(resultTitleStyle.Render(h.title))
	b.WriteString("\n")

	if len(h.resp.Records) == 0 {
		b.WriteString(resultPanelStyle.Render(labelStyle.Render("no records")))
		b.WriteString("\n")
		return b.String()
	}

	rows := make([]string, 0, len(h.resp.Records)+1)
	for _, rec := range h.resp.Records {
		summary := summarizePayload(rec.Payload)
		rows = append(rows, fmt.Sprintf("%s  %s  %s",
			labelStyle.Render(rec.CreatedAt),
			valueStyle.Render(rec.ID),
			summary))
	}
	rows = append(rows, labelStyle.Render(fmt.Sprintf("%d of %d records", len(h.resp.Records), h.resp.TotalCount)))

	b.WriteString(resultPanelStyle.Render(strings.Join(rows, "\n")))
	b.WriteString("\n")
	return b.String()
}

// summarizePayload picks the most telling fields out of an arbitrary
// record payload.
func summarizePayload(payload map[string]any) string {
	if action, ok := payload["consensus_action"].(string); ok {
		conf, _ := payload["overall_confidence"].(float64)
		return fmt.Sprintf("%s (%.1f%%)", consensusStyle.Render(action), conf)
	}
	if kind, ok := payload["analysis_type"].(string); ok {
		return valueStyle.Render(kind)
	}
	return labelStyle.Render(fmt.Sprintf("%d fields", len(payload)))
}
