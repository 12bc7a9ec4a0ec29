package tui

import "github.com/charmbracelet/lipgloss"

// Dashboard palette and frames.
var (
	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7C3AED")).
		Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#3B82F6")).
		Padding(0, 1)

	tierHeaderStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#3B82F6"))

	agentNameStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#E5E7EB"))

	dimStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6B7280"))

	connectedStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#10B981"))

	connectingStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#F59E0B"))

	disconnectedStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#EF4444"))

	buyStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#10B981"))
	sellStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444"))
	holdStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F59E0B"))

	thoughtAgentStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#8B5CF6"))

	helpStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6B7280")).
		MarginTop(1)
)

// statusSwatch maps an agent status to its colored dot.
func statusSwatch(status string) string {
	switch status {
	case "active":
		return connectedStyle.Render("●")
	case "processing", "deciding":
		return connectingStyle.Render("●")
	case "error-fallback":
		return disconnectedStyle.Render("●")
	default:
		return dimStyle.Render("●")
	}
}

func actionStyle(action string) lipgloss.Style {
	switch action {
	case "BUY":
		return buyStyle
	case "SELL":
		return sellStyle
	default:
		return holdStyle
	}
}
