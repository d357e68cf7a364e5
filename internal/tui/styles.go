package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/arran4/codeshot/audit"
)

// Dracula palette, matching the default theme.
var (
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#6272A4"))
	panelStyle    = boxStyle.BorderForeground(lipgloss.Color("#BD93F9"))
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF79C6")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6272A4"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555")).Bold(true)
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#50FA7B"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB86C"))
	issueStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6E6E"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F8F8F2")).Background(lipgloss.Color("#44475A")).Bold(true)
)

func statusLine(items ...string) string {
	return dimStyle.Render(strings.Join(items, " · "))
}

func indicatorStyle(s audit.Status) lipgloss.Style {
	switch s {
	case audit.StatusHealthy:
		return okStyle
	case audit.StatusIssues:
		return issueStyle
	case audit.StatusQuotaExceeded:
		return warnStyle
	}
	return dimStyle
}
