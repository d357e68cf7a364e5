package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/arran4/codeshot"
	"github.com/arran4/codeshot/audit"
	"github.com/arran4/codeshot/export"
	"github.com/arran4/codeshot/session"
)

// maxFindingRows bounds the findings list under the editor.
const maxFindingRows = 3

func exportRequest(snap session.Snapshot, f codeshot.Format, dir string) export.Request {
	return export.Request{
		Buffer:   snap.Buffer,
		Config:   snap.Config,
		Findings: snap.Findings,
		Format:   f,
		Dir:      dir,
	}
}

func (m Model) View() string {
	cfg := m.snap.Config

	themeName := cfg.Theme
	if t, ok := codeshot.ThemeByValue(cfg.Theme); ok {
		themeName = t.Name
	}
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		titleStyle.Render(codeshot.Title(cfg.Language)),
		"  ",
		statusLine(themeName, cfg.Background),
	)

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	if m.panel {
		b.WriteString(panelStyle.Render(m.panelView()))
	} else {
		b.WriteString(boxStyle.Render(m.editor.View()))
	}
	b.WriteString("\n")
	b.WriteString(m.findingsView())
	b.WriteString(m.statusView())
	b.WriteString("\n")
	switch {
	case m.err != nil:
		b.WriteString(errStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	case m.flash != "":
		b.WriteString(okStyle.Render(m.flash))
	}
	b.WriteString("\n")
	if m.panel {
		b.WriteString(m.help.View(panelKeys(m.keys)))
	} else {
		b.WriteString(m.help.View(m.keys))
	}
	return b.String()
}

func (m Model) findingsView() string {
	if len(m.snap.Findings) == 0 {
		return ""
	}
	var b strings.Builder
	for i, f := range m.snap.Findings {
		if i == maxFindingRows {
			b.WriteString(dimStyle.Render(fmt.Sprintf("  … %d more", len(m.snap.Findings)-i)))
			b.WriteString("\n")
			break
		}
		msg := f.Message
		if msg == "" {
			msg = "issue"
		}
		b.WriteString(issueStyle.Render(fmt.Sprintf("  L%d: %s", f.Line, msg)))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) statusView() string {
	cfg := m.snap.Config

	var indicator string
	switch m.snap.Status {
	case audit.StatusIdle:
		indicator = dimStyle.Render("Idle")
	case audit.StatusAuditing:
		indicator = m.spinner.View() + " " + dimStyle.Render(audit.Report{Status: audit.StatusAuditing}.Label())
	default:
		rep := audit.Report{Status: m.snap.Status, Findings: m.snap.Findings}
		indicator = indicatorStyle(m.snap.Status).Render(rep.Label())
	}

	est := codeshot.FormatEstimate(codeshot.EstimateInputFor(m.snap.Buffer, cfg, m.format))
	items := []string{
		fmt.Sprintf("Fidelity: %dx Scale", cfg.ExportScale),
		fmt.Sprintf("%s ~%s", strings.ToUpper(string(m.format)), est),
	}
	if p := m.progress; p.State != export.StateIdle {
		items = append(items, fmt.Sprintf("%s %d%%", p.State, p.Percent))
	}
	return indicator + "  " + statusLine(items...)
}
