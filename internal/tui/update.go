package tui

import (
	"fmt"
	"slices"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/arran4/codeshot"
	"github.com/arran4/codeshot/share"
)

// chromeHeight is the rows used outside the editor.
const chromeHeight = 11

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.editor.SetWidth(max(20, msg.Width-2))
		m.editor.SetHeight(max(3, msg.Height-chromeHeight))
		return m, nil

	case changedMsg:
		m.snap = m.opts.Session.Snapshot()
		if m.snap.Buffer != m.editor.Value() {
			m.editor.SetValue(m.snap.Buffer)
		}
		return m, nil

	case progressMsg:
		m.progress = m.opts.Exporter.Progress()
		return m, nil

	case exportDoneMsg:
		m.progress = m.opts.Exporter.Progress()
		if msg.err != nil {
			m.err, m.flash = msg.err, ""
			return m, nil
		}
		m.err = nil
		m.flash = fmt.Sprintf("Saved %s (%dx%d)", msg.result.Path, msg.result.Width, msg.result.Height)
		return m, nil

	case flashMsg:
		m.flash, m.err = msg.text, msg.err
		return m, nil

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Settings), m.panel && key.Matches(msg, m.keys.Close):
		m.panel = !m.panel
		if m.panel {
			m.editor.Blur()
			return m, nil
		}
		return m, m.editor.Focus()

	case key.Matches(msg, m.keys.Export):
		if m.opts.Exporter.Busy() {
			m.flash = "Export already running"
			return m, nil
		}
		return m, m.exportCmd()

	case key.Matches(msg, m.keys.Format):
		m.format = next(codeshot.Formats, m.format)
		return m, nil

	case key.Matches(msg, m.keys.Scale):
		s := next(codeshot.ExportScales, m.snap.Config.ExportScale)
		return m.update(codeshot.Patch{ExportScale: &s})

	case key.Matches(msg, m.keys.Theme):
		v := next(themeValues(), m.snap.Config.Theme)
		return m.update(codeshot.Patch{Theme: &v})

	case key.Matches(msg, m.keys.Background):
		v := next(backgroundTokens(), m.snap.Config.Background)
		return m.update(codeshot.Patch{Background: &v})

	case key.Matches(msg, m.keys.Language):
		v := next(codeshot.Languages, m.snap.Config.Language)
		return m.update(codeshot.Patch{Language: &v})

	case key.Matches(msg, m.keys.Audit):
		if !m.opts.Session.AuditNow() {
			m.flash = "Nothing to audit"
		}
		m.snap = m.opts.Session.Snapshot()
		return m, nil

	case key.Matches(msg, m.keys.Share):
		return m, m.shareCmd()

	case key.Matches(msg, m.keys.Clear):
		m.opts.Session.Clear()
		m.editor.Reset()
		m.snap = m.opts.Session.Snapshot()
		m.flash, m.err = "", nil
		return m, nil
	}

	if m.panel {
		return m.panelKey(msg)
	}

	var cmd tea.Cmd
	before := m.editor.Value()
	m.editor, cmd = m.editor.Update(msg)
	if v := m.editor.Value(); v != before {
		m.opts.Session.SetBuffer(v)
		m.snap = m.opts.Session.Snapshot()
	}
	return m, cmd
}

func (m Model) panelKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := fields[m.cursor]
	dir := 0
	switch {
	case key.Matches(msg, m.keys.Up):
		m.cursor = (m.cursor + len(fields) - 1) % len(fields)
	case key.Matches(msg, m.keys.Down):
		m.cursor = (m.cursor + 1) % len(fields)
	case key.Matches(msg, m.keys.Less):
		dir = -1
	case key.Matches(msg, m.keys.More):
		dir = 1
	case key.Matches(msg, m.keys.Toggle) && f.kind == toggleField:
		dir = 1
	}
	if dir == 0 {
		return m, nil
	}
	cur, err := m.snap.Config.Value(f.key)
	if err != nil {
		m.err = err
		return m, nil
	}
	return m.set(f.key, f.adjust(cur, dir))
}

// set routes one keyed change through the session.
func (m Model) set(key, value string) (tea.Model, tea.Cmd) {
	if err := m.opts.Session.Set(key, value); err != nil {
		m.err = err
		return m, nil
	}
	m.err = nil
	m.snap = m.opts.Session.Snapshot()
	return m, nil
}

func (m Model) update(p codeshot.Patch) (tea.Model, tea.Cmd) {
	if err := m.opts.Session.Update(p); err != nil {
		m.err = err
		return m, nil
	}
	m.snap = m.opts.Session.Snapshot()
	return m, nil
}

func (m Model) exportCmd() tea.Cmd {
	ctx, ex := m.ctx, m.opts.Exporter
	req := exportRequest(m.snap, m.format, m.opts.Dir)
	return func() tea.Msg {
		res, err := ex.Export(ctx, req)
		return exportDoneMsg{result: res, err: err}
	}
}

func (m Model) shareCmd() tea.Cmd {
	base, text, cp := m.opts.ShareBase, m.snap.Buffer, m.opts.Copy
	return func() tea.Msg {
		link, err := share.Link(base, text)
		if err != nil {
			return flashMsg{err: err}
		}
		if err := cp(link); err != nil {
			return flashMsg{err: err}
		}
		return flashMsg{text: "Link copied: " + share.Preview(link)}
	}
}

// next returns the element after cur, wrapping around. Unknown values
// select the first element.
func next[T comparable](all []T, cur T) T {
	i := slices.Index(all, cur)
	return all[(i+1)%len(all)]
}
