// Package tui is the interactive studio: an editor for the code buffer with
// live audit status, size estimate and export controls.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/arran4/codeshot"
	"github.com/arran4/codeshot/export"
	"github.com/arran4/codeshot/session"
	"github.com/arran4/codeshot/share"
)

// Options wires the studio to its collaborators.
type Options struct {
	Session  *session.Session
	Exporter *export.Exporter
	Format   codeshot.Format
	// Dir receives exported files.
	Dir       string
	ShareBase string
	// Copy places text on the clipboard; defaults to share.Copy.
	Copy func(string) error
}

// Model holds the studio state. The session owns configuration, buffer and
// findings; snap is the last copy read from it.
type Model struct {
	ctx  context.Context
	opts Options
	keys KeyMap

	editor  textarea.Model
	spinner spinner.Model
	help    help.Model

	snap     session.Snapshot
	progress export.Progress
	format   codeshot.Format

	// panel is true while the settings panel has focus; cursor is its row.
	panel  bool
	cursor int

	flash string
	err   error

	width, height int
}

func New(ctx context.Context, opts Options) Model {
	if opts.Format == "" {
		opts.Format = codeshot.FormatPNG
	}
	if opts.Copy == nil {
		opts.Copy = share.Copy
	}

	ed := textarea.New()
	ed.Placeholder = "Paste or type code..."
	ed.ShowLineNumbers = true
	ed.CharLimit = 0
	ed.MaxHeight = 0
	ed.Focus()

	snap := opts.Session.Snapshot()
	ed.SetValue(snap.Buffer)

	return Model{
		ctx:      ctx,
		opts:     opts,
		keys:     DefaultKeyMap(),
		editor:   ed,
		spinner:  spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(dimStyle)),
		help:     help.New(),
		snap:     snap,
		progress: opts.Exporter.Progress(),
		format:   opts.Format,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick)
}

// Snapshot returns the session state the model last rendered.
func (m Model) Snapshot() session.Snapshot { return m.snap }

// Format is the format the next export uses.
func (m Model) Format() codeshot.Format { return m.format }

// PanelOpen reports whether the settings panel has focus.
func (m Model) PanelOpen() bool { return m.panel }
