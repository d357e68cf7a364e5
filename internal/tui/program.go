package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/arran4/codeshot/export"
	"github.com/arran4/codeshot/session"
)

// Run starts the studio and blocks until the user quits or ctx is done.
func Run(ctx context.Context, opts Options) error {
	p := tea.NewProgram(New(ctx, opts), tea.WithContext(ctx), tea.WithAltScreen())

	// Observers run inside Update as well as on background goroutines, so
	// Send must never block the caller.
	opts.Session.OnChange(func(session.Snapshot) { go p.Send(changedMsg{}) })
	opts.Exporter.Subscribe(func(export.Progress) { go p.Send(progressMsg{}) })

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
