package tui

import "github.com/arran4/codeshot/export"

// changedMsg tells the model to re-read the session. It carries no state so
// delivery order does not matter.
type changedMsg struct{}

// progressMsg tells the model to re-read export progress.
type progressMsg struct{}

type exportDoneMsg struct {
	result export.Result
	err    error
}

// flashMsg replaces the transient status line.
type flashMsg struct {
	text string
	err  error
}
