package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/arran4/codeshot"
	"github.com/arran4/codeshot/audit"
	"github.com/arran4/codeshot/export"
	"github.com/arran4/codeshot/share"
)

var (
	failBadge = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#282A36")).
			Background(lipgloss.Color("#FF79C6")).
			Bold(true).
			Padding(0, 1)
	failText = lipgloss.NewStyle().PaddingLeft(1)
	hintText = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BE9FD")).Italic(true)
)

// ErrorHandler prints err with a badge and, where one applies, a hint on
// how to recover.
func ErrorHandler(w io.Writer, err error) {
	line := lipgloss.JoinHorizontal(lipgloss.Top, failBadge.Render(cmdName), failText.Render(err.Error()))
	mustN(fmt.Fprintln(w, line))
	if h := hint(err); h != "" {
		mustN(fmt.Fprintln(w, hintText.Render("hint: "+h)))
	}
}

func hint(err error) string {
	switch {
	case errors.Is(err, audit.ErrNoAPIKey):
		return fmt.Sprintf("store a key with %q or set ai.provider to local", cmdName+" auth set-key")
	case errors.Is(err, audit.ErrQuotaExceeded):
		return "the AI quota is spent; retry later or set ai.provider to local"
	case errors.Is(err, codeshot.ErrUnknownKey):
		return fmt.Sprintf("%q lists the configuration keys", cmdName+" config keys")
	case errors.Is(err, share.ErrMalformed):
		return "pass the whole link or just the token after ?" + share.Param + "="
	case errors.Is(err, export.ErrExportInFlight):
		return "wait for the running export to finish"
	case usageError(err):
		return "run with --help for usage"
	}
	return ""
}

// usageError recognises cobra's argument and flag errors, which are untyped.
func usageError(err error) bool {
	msg := err.Error()
	for _, p := range []string{"unknown command", "unknown flag", "unknown shorthand flag", "flag needs an argument", "invalid argument", "accepts ", "requires "} {
		if strings.HasPrefix(msg, p) {
			return true
		}
	}
	return false
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func mustN(_ int, err error) { must(err) }
