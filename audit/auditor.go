package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/arran4/codeshot"
)

// Status is the audit indicator state.
type Status int

const (
	StatusIdle Status = iota
	StatusAuditing
	StatusHealthy
	StatusIssues
	StatusQuotaExceeded
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusAuditing:
		return "auditing"
	case StatusHealthy:
		return "healthy"
	case StatusIssues:
		return "issues"
	case StatusQuotaExceeded:
		return "quota exceeded"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Report is the result of one completed audit.
type Report struct {
	// Generation identifies the Run that produced the report.
	Generation uint64
	// Language is the detected language, empty when detection gave nothing.
	Language string
	Findings   []codeshot.Finding
	Status     Status
	// FindingsChanged is false when the report leaves findings as they were.
	FindingsChanged bool
}

// Label is the short indicator text for the report.
func (r Report) Label() string {
	switch r.Status {
	case StatusAuditing:
		return "Auditing..."
	case StatusHealthy:
		return "Healthy"
	case StatusIssues:
		if len(r.Findings) == 1 {
			return "1 Issue"
		}
		return fmt.Sprintf("%d Issues", len(r.Findings))
	case StatusQuotaExceeded:
		return "Quota exceeded"
	}
	return ""
}

// Auditor runs detection then lint for a buffer. When runs overlap, only the
// most recently started one delivers its report.
type Auditor struct {
	svc      Service
	onReport func(Report)
	logger   *slog.Logger

	gen    atomic.Uint64
	mu     sync.Mutex
	status Status
}

// NewAuditor returns an Auditor delivering reports to onReport.
func NewAuditor(svc Service, onReport func(Report), logger *slog.Logger) *Auditor {
	if logger == nil {
		logger = slog.Default()
	}
	if onReport == nil {
		onReport = func(Report) {}
	}
	return &Auditor{svc: svc, onReport: onReport, logger: logger}
}

// Status returns the current indicator state.
func (a *Auditor) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// Go runs the audit in the background.
func (a *Auditor) Go(ctx context.Context, text, language string) {
	gen := a.begin()
	go a.run(ctx, gen, text, language)
}

// Run audits synchronously. It reports false when a newer run started
// before this one finished, in which case nothing was delivered.
func (a *Auditor) Run(ctx context.Context, text, language string) (Report, bool) {
	return a.run(ctx, a.begin(), text, language)
}

// Invalidate drops every run in flight. None of them will deliver.
func (a *Auditor) Invalidate() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gen.Add(1)
	a.status = StatusIdle
}

// Latest reports whether gen is the most recently started run.
func (a *Auditor) Latest(gen uint64) bool { return gen == a.gen.Load() }

func (a *Auditor) begin() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status = StatusAuditing
	return a.gen.Add(1)
}

func (a *Auditor) run(ctx context.Context, gen uint64, text, language string) (Report, bool) {
	rep := a.audit(ctx, gen, text, language)

	a.mu.Lock()
	if gen != a.gen.Load() {
		a.mu.Unlock()
		a.logger.DebugContext(ctx, "discarding stale audit", slog.Uint64("generation", gen))
		return rep, false
	}
	a.status = rep.Status
	a.mu.Unlock()

	a.onReport(rep)
	return rep, true
}

func (a *Auditor) audit(ctx context.Context, gen uint64, text, language string) Report {
	rep := Report{Generation: gen}
	if strings.TrimSpace(text) == "" {
		rep.Status = StatusIdle
		rep.FindingsChanged = true
		return rep
	}

	lang, err := a.svc.DetectLanguage(ctx, text)
	switch {
	case errors.Is(err, ErrQuotaExceeded):
		rep.Status = StatusQuotaExceeded
		return rep
	case err != nil:
		a.logger.WarnContext(ctx, "language detection failed", slog.Any("err", err))
	case lang != "":
		rep.Language = lang
		language = lang
	}
	if gen != a.gen.Load() {
		return rep
	}

	findings, err := a.svc.FindIssues(ctx, text, language)
	switch {
	case errors.Is(err, ErrQuotaExceeded):
		rep.Status = StatusQuotaExceeded
		return rep
	case err != nil:
		a.logger.WarnContext(ctx, "lint failed", slog.Any("err", err))
		findings = nil
	}
	rep.Findings = findings
	rep.FindingsChanged = true
	rep.Status = StatusHealthy
	if len(findings) > 0 {
		rep.Status = StatusIssues
	}
	return rep
}
