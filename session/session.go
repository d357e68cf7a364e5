// Package session holds the application state of one editing session: the
// configuration, the code buffer, lint findings and the audit status. All
// mutation goes through Session methods.
package session

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/arran4/codeshot"
	"github.com/arran4/codeshot/audit"
	"github.com/arran4/codeshot/debounce"
)

// Persister saves the configuration after each change.
type Persister interface {
	Save(codeshot.Config) error
}

// Snapshot is a copy of the session state.
type Snapshot struct {
	Config   codeshot.Config
	Buffer   string
	Findings []codeshot.Finding
	Status   audit.Status
	Report   audit.Report
}

type Session struct {
	ctx    context.Context
	logger *slog.Logger
	store  Persister

	auditor *audit.Auditor
	timer   *debounce.Timer

	mu        sync.Mutex
	cfg       codeshot.Config
	buffer    string
	findings  []codeshot.Finding
	status    audit.Status
	report    audit.Report
	observers []func(Snapshot)
}

type Option func(*Session)

func WithStore(p Persister) Option {
	return func(s *Session) { s.store = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithContext bounds background audits.
func WithContext(ctx context.Context) Option {
	return func(s *Session) { s.ctx = ctx }
}

// WithAudit audits the buffer quiet after the last edit.
func WithAudit(svc audit.Service, quiet time.Duration) Option {
	return func(s *Session) {
		s.auditor = audit.NewAuditor(svc, s.applyAudit, s.logger)
		s.timer = debounce.New(quiet, s.auditNow)
	}
}

func New(cfg codeshot.Config, opts ...Option) *Session {
	s := &Session{
		ctx:    context.Background(),
		logger: slog.Default(),
		cfg:    cfg.Normalize(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnChange registers fn to receive a snapshot after every mutation.
func (s *Session) OnChange(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		Config:   s.cfg,
		Buffer:   s.buffer,
		Findings: slices.Clone(s.findings),
		Status:   s.status,
		Report:   s.report,
	}
}

// commit releases the lock and notifies observers.
func (s *Session) commit(persist bool) {
	snap := s.snapshotLocked()
	obs := slices.Clone(s.observers)
	s.mu.Unlock()

	if persist && s.store != nil {
		if err := s.store.Save(snap.Config); err != nil {
			s.logger.Warn("persist configuration", slog.Any("err", err))
		}
	}
	for _, fn := range obs {
		fn(snap)
	}
}

// SetBuffer replaces the code buffer and schedules an audit. An empty
// buffer clears findings at once.
func (s *Session) SetBuffer(text string) {
	s.mu.Lock()
	s.buffer = text
	empty := strings.TrimSpace(text) == ""
	if empty {
		s.findings = nil
		s.status = audit.StatusIdle
		s.invalidateLocked()
	}
	s.commit(false)

	if s.timer == nil {
		return
	}
	if empty {
		s.timer.Stop()
		return
	}
	s.timer.Trigger()
}

// Update merges p into the configuration. Invalid results are rejected and
// leave the session unchanged.
func (s *Session) Update(p codeshot.Patch) error {
	s.mu.Lock()
	next, err := s.cfg.Apply(p)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.cfg = next
	s.commit(true)
	return nil
}

// Set applies one string-keyed configuration change.
func (s *Session) Set(key, value string) error {
	p, err := codeshot.ParsePatch(key, value)
	if err != nil {
		return err
	}
	return s.Update(p)
}

// Clear empties the buffer and resets the language to plain text.
func (s *Session) Clear() {
	s.mu.Lock()
	s.buffer = ""
	s.findings = nil
	s.status = audit.StatusIdle
	s.report = audit.Report{}
	s.cfg.Language = codeshot.PlainText
	s.invalidateLocked()
	s.commit(true)
	if s.timer != nil {
		s.timer.Stop()
	}
}

// ApplyReport folds an audit report into the session. A detected language
// different from the current one replaces it.
func (s *Session) ApplyReport(r audit.Report) {
	s.mu.Lock()
	s.applyLocked(r)
}

// applyAudit is ApplyReport for reports from the session's own auditor.
// Reports from runs superseded by an edit or a clear are dropped.
func (s *Session) applyAudit(r audit.Report) {
	s.mu.Lock()
	if !s.auditor.Latest(r.Generation) {
		s.mu.Unlock()
		s.logger.Debug("dropping superseded audit", slog.Uint64("generation", r.Generation))
		return
	}
	s.applyLocked(r)
}

// applyLocked must be called with s.mu held and releases it.
func (s *Session) applyLocked(r audit.Report) {
	s.status = r.Status
	s.report = r
	if r.FindingsChanged {
		s.findings = slices.Clone(r.Findings)
	}
	persist := false
	if lang := strings.TrimSpace(r.Language); lang != "" && lang != s.cfg.Language {
		s.cfg.Language = lang
		persist = true
	}
	s.commit(persist)
}

// AuditNow runs any pending audit immediately.
func (s *Session) AuditNow() bool {
	if s.timer == nil {
		return false
	}
	return s.timer.Flush()
}

func (s *Session) auditNow() {
	s.mu.Lock()
	if strings.TrimSpace(s.buffer) == "" {
		s.mu.Unlock()
		return
	}
	s.status = audit.StatusAuditing
	s.auditor.Go(s.ctx, s.buffer, s.cfg.Language)
	s.commit(false)
}

func (s *Session) invalidateLocked() {
	if s.auditor != nil {
		s.auditor.Invalidate()
	}
}

// Close drops any pending audit.
func (s *Session) Close() {
	if s.timer != nil {
		s.timer.Stop()
	}
}
