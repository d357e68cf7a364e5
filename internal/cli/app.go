package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/arran4/codeshot"
	"github.com/arran4/codeshot/audit"
	"github.com/arran4/codeshot/export"
	"github.com/arran4/codeshot/internal/log"
	"github.com/arran4/codeshot/internal/settings"
	"github.com/arran4/codeshot/internal/vault"
	"github.com/arran4/codeshot/source"
	"github.com/arran4/codeshot/store"
)

// geminiKeyEnv is honoured in addition to CODESHOT_AI_API_KEY.
const geminiKeyEnv = "GEMINI_API_KEY"

// app is the wiring shared by every subcommand.
type app struct {
	manager  *settings.Manager
	settings settings.Settings
	store    *store.Store
	vault    *vault.CredentialManager
	logger   *slog.Logger
}

func (ra *RootArgs) open() (*app, error) {
	m, err := settings.NewManager(ra.SettingsFile)
	if err != nil {
		return nil, err
	}
	s, err := m.Settings()
	if err != nil {
		return nil, err
	}

	statePath := ra.StateFile
	if statePath == "" {
		statePath = s.State.Path
	}
	logger := slog.Default()
	st, err := store.New(statePath, logger)
	if err != nil {
		return nil, err
	}

	return &app{
		manager:  m,
		settings: s,
		store:    st,
		vault:    vault.NewCredentialManager(),
		logger:   logger,
	}, nil
}

// logTo replaces the logger of a and the process default. Records go to
// the file at path, or nowhere when path is empty. The returned func
// closes the file.
func (a *app) logTo(path, level, format string) (func() error, error) {
	closeFn := func() error { return nil }
	logger := log.Discard()
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		h, err := log.NewHandler(f, level, format)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		logger, closeFn = slog.New(h), f.Close
	}
	st, err := store.New(a.store.Path(), logger)
	if err != nil {
		_ = closeFn()
		return nil, err
	}
	a.store = st
	a.logger = logger
	slog.SetDefault(logger)
	return closeFn, nil
}

func (a *app) apiKey() (string, error) {
	explicit := a.settings.AI.APIKey
	if explicit == "" {
		explicit = os.Getenv(geminiKeyEnv)
	}
	key, err := a.vault.Resolve(settings.ProviderGemini, explicit)
	if errors.Is(err, vault.ErrNotFound) {
		return "", fmt.Errorf("%w: run %q or set %s", audit.ErrNoAPIKey, cmdName+" auth set-key", geminiKeyEnv)
	}
	return key, err
}

// auditService builds the configured language service.
func (a *app) auditService() (audit.Service, error) {
	if a.settings.AI.Provider == settings.ProviderLocal {
		return audit.Local{}, nil
	}
	key, err := a.apiKey()
	if err != nil {
		return nil, err
	}
	gemini := audit.NewGemini(audit.GeminiConfig{
		APIKey:   key,
		Model:    a.settings.AI.Model,
		Endpoint: a.settings.AI.Endpoint,
		Timeout:  a.settings.AI.Timeout,
	})
	return audit.NewClient(gemini,
		audit.WithPolicy(a.settings.Policy()),
		audit.WithRequestsPerMinute(a.settings.AI.RequestsPerMinute),
		audit.WithLogger(a.logger),
	), nil
}

// auditServiceOrLocal falls back to local detection when no key is set.
func (a *app) auditServiceOrLocal() audit.Service {
	svc, err := a.auditService()
	if err != nil {
		a.logger.Warn("using local language detection", slog.Any("err", err))
		return audit.Local{}
	}
	return svc
}

func (a *app) exporter() *export.Exporter {
	return export.New(
		export.WithFonts(a.settings.FontConfig()),
		export.WithLogger(a.logger),
	)
}

// config returns the persisted configuration with patches applied on top.
// Patches are not saved.
func (a *app) config(sets []string) (codeshot.Config, error) {
	cfg := a.store.Load()
	for _, kv := range sets {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return cfg, fmt.Errorf("%w: expected key=value, got %q", codeshot.ErrInvalidConfig, kv)
		}
		next, err := cfg.Set(key, value)
		if err != nil {
			return cfg, err
		}
		cfg = next
	}
	return cfg, nil
}

// load reads the input named by path or share, selecting a Markdown block
// when the input is a Markdown document.
func load(path, shareToken string, block int, stdin io.Reader) (source.Buffer, error) {
	if shareToken != "" {
		return source.FromShare(shareToken)
	}
	b, err := source.Open(path, stdin)
	if err != nil {
		return b, err
	}
	if source.IsMarkdown(b.Origin) {
		return source.FromMarkdown(b, block)
	}
	return b, nil
}
