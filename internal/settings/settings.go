// Package settings loads the operator settings of the codeshot command from
// a YAML file and CODESHOT_* environment variables. These are distinct from
// the persisted render configuration kept by package store.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/arran4/codeshot"
	"github.com/arran4/codeshot/audit"
	"github.com/arran4/codeshot/debounce"
)

const (
	EnvPrefix = "CODESHOT"
	FileName  = "settings.yaml"

	ProviderGemini = "gemini"
	ProviderLocal  = "local"
)

// Keys understood by the settings file and the environment.
const (
	AIProviderKey          = "ai.provider"
	AIModelKey             = "ai.model"
	AIEndpointKey          = "ai.endpoint"
	AIAPIKeyKey            = "ai.api_key"
	AIRequestsPerMinuteKey = "ai.requests_per_minute"
	AITimeoutKey           = "ai.timeout"
	AIMaxAttemptsKey       = "ai.max_attempts"
	AuditDebounceKey       = "audit.debounce"
	ExportDirKey           = "export.dir"
	StatePathKey           = "state.path"
	FontsTitleKey          = "fonts.title"
	FontsMonoKey           = "fonts.mono"
	FontsMonoBoldKey       = "fonts.mono_bold"
	FontsMonoItalicKey     = "fonts.mono_italic"
)

var ErrInvalidSettings = errors.New("invalid settings")

// DefaultValues are applied before the file and environment.
var DefaultValues = map[string]any{
	AIProviderKey:          ProviderGemini,
	AIModelKey:             audit.DefaultModel,
	AIEndpointKey:          audit.DefaultEndpoint,
	AIAPIKeyKey:            "",
	AIRequestsPerMinuteKey: audit.DefaultRequestsPerMinute,
	AITimeoutKey:           30 * time.Second,
	AIMaxAttemptsKey:       audit.DefaultPolicy().MaxAttempts,
	AuditDebounceKey:       debounce.DefaultQuiet,
	ExportDirKey:           ".",
	StatePathKey:           "",
	FontsTitleKey:          "",
	FontsMonoKey:           "",
	FontsMonoBoldKey:       "",
	FontsMonoItalicKey:     "",
}

type AI struct {
	Provider          string        `mapstructure:"provider"`
	Model             string        `mapstructure:"model"`
	Endpoint          string        `mapstructure:"endpoint"`
	APIKey            string        `mapstructure:"api_key"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxAttempts       int           `mapstructure:"max_attempts"`
}

type Audit struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

type Export struct {
	Dir string `mapstructure:"dir"`
}

type State struct {
	Path string `mapstructure:"path"`
}

type Fonts struct {
	Title      string `mapstructure:"title"`
	Mono       string `mapstructure:"mono"`
	MonoBold   string `mapstructure:"mono_bold"`
	MonoItalic string `mapstructure:"mono_italic"`
}

// Settings is the decoded view of a [Manager].
type Settings struct {
	AI     AI     `mapstructure:"ai"`
	Audit  Audit  `mapstructure:"audit"`
	Export Export `mapstructure:"export"`
	State  State  `mapstructure:"state"`
	Fonts  Fonts  `mapstructure:"fonts"`
}

// FontConfig converts the font paths for [codeshot.LoadFonts].
func (s Settings) FontConfig() codeshot.FontConfig {
	return codeshot.FontConfig{
		TitlePath:      s.Fonts.Title,
		MonoPath:       s.Fonts.Mono,
		MonoBoldPath:   s.Fonts.MonoBold,
		MonoItalicPath: s.Fonts.MonoItalic,
	}
}

// Policy is the audit retry policy described by the settings.
func (s Settings) Policy() audit.Policy {
	p := audit.DefaultPolicy()
	if s.AI.MaxAttempts > 0 {
		p.MaxAttempts = s.AI.MaxAttempts
	}
	return p
}

func (s Settings) Validate() error {
	var errs []error
	switch s.AI.Provider {
	case ProviderGemini, ProviderLocal:
	default:
		errs = append(errs, fmt.Errorf("%s: unknown provider %q", AIProviderKey, s.AI.Provider))
	}
	if s.AI.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("%s: must be positive", AITimeoutKey))
	}
	if s.Audit.Debounce < 0 {
		errs = append(errs, fmt.Errorf("%s: must not be negative", AuditDebounceKey))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, errors.Join(errs...))
	}
	return nil
}

// Manager owns a private viper instance bound to one settings file.
type Manager struct {
	v    *viper.Viper
	file string
	// set holds values changed through Set; only these and the file's own
	// contents are written by Save.
	set map[string]any
}

// DefaultFile returns $XDG_CONFIG_HOME/codeshot/settings.yaml.
func DefaultFile() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config directory: %w", err)
	}
	return filepath.Join(dir, "codeshot", FileName), nil
}

// NewManager reads file when it exists. An empty file selects [DefaultFile].
func NewManager(file string) (*Manager, error) {
	var err error
	if file == "" {
		if file, err = DefaultFile(); err != nil {
			return nil, err
		}
	}
	if file, err = homedir.Expand(file); err != nil {
		return nil, fmt.Errorf("expand %s: %w", file, err)
	}

	v := viper.New()
	v.SetConfigFile(file)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, value := range DefaultValues {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read settings %s: %w", file, err)
	}

	return &Manager{v: v, file: file, set: map[string]any{}}, nil
}

func (m *Manager) File() string { return m.file }

// Viper exposes the underlying instance with defaults, file and
// environment layered.
func (m *Manager) Viper() *viper.Viper { return m.v }

// Keys lists every known key in order.
func Keys() []string {
	return slices.Sorted(maps.Keys(DefaultValues))
}

// Settings decodes, expands and validates the current values.
func (m *Manager) Settings() (Settings, error) {
	var s Settings
	if err := m.v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	for _, p := range []*string{&s.Export.Dir, &s.State.Path, &s.Fonts.Title, &s.Fonts.Mono, &s.Fonts.MonoBold, &s.Fonts.MonoItalic} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return Settings{}, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
		}
		*p = expanded
	}
	s.AI.Provider = strings.ToLower(strings.TrimSpace(s.AI.Provider))
	return s, s.Validate()
}

// Set overrides key for this process. Call [Manager.Save] to persist.
func (m *Manager) Set(key string, value any) error {
	if _, ok := DefaultValues[key]; !ok {
		return fmt.Errorf("%w: unknown key %q", ErrInvalidSettings, key)
	}
	m.v.Set(key, value)
	m.set[key] = value
	return nil
}

func (m *Manager) Get(key string) any { return m.v.Get(key) }

// Save writes the settings file, creating its directory. Defaults and
// environment values are not written.
func (m *Manager) Save() error {
	if err := os.MkdirAll(filepath.Dir(m.file), 0o755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	out := viper.New()
	out.SetConfigFile(m.file)
	out.SetConfigType("yaml")
	if err := out.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read settings %s: %w", m.file, err)
	}
	for key, value := range m.set {
		out.Set(key, value)
	}
	if err := out.WriteConfigAs(m.file); err != nil {
		return fmt.Errorf("write settings %s: %w", m.file, err)
	}
	return nil
}
