// Package store persists the frame configuration between sessions.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-yaml"

	"github.com/arran4/codeshot"
)

// Key is the document key the configuration is stored under.
const Key = "codeshot-config"

const fileName = "state.yaml"

// Store reads and writes the configuration document at a fixed path.
type Store struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

// New returns a Store for path. An empty path selects DefaultPath.
func New(path string, logger *slog.Logger) (*Store, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{path: path, logger: logger}, nil
}

// DefaultPath is state.yaml under the user configuration directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "codeshot", fileName), nil
}

func (s *Store) Path() string { return s.path }

type document struct {
	Config codeshot.Patch `yaml:"codeshot-config"`
}

// Load returns the stored configuration merged over the defaults. A missing
// or unreadable document yields the defaults.
func (s *Store) Load() codeshot.Config {
	s.mu.Lock()
	defer s.mu.Unlock()

	def := codeshot.DefaultConfig()
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return def
	}
	if err != nil {
		s.logger.Warn("read state", slog.String("path", s.path), slog.Any("err", err))
		return def
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		s.logger.Warn("decode state, using defaults", slog.String("path", s.path), slog.Any("err", err))
		return def
	}
	return def.Merge(doc.Config).Normalize()
}

// Save replaces the stored document with cfg.
func (s *Store) Save(cfg codeshot.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := yaml.Marshal(document{Config: codeshot.PatchOf(cfg)})
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+fileName+"-*")
	if err != nil {
		return fmt.Errorf("create temp state: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close state: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}

// Reset removes the stored document.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove state: %w", err)
	}
	return nil
}
