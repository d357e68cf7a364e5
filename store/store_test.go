package store_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arran4/codeshot"
	"github.com/arran4/codeshot/store"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "nested", "state.yaml"), nil)
	require.NoError(t, err)
	return s
}

func TestLoadMissingReturnsDefaults(t *testing.T) {
	t.Parallel()

	assert.Equal(t, codeshot.DefaultConfig(), newStore(t).Load())
}

func TestSaveLoad(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	cfg := codeshot.DefaultConfig()
	cfg.Theme = "nord"
	cfg.FontSize = 22
	cfg.ShowShadow = false
	cfg.ExportScale = 3
	require.NoError(t, s.Save(cfg))

	assert.Equal(t, cfg, s.Load())

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), store.Key+":")
}

func TestLoadPartialDocument(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0o755))
	doc := "codeshot-config:\n  padding: 120\n  unknownField: 7\nother: true\n"
	require.NoError(t, os.WriteFile(s.Path(), []byte(doc), 0o644))

	want := codeshot.DefaultConfig()
	want.Padding = 120
	assert.Equal(t, want, s.Load())
}

func TestLoadClampsAndFallsBack(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0o755))

	require.NoError(t, os.WriteFile(s.Path(), []byte("codeshot-config:\n  fontSize: 900\n"), 0o644))
	assert.Equal(t, float64(codeshot.MaxFontSize), s.Load().FontSize)

	require.NoError(t, os.WriteFile(s.Path(), []byte("codeshot-config: [::"), 0o644))
	assert.Equal(t, codeshot.DefaultConfig(), s.Load())
}

func TestReset(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	cfg := codeshot.DefaultConfig()
	cfg.Opacity = 50
	require.NoError(t, s.Save(cfg))
	require.NoError(t, s.Reset())
	require.NoError(t, s.Reset())
	assert.Equal(t, codeshot.DefaultConfig(), s.Load())
}

func TestMixedCaseSetSurvivesReload(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	cfg, err := codeshot.DefaultConfig().Set("language", "Go")
	require.NoError(t, err)
	cfg, err = cfg.Set("theme", "Monokai")
	require.NoError(t, err)
	cfg, err = cfg.Set("background", " Cyan-Blue ")
	require.NoError(t, err)
	assert.Equal(t, "go", cfg.Language)
	assert.Equal(t, "monokai", cfg.Theme)
	assert.Equal(t, "cyan-blue", cfg.Background)

	require.NoError(t, s.Save(cfg))
	assert.Equal(t, cfg, s.Load())
}
