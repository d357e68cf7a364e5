package cli

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogToKeepsTerminalClean(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	dir := t.TempDir()
	ra := &RootArgs{
		SettingsFile: filepath.Join(dir, "settings.yaml"),
		StateFile:    filepath.Join(dir, "state.yaml"),
	}
	a, err := ra.open()
	require.NoError(t, err)

	logPath := filepath.Join(dir, "studio.log")
	closeLog, err := a.logTo(logPath, "info", "logfmt")
	require.NoError(t, err)
	a.logger.Info("exported", slog.Int("bytes", 42))
	slog.Info("from default")
	require.NoError(t, closeLog())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "exported")
	assert.Contains(t, string(data), "bytes=42")
	assert.Contains(t, string(data), "from default")
	assert.Equal(t, filepath.Join(dir, "state.yaml"), a.store.Path())

	closeLog, err = a.logTo("", "info", "logfmt")
	require.NoError(t, err)
	defer closeLog()
	assert.False(t, a.logger.Enabled(context.Background(), slog.LevelError))
	assert.False(t, slog.Default().Enabled(context.Background(), slog.LevelError))
}
