package cli_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arran4/codeshot/internal/cli"
	"github.com/arran4/codeshot/share"
)

type harness struct {
	settings string
	state    string
}

func newHarness(t *testing.T) harness {
	t.Helper()

	dir := t.TempDir()
	h := harness{
		settings: filepath.Join(dir, "settings.yaml"),
		state:    filepath.Join(dir, "state.yaml"),
	}
	doc := "ai:\n  provider: local\nexport:\n  dir: " + filepath.Join(dir, "out") + "\n"
	require.NoError(t, os.WriteFile(h.settings, []byte(doc), 0o644))
	return h
}

func (h harness) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := cli.NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--settings", h.settings, "--state", h.state, "--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigSetGet(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	_, err := h.run(t, "", "config", "set", "theme=monokai", "fontSize=20")
	require.NoError(t, err)

	out, err := h.run(t, "", "config", "get", "theme")
	require.NoError(t, err)
	assert.Equal(t, "monokai\n", out)

	out, err = h.run(t, "", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "codeshot-config:")
	assert.Contains(t, out, "fontSize: 20")

	_, err = h.run(t, "", "config", "set", "padding=900")
	require.Error(t, err)

	_, err = h.run(t, "", "config", "reset")
	require.NoError(t, err)
	out, err = h.run(t, "", "config", "get", "theme")
	require.NoError(t, err)
	assert.Equal(t, "dracula\n", out)
}

func TestShareRoundTrip(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	token, err := h.run(t, "fn main() {}", "share", "encode", "-")
	require.NoError(t, err)
	assert.Equal(t, share.Encode("fn main() {}")+"\n", token)

	out, err := h.run(t, "", "share", "decode", strings.TrimSpace(token))
	require.NoError(t, err)
	assert.Equal(t, "fn main() {}\n", out)

	link, err := h.run(t, "x", "share", "link", "--base", "https://example.com/")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/?c="+share.Encode("x")+"\n", link)
}

func TestEstimate(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	out, err := h.run(t, "a\nb\nc\n", "estimate")
	require.NoError(t, err)
	assert.Contains(t, out, "png")
	assert.Contains(t, out, "pdf")
	assert.Contains(t, out, "Fidelity: 2x Scale")
}

func TestAuditLocal(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	out, err := h.run(t, "package main\n\nfunc main() {}\n", "audit", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "healthy"`)
}

func TestRender(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	out, err := h.run(t, "const x = 1;\n", "render", "--format", "png,pdf", "--set", "exportScale=1")
	require.NoError(t, err)

	paths := strings.Fields(out)
	require.Len(t, paths, 2)
	for _, p := range paths {
		assert.FileExists(t, p)
	}
	assert.Equal(t, ".png", filepath.Ext(paths[0]))
	assert.Equal(t, ".pdf", filepath.Ext(paths[1]))

	_, err = h.run(t, "", "render", "--watch")
	require.Error(t, err)

	_, err = h.run(t, "x", "render", "--format", "gif")
	require.Error(t, err)
}

func TestSettingsSetGet(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	_, err := h.run(t, "", "settings", "set", "ai.timeout=45s", "ai.model=gemini-test")
	require.NoError(t, err)

	out, err := h.run(t, "", "settings", "get", "ai.model")
	require.NoError(t, err)
	assert.Equal(t, "gemini-test\n", out)

	out, err = h.run(t, "", "settings", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "provider: local")

	out, err = h.run(t, "", "settings", "path")
	require.NoError(t, err)
	assert.Equal(t, h.settings+"\n", out)

	_, err = h.run(t, "", "settings", "set", "ai.provider=openai")
	require.Error(t, err)
	_, err = h.run(t, "", "settings", "set", "ai.api_key=secret")
	require.Error(t, err)
	_, err = h.run(t, "", "settings", "get", "ai.colour")
	require.Error(t, err)

	data, err := os.ReadFile(h.settings)
	require.NoError(t, err)
	assert.Contains(t, string(data), "gemini-test")
	assert.Contains(t, string(data), "provider: local")
	assert.NotContains(t, string(data), "openai")
}
