package audit_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arran4/codeshot"
	"github.com/arran4/codeshot/audit"
)

func geminiServer(t *testing.T, handler func(w http.ResponseWriter, body map[string]any)) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, ":generateContent"), r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		handler(w, body)
	}))
	t.Cleanup(srv.Close)

	return srv
}

func reply(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"candidates": []any{
			map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": text}}}},
		},
	})
}

func newGemini(url string) *audit.Gemini {
	return audit.NewGemini(audit.GeminiConfig{APIKey: "test-key", Endpoint: url, Model: "test-model"})
}

func TestGeminiGenerate(t *testing.T) {
	t.Parallel()

	srv := geminiServer(t, func(w http.ResponseWriter, body map[string]any) {
		gc, ok := body["generationConfig"].(map[string]any)
		assert.True(t, ok)
		assert.Equal(t, "application/json", gc["responseMimeType"])
		reply(w, "[3]")
	})

	out, err := newGemini(srv.URL).Generate(context.Background(), audit.Request{Prompt: "p", JSON: true})
	require.NoError(t, err)
	assert.Equal(t, "[3]", out)
}

func TestGeminiRateLimited(t *testing.T) {
	t.Parallel()

	tcs := map[string]http.HandlerFunc{
		"status 429": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		},
		"resource exhausted": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":{"code":403,"message":"quota","status":"RESOURCE_EXHAUSTED"}}`))
		},
	}
	for name, h := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(h)
			t.Cleanup(srv.Close)

			_, err := newGemini(srv.URL).Generate(context.Background(), audit.Request{Prompt: "p"})
			require.ErrorIs(t, err, audit.ErrRateLimited)
		})
	}
}

func TestGeminiOtherFailures(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	_, err := newGemini(srv.URL).Generate(context.Background(), audit.Request{Prompt: "p"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, audit.ErrRateLimited)

	_, err = audit.NewGemini(audit.GeminiConfig{Endpoint: srv.URL}).Generate(context.Background(), audit.Request{})
	require.ErrorIs(t, err, audit.ErrNoAPIKey)
}

func TestClientDetectLanguageTruncatesPrompt(t *testing.T) {
	t.Parallel()

	var prompt string
	p := audit.ProviderFunc(func(_ context.Context, req audit.Request) (string, error) {
		prompt = req.Prompt
		assert.InDelta(t, 0.1, req.Temperature, 1e-9)
		assert.Equal(t, 20, req.MaxOutputTokens)
		return "  Python.\n", nil
	})
	c := audit.NewClient(p, audit.WithPolicy(fastPolicy()), audit.WithRequestsPerMinute(0))

	text := strings.Repeat("é", 1500)
	lang, err := c.DetectLanguage(context.Background(), text)
	require.NoError(t, err)
	assert.Equal(t, "python", lang)
	assert.True(t, utf8.ValidString(prompt))
	assert.Equal(t, audit.DetectPrefix, strings.Count(prompt, "é"))
}

func TestClientQuotaExceeded(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	p := audit.ProviderFunc(func(context.Context, audit.Request) (string, error) {
		calls.Add(1)
		return "", audit.ErrRateLimited
	})
	c := audit.NewClient(p, audit.WithPolicy(fastPolicy()), audit.WithRequestsPerMinute(0))

	_, err := c.FindIssues(context.Background(), "x", "go")
	require.ErrorIs(t, err, audit.ErrQuotaExceeded)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClientFindIssuesAgainstServer(t *testing.T) {
	t.Parallel()

	srv := geminiServer(t, func(w http.ResponseWriter, _ map[string]any) {
		reply(w, `[{"line": 2, "message": "unexpected token"}]`)
	})
	c := audit.NewClient(newGemini(srv.URL), audit.WithPolicy(fastPolicy()), audit.WithRequestsPerMinute(0))

	findings, err := c.FindIssues(context.Background(), "a\nb(", "javascript")
	require.NoError(t, err)
	assert.Equal(t, []codeshot.Finding{{Line: 2, Message: "unexpected token"}}, findings)
}

func TestParseFindings(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		in   string
		want []codeshot.Finding
		err  bool
	}{
		"objects": {
			in:   `[{"line":7,"message":"b"},{"line":3,"message":"a"}]`,
			want: []codeshot.Finding{{Line: 3, Message: "a"}, {Line: 7, Message: "b"}},
		},
		"bare lines": {
			in:   `[5, 12]`,
			want: []codeshot.Finding{{Line: 5}, {Line: 12}},
		},
		"fenced": {
			in:   "```json\n[1]\n```",
			want: []codeshot.Finding{{Line: 1}},
		},
		"drops non-positive": {
			in:   `[0, -2, {"line":0}]`,
			want: nil,
		},
		"empty":    {in: `[]`, want: nil},
		"not json": {in: `line 4 is wrong`, err: true},
	}
	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := audit.ParseFindings(tc.in)
			if tc.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "héllo", audit.Truncate("héllo", 10))
	assert.Equal(t, "hé", audit.Truncate("héllo", 2))
	assert.Equal(t, "🎉", audit.Truncate("🎉🎉", 1))
	assert.Empty(t, audit.Truncate("abc", 0))
}

func TestLocalService(t *testing.T) {
	t.Parallel()

	lang, err := audit.Local{}.DetectLanguage(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, codeshot.PlainText, lang)

	findings, err := audit.Local{}.FindIssues(context.Background(), "x", "go")
	require.NoError(t, err)
	assert.Empty(t, findings)
}
