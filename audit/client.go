package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"github.com/arran4/codeshot"
)

const (
	DetectPrefix = 1000
	LintPrefix   = 2000

	// DefaultRequestsPerMinute paces calls client-side.
	DefaultRequestsPerMinute = 30
	defaultBurst             = 3

	fallbackLanguage = "javascript"
)

// Service is what the Auditor needs from a language service.
type Service interface {
	DetectLanguage(ctx context.Context, text string) (string, error)
	FindIssues(ctx context.Context, text, language string) ([]codeshot.Finding, error)
}

// Client runs detection and lint prompts against a Provider with pacing
// and retry.
type Client struct {
	provider Provider
	limiter  *rate.Limiter
	policy   Policy
	logger   *slog.Logger
}

type ClientOption func(*Client)

func WithPolicy(p Policy) ClientOption {
	return func(c *Client) { c.policy = p }
}

// WithRequestsPerMinute sets client-side pacing. Zero or less disables it.
func WithRequestsPerMinute(n int) ClientOption {
	return func(c *Client) {
		if n <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(float64(n)/60.0), defaultBurst)
	}
}

func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

func NewClient(p Provider, opts ...ClientOption) *Client {
	c := &Client{
		provider: p,
		limiter:  rate.NewLimiter(rate.Limit(float64(DefaultRequestsPerMinute)/60.0), defaultBurst),
		policy:   DefaultPolicy(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) generate(ctx context.Context, req Request) (string, error) {
	p := c.policy
	notify := p.Notify
	p.Notify = func(err error, d time.Duration) {
		c.logger.WarnContext(ctx, "retrying after rate limit",
			slog.Duration("delay", d),
			slog.Any("err", err),
		)
		if notify != nil {
			notify(err, d)
		}
	}
	res := Retry(ctx, func(ctx context.Context) (string, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
		return c.provider.Generate(ctx, req)
	}, p)
	switch res.Outcome {
	case OutcomeOK:
		return res.Value, nil
	case OutcomeQuotaExceeded:
		return "", fmt.Errorf("%w after %d attempts: %w", ErrQuotaExceeded, res.Attempts, res.Err)
	}
	return "", res.Err
}

// DetectLanguage asks for the language of the first DetectPrefix runes of
// text and returns it as a lower-case slug.
func (c *Client) DetectLanguage(ctx context.Context, text string) (string, error) {
	prompt := "Identify the programming language for the following code. " +
		"Respond ONLY with the name of the language.\n\nCode:\n" + Truncate(text, DetectPrefix)
	out, err := c.generate(ctx, Request{Prompt: prompt, Temperature: 0.1, MaxOutputTokens: 20})
	if err != nil {
		return "", fmt.Errorf("detect language: %w", err)
	}
	return NormalizeLanguage(out), nil
}

// FindIssues asks for the lines of the first LintPrefix runes of text that
// contain syntax errors.
func (c *Client) FindIssues(ctx context.Context, text, language string) ([]codeshot.Finding, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	prompt := fmt.Sprintf("You are a professional code linter. Analyze this %s code for syntax errors.\n"+
		"Return ONLY a JSON array of objects with the 1-indexed \"line\" and a short \"message\" for each error.\n"+
		"If no errors, return [].\n"+
		"Example: [{\"line\": 5, \"message\": \"missing semicolon\"}]\n\n"+
		"Code:\n%s", language, Truncate(text, LintPrefix))
	out, err := c.generate(ctx, Request{Prompt: prompt, Temperature: 0, JSON: true})
	if err != nil {
		return nil, fmt.Errorf("find issues: %w", err)
	}
	return ParseFindings(out)
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// NormalizeLanguage turns a free-form reply into a language slug.
func NormalizeLanguage(reply string) string {
	s := strings.ToLower(strings.TrimSpace(reply))
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = s[:i]
	}
	s = strings.Trim(s, " \t`'\".:")
	if s == "" {
		return fallbackLanguage
	}
	return s
}

// ParseFindings accepts either [{"line":n,"message":"..."}] or a bare array
// of line numbers. Entries with a line below 1 are dropped; the result is
// ordered by line.
func ParseFindings(reply string) ([]codeshot.Finding, error) {
	s := strings.TrimSpace(reply)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, fmt.Errorf("decode findings: %w", err)
	}
	var out []codeshot.Finding
	for _, r := range raw {
		var n float64
		if err := json.Unmarshal(r, &n); err == nil {
			out = append(out, codeshot.Finding{Line: int(n)})
			continue
		}
		var f struct {
			Line    float64 `json:"line"`
			Message string  `json:"message"`
		}
		if err := json.Unmarshal(r, &f); err != nil {
			continue
		}
		out = append(out, codeshot.Finding{Line: int(f.Line), Message: f.Message})
	}

	kept := out[:0]
	for _, f := range out {
		if f.Line >= 1 {
			kept = append(kept, f)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Line < kept[j].Line })
	if len(kept) == 0 {
		return nil, nil
	}
	return kept, nil
}

// Local answers without a network service: languages come from lexer
// analysis and no findings are reported.
type Local struct{}

func (Local) DetectLanguage(_ context.Context, text string) (string, error) {
	return codeshot.DetectLanguageLocally(text), nil
}

func (Local) FindIssues(context.Context, string, string) ([]codeshot.Finding, error) {
	return nil, nil
}
