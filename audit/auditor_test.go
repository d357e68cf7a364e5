package audit_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arran4/codeshot"
	"github.com/arran4/codeshot/audit"
)

type recorder struct {
	mu      sync.Mutex
	reports []audit.Report
}

func (r *recorder) add(rep audit.Report) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, rep)
}

func (r *recorder) all() []audit.Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]audit.Report(nil), r.reports...)
}

// flakyProvider rate limits the first n calls.
func flakyProvider(n int) audit.Provider {
	var mu sync.Mutex
	calls := 0
	return audit.ProviderFunc(func(_ context.Context, req audit.Request) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls <= n {
			return "", audit.ErrRateLimited
		}
		if req.JSON {
			return `[{"line":1,"message":"missing semicolon"}]`, nil
		}
		return "go", nil
	})
}

func TestAuditorRecoversAfterTwoRateLimits(t *testing.T) {
	t.Parallel()

	var rec recorder
	c := audit.NewClient(flakyProvider(2), audit.WithPolicy(fastPolicy()), audit.WithRequestsPerMinute(0))
	a := audit.NewAuditor(c, rec.add, nil)

	rep, delivered := a.Run(context.Background(), "package main", "javascript")
	require.True(t, delivered)

	reports := rec.all()
	require.Len(t, reports, 1)
	assert.Equal(t, rep, reports[0])
	assert.Equal(t, audit.StatusIssues, rep.Status)
	assert.Equal(t, "go", rep.Language)
	assert.Equal(t, []codeshot.Finding{{Line: 1, Message: "missing semicolon"}}, rep.Findings)
	for _, r := range reports {
		assert.NotEqual(t, audit.StatusQuotaExceeded, r.Status)
	}
	assert.Equal(t, "1 Issue", rep.Label())
}

func TestAuditorQuotaExceeded(t *testing.T) {
	t.Parallel()

	var rec recorder
	c := audit.NewClient(flakyProvider(100), audit.WithPolicy(fastPolicy()), audit.WithRequestsPerMinute(0))
	a := audit.NewAuditor(c, rec.add, nil)

	rep, delivered := a.Run(context.Background(), "x := 1", "go")
	require.True(t, delivered)
	assert.Equal(t, audit.StatusQuotaExceeded, rep.Status)
	assert.False(t, rep.FindingsChanged)
	assert.Empty(t, rep.Findings)
	assert.Empty(t, rep.Language)
	assert.Equal(t, audit.StatusQuotaExceeded, a.Status())
	assert.Equal(t, "Quota exceeded", rep.Label())
}

func TestAuditorEmptyBufferSkipsService(t *testing.T) {
	t.Parallel()

	p := audit.ProviderFunc(func(context.Context, audit.Request) (string, error) {
		t.Error("service must not be called for an empty buffer")
		return "", nil
	})
	a := audit.NewAuditor(audit.NewClient(p), nil, nil)

	rep, delivered := a.Run(context.Background(), "  \n\t", "go")
	require.True(t, delivered)
	assert.True(t, rep.FindingsChanged)
	assert.Empty(t, rep.Findings)
	assert.Equal(t, audit.StatusIdle, rep.Status)
}

func TestAuditorFailsSoft(t *testing.T) {
	t.Parallel()

	p := audit.ProviderFunc(func(context.Context, audit.Request) (string, error) {
		return "", assert.AnError
	})
	a := audit.NewAuditor(audit.NewClient(p, audit.WithPolicy(fastPolicy())), nil, nil)

	rep, delivered := a.Run(context.Background(), "fn main() {}", "rust")
	require.True(t, delivered)
	assert.Empty(t, rep.Language)
	assert.Empty(t, rep.Findings)
	assert.Equal(t, audit.StatusHealthy, rep.Status)
}

// gatedService blocks detection for buffers containing "slow" until released.
type gatedService struct {
	release chan struct{}
	started chan struct{}
}

func (g *gatedService) DetectLanguage(ctx context.Context, text string) (string, error) {
	if strings.Contains(text, "slow") {
		close(g.started)
		<-g.release
		return "slow", nil
	}
	return "fast", nil
}

func (g *gatedService) FindIssues(context.Context, string, string) ([]codeshot.Finding, error) {
	return nil, nil
}

func TestAuditorLastStartedWins(t *testing.T) {
	t.Parallel()

	var rec recorder
	svc := &gatedService{release: make(chan struct{}), started: make(chan struct{})}
	a := audit.NewAuditor(svc, rec.add, nil)

	done := make(chan bool)
	go func() {
		_, delivered := a.Run(context.Background(), "slow buffer", "go")
		done <- delivered
	}()
	<-svc.started

	rep, delivered := a.Run(context.Background(), "fast buffer", "go")
	require.True(t, delivered)
	assert.Equal(t, "fast", rep.Language)

	close(svc.release)
	select {
	case delivered := <-done:
		assert.False(t, delivered)
	case <-time.After(time.Second):
		t.Fatal("stale run did not finish")
	}

	reports := rec.all()
	require.Len(t, reports, 1)
	assert.Equal(t, "fast", reports[0].Language)
	assert.Equal(t, audit.StatusHealthy, a.Status())
}

func TestAuditorInvalidateDropsRunInFlight(t *testing.T) {
	t.Parallel()

	var rec recorder
	svc := &gatedService{release: make(chan struct{}), started: make(chan struct{})}
	a := audit.NewAuditor(svc, rec.add, nil)

	done := make(chan bool)
	go func() {
		_, delivered := a.Run(context.Background(), "slow buffer", "go")
		done <- delivered
	}()
	<-svc.started
	a.Invalidate()
	assert.Equal(t, audit.StatusIdle, a.Status())

	close(svc.release)
	select {
	case delivered := <-done:
		assert.False(t, delivered)
	case <-time.After(time.Second):
		t.Fatal("invalidated run did not finish")
	}
	assert.Empty(t, rec.all())
	assert.Equal(t, audit.StatusIdle, a.Status())
}
