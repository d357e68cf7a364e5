package audit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arran4/codeshot/audit"
)

func fastPolicy() audit.Policy {
	return audit.Policy{MaxAttempts: 3, InitialDelay: time.Millisecond, Multiplier: 2}
}

func TestRetryRecoversFromRateLimit(t *testing.T) {
	t.Parallel()

	var delays []time.Duration
	p := fastPolicy()
	p.Notify = func(_ error, d time.Duration) { delays = append(delays, d) }

	calls := 0
	res := audit.Retry(context.Background(), func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", audit.ErrRateLimited
		}
		return "go", nil
	}, p)

	assert.Equal(t, audit.OutcomeOK, res.Outcome)
	assert.Equal(t, "go", res.Value)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond}, delays)
}

func TestRetryExhaustionIsQuotaExceeded(t *testing.T) {
	t.Parallel()

	res := audit.Retry(context.Background(), func(context.Context) (int, error) {
		return 0, audit.ErrRateLimited
	}, fastPolicy())

	assert.Equal(t, audit.OutcomeQuotaExceeded, res.Outcome)
	assert.Equal(t, 3, res.Attempts)
	require.ErrorIs(t, res.Err, audit.ErrRateLimited)
}

func TestRetryDoesNotRetryOtherErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	res := audit.Retry(context.Background(), func(context.Context) (int, error) {
		return 0, boom
	}, fastPolicy())

	assert.Equal(t, audit.OutcomeFailed, res.Outcome)
	assert.Equal(t, 1, res.Attempts)
	require.ErrorIs(t, res.Err, boom)
}

func TestRetryStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	p := audit.Policy{MaxAttempts: 3, InitialDelay: time.Hour, Multiplier: 2}
	res := audit.Retry(ctx, func(context.Context) (int, error) {
		cancel()
		return 0, audit.ErrRateLimited
	}, p)

	assert.Equal(t, audit.OutcomeFailed, res.Outcome)
	assert.Equal(t, 1, res.Attempts)
}
