package audit

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Outcome classifies a retried call.
type Outcome int

const (
	OutcomeOK Outcome = iota
	// OutcomeQuotaExceeded means every attempt was rate limited.
	OutcomeQuotaExceeded
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeQuotaExceeded:
		return "quota exceeded"
	}
	return "failed"
}

// Result is the discriminated result of Retry.
type Result[T any] struct {
	Outcome  Outcome
	Value    T
	Err      error
	Attempts int
}

// Policy configures Retry.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
	// Notify is called before each wait with the failure and the delay.
	Notify func(err error, delay time.Duration)
}

// DefaultPolicy allows three attempts, waiting 2s then 4s.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, InitialDelay: 2 * time.Second, Multiplier: 2}
}

// Retry runs op until it succeeds, fails with anything other than
// ErrRateLimited, or uses up p.MaxAttempts. Delays grow exponentially
// without jitter.
func Retry[T any](ctx context.Context, op func(context.Context) (T, error), p Policy) Result[T] {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.Multiplier < 1 {
		p.Multiplier = 2
	}
	b := &backoff.ExponentialBackOff{
		InitialInterval:     p.InitialDelay,
		RandomizationFactor: 0,
		Multiplier:          p.Multiplier,
		MaxInterval:         time.Hour,
	}

	var res Result[T]
	v, err := backoff.Retry(ctx, func() (T, error) {
		res.Attempts++
		v, err := op(ctx)
		if err != nil && !errors.Is(err, ErrRateLimited) {
			return v, backoff.Permanent(err)
		}
		return v, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(p.MaxAttempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, d time.Duration) {
			if p.Notify != nil {
				p.Notify(err, d)
			}
		}),
	)
	res.Value, res.Err = v, err
	switch {
	case err == nil:
		res.Outcome = OutcomeOK
	case errors.Is(err, ErrRateLimited) && res.Attempts >= p.MaxAttempts:
		res.Outcome = OutcomeQuotaExceeded
	default:
		res.Outcome = OutcomeFailed
	}
	return res
}
