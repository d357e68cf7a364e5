// Package audit talks to the generative language service that detects the
// language of a buffer and lints it.
package audit

import (
	"context"
	"errors"
)

var (
	// ErrRateLimited is the service's transient "slow down" signal.
	ErrRateLimited = errors.New("rate limited")
	// ErrQuotaExceeded is returned once retries on ErrRateLimited run out.
	ErrQuotaExceeded = errors.New("quota exceeded")
	ErrNoAPIKey      = errors.New("no API key configured")
	ErrEmptyResponse = errors.New("empty response")
)

// Request is one text generation call.
type Request struct {
	Prompt          string
	Temperature     float64
	MaxOutputTokens int
	// JSON asks the service for an application/json reply.
	JSON bool
}

// Provider generates text for a prompt.
type Provider interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, req Request) (string, error)

func (f ProviderFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
