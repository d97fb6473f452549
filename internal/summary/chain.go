package summary

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/watchtowerhq/watchtower/internal/provider"
)

// ErrExhausted is returned when no provider in the chain could produce a
// summary: every entry was skipped (open breaker, quota hold) or failed.
var ErrExhausted = errors.New("summary: all providers unavailable")

// ChainConfig tunes the fallback chain
type ChainConfig struct {
	Breaker BreakerConfig
	// MaxAttempts caps how many providers a single request may contact,
	// bounding worst-case latency even with every breaker closed and every
	// provider slow. Zero or negative means "all of them".
	MaxAttempts int
}

type chainEntry struct {
	provider provider.Summarizer
	breaker  *providerBreaker
}

// Chain is an ordered traversal over (provider, breaker) pairs. First success
// wins; there is no racing, so a request costs at most one provider call per
// attempted entry.
type Chain struct {
	entries     []chainEntry
	maxAttempts int
	log         zerolog.Logger
}

// NewChain builds a chain over the providers in the given order, one breaker
// per provider.
func NewChain(providers []provider.Summarizer, cfg ChainConfig, log zerolog.Logger) *Chain {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 || maxAttempts > len(providers) {
		maxAttempts = len(providers)
	}
	c := &Chain{maxAttempts: maxAttempts, log: log}
	for _, p := range providers {
		c.entries = append(c.entries, chainEntry{
			provider: p,
			breaker:  newProviderBreaker(p.Name(), cfg.Breaker, log),
		})
	}
	return c
}

// Invoke traverses the chain until one provider succeeds. Returns the summary
// and the name of the provider that produced it. Client-input errors are
// terminal: no further providers are tried. Everything else falls through to
// the next entry, and total failure surfaces as ErrExhausted.
func (c *Chain) Invoke(ctx context.Context, req provider.Request) (string, string, error) {
	attempts := 0
	var lastErr error

	for _, e := range c.entries {
		if attempts >= c.maxAttempts {
			break
		}
		if !e.breaker.available() {
			c.log.Debug().Str("provider", e.provider.Name()).Msg("skipping provider, breaker open")
			continue
		}
		attempts++

		out, err := e.breaker.execute(func() (string, error) {
			return e.provider.Summarize(ctx, req)
		})
		if err == nil {
			return out, e.provider.Name(), nil
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			// lost a race with the breaker; treat like a skip
			attempts--
			continue
		}
		if provider.IsInvalidInput(err) {
			return "", "", err
		}
		c.log.Warn().Err(err).Str("provider", e.provider.Name()).Msg("provider failed, falling back")
		lastErr = err
	}

	if lastErr != nil {
		return "", "", fmt.Errorf("%w: last error: %w", ErrExhausted, lastErr)
	}
	return "", "", ErrExhausted
}

// States reports the breaker state per provider, for health reporting
func (c *Chain) States() map[string]string {
	out := make(map[string]string, len(c.entries))
	for _, e := range c.entries {
		out[e.provider.Name()] = e.breaker.state()
	}
	return out
}
