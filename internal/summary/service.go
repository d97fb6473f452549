// Package summary implements the resilient summarization gateway: request
// fingerprinting, the cross-client cache, the per-provider circuit breakers
// and fallback chain, and the orchestrating service that ties them together
// with the rate limiter.
package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/watchtowerhq/watchtower/internal/provider"
	"github.com/watchtowerhq/watchtower/internal/ratelimit"
)

// Source values for results not produced by a live provider call
const (
	SourceCache      = "cache"
	SourceStaleCache = "stale-cache"
)

// ErrInvalidInput rejects requests with no usable text
var ErrInvalidInput = errors.New("summary: invalid input")

// RateLimitError is returned when the client has exhausted its window
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("summary: rate limited, retry after %s", e.RetryAfter)
}

// Result is a produced summary plus where it came from. Source is a provider
// name, "cache", or "stale-cache"; Degraded marks results served past their
// freshness TTL so the UI can signal reduced confidence.
type Result struct {
	Summary  string `json:"summary"`
	Source   string `json:"source"`
	Degraded bool   `json:"degraded"`
}

// Refresher enqueues background re-summarization for entries approaching
// expiry. Implemented by the jobs package; nil disables refresh.
type Refresher interface {
	EnqueueRefresh(ctx context.Context, req provider.Request) error
}

// Service is the gateway facade: one Summarize call runs the full
// validate -> rate limit -> cache -> fallback chain -> stale serve pipeline.
type Service struct {
	cache   *Cache
	limiter *ratelimit.Limiter
	chain   *Chain

	refresher        Refresher
	refreshThreshold time.Duration

	log zerolog.Logger
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithRefresher enables background refresh of entries whose remaining
// freshness drops below threshold.
func WithRefresher(r Refresher, threshold time.Duration) ServiceOption {
	return func(s *Service) {
		s.refresher = r
		s.refreshThreshold = threshold
	}
}

// NewService wires the gateway facade
func NewService(cache *Cache, limiter *ratelimit.Limiter, chain *Chain, log zerolog.Logger, opts ...ServiceOption) *Service {
	s := &Service{cache: cache, limiter: limiter, chain: chain, log: log}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Summarize serves one client request end to end
func (s *Service) Summarize(ctx context.Context, req provider.Request, clientID string) (*Result, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, ErrInvalidInput
	}

	dec := s.limiter.Allow(ctx, clientID)
	if !dec.Allowed {
		s.log.Info().Str("client", clientID).Bool("degraded_decision", dec.Degraded).Msg("rate limited")
		return nil, &RateLimitError{RetryAfter: dec.RetryAfter}
	}

	fp := Fingerprint(req.Text, req.Context)
	log := s.log.With().Str("fingerprint", short(fp)).Logger()

	if e, ok := s.cache.Get(ctx, fp); ok {
		log.Debug().Str("provider", e.Provider).Msg("fresh cache hit")
		s.maybeRefresh(ctx, e, req)
		return &Result{Summary: e.Summary, Source: SourceCache}, nil
	}

	// Detached from the client's cancellation: a disconnecting client should
	// not waste a provider call whose result could still populate the cache
	// for everyone else. Per-attempt timeouts still apply inside the chain.
	callCtx := context.WithoutCancel(ctx)

	out, providerName, err := s.chain.Invoke(callCtx, req)
	if err == nil {
		s.cache.Put(callCtx, fp, out, providerName)
		log.Info().Str("provider", providerName).Msg("summary generated")
		return &Result{Summary: out, Source: providerName}, nil
	}

	if provider.IsInvalidInput(err) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	if e, ok := s.cache.GetStale(ctx, fp); ok {
		log.Warn().Str("provider", e.Provider).Msg("chain exhausted, serving stale cache entry")
		return &Result{Summary: e.Summary, Source: SourceStaleCache, Degraded: true}, nil
	}

	log.Error().Err(err).Msg("chain exhausted and no stale entry")
	return nil, err
}

// Refresh re-runs the chain for a cached request and re-puts the entry. Used
// by the background worker; it bypasses the rate limiter (it is not client
// traffic) but not the breakers or quota holds.
func (s *Service) Refresh(ctx context.Context, req provider.Request) error {
	if strings.TrimSpace(req.Text) == "" {
		return ErrInvalidInput
	}
	fp := Fingerprint(req.Text, req.Context)
	out, providerName, err := s.chain.Invoke(ctx, req)
	if err != nil {
		return fmt.Errorf("refresh %s: %w", short(fp), err)
	}
	s.cache.Put(ctx, fp, out, providerName)
	s.log.Debug().Str("fingerprint", short(fp)).Str("provider", providerName).Msg("entry refreshed")
	return nil
}

// ProviderStates reports per-provider breaker states for health reporting
func (s *Service) ProviderStates() map[string]string {
	return s.chain.States()
}

// maybeRefresh enqueues a background refresh when the served entry is close
// to expiry. Best effort: enqueue failures only log.
func (s *Service) maybeRefresh(ctx context.Context, e *Entry, req provider.Request) {
	if s.refresher == nil {
		return
	}
	if s.cache.FreshFor(e) > s.refreshThreshold {
		return
	}
	if err := s.refresher.EnqueueRefresh(ctx, req); err != nil {
		s.log.Warn().Err(err).Str("fingerprint", short(e.Fingerprint)).Msg("refresh enqueue failed")
	}
}
