package summary

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/watchtowerhq/watchtower/internal/provider"
)

// BreakerConfig holds per-provider circuit breaker tuning
type BreakerConfig struct {
	// FailureThreshold is the consecutive-failure count that opens the breaker
	FailureThreshold uint32
	// Cooldown is how long an open breaker waits before allowing one probe
	Cooldown time.Duration
	// QuotaCooldown is how long a provider is held out after reporting quota
	// exhaustion; align it with the provider's quota reset period
	QuotaCooldown time.Duration
}

// providerBreaker gates one provider. Transient failures run through a
// gobreaker state machine (Closed -> Open on threshold, Open -> HalfOpen
// after cooldown, one probe in HalfOpen). Quota exhaustion is tracked beside
// it as an explicit hold-until deadline, because retrying before the quota
// resets is guaranteed futile no matter what the probe logic thinks.
type providerBreaker struct {
	name string
	cb   *gobreaker.CircuitBreaker[string]

	quotaCooldown time.Duration

	mu            sync.Mutex
	quotaHeldTill time.Time

	log zerolog.Logger
	now func() time.Time
}

func newProviderBreaker(name string, cfg BreakerConfig, log zerolog.Logger) *providerBreaker {
	b := &providerBreaker{
		name:          name,
		quotaCooldown: cfg.QuotaCooldown,
		log:           log.With().Str("provider", name).Logger(),
		now:           time.Now,
	}
	b.cb = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1, // exactly one probe in half-open
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		// Client-input rejections are the caller's fault, not the provider's:
		// they pass through without counting toward the trip threshold.
		IsSuccessful: func(err error) bool {
			return err == nil || provider.IsInvalidInput(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.log.Info().
				Str("from", breakerStateString(from)).
				Str("to", breakerStateString(to)).
				Msg("circuit breaker state change")
		},
	})
	return b
}

// available reports whether the chain should attempt this provider at all.
// Open breaker or active quota hold -> skip without counting.
func (b *providerBreaker) available() bool {
	if b.cb.State() == gobreaker.StateOpen {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.now().Before(b.quotaHeldTill)
}

// execute runs fn under the breaker and records a quota hold when the
// provider reports quota exhaustion.
func (b *providerBreaker) execute(fn func() (string, error)) (string, error) {
	out, err := b.cb.Execute(fn)
	if provider.IsQuotaExceeded(err) {
		until := b.now().Add(b.quotaCooldown)
		b.mu.Lock()
		b.quotaHeldTill = until
		b.mu.Unlock()
		b.log.Warn().Time("held_until", until).Msg("provider quota exhausted, holding out of chain")
	}
	return out, err
}

// state reports the breaker state for health reporting, folding an active
// quota hold into "open" since the effect on the chain is identical.
func (b *providerBreaker) state() string {
	b.mu.Lock()
	held := b.now().Before(b.quotaHeldTill)
	b.mu.Unlock()
	if held {
		return "open"
	}
	return breakerStateString(b.cb.State())
}

func breakerStateString(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
