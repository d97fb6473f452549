// Package ratelimit enforces the per-client quota on the summarize path.
// The authoritative counter is a fixed window in the shared store, so the
// limit holds across all gateway instances; when the store is unreachable the
// limiter degrades to a per-process token bucket instead of unconditionally
// allowing (which would defeat quota protection) or denying (which would turn
// a store blip into a full outage).
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/watchtowerhq/watchtower/internal/store"
)

// localPruneThreshold bounds the local fallback map: once it grows past this
// many clients, entries idle for a full window are dropped on the next miss.
const localPruneThreshold = 10000

// Decision is the outcome of one Allow call
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
	// Degraded marks decisions made by the local fallback while the shared
	// store was unreachable
	Degraded bool
}

type localBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter is a fixed-window counter on the shared store with a local
// token-bucket fallback.
type Limiter struct {
	store  store.Store
	window time.Duration
	burst  int

	mu    sync.Mutex
	local map[string]*localBucket

	log zerolog.Logger
	now func() time.Time
}

// New creates a limiter allowing burst requests per client per window
func New(st store.Store, window time.Duration, burst int, log zerolog.Logger) *Limiter {
	return &Limiter{
		store:  st,
		window: window,
		burst:  burst,
		local:  make(map[string]*localBucket),
		log:    log,
		now:    time.Now,
	}
}

// Allow decides whether clientID may make another summarize request
func (l *Limiter) Allow(ctx context.Context, clientID string) Decision {
	now := l.now()
	windowStart := now.Truncate(l.window)
	key := fmt.Sprintf("ratelimit:%s:%d", clientID, windowStart.Unix())

	n, err := l.store.Incr(ctx, key, l.window)
	if err != nil {
		l.log.Warn().Err(err).Msg("rate-limit store unreachable, using local estimate")
		return l.allowLocal(clientID, now)
	}
	if n > int64(l.burst) {
		return Decision{RetryAfter: windowStart.Add(l.window).Sub(now)}
	}
	return Decision{Allowed: true}
}

// allowLocal is the best-effort per-process estimate. It refills at the same
// average rate as the shared window, so a client hammering one instance is
// still throttled; clients spread across instances get bounded slack until
// the store recovers.
func (l *Limiter) allowLocal(clientID string, now time.Time) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.local[clientID]
	if !ok {
		if len(l.local) >= localPruneThreshold {
			l.prune(now)
		}
		b = &localBucket{
			limiter: rate.NewLimiter(rate.Every(l.window/time.Duration(l.burst)), l.burst),
		}
		l.local[clientID] = b
	}
	b.lastSeen = now

	if b.limiter.Allow() {
		return Decision{Allowed: true, Degraded: true}
	}
	return Decision{RetryAfter: l.window / time.Duration(l.burst), Degraded: true}
}

// prune drops buckets idle for a full window; caller holds l.mu
func (l *Limiter) prune(now time.Time) {
	for id, b := range l.local {
		if now.Sub(b.lastSeen) > l.window {
			delete(l.local, id)
		}
	}
}
