package summary

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/watchtowerhq/watchtower/internal/store"
)

// Entry is one cached summary, shared by every client that asks for the same
// fingerprint.
type Entry struct {
	Fingerprint string    `json:"fingerprint"`
	Summary     string    `json:"summary"`
	Provider    string    `json:"provider"`
	CreatedAt   time.Time `json:"created_at"`
}

// Cache layers fresh/stale summary semantics over the shared store. An entry
// is written with TTL = fresh TTL + stale grace, so the store's own expiry
// bounds the grace window and the gateway never deletes entries itself.
// Store failures degrade to a miss: the gateway is correct without a cache,
// just slower.
type Cache struct {
	store      store.Store
	ttl        time.Duration
	staleGrace time.Duration
	log        zerolog.Logger
	now        func() time.Time
}

// NewCache creates a summary cache with the given freshness TTL and stale
// grace window.
func NewCache(st store.Store, ttl, staleGrace time.Duration, log zerolog.Logger) *Cache {
	return &Cache{
		store:      st,
		ttl:        ttl,
		staleGrace: staleGrace,
		log:        log,
		now:        time.Now,
	}
}

func cacheKey(fingerprint string) string { return "summary:" + fingerprint }

// Get returns the entry for fingerprint if it is still fresh
func (c *Cache) Get(ctx context.Context, fingerprint string) (*Entry, bool) {
	e, ok := c.read(ctx, fingerprint)
	if !ok {
		return nil, false
	}
	if c.now().After(e.CreatedAt.Add(c.ttl)) {
		return nil, false
	}
	return e, true
}

// GetStale returns the entry for fingerprint even past its freshness TTL, as
// long as the store still holds it. Last-resort path when every provider is
// down.
func (c *Cache) GetStale(ctx context.Context, fingerprint string) (*Entry, bool) {
	return c.read(ctx, fingerprint)
}

// Put stores a freshly generated summary, overwriting unconditionally: the
// last successful provider response wins, whichever provider produced it.
func (c *Cache) Put(ctx context.Context, fingerprint, summary, providerName string) {
	e := Entry{
		Fingerprint: fingerprint,
		Summary:     summary,
		Provider:    providerName,
		CreatedAt:   c.now(),
	}
	data, err := json.Marshal(e)
	if err != nil {
		c.log.Error().Err(err).Msg("marshal cache entry")
		return
	}
	if err := c.store.Set(ctx, cacheKey(fingerprint), data, c.ttl+c.staleGrace); err != nil {
		c.log.Warn().Err(err).Str("fingerprint", short(fingerprint)).Msg("cache write failed, continuing uncached")
	}
}

// FreshFor reports how much freshness the entry has left; negative once stale
func (c *Cache) FreshFor(e *Entry) time.Duration {
	return e.CreatedAt.Add(c.ttl).Sub(c.now())
}

func (c *Cache) read(ctx context.Context, fingerprint string) (*Entry, bool) {
	data, err := c.store.Get(ctx, cacheKey(fingerprint))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			c.log.Warn().Err(err).Str("fingerprint", short(fingerprint)).Msg("cache read failed, treating as miss")
		}
		return nil, false
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		c.log.Warn().Err(err).Str("fingerprint", short(fingerprint)).Msg("corrupt cache entry, treating as miss")
		return nil, false
	}
	return &e, true
}

// short truncates a fingerprint for log fields
func short(fingerprint string) string {
	if len(fingerprint) > 12 {
		return fingerprint[:12]
	}
	return fingerprint
}
