// cmd/api/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/watchtowerhq/watchtower/internal/config"
	"github.com/watchtowerhq/watchtower/internal/http/routes"
	"github.com/watchtowerhq/watchtower/internal/jobs"
	"github.com/watchtowerhq/watchtower/internal/provider"
	"github.com/watchtowerhq/watchtower/internal/ratelimit"
	"github.com/watchtowerhq/watchtower/internal/store"
	"github.com/watchtowerhq/watchtower/internal/summary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("config error")
	}
	if err := cfg.Validate(); err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("config error")
	}

	// Logger; the instance id distinguishes gateway replicas in shared logs
	logger := zerolog.New(os.Stdout).With().
		Timestamp().
		Str("instance", uuid.NewString()[:8]).
		Logger()

	// Shared store
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	st := store.NewRedisStore(rdb)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	if err := st.Ping(ctx); err != nil {
		// not fatal: the cache degrades to misses and the limiter to its
		// local estimate until redis comes back
		logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable at boot, starting degraded")
	}
	cancel()

	// Providers and fallback chain
	providers, err := provider.FromConfig(cfg, &http.Client{})
	if err != nil {
		logger.Fatal().Err(err).Msg("provider setup failed")
	}
	chain := summary.NewChain(providers, summary.ChainConfig{
		Breaker: summary.BreakerConfig{
			FailureThreshold: cfg.BreakerThreshold,
			Cooldown:         cfg.BreakerCooldown,
			QuotaCooldown:    cfg.QuotaCooldown,
		},
		MaxAttempts: cfg.MaxAttempts,
	}, logger)

	cache := summary.NewCache(st, cfg.CacheTTL, cfg.CacheStaleGrace, logger)
	limiter := ratelimit.New(st, cfg.RateLimitWindow, cfg.RateLimitBurst, logger)

	// Background refresh enqueuer
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer asynqClient.Close()
	enqueuer := jobs.NewEnqueuer(asynqClient, logger)

	svc := summary.NewService(cache, limiter, chain, logger,
		summary.WithRefresher(enqueuer, cfg.RefreshThreshold))

	// Router / server
	s := routes.New(routes.ServerOptions{
		Svc:               svc,
		Store:             st,
		HTTPRatePerMinute: cfg.HTTPRatePerMinute,
	})
	h := hlog.NewHandler(logger)(s.Router)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Info().Str("port", cfg.Port).Int("providers", len(providers)).Msg("starting summarization gateway")
	logger.Fatal().Err(srv.ListenAndServe()).Msg("server stopped")
}
