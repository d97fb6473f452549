// cmd/worker/main.go
package main

import (
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/watchtowerhq/watchtower/internal/config"
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

	logger := zerolog.New(os.Stdout).With().
		Timestamp().
		Str("instance", "worker-"+uuid.NewString()[:8]).
		Logger()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	st := store.NewRedisStore(rdb)

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
	svc := summary.NewService(cache, limiter, chain, logger)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		asynq.Config{Concurrency: 4},
	)
	mux := asynq.NewServeMux()
	mux.Handle(jobs.TaskSummaryRefresh, jobs.NewRefreshHandler(svc, logger))

	logger.Info().Msg("starting refresh worker")
	if err := srv.Run(mux); err != nil {
		logger.Fatal().Err(err).Msg("worker stopped")
	}
}
