package main

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"paraiso_verde/internal/adapters/hotelapi"
	"paraiso_verde/internal/adapters/observability"
	redisad "paraiso_verde/internal/adapters/redis"
	"paraiso_verde/internal/app"
	"paraiso_verde/internal/shared"
)

// warmer refreshes the public catalog entries in Redis so the first visitor
// after a deploy or a cache flush does not pay for the API round trips.
func main() {
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	keys := app.WarmKeys()
	log.Info().
		Str("api", cfg.APIBaseURL).
		Int("workers", cfg.WarmWorkers).
		Strs("keys", keys).
		Msg("warmer starting")

	api, err := hotelapi.New(cfg.APIBaseURL, hotelapi.Options{
		RPS:         cfg.APIRPS,
		Timeout:     cfg.APITimeout,
		MaxAttempts: cfg.APIMaxAttempts,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize API client")
	}
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()
	if err := cache.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("redis ping failed")
	}
	catalog := app.NewCatalogService(api, cache, cfg.CacheTTL)

	workers := cfg.WarmWorkers
	if workers < 1 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup
	var failed atomic.Int32

	for _, key := range keys {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Error().Err(err).Msg("semaphore acquire failed")
			break
		}

		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			defer sem.Release(1)

			start := time.Now()
			if err := catalog.Warm(ctx, key); err != nil {
				failed.Add(1)
				log.Warn().Str("key", key).Err(err).Msg("warm failed")
				return
			}
			log.Info().Str("key", key).Dur("took", time.Since(start)).Msg("warm ok")
		}(key)
	}

	wg.Wait()
	if n := failed.Load(); n > 0 {
		log.Fatal().Int32("failed", n).Msg("warming incomplete")
	}
	log.Info().Msg("warming completed")
}
