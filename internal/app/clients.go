package app

import (
	"fmt"

	"github.com/shamsacademy/academy-backend/internal/platform/cache"
	"github.com/shamsacademy/academy-backend/internal/platform/logger"
	"github.com/shamsacademy/academy-backend/internal/platform/openai"
	"github.com/shamsacademy/academy-backend/internal/platform/payments"
)

type Clients struct {
	Payments payments.Registry
	LLM      openai.Client

	// Cache and Limiter are backed by Redis when REDIS_ADDR is set and by
	// process memory otherwise.
	Cache   cache.Cache
	Limiter cache.Limiter

	redis *cache.Redis
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	registry, err := payments.NewRegistry(log, cfg.Payments)
	if err != nil {
		return Clients{}, fmt.Errorf("init payment providers: %w", err)
	}

	llm := openai.NewClient(log, cfg.OpenAI)

	rdb, err := cache.NewRedisFromEnv(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init redis: %w", err)
	}
	out := Clients{
		Payments: registry,
		LLM:      llm,
	}
	if rdb != nil {
		out.Cache, out.Limiter, out.redis = rdb, rdb, rdb
	} else {
		log.Warn("REDIS_ADDR is not set; assistant cache and rate limits are per process")
		mem := cache.NewMemory()
		out.Cache, out.Limiter = mem, mem
	}
	return out, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.redis != nil {
		_ = c.redis.Close()
	}
}
