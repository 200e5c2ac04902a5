package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/shamsacademy/academy-backend/internal/platform/envutil"
	"github.com/shamsacademy/academy-backend/internal/platform/logger"
)

type Redis struct {
	log    *logger.Logger
	rdb    goredis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedisFromEnv connects to REDIS_ADDR. It returns (nil, nil) when the
// address is unset so callers can fall back to memory.
func NewRedisFromEnv(log *logger.Logger) (*Redis, error) {
	addr := strings.TrimSpace(envutil.String("REDIS_ADDR", ""))
	if addr == "" {
		return nil, nil
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    envutil.String("REDIS_PASSWORD", ""),
		DB:          envutil.Int("REDIS_DB", 0),
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedis(log, rdb, envutil.String("REDIS_KEY_PREFIX", "academy")), nil
}

func NewRedis(log *logger.Logger, rdb goredis.UniversalClient, prefix string) *Redis {
	if log == nil {
		log = logger.NewNop()
	}
	return &Redis{
		log:    log.With("service", "RedisCache"),
		rdb:    rdb,
		prefix: strings.TrimSuffix(prefix, ":"),
		now:    time.Now,
	}
}

func (r *Redis) key(parts ...string) string {
	if r.prefix == "" {
		return strings.Join(parts, ":")
	}
	return r.prefix + ":" + strings.Join(parts, ":")
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.rdb.Get(ctx, r.key("cache", key)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.rdb.Set(ctx, r.key("cache", key), value, ttl).Err()
}

func (r *Redis) Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	if limit <= 0 || window <= 0 {
		return Decision{Allowed: true}, nil
	}
	now := r.now()
	start := windowStart(now, window)
	k := r.key("rl", key, strconv.FormatInt(start.Unix(), 10))

	var incr *goredis.IntCmd
	_, err := r.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		incr = p.Incr(ctx, k)
		p.Expire(ctx, k, window+time.Second)
		return nil
	})
	if err != nil {
		return Decision{}, err
	}
	return decide(int(incr.Val()), limit, start.Add(window).Sub(now)), nil
}

func (r *Redis) Close() error {
	if r == nil || r.rdb == nil {
		return nil
	}
	return r.rdb.Close()
}

func decide(count, limit int, untilReset time.Duration) Decision {
	if count > limit {
		return Decision{Allowed: false, Remaining: 0, RetryAfter: untilReset}
	}
	return Decision{Allowed: true, Remaining: limit - count}
}
