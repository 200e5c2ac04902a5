package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

func TestMemoryCacheExpires(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory().WithClock(func() time.Time { return now })
	ctx := context.Background()

	if err := m.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, ok, _ := m.Get(ctx, "k"); !ok || v != "v" {
		t.Fatalf("Get: want=v,true got=%q,%v", v, ok)
	}
	now = now.Add(time.Minute)
	if _, ok, _ := m.Get(ctx, "k"); ok {
		t.Fatalf("Get after ttl: want miss")
	}
}

func TestMemoryLimiterFixedWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 10, 0, time.UTC)
	m := NewMemory().WithClock(func() time.Time { return now })
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		d, _ := m.Allow(ctx, "chat:u1", 5, time.Minute)
		if !d.Allowed {
			t.Fatalf("hit %d: want allowed", i+1)
		}
		if d.Remaining != 4-i {
			t.Fatalf("remaining after hit %d: want=%d got=%d", i+1, 4-i, d.Remaining)
		}
	}
	d, _ := m.Allow(ctx, "chat:u1", 5, time.Minute)
	if d.Allowed {
		t.Fatalf("6th hit: want throttled")
	}
	if d.RetryAfter != 50*time.Second {
		t.Fatalf("retry after: want=50s got=%s", d.RetryAfter)
	}
	if d, _ := m.Allow(ctx, "chat:u2", 5, time.Minute); !d.Allowed {
		t.Fatalf("other key: want allowed")
	}

	now = now.Add(time.Minute)
	if d, _ := m.Allow(ctx, "chat:u1", 5, time.Minute); !d.Allowed {
		t.Fatalf("next window: want allowed")
	}
}

// Runs against a real server when TEST_REDIS_ADDR is set.
func TestRedisCacheAndLimiter(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	r := NewRedis(nil, rdb, "test-"+uuid.NewString())
	defer r.Close()
	ctx := context.Background()

	if _, ok, err := r.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get missing: want miss got ok=%v err=%v", ok, err)
	}
	if err := r.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, ok, err := r.Get(ctx, "k"); err != nil || !ok || v != "v" {
		t.Fatalf("Get: want=v got=%q ok=%v err=%v", v, ok, err)
	}

	for i := 0; i < 3; i++ {
		if d, err := r.Allow(ctx, "gen:u1", 3, time.Hour); err != nil || !d.Allowed {
			t.Fatalf("hit %d: want allowed got=%+v err=%v", i+1, d, err)
		}
	}
	if d, err := r.Allow(ctx, "gen:u1", 3, time.Hour); err != nil || d.Allowed {
		t.Fatalf("4th hit: want throttled got=%+v err=%v", d, err)
	}
}
