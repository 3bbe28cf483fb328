package usage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestMemoryCounterFixedWindow(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 10, 0, time.UTC)
	c := NewMemoryCounter()
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		res, err := c.Increment(ctx, "k", 2, time.Minute, now)
		if err != nil {
			t.Fatalf("increment: %v", err)
		}
		if !res.Allowed || res.Count != i {
			t.Fatalf("hit %d: unexpected %+v", i, res)
		}
	}
	res, _ := c.Increment(ctx, "k", 2, time.Minute, now)
	if res.Allowed {
		t.Fatalf("expected third hit to be denied")
	}
	if want := time.Date(2025, 6, 1, 12, 1, 0, 0, time.UTC); !res.ResetAt.Equal(want) {
		t.Fatalf("expected reset at %s, got %s", want, res.ResetAt)
	}

	now = now.Add(50 * time.Second)
	res, _ = c.Increment(ctx, "k", 2, time.Minute, now)
	if !res.Allowed || res.Count != 1 {
		t.Fatalf("expected fresh window, got %+v", res)
	}
}

func TestMemoryCounterCanceledContext(t *testing.T) {
	c := NewMemoryCounter()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Increment(ctx, "k", 1, time.Minute, time.Now()); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestRedisCounter(t *testing.T) {
	mr := miniredis.RunT(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := &RedisCounter{
		Client: redis.NewClient(&redis.Options{Addr: mr.Addr()}),
		Prefix: "cvopt",
	}
	ctx := context.Background()
	if err := c.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	var last CounterResult
	for i := 0; i < 3; i++ {
		res, err := c.Increment(ctx, "ratelimit:generation:u:1", 2, time.Minute, now)
		if err != nil {
			t.Fatalf("increment: %v", err)
		}
		last = res
	}
	if last.Allowed || last.Count != 3 {
		t.Fatalf("expected third hit denied, got %+v", last)
	}
	if ttl := mr.TTL("cvopt:ratelimit:generation:u:1"); ttl != 61*time.Second {
		t.Fatalf("expected ttl 61s, got %s", ttl)
	}

	mr.FastForward(62 * time.Second)
	res, err := c.Increment(ctx, "ratelimit:generation:u:1", 2, time.Minute, now)
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if !res.Allowed || res.Count != 1 {
		t.Fatalf("expected expired key to restart, got %+v", res)
	}
}

func TestRedisCounterUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	c := &RedisCounter{Client: redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})}
	mr.Close()
	if _, err := c.Increment(context.Background(), "k", 1, time.Minute, time.Now()); err == nil {
		t.Fatalf("expected error with redis down")
	}
}

func TestNewRedisCounterRejectsBadURL(t *testing.T) {
	if _, err := NewRedisCounter("not a url://"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestRedisCounterResetFollowsCallerClock(t *testing.T) {
	mr := miniredis.RunT(t)
	c := &RedisCounter{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	now := time.Date(2020, 1, 1, 0, 0, 50, 0, time.UTC)

	res, err := c.Increment(context.Background(), "k", 1, time.Minute, now)
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if want := time.Date(2020, 1, 1, 0, 1, 0, 0, time.UTC); !res.ResetAt.Equal(want) {
		t.Fatalf("expected reset at %s, got %s", want, res.ResetAt)
	}
}
