package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type mockRedisEvaler struct {
	lastScript string
	lastKeys   []string
	lastArgs   []interface{}
	result     int64
	err        error
}

func (m *mockRedisEvaler) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	m.lastScript = script
	m.lastKeys = keys
	m.lastArgs = args
	cmd := redis.NewCmd(ctx)
	if m.err != nil {
		cmd.SetErr(m.err)
		return cmd
	}
	cmd.SetVal(m.result)
	return cmd
}

func TestMemorySubmitLimiter(t *testing.T) {
	l := NewMemorySubmitLimiter(time.Minute, 2).(*memorySubmitLimiter)
	now := time.Unix(1700000000, 0)
	l.now = func() time.Time { return now }

	ctx := context.Background()
	if !l.Allow(ctx, "10.0.0.1") || !l.Allow(ctx, " 10.0.0.1 ") {
		t.Fatalf("expected first two submissions allowed")
	}
	if l.Allow(ctx, "10.0.0.1") {
		t.Fatalf("expected third submission denied")
	}
	if !l.Allow(ctx, "10.0.0.2") {
		t.Fatalf("expected other clients unaffected")
	}

	now = now.Add(61 * time.Second)
	if !l.Allow(ctx, "10.0.0.1") {
		t.Fatalf("expected window to slide")
	}
}

func TestMemorySubmitLimiter_DropsIdleClients(t *testing.T) {
	l := NewMemorySubmitLimiter(time.Minute, 2).(*memorySubmitLimiter)
	now := time.Unix(1700000000, 0)
	l.now = func() time.Time { return now }

	ctx := context.Background()
	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		if !l.Allow(ctx, ip) {
			t.Fatalf("expected %s allowed", ip)
		}
	}
	if len(l.hits) != 3 {
		t.Fatalf("expected 3 tracked clients, got %d", len(l.hits))
	}

	now = now.Add(2 * time.Minute)
	if !l.Allow(ctx, "10.0.0.4") {
		t.Fatalf("expected new client allowed")
	}
	if len(l.hits) != 1 {
		t.Fatalf("expected idle clients dropped, got %d tracked", len(l.hits))
	}
	if _, ok := l.hits["10.0.0.4"]; !ok {
		t.Fatalf("expected active client kept")
	}
}

func TestRedisSubmitLimiterAllow(t *testing.T) {
	t.Run("nil receiver fail-open", func(t *testing.T) {
		var l *redisSubmitLimiter
		if !l.Allow(context.Background(), "10.0.0.1") {
			t.Fatalf("expected fail-open for nil limiter")
		}
	})

	t.Run("allow when count within max", func(t *testing.T) {
		mock := &mockRedisEvaler{result: 2}
		l := &redisSubmitLimiter{client: mock, window: 2 * time.Minute, max: 3, prefix: "submit:rl:"}
		if !l.Allow(context.Background(), " 10.0.0.1 ") {
			t.Fatalf("expected allow when count <= max")
		}
		if len(mock.lastKeys) != 1 || mock.lastKeys[0] != "submit:rl:10.0.0.1" {
			t.Fatalf("unexpected key normalization, got %+v", mock.lastKeys)
		}
		if len(mock.lastArgs) != 1 || mock.lastArgs[0] != 120 {
			t.Fatalf("expected TTL seconds=120, got %+v", mock.lastArgs)
		}
		if mock.lastScript != redisSubmitAllowScript {
			t.Fatalf("expected script to match")
		}
	})

	t.Run("empty key shares anonymous bucket", func(t *testing.T) {
		mock := &mockRedisEvaler{result: 1}
		l := &redisSubmitLimiter{client: mock, window: time.Minute, max: 3, prefix: "submit:rl:"}
		l.Allow(context.Background(), "  ")
		if mock.lastKeys[0] != "submit:rl:anonymous" {
			t.Fatalf("unexpected key %q", mock.lastKeys[0])
		}
	})

	t.Run("deny when count exceeds max", func(t *testing.T) {
		l := &redisSubmitLimiter{client: &mockRedisEvaler{result: 4}, window: time.Minute, max: 3, prefix: "submit:rl:"}
		if l.Allow(context.Background(), "10.0.0.1") {
			t.Fatalf("expected deny when count > max")
		}
	})

	t.Run("redis error fail-open", func(t *testing.T) {
		l := &redisSubmitLimiter{client: &mockRedisEvaler{err: errors.New("redis down")}, window: time.Minute, max: 3, prefix: "submit:rl:"}
		if !l.Allow(context.Background(), "10.0.0.1") {
			t.Fatalf("expected fail-open on redis errors")
		}
	})
}
