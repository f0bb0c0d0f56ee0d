package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SubmitRateLimiter limita la frecuencia de envios por cliente.
type SubmitRateLimiter interface {
	Allow(ctx context.Context, key string) bool
}

type memorySubmitLimiter struct {
	mu     sync.Mutex
	window time.Duration
	max    int
	hits   map[string][]time.Time
	now    func() time.Time
}

// NewMemorySubmitLimiter crea un limiter de ventana deslizante en memoria.
func NewMemorySubmitLimiter(window time.Duration, max int) SubmitRateLimiter {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &memorySubmitLimiter{
		window: window,
		max:    max,
		hits:   make(map[string][]time.Time),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (l *memorySubmitLimiter) Allow(_ context.Context, key string) bool {
	key = normalizeClientKey(key)
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	cutoff := now.Add(-l.window)
	kept := l.hits[key][:0]
	for _, ts := range l.hits[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.hits[key] = kept
		return false
	}
	l.hits[key] = append(kept, now)
	l.sweep(cutoff)
	return true
}

// sweep descarta claves cuya ventana quedo vacia.
func (l *memorySubmitLimiter) sweep(cutoff time.Time) {
	for key, hits := range l.hits {
		if len(hits) == 0 || !hits[len(hits)-1].After(cutoff) {
			delete(l.hits, key)
		}
	}
}

const redisSubmitAllowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// redisSubmitLimiter usa ventana fija; se comparte entre replicas.
type redisSubmitLimiter struct {
	client redisEvaler
	window time.Duration
	max    int
	prefix string
}

func NewRedisSubmitLimiter(client *redis.Client, window time.Duration, max int) SubmitRateLimiter {
	if client == nil {
		return nil
	}
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &redisSubmitLimiter{client: client, window: window, max: max, prefix: "submit:rl:"}
}

// Allow deja pasar si redis falla: perder el limite es preferible a perder mensajes.
func (l *redisSubmitLimiter) Allow(ctx context.Context, key string) bool {
	if l == nil || l.client == nil {
		return true
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	seconds := int(l.window.Seconds())
	if seconds <= 0 {
		seconds = 60
	}
	count, err := l.client.Eval(ctx, redisSubmitAllowScript, []string{l.prefix + normalizeClientKey(key)}, seconds).Int()
	if err != nil {
		return true
	}
	return count <= l.max
}

func normalizeClientKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return "anonymous"
	}
	return key
}
