package httpapi

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"golang.org/x/time/rate"
)

// Limiter decides whether a client identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RedisScripter is the subset of *redis.Client used by RedisLimiter.
type RedisScripter interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// windowScript bumps the counter and makes sure it carries a TTL in the same
// step, so a key can never outlive its window.
const windowScript = `
local count = redis.call('INCR', KEYS[1])
if redis.call('PTTL', KEYS[1]) < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return count
`

const rateWindow = time.Second

// RedisLimiter counts requests per key in fixed one-second windows shared
// by every server instance pointing at the same Redis.
type RedisLimiter struct {
	client RedisScripter
	qps    int
}

func NewRedisLimiter(client RedisScripter, qps int) *RedisLimiter {
	return &RedisLimiter{client: client, qps: qps}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	key = "rate_limit:" + key

	count, err := l.client.Eval(ctx, windowScript, []string{key}, rateWindow.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}

	return count <= int64(l.qps), nil
}

const idleLimiterTTL = 3 * time.Minute

// LocalLimiter keeps a token bucket per key in process.
type LocalLimiter struct {
	mu        sync.Mutex
	qps       int
	buckets   map[string]*bucket
	lastSweep time.Time
	now       func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewLocalLimiter(qps int) *LocalLimiter {
	return &LocalLimiter{qps: qps, buckets: make(map[string]*bucket), now: time.Now}
}

func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(l.qps), l.qps)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	return b.limiter.AllowN(now, 1), nil
}

func (l *LocalLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < time.Minute {
		return
	}
	l.lastSweep = now
	for k, b := range l.buckets {
		if now.Sub(b.lastSeen) > idleLimiterTTL {
			delete(l.buckets, k)
		}
	}
}
