package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixedWindowScript counts atomically in Redis: the first hit in a window
// creates the key with the window TTL, later hits only increment. Returning
// the TTL alongside the count lets the caller derive the reset instant.
var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
    redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {count, ttl}
`)

// RedisStore shares fixed-window counters across processes. Use it instead
// of MemoryStore when the API runs more than one replica.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "ratelimit:"}
}

func (s *RedisStore) Check(ctx context.Context, key string, window time.Duration, max int) (Result, error) {
	vals, err := fixedWindowScript.Run(ctx, s.client,
		[]string{s.prefix + key}, window.Milliseconds()).Slice()
	if err != nil {
		return Result{}, fmt.Errorf("fixed window script: %w", err)
	}
	if len(vals) != 2 {
		return Result{}, fmt.Errorf("fixed window script: unexpected reply %v", vals)
	}

	count, ok := vals[0].(int64)
	if !ok {
		return Result{}, fmt.Errorf("fixed window script: non-integer count %v", vals[0])
	}
	ttlMs, _ := vals[1].(int64)
	resetAt := time.Now().Add(time.Duration(ttlMs) * time.Millisecond)

	if count > int64(max) {
		return Result{Allowed: false, Remaining: 0, ResetAt: resetAt}, nil
	}
	return Result{Allowed: true, Remaining: max - int(count), ResetAt: resetAt}, nil
}
