package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// expirySlack keeps a key readable at exactly ResetAt so the boundary
// request still counts against the old window.
const expirySlack = time.Second

// admitScript checks and counts one request in a single step.
// KEYS[1] entry key; ARGV: now ms, ttl ms, max, reset_at ms of a new window.
// Returns {count, reset_at ms, allowed}.
var admitScript = goredis.NewScript(`
local now = tonumber(ARGV[1])
local max = tonumber(ARGV[3])
local cur = redis.call('HMGET', KEYS[1], 'count', 'reset_at')
local count = tonumber(cur[1])
local reset_at = tonumber(cur[2])
if count == nil or reset_at == nil or now > reset_at then
    redis.call('HSET', KEYS[1], 'count', '1', 'reset_at', ARGV[4])
    redis.call('PEXPIRE', KEYS[1], ARGV[2])
    return {1, tonumber(ARGV[4]), 1}
end
if count >= max then
    return {count, reset_at, 0}
end
count = redis.call('HINCRBY', KEYS[1], 'count', 1)
return {count, reset_at, 1}
`)

// RedisStore shares counters between instances. Admission runs as one
// server-side script, so replicas sharing a Redis enforce a single quota.
type RedisStore struct {
	client goredis.UniversalClient
	prefix string
}

var (
	_ Store    = (*RedisStore)(nil)
	_ Admitter = (*RedisStore)(nil)
)

func NewRedisStore(client goredis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "rl:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	fields, err := s.client.HGetAll(ctx, s.prefix+key).Result()
	if err != nil {
		return Entry{}, false, fmt.Errorf("redis hgetall: %w", err)
	}
	if len(fields) == 0 {
		return Entry{}, false, nil
	}

	count, err := strconv.Atoi(fields["count"])
	if err != nil {
		return Entry{}, false, fmt.Errorf("redis entry count: %w", err)
	}
	resetMs, err := strconv.ParseInt(fields["reset_at"], 10, 64)
	if err != nil {
		return Entry{}, false, fmt.Errorf("redis entry reset_at: %w", err)
	}
	return Entry{Count: count, ResetAt: time.UnixMilli(resetMs)}, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, entry Entry) error {
	fullKey := s.prefix + key
	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.HSet(ctx, fullKey,
			"count", entry.Count,
			"reset_at", entry.ResetAt.UnixMilli(),
		)
		pipe.PExpireAt(ctx, fullKey, entry.ResetAt.Add(expirySlack))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set entry: %w", err)
	}
	return nil
}

// AdmitEntry counts one request for key atomically on the server.
func (s *RedisStore) AdmitEntry(ctx context.Context, key string, now time.Time, cfg Config) (Entry, bool, error) {
	res, err := admitScript.Run(ctx, s.client, []string{s.prefix + key},
		now.UnixMilli(),
		(cfg.Window + expirySlack).Milliseconds(),
		cfg.MaxRequests,
		now.Add(cfg.Window).UnixMilli(),
	).Int64Slice()
	if err != nil {
		return Entry{}, false, fmt.Errorf("redis admit: %w", err)
	}
	if len(res) != 3 {
		return Entry{}, false, fmt.Errorf("redis admit: unexpected reply %v", res)
	}
	return Entry{Count: int(res[0]), ResetAt: time.UnixMilli(res[1])}, res[2] == 1, nil
}

// Sweep is a no-op: Redis expires keys itself.
func (s *RedisStore) Sweep(context.Context, time.Time) (int, error) {
	return 0, nil
}
