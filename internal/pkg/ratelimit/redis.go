// Package ratelimit is a fixed-window request limiter kept in Redis and
// shared by every replica.
package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "gatepass:rl:"

var errUnexpectedReply = errors.New("ratelimit: unexpected script reply")

// fixedWindow returns {allowed, ttl_ms}. The counter key expires with the
// window so a refused client learns how long to wait.
var fixedWindow = redis.NewScript(`
local current = redis.call("GET", KEYS[1])
if current == false then
	redis.call("SET", KEYS[1], 1, "PX", ARGV[2])
	return {1, tonumber(ARGV[2])}
end
local ttl = redis.call("PTTL", KEYS[1])
if tonumber(current) >= tonumber(ARGV[1]) then
	return {0, ttl}
end
redis.call("INCR", KEYS[1])
return {1, ttl}
`)

type Redis struct {
	client redis.Scripter
	prefix string
	limit  int
	window time.Duration
}

// NewRedis allows limit requests per key in each window. A non-positive limit
// disables limiting.
func NewRedis(client redis.Scripter, prefix string, limit int, window time.Duration) *Redis {
	if prefix == "" {
		prefix = defaultPrefix
	}
	if window <= 0 {
		window = time.Minute
	}

	return &Redis{client: client, prefix: prefix, limit: limit, window: window}
}

func (r *Redis) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	if r.limit <= 0 {
		return true, 0, nil
	}

	res, err := fixedWindow.Run(ctx, r.client, []string{r.prefix + key}, r.limit, r.window.Milliseconds()).Int64Slice()
	if err != nil {
		return false, 0, err
	}
	if len(res) != 2 {
		return false, 0, errUnexpectedReply
	}

	return res[0] == 1, time.Duration(res[1]) * time.Millisecond, nil
}
