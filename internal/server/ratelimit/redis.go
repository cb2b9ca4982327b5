package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/credgate/internal/logging"
	redis "github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix   = "credgate:ratelimit:"
	redisCallTimeout = 250 * time.Millisecond
)

// incrWindow bumps the counter and makes sure it carries a TTL in one
// round trip. A key left without TTL by an earlier failure gets one here.
// Returns {count, pttl_ms}.
var incrWindow = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 or redis.call('PTTL', KEYS[1]) < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return {n, redis.call('PTTL', KEYS[1])}
`)

// Redis shares counters between server instances.
type Redis struct {
	client redis.UniversalClient
	logger logging.Logger
}

// NewRedis connects to addr and checks the connection once.
func NewRedis(ctx context.Context, addr, password string, db int, logger logging.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return newRedis(client, logger), nil
}

func newRedis(client redis.UniversalClient, logger logging.Logger) *Redis {
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Redis{client: client, logger: logger.With("module", "ratelimit")}
}

// Allow fails open: if Redis cannot answer, the attempt is allowed and the
// error logged.
func (r *Redis) Allow(ctx context.Context, key string, limit int, window time.Duration) Decision {
	if limit <= 0 {
		return Decision{Allowed: true}
	}
	if window <= 0 {
		window = time.Minute
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), redisCallTimeout)
	defer cancel()

	res, err := incrWindow.Run(ctx, r.client, []string{redisKeyPrefix + key}, window.Milliseconds()).Int64Slice()
	if err == nil && len(res) != 2 {
		err = fmt.Errorf("unexpected script reply of length %d", len(res))
	}
	if err != nil {
		r.logger.Error(ctx, "rate limiter unavailable, allowing attempt", "error", err)
		return Decision{Allowed: true}
	}

	return decide(res[0], time.Duration(res[1])*time.Millisecond, limit, window, time.Now())
}

func decide(count int64, ttl time.Duration, limit int, window time.Duration, now time.Time) Decision {
	if ttl <= 0 {
		ttl = window
	}
	return Decision{
		Allowed:   count <= int64(limit),
		Count:     int(count),
		WindowEnd: now.Add(ttl),
	}
}

func (r *Redis) Close() error {
	return r.client.Close()
}
