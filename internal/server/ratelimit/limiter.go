// Package ratelimit counts login attempts per client in fixed windows. The
// same Limiter backs the HTTP form and the gRPC Login call, so a client
// cannot double its budget by switching transports.
package ratelimit

import (
	"context"
	"strconv"
	"time"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Count     int
	WindowEnd time.Time
}

// Remaining is how many attempts are left in the current window.
func (d Decision) Remaining(limit int) int {
	if r := limit - d.Count; r > 0 {
		return r
	}
	return 0
}

// RetryAfter renders the wait until the window resets as whole seconds,
// rounded up and at least 1.
func (d Decision) RetryAfter(now time.Time) string {
	wait := d.WindowEnd.Sub(now)
	secs := int((wait + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// Limiter counts attempts for key. A limit <= 0 disables limiting.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) Decision
	Close() error
}

// IPKey is the key attempts from one client address are counted under.
func IPKey(ip string) string {
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}
