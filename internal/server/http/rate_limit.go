package httpx

import (
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/credgate/internal/server/ratelimit"
)

// withRateLimit throttles next per client IP. A limited POST /login gets
// the login form back with 429 and the generic message.
func (r *Router) withRateLimit(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if r.loginRateLimit <= 0 {
			next(w, req)
			return
		}
		d := r.limiter.Allow(req.Context(), ratelimit.IPKey(clientIP(req)), r.loginRateLimit, r.loginRateWindow)
		applyRateHeaders(w, r.loginRateLimit, d)
		if !d.Allowed {
			r.metrics.RateLimited(route)
			r.onRateLimited(w, req, d)
			return
		}
		next(w, req)
	}
}

func applyRateHeaders(w http.ResponseWriter, limit int, d ratelimit.Decision) {
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining(limit)))
	if !d.WindowEnd.IsZero() {
		h.Set("X-RateLimit-Reset", strconv.FormatInt(d.WindowEnd.Unix(), 10))
	}
}
