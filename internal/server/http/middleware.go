package httpx

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

type ctxKey string

const requestIDKey ctxKey = "requestID"

// RequestIDFromContext returns the id assigned by the request id middleware.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// withRequestID reuses a well-formed inbound X-Request-ID or assigns a new
// UUID, and echoes it in the response.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		id := strings.TrimSpace(req.Header.Get(requestIDHeader))
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, req.WithContext(context.WithValue(req.Context(), requestIDKey, id)))
	})
}

func (r *Router) withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy", "default-src 'self'; frame-ancestors 'none'; form-action 'self'")
		if r.secureCookies {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		next.ServeHTTP(w, req)
	})
}

// withRecover turns a handler panic into the error page.
func (r *Router) withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				if p == http.ErrAbortHandler {
					panic(p)
				}
				r.logger.Error(req.Context(), "handler panic", "panic", p, "path", req.URL.Path,
					"request_id", RequestIDFromContext(req.Context()))
				r.renderError(w, req, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, req)
	})
}

// audit logs one line per request and feeds the request metrics.
func (r *Router) audit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next.ServeHTTP(recorder, req)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start)

		route := req.Pattern
		if route == "" {
			route = "unmatched"
		}
		r.metrics.ObserveRequest(req.Method, route, status, duration)

		fields := []any{
			"method", req.Method,
			"path", req.URL.Path,
			"status", status,
			"bytes", recorder.bytes,
			"duration_ms", duration.Milliseconds(),
			"request_id", RequestIDFromContext(req.Context()),
		}
		if ip := clientIP(req); ip != "" {
			fields = append(fields, "ip", ip)
		}

		switch {
		case status >= http.StatusInternalServerError:
			r.logger.Error(req.Context(), "http request", fields...)
		case status >= http.StatusBadRequest:
			r.logger.Warn(req.Context(), "http request", fields...)
		default:
			r.logger.Info(req.Context(), "http request", fields...)
		}
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (sr *statusRecorder) WriteHeader(code int) {
	if sr.status == 0 {
		sr.status = code
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

// clientIP returns the peer address, or behind a trusted proxy the last
// X-Forwarded-For hop, which is the one the proxy appended. Earlier hops
// are supplied by the client and ignored.
func clientIP(req *http.Request) string {
	if trusted, _ := req.Context().Value(trustProxyKey).(bool); trusted {
		if ip := lastForwardedHop(req.Header.Values("X-Forwarded-For")); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(req.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(req.RemoteAddr)
	}
	return host
}

// lastForwardedHop reads repeated headers as one list. A last hop that is
// not an IP address yields "".
func lastForwardedHop(values []string) string {
	for i := len(values) - 1; i >= 0; i-- {
		hops := strings.Split(values[i], ",")
		for j := len(hops) - 1; j >= 0; j-- {
			hop := strings.TrimSpace(hops[j])
			if hop == "" {
				continue
			}
			if net.ParseIP(hop) == nil {
				return ""
			}
			return hop
		}
	}
	return ""
}

const trustProxyKey ctxKey = "trustProxy"

func (r *Router) withProxyTrust(next http.Handler) http.Handler {
	if !r.trustProxy {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		next.ServeHTTP(w, req.WithContext(context.WithValue(req.Context(), trustProxyKey, true)))
	})
}
