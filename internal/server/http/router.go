// Package httpx is the browser-facing front end: the login form, the
// session cookie and the pages behind it, plus health and metrics
// endpoints.
package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/credgate/internal/logging"
	"github.com/dmitrijs2005/credgate/internal/server/auth"
	"github.com/dmitrijs2005/credgate/internal/server/metrics"
	"github.com/dmitrijs2005/credgate/internal/server/ratelimit"
	"github.com/dmitrijs2005/credgate/internal/server/services"
)

const (
	healthCheckTimeout = 2 * time.Second
	maxFormBytes       = 16 << 10
)

// SessionService is what the router needs from services.SessionService.
type SessionService interface {
	Login(ctx context.Context, identifier, secret string) (*services.Session, error)
	Authenticate(token string) (*auth.Session, error)
}

// Options configures a Router. Logger, Limiter and Metrics may be nil.
type Options struct {
	Logger          logging.Logger
	Sessions        SessionService
	Limiter         ratelimit.Limiter
	Metrics         *metrics.Metrics
	DBHealth        func(context.Context) error
	CookieName      string
	SecureCookies   bool
	TrustProxy      bool
	MaxFieldLength  int
	LoginRateLimit  int
	LoginRateWindow time.Duration
}

// Router wires HTTP endpoints to services.
type Router struct {
	mux             *http.ServeMux
	handler         http.Handler
	logger          logging.Logger
	sessions        SessionService
	limiter         ratelimit.Limiter
	ownsLimiter     bool
	metrics         *metrics.Metrics
	dbHealth        func(context.Context) error
	cookieName      string
	secureCookies   bool
	trustProxy      bool
	maxFieldLength  int
	loginRateLimit  int
	loginRateWindow time.Duration
}

func NewRouter(o Options) *Router {
	r := &Router{
		mux:             http.NewServeMux(),
		logger:          o.Logger,
		sessions:        o.Sessions,
		limiter:         o.Limiter,
		metrics:         o.Metrics,
		dbHealth:        o.DBHealth,
		cookieName:      o.CookieName,
		secureCookies:   o.SecureCookies,
		trustProxy:      o.TrustProxy,
		maxFieldLength:  o.MaxFieldLength,
		loginRateLimit:  o.LoginRateLimit,
		loginRateWindow: o.LoginRateWindow,
	}
	if r.logger == nil {
		r.logger = logging.Nop{}
	}
	if r.limiter == nil {
		r.limiter = ratelimit.NewMemory()
		r.ownsLimiter = true
	}
	if r.metrics == nil {
		r.metrics = metrics.New()
	}
	if r.cookieName == "" {
		r.cookieName = "credgate_session"
	}
	r.register()
	r.handler = withRequestID(r.withProxyTrust(r.withSecurityHeaders(r.audit(r.withRecover(r.mux)))))
	return r
}

// ServeHTTP runs the middleware chain in front of the mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}

// Close stops the limiter the router created itself. A limiter passed in
// Options belongs to the caller.
func (r *Router) Close() {
	if r.ownsLimiter {
		_ = r.limiter.Close()
	}
}

func (r *Router) register() {
	r.mux.HandleFunc("GET /login", r.handleLoginForm)
	r.mux.HandleFunc("POST /login", r.withRateLimit("/login", r.handleLogin))
	r.mux.HandleFunc("GET /account/login", r.redirectTo("/login"))
	r.mux.HandleFunc("GET /{$}", r.requireSession(r.handleHome))
	r.mux.HandleFunc("POST /logout", r.handleLogout)
	r.mux.HandleFunc("GET /healthz", r.handleHealthz)
	r.mux.Handle("GET /metrics", r.metrics.Handler())
}

func (r *Router) redirectTo(target string) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, target, http.StatusMovedPermanently)
	}
}
