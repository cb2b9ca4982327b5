package httpx

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/credgate/internal/common"
	"github.com/dmitrijs2005/credgate/internal/server/metrics"
	"github.com/dmitrijs2005/credgate/internal/server/ratelimit"
)

const transport = "http"

func (r *Router) handleLoginForm(w http.ResponseWriter, req *http.Request) {
	if _, ok := r.currentSession(req); ok {
		http.Redirect(w, req, "/", http.StatusSeeOther)
		return
	}
	r.renderLogin(w, req, http.StatusOK, "", "")
}

// handleLogin verifies the posted form. Every unsuccessful outcome shows
// the same message; only the status code differs.
func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	req.Body = http.MaxBytesReader(w, req.Body, maxFormBytes)
	if err := req.ParseForm(); err != nil {
		r.metrics.LoginAttempt(transport, metrics.OutcomeInvalid)
		r.renderLogin(w, req, http.StatusBadRequest, "", common.GenericLoginError)
		return
	}

	username := req.PostForm.Get("username")
	password := req.PostForm.Get("password")

	s, err := r.sessions.Login(req.Context(), username, password)
	if err != nil {
		status, outcome := loginFailureStatus(err)
		r.metrics.LoginAttempt(transport, outcome)
		r.logLogin(req, outcome, err)

		if status == http.StatusServiceUnavailable {
			w.Header().Set("Retry-After", "5")
		}
		// an oversized name is not echoed back
		echo := username
		if len(echo) > r.fieldLimit() {
			echo = ""
		}
		r.renderLogin(w, req, status, echo, common.GenericLoginError)
		return
	}

	r.metrics.LoginAttempt(transport, metrics.OutcomeSuccess)
	r.logger.Info(req.Context(), "login", "outcome", metrics.OutcomeSuccess, "account_id", s.AccountID,
		"ip", clientIP(req), "request_id", RequestIDFromContext(req.Context()))

	r.setSessionCookie(w, s)
	http.Redirect(w, req, "/", http.StatusSeeOther)
}

func loginFailureStatus(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, metrics.OutcomeFailure
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest, metrics.OutcomeInvalid
	case errors.Is(err, common.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, metrics.OutcomeUnavailable
	}
	return http.StatusInternalServerError, metrics.OutcomeError
}

// logLogin never records the submitted identifier or secret.
func (r *Router) logLogin(req *http.Request, outcome string, err error) {
	fields := []any{"outcome", outcome, "ip", clientIP(req), "request_id", RequestIDFromContext(req.Context())}
	switch outcome {
	case metrics.OutcomeUnavailable, metrics.OutcomeError:
		r.logger.Error(req.Context(), "login", append(fields, "error", err)...)
	default:
		r.logger.Info(req.Context(), "login", fields...)
	}
}

func (r *Router) onRateLimited(w http.ResponseWriter, req *http.Request, d ratelimit.Decision) {
	r.metrics.LoginAttempt(transport, metrics.OutcomeLimited)
	r.logger.Warn(req.Context(), "login", "outcome", metrics.OutcomeLimited, "ip", clientIP(req),
		"request_id", RequestIDFromContext(req.Context()))

	w.Header().Set("Retry-After", d.RetryAfter(time.Now()))
	r.renderLogin(w, req, http.StatusTooManyRequests, "", common.GenericLoginError)
}

func (r *Router) renderLogin(w http.ResponseWriter, req *http.Request, status int, username, msg string) {
	r.render(w, req, status, "login.html", loginPage{
		Title:     "Log in",
		Error:     msg,
		Username:  username,
		MaxLength: r.fieldLimit(),
	})
}

func (r *Router) fieldLimit() int {
	if r.maxFieldLength <= 0 {
		return common.DefaultMaxCredentialLength
	}
	return r.maxFieldLength
}

type homePage struct {
	Title      string
	Identifier string
	ExpiresAt  time.Time
}

func (r *Router) handleHome(w http.ResponseWriter, req *http.Request) {
	s, ok := sessionFromContext(req.Context())
	if !ok {
		http.Redirect(w, req, "/login", http.StatusSeeOther)
		return
	}
	r.render(w, req, http.StatusOK, "home.html", homePage{
		Title:      "Home",
		Identifier: s.Identifier,
		ExpiresAt:  s.ExpiresAt,
	})
}

func (r *Router) handleLogout(w http.ResponseWriter, req *http.Request) {
	r.clearSessionCookie(w)
	http.Redirect(w, req, "/login", http.StatusSeeOther)
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	components := make(map[string]any)
	status := "ok"
	if r.dbHealth != nil {
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		defer cancel()
		if err := r.dbHealth(ctx); err != nil {
			r.logger.Error(req.Context(), "health check failed", "component", "database", "error", err)
			status = "degraded"
			components["database"] = map[string]any{"status": "down"}
		} else {
			components["database"] = map[string]any{"status": "up"}
		}
	}
	payload := map[string]any{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
	}
	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, payload)
}
