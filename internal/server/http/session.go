package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/credgate/internal/server/auth"
	"github.com/dmitrijs2005/credgate/internal/server/services"
)

const sessionKey ctxKey = "session"

func sessionFromContext(ctx context.Context) (*auth.Session, bool) {
	s, ok := ctx.Value(sessionKey).(*auth.Session)
	return s, ok && s != nil
}

func (r *Router) setSessionCookie(w http.ResponseWriter, s *services.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     r.cookieName,
		Value:    s.AccessToken,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		Secure:   r.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (r *Router) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     r.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// currentSession returns the session of a valid cookie.
func (r *Router) currentSession(req *http.Request) (*auth.Session, bool) {
	c, err := req.Cookie(r.cookieName)
	if err != nil || c.Value == "" {
		return nil, false
	}
	s, err := r.sessions.Authenticate(c.Value)
	if err != nil {
		return nil, false
	}
	return s, true
}

// requireSession sends visitors without a valid session to the login form.
// A stale cookie is cleared on the way.
func (r *Router) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		s, ok := r.currentSession(req)
		if !ok {
			if _, err := req.Cookie(r.cookieName); err == nil {
				r.clearSessionCookie(w)
			}
			http.Redirect(w, req, "/login", http.StatusSeeOther)
			return
		}
		next(w, req.WithContext(context.WithValue(req.Context(), sessionKey, s)))
	}
}
