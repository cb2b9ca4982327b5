package httpx

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/credgate/internal/common"
	"github.com/dmitrijs2005/credgate/internal/server/auth"
	"github.com/dmitrijs2005/credgate/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessions struct {
	loginFn func(ctx context.Context, identifier, secret string) (*services.Session, error)
	tokens  map[string]*auth.Session
}

func (f *fakeSessions) Login(ctx context.Context, identifier, secret string) (*services.Session, error) {
	return f.loginFn(ctx, identifier, secret)
}

func (f *fakeSessions) Authenticate(token string) (*auth.Session, error) {
	if s, ok := f.tokens[token]; ok {
		return s, nil
	}
	return nil, common.ErrInvalidToken
}

// aliceOnly accepts alice/correct-horse and fails everything else.
func aliceOnly() *fakeSessions {
	return &fakeSessions{
		loginFn: func(_ context.Context, identifier, secret string) (*services.Session, error) {
			if identifier == "alice" && secret == "correct-horse" {
				return &services.Session{AccessToken: "tok-alice", AccountID: "acc-1", Identifier: "alice", ExpiresAt: time.Now().Add(time.Hour)}, nil
			}
			return nil, common.ErrorUnauthorized
		},
		tokens: map[string]*auth.Session{
			"tok-alice": {AccountID: "acc-1", Identifier: "alice", ExpiresAt: time.Now().Add(time.Hour)},
		},
	}
}

func newTestRouter(t *testing.T, o Options) *Router {
	t.Helper()
	if o.Sessions == nil {
		o.Sessions = aliceOnly()
	}
	r := NewRouter(o)
	t.Cleanup(r.Close)
	return r
}

func postLogin(r http.Handler, username, password string) *httptest.ResponseRecorder {
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func body(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	b, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(b)
}

func TestLoginForm(t *testing.T) {
	r := newTestRouter(t, Options{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	b := body(t, rec)
	assert.Contains(t, b, `name="username"`)
	assert.Contains(t, b, `name="password"`)
	assert.Contains(t, b, `maxlength="256"`)
	assert.NotContains(t, b, common.GenericLoginError)

	h := rec.Header()
	assert.Equal(t, "text/html; charset=utf-8", h.Get("Content-Type"))
	assert.Equal(t, "no-store", h.Get("Cache-Control"))
	assert.Equal(t, "nosniff", h.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", h.Get("X-Frame-Options"))
	assert.Empty(t, h.Get("Strict-Transport-Security"))
	assert.NotEmpty(t, h.Get(requestIDHeader))
}

func TestLoginForm_AlreadySignedIn(t *testing.T) {
	r := newTestRouter(t, Options{})

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.AddCookie(&http.Cookie{Name: "credgate_session", Value: "tok-alice"})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestLogin_Success(t *testing.T) {
	r := newTestRouter(t, Options{SecureCookies: true})

	rec := postLogin(r, "alice", "correct-horse")

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Contains(t, rec.Header().Get("Strict-Transport-Security"), "max-age=")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, "credgate_session", c.Name)
	assert.Equal(t, "tok-alice", c.Value)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
}

func TestLogin_FailuresLookAlike(t *testing.T) {
	outcomes := map[string]error{
		"wrong secret":      common.ErrorUnauthorized,
		"validation":        common.ErrValidation,
		"store unavailable": errors.Join(common.ErrStoreUnavailable, errors.New("dial tcp: refused")),
		"unexpected":        errors.New("boom"),
	}
	wantStatus := map[string]int{
		"wrong secret":      http.StatusUnauthorized,
		"validation":        http.StatusBadRequest,
		"store unavailable": http.StatusServiceUnavailable,
		"unexpected":        http.StatusInternalServerError,
	}

	var bodies []string
	for name, err := range outcomes {
		t.Run(name, func(t *testing.T) {
			r := newTestRouter(t, Options{Sessions: &fakeSessions{
				loginFn: func(context.Context, string, string) (*services.Session, error) { return nil, err },
			}})

			rec := postLogin(r, "alice", "whatever")

			assert.Equal(t, wantStatus[name], rec.Code)
			assert.Empty(t, rec.Result().Cookies())
			b := body(t, rec)
			assert.Contains(t, b, common.GenericLoginError)
			assert.NotContains(t, b, "refused")
			assert.NotContains(t, b, "boom")
			bodies = append(bodies, b)
		})
	}

	for _, b := range bodies[1:] {
		assert.Equal(t, bodies[0], b)
	}
}

func TestLogin_StoreUnavailableSetsRetryAfter(t *testing.T) {
	r := newTestRouter(t, Options{Sessions: &fakeSessions{
		loginFn: func(context.Context, string, string) (*services.Session, error) {
			return nil, common.ErrStoreUnavailable
		},
	}})

	rec := postLogin(r, "alice", "x")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "5", rec.Header().Get("Retry-After"))
}

func TestLogin_UsernameIsEscaped(t *testing.T) {
	r := newTestRouter(t, Options{})

	rec := postLogin(r, `<script>alert(1)</script>`, "x")

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	b := body(t, rec)
	assert.NotContains(t, b, "<script>alert(1)</script>")
	assert.Contains(t, b, "&lt;script&gt;")
}

func TestLogin_OversizedUsernameNotEchoed(t *testing.T) {
	r := newTestRouter(t, Options{Sessions: &fakeSessions{
		loginFn: func(context.Context, string, string) (*services.Session, error) {
			return nil, common.ErrValidation
		},
	}})

	long := strings.Repeat("a", 500)
	rec := postLogin(r, long, "x")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotContains(t, body(t, rec), long)
}

func TestLogin_RateLimited(t *testing.T) {
	var calls int
	r := newTestRouter(t, Options{
		LoginRateLimit:  2,
		LoginRateWindow: time.Minute,
		Sessions: &fakeSessions{loginFn: func(context.Context, string, string) (*services.Session, error) {
			calls++
			return nil, common.ErrorUnauthorized
		}},
	})

	assert.Equal(t, http.StatusUnauthorized, postLogin(r, "alice", "1").Code)
	assert.Equal(t, http.StatusUnauthorized, postLogin(r, "alice", "2").Code)

	rec := postLogin(r, "alice", "3")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, body(t, rec), common.GenericLoginError)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, 2, calls)
}

func TestHome(t *testing.T) {
	r := newTestRouter(t, Options{})

	t.Run("no cookie", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
		assert.Empty(t, rec.Result().Cookies())
	})

	t.Run("stale cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "credgate_session", Value: "expired"})
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, -1, cookies[0].MaxAge)
	})

	t.Run("valid session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "credgate_session", Value: "tok-alice"})
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, body(t, rec), "Welcome, alice")
	})

	t.Run("unknown path", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestLogout(t *testing.T) {
	r := newTestRouter(t, Options{})

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: "credgate_session", Value: "tok-alice"})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestLogout_GetNotAllowed(t *testing.T) {
	r := newTestRouter(t, Options{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/logout", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAccountLoginAlias(t *testing.T) {
	r := newTestRouter(t, Options{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/account/login", nil))
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestHealthz(t *testing.T) {
	t.Run("up", func(t *testing.T) {
		r := newTestRouter(t, Options{DBHealth: func(context.Context) error { return nil }})
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, body(t, rec), `"status":"ok"`)
	})

	t.Run("down", func(t *testing.T) {
		r := newTestRouter(t, Options{DBHealth: func(context.Context) error { return errors.New("secret dsn in error") }})
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		b := body(t, rec)
		assert.Contains(t, b, `"status":"degraded"`)
		assert.NotContains(t, b, "secret dsn")
	})
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter(t, Options{})

	postLogin(r, "alice", "correct-horse")
	postLogin(r, "alice", "wrong")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	b := body(t, rec)
	assert.Contains(t, b, `credgate_login_attempts_total{outcome="success",transport="http"} 1`)
	assert.Contains(t, b, `credgate_login_attempts_total{outcome="failure",transport="http"} 1`)
	assert.Contains(t, b, `credgate_http_requests_total{method="POST",route="POST /login",status="303"} 1`)
}

func TestRecoverRendersErrorPage(t *testing.T) {
	r := newTestRouter(t, Options{Sessions: &fakeSessions{
		loginFn: func(context.Context, string, string) (*services.Session, error) { panic("kaboom") },
	}})

	rec := postLogin(r, "alice", "x")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	b := body(t, rec)
	assert.Contains(t, b, "Something went wrong")
	assert.NotContains(t, b, "kaboom")
}

func TestRequestID(t *testing.T) {
	r := newTestRouter(t, Options{})

	const id = "6f1c1f3e-8b4a-4e3e-9a55-0b3c1f1d2e3f"
	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.Header.Set(requestIDHeader, id)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, id, rec.Header().Get(requestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/login", nil)
	req.Header.Set(requestIDHeader, "not a uuid\r\n")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.NotEqual(t, "not a uuid\r\n", rec.Header().Get(requestIDHeader))
	assert.Len(t, rec.Header().Get(requestIDHeader), 36)
}
