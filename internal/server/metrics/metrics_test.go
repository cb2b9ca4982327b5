package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.LoginAttempt("http", OutcomeSuccess)
	m.LoginAttempt("http", OutcomeFailure)
	m.LoginAttempt("http", OutcomeFailure)
	m.RateLimited("/login")
	m.ObserveRPC("/credgate.AuthService/Login", "OK")
	m.ObserveRequest("POST", "POST /login", 303, 20*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.loginAttempts.WithLabelValues("http", OutcomeSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.loginAttempts.WithLabelValues("http", OutcomeFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateLimitHits.WithLabelValues("/login")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rpcTotal.WithLabelValues("/credgate.AuthService/Login", "OK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestTotal.WithLabelValues("POST", "POST /login", "303")))
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.LoginAttempt("grpc", OutcomeSuccess)

	assert.Equal(t, 0.0, testutil.ToFloat64(b.loginAttempts.WithLabelValues("grpc", OutcomeSuccess)))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.LoginAttempt("http", OutcomeInvalid)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `credgate_login_attempts_total{outcome="invalid",transport="http"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
