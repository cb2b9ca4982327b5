package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/credgate/internal/cryptox"
	"github.com/dmitrijs2005/credgate/internal/dbx"
	"github.com/dmitrijs2005/credgate/internal/server/config"
	"github.com/dmitrijs2005/credgate/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/credgate/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	c := &config.Config{}
	c.LoadDefaults()
	c.DatabaseDriver = dbx.DriverSQLite
	c.DatabaseDSN = filepath.Join(t.TempDir(), "credgate.db")
	c.EndpointAddrHTTP = "127.0.0.1:0"
	c.EndpointAddrGRPC = "127.0.0.1:0"
	c.Argon2MemoryKiB = 8 * 1024
	c.Argon2Threads = 1
	c.LogLevel = "error"
	require.NoError(t, c.Validate())
	return c
}

func TestNewApp_LoginFlow(t *testing.T) {
	ctx := context.Background()
	c := testConfig(t)

	app, err := NewApp(ctx, c)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = app.limiter.Close()
		_ = app.db.Close()
	})

	rm, err := repomanager.New(c.DatabaseDriver)
	require.NoError(t, err)
	h, err := cryptox.NewHasher(c.Argon2Params())
	require.NoError(t, err)
	_, err = services.NewAccountService(app.db, rm, h, IdentifierPolicy(c)).Create(ctx, "alice", "correct-horse")
	require.NoError(t, err)

	r := app.router()
	defer r.Close()

	post := func(user, pass string) *httptest.ResponseRecorder {
		form := url.Values{"username": {user}, "password": {pass}}
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	ok := post("alice", "correct-horse")
	require.Equal(t, http.StatusSeeOther, ok.Code)
	cookies := ok.Result().Cookies()
	require.Len(t, cookies, 1)

	home := httptest.NewRequest(http.MethodGet, "/", nil)
	home.AddCookie(cookies[0])
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, home)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alice")

	assert.Equal(t, http.StatusUnauthorized, post("alice", "wrong").Code)
	assert.Equal(t, http.StatusUnauthorized, post("bob", "anything").Code)
	assert.Equal(t, http.StatusBadRequest, post(strings.Repeat("a", 500), "x").Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewApp_Errors(t *testing.T) {
	c := testConfig(t)
	c.LogLevel = "chatty"
	_, err := NewApp(context.Background(), c)
	assert.ErrorContains(t, err, "unknown log level")

	c = testConfig(t)
	c.DatabaseDriver = "oracle"
	_, err = NewApp(context.Background(), c)
	assert.Error(t, err)

	c = testConfig(t)
	c.RedisAddr = "127.0.0.1:1"
	_, err = NewApp(context.Background(), c)
	assert.ErrorContains(t, err, "redis init error")
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	app, err := NewApp(context.Background(), testConfig(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("app did not stop")
	}
	assert.Error(t, app.db.Ping(), "store should be closed")
}
