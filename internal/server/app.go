// Package server initializes and runs the credgate server: it opens and
// migrates the account store, builds the verifier and serves the HTTP and
// gRPC front ends until it is told to stop.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/credgate/internal/common"
	"github.com/dmitrijs2005/credgate/internal/cryptox"
	"github.com/dmitrijs2005/credgate/internal/dbx"
	"github.com/dmitrijs2005/credgate/internal/logging"
	"github.com/dmitrijs2005/credgate/internal/server/config"
	"github.com/dmitrijs2005/credgate/internal/server/metrics"
	"github.com/dmitrijs2005/credgate/internal/server/ratelimit"
	"github.com/dmitrijs2005/credgate/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/credgate/internal/server/services"
	"github.com/dmitrijs2005/credgate/internal/server/verifier"

	gs "github.com/dmitrijs2005/credgate/internal/server/grpc"
	hs "github.com/dmitrijs2005/credgate/internal/server/http"
)

const dbPingTimeout = 5 * time.Second

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	metrics  *metrics.Metrics
	limiter  ratelimit.Limiter
	sessions *services.SessionService
}

// IdentifierPolicy is the normalisation and length policy configured in c.
// Provisioning and verification must agree on it.
func IdentifierPolicy(c *config.Config) verifier.IdentifierPolicy {
	return verifier.IdentifierPolicy{
		MaxLength:       c.MaxCredentialLength,
		CaseInsensitive: c.CaseInsensitiveIdentifiers,
	}
}

// OpenStore connects to the configured database and applies migrations.
func OpenStore(ctx context.Context, c *config.Config) (*sql.DB, repomanager.RepositoryManager, error) {
	rm, err := repomanager.New(c.DatabaseDriver)
	if err != nil {
		return nil, nil, err
	}

	db, err := dbx.Open(ctx, c.DatabaseDriver, c.DatabaseDSN, dbPingTimeout)
	if err != nil {
		return nil, nil, fmt.Errorf("db init error: %w", err)
	}

	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return db, rm, nil
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.NewJSON(os.Stdout, "credgate", level)

	db, rm, err := OpenStore(ctx, c)
	if err != nil {
		return nil, err
	}

	hasher, err := cryptox.NewHasher(c.Argon2Params())
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	secret := c.SecretKey
	if secret == config.DefaultSecretKey {
		secret, err = common.MakeRandHexString(32)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		logger.Warn(ctx, "no secret key configured, using an ephemeral one")
	}

	v := verifier.New(rm.Accounts(db), hasher, IdentifierPolicy(c))
	ss := services.NewSessionService(v, []byte(secret), c.AccessTokenValidityDuration)

	var limiter ratelimit.Limiter
	if c.RedisAddr != "" {
		limiter, err = ratelimit.NewRedis(ctx, c.RedisAddr, c.RedisPassword, c.RedisDB, logger)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("redis init error: %w", err)
		}
	} else {
		limiter = ratelimit.NewMemory()
	}

	return &App{
		config:   c,
		logger:   logger,
		db:       db,
		metrics:  metrics.New(),
		limiter:  limiter,
		sessions: ss,
	}, nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case s := <-sigs:
			app.logger.Info(ctx, "Signal received", "signal", s.String())
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	c := app.config
	s := gs.NewGRPCServer(c.EndpointAddrGRPC, app.logger, app.sessions, app.metrics).
		WithLoginRateLimit(app.limiter, c.LoginRateLimit, c.LoginRateWindow)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) router() *hs.Router {
	c := app.config
	return hs.NewRouter(hs.Options{
		Logger:          app.logger.With("module", "http_router"),
		Sessions:        app.sessions,
		Limiter:         app.limiter,
		Metrics:         app.metrics,
		DBHealth:        app.db.PingContext,
		CookieName:      c.SessionCookieName,
		SecureCookies:   c.SecureCookies,
		TrustProxy:      c.TrustProxyHeaders,
		MaxFieldLength:  c.MaxCredentialLength,
		LoginRateLimit:  c.LoginRateLimit,
		LoginRateWindow: c.LoginRateWindow,
	})
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	r := app.router()
	defer r.Close()

	s := hs.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger, r)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until ctx is cancelled, a signal arrives or a server fails,
// then waits for both servers to stop and closes the store.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(ctx, cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.limiter.Close(); err != nil {
		app.logger.Error(context.Background(), "rate limiter close error", "error", err)
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(context.Background(), "db close error", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")
}
