// Package grpc exposes the verifier to programmatic clients as the
// credgate.AuthService gRPC service.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/credgate/internal/logging"
	pb "github.com/dmitrijs2005/credgate/internal/proto"
	"github.com/dmitrijs2005/credgate/internal/server/auth"
	"github.com/dmitrijs2005/credgate/internal/server/metrics"
	"github.com/dmitrijs2005/credgate/internal/server/ratelimit"
	"github.com/dmitrijs2005/credgate/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// SessionService is what the server needs from services.SessionService.
type SessionService interface {
	Login(ctx context.Context, identifier, secret string) (*services.Session, error)
	Authenticate(token string) (*auth.Session, error)
}

type GRPCServer struct {
	address  string
	sessions SessionService
	logger   logging.Logger
	metrics  *metrics.Metrics

	limiter         ratelimit.Limiter
	loginRateLimit  int
	loginRateWindow time.Duration
}

func NewGRPCServer(a string, l logging.Logger, ss SessionService, m *metrics.Metrics) *GRPCServer {
	if m == nil {
		m = metrics.New()
	}
	return &GRPCServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		sessions: ss,
		metrics:  m,
	}
}

// WithLoginRateLimit throttles Login per peer address. Passing the HTTP
// router's limiter makes both transports share one budget per address.
func (s *GRPCServer) WithLoginRateLimit(l ratelimit.Limiter, limit int, window time.Duration) *GRPCServer {
	s.limiter = l
	s.loginRateLimit = limit
	s.loginRateWindow = window
	return s
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve runs on an existing listener until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, listen net.Listener) error {

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		s.loggingInterceptor,
		s.recoverInterceptor,
		s.rateLimitInterceptor,
		s.accessTokenInterceptor,
	))

	pb.RegisterAuthServiceServer(srv, &authService{server: s})

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(pb.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	go func() {
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping gRPC server...")
		hs.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
