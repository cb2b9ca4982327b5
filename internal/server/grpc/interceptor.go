package grpc

import (
	"context"
	"errors"
	"net"
	"runtime/debug"
	"time"

	"github.com/dmitrijs2005/credgate/internal/common"
	pb "github.com/dmitrijs2005/credgate/internal/proto"
	"github.com/dmitrijs2005/credgate/internal/server/auth"
	"github.com/dmitrijs2005/credgate/internal/server/metrics"
	"github.com/dmitrijs2005/credgate/internal/server/ratelimit"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

type ctxKey string

const sessionKey ctxKey = "session"

// methods that need a valid access token
var protectedMethods = map[string]bool{
	pb.AuthService_WhoAmI_FullMethodName: true,
}

func sessionFromContext(ctx context.Context) (*auth.Session, bool) {
	s, ok := ctx.Value(sessionKey).(*auth.Session)
	return s, ok && s != nil
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {

	if protectedMethods[info.FullMethod] {

		var accessToken string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			values := md.Get(common.AccessTokenHeaderName)
			if len(values) > 0 {
				accessToken = values[0]
			}
		}
		if len(accessToken) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing token")
		}

		session, err := s.sessions.Authenticate(accessToken)
		if err != nil {
			if errors.Is(err, common.ErrTokenExpired) {
				return nil, status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
			}
			return nil, status.Error(codes.Unauthenticated, common.ErrInvalidToken.Error())
		}

		ctx = context.WithValue(ctx, sessionKey, session)

	}

	return handler(ctx, req)
}

// loggingInterceptor logs every call with its status code and counts it.
// Requests are never logged since they carry secrets.
func (s *GRPCServer) loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	code := status.Code(err)

	s.metrics.ObserveRPC(info.FullMethod, code.String())

	fields := []any{"method", info.FullMethod, "code", code.String(), "duration_ms", time.Since(start).Milliseconds()}
	switch code {
	case codes.OK:
		s.logger.Info(ctx, "grpc request", fields...)
	case codes.Internal, codes.Unavailable, codes.Unknown:
		s.logger.Error(ctx, "grpc request", fields...)
	default:
		s.logger.Warn(ctx, "grpc request", fields...)
	}
	return resp, err
}

// recoverInterceptor turns a handler panic into Internal so one bad call
// cannot take the process down.
func (s *GRPCServer) recoverInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error(ctx, "panic in grpc handler", "method", info.FullMethod, "panic", p, "stack", string(debug.Stack()))
			resp, err = nil, status.Error(codes.Internal, "internal error")
		}
	}()
	return handler(ctx, req)
}

// rateLimitInterceptor counts Login calls per peer address.
func (s *GRPCServer) rateLimitInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	if info.FullMethod != pb.AuthService_Login_FullMethodName || s.limiter == nil || s.loginRateLimit <= 0 {
		return handler(ctx, req)
	}

	ip := peerIP(ctx)
	d := s.limiter.Allow(ctx, ratelimit.IPKey(ip), s.loginRateLimit, s.loginRateWindow)
	if !d.Allowed {
		s.metrics.RateLimited(info.FullMethod)
		s.metrics.LoginAttempt(transport, metrics.OutcomeLimited)
		s.logger.Warn(ctx, "login", "outcome", metrics.OutcomeLimited, "ip", ip)
		_ = grpc.SetHeader(ctx, metadata.Pairs("retry-after", d.RetryAfter(time.Now())))
		return nil, status.Error(codes.ResourceExhausted, common.GenericLoginError)
	}
	return handler(ctx, req)
}

func peerIP(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(p.Addr.String())
	if err != nil {
		return p.Addr.String()
	}
	return host
}
