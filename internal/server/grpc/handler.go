package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/credgate/internal/common"
	pb "github.com/dmitrijs2005/credgate/internal/proto"
	"github.com/dmitrijs2005/credgate/internal/server/metrics"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const transport = "grpc"

// authService implements pb.AuthServiceServer on top of GRPCServer.
type authService struct {
	server *GRPCServer
}

func (a *authService) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	s := a.server

	identifier, err := pb.StringField(req, pb.FieldIdentifier)
	if err != nil {
		s.metrics.LoginAttempt(transport, metrics.OutcomeInvalid)
		return nil, status.Error(codes.InvalidArgument, common.GenericLoginError)
	}
	secret, err := pb.StringField(req, pb.FieldSecret)
	if err != nil {
		s.metrics.LoginAttempt(transport, metrics.OutcomeInvalid)
		return nil, status.Error(codes.InvalidArgument, common.GenericLoginError)
	}

	session, err := s.sessions.Login(ctx, identifier, secret)
	if err != nil {
		code, outcome := loginFailureCode(err)
		s.metrics.LoginAttempt(transport, outcome)
		if code == codes.Internal || code == codes.Unavailable {
			s.logger.Error(ctx, "login", "outcome", outcome, "error", err)
		} else {
			s.logger.Info(ctx, "login", "outcome", outcome)
		}
		return nil, status.Error(code, common.GenericLoginError)
	}

	s.metrics.LoginAttempt(transport, metrics.OutcomeSuccess)
	s.logger.Info(ctx, "login", "outcome", metrics.OutcomeSuccess, "account_id", session.AccountID)

	return pb.NewStruct(map[string]string{
		pb.FieldAccessToken: session.AccessToken,
		pb.FieldAccountID:   session.AccountID,
		pb.FieldExpiresAt:   session.ExpiresAt.UTC().Format(time.RFC3339),
	}), nil
}

func loginFailureCode(err error) (codes.Code, string) {
	switch {
	case errors.Is(err, common.ErrorUnauthorized):
		return codes.Unauthenticated, metrics.OutcomeFailure
	case errors.Is(err, common.ErrValidation):
		return codes.InvalidArgument, metrics.OutcomeInvalid
	case errors.Is(err, common.ErrStoreUnavailable):
		return codes.Unavailable, metrics.OutcomeUnavailable
	}
	return codes.Internal, metrics.OutcomeError
}

func (a *authService) WhoAmI(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	session, ok := sessionFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	return pb.NewStruct(map[string]string{
		pb.FieldAccountID:  session.AccountID,
		pb.FieldIdentifier: session.Identifier,
		pb.FieldExpiresAt:  session.ExpiresAt.UTC().Format(time.RFC3339),
	}), nil
}
