package client

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/credgate/internal/common"
	pb "github.com/dmitrijs2005/credgate/internal/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Session is what Login and WhoAmI report back.
type Session struct {
	AccountID  string
	Identifier string
	ExpiresAt  time.Time
}

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      pb.AuthServiceClient
	accessToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {

	if s.accessToken != "" && method != pb.AuthService_Login_FullMethodName {
		ctx = withAccessToken(ctx, s.accessToken)
	}

	return invoker(ctx, method, req, reply, cc, opts...)
}

// NewAuthClient prepares a client for endpointURL. No connection is made
// until the first call.
func NewAuthClient(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}

	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, opts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = pb.NewAuthServiceClient(conn)
	return c, nil
}

// Login verifies the credentials and keeps the issued access token for
// later calls.
func (s *GRPCClient) Login(ctx context.Context, identifier, secret string) (*Session, error) {

	req := pb.NewStruct(map[string]string{pb.FieldIdentifier: identifier, pb.FieldSecret: secret})

	resp, err := s.client.Login(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}

	token, err := pb.StringField(resp, pb.FieldAccessToken)
	if err != nil || token == "" {
		return nil, ErrBadResponse
	}
	s.accessToken = token

	accountID, _ := pb.StringField(resp, pb.FieldAccountID)
	return &Session{AccountID: accountID, Identifier: identifier, ExpiresAt: parseTime(resp)}, nil
}

// WhoAmI asks the server whose access token the client holds.
func (s *GRPCClient) WhoAmI(ctx context.Context) (*Session, error) {
	if s.accessToken == "" {
		return nil, ErrNotLoggedIn
	}

	resp, err := s.client.WhoAmI(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, s.mapError(err)
	}

	accountID, err := pb.StringField(resp, pb.FieldAccountID)
	if err != nil {
		return nil, ErrBadResponse
	}
	identifier, _ := pb.StringField(resp, pb.FieldIdentifier)

	return &Session{AccountID: accountID, Identifier: identifier, ExpiresAt: parseTime(resp)}, nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func parseTime(resp *structpb.Struct) time.Time {
	v, err := pb.StringField(resp, pb.FieldExpiresAt)
	if err != nil {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		if st.Message() == common.ErrTokenExpired.Error() {
			return ErrTokenExpired
		}
		return ErrUnauthorized
	case codes.InvalidArgument:
		return ErrInvalidInput
	case codes.ResourceExhausted:
		return ErrRateLimited
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
