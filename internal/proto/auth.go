// Package proto describes the credgate.AuthService gRPC contract.
//
// Messages are well-known protobuf types (google.protobuf.Struct and
// google.protobuf.Empty), so the service needs no generated code: the
// descriptor and the client stub below are written by hand against the
// grpc-go API.
package proto

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "credgate.AuthService"

const (
	AuthService_Login_FullMethodName  = "/credgate.AuthService/Login"
	AuthService_WhoAmI_FullMethodName = "/credgate.AuthService/WhoAmI"
)

// Field names of the request and response structs.
const (
	FieldIdentifier  = "identifier"
	FieldSecret      = "secret"
	FieldAccessToken = "access_token"
	FieldAccountID   = "account_id"
	FieldExpiresAt   = "expires_at"
)

// AuthServiceServer is the server API for credgate.AuthService.
type AuthServiceServer interface {
	// Login takes {identifier, secret} and returns {access_token, account_id, expires_at}.
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// WhoAmI returns {account_id, identifier} for the access token in metadata.
	WhoAmI(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

func RegisterAuthServiceServer(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&AuthService_ServiceDesc, srv)
}

func _AuthService_Login_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AuthServiceServer).Login(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: AuthService_Login_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AuthServiceServer).Login(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _AuthService_WhoAmI_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AuthServiceServer).WhoAmI(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: AuthService_WhoAmI_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AuthServiceServer).WhoAmI(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

var AuthService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Login", Handler: _AuthService_Login_Handler},
		{MethodName: "WhoAmI", Handler: _AuthService_WhoAmI_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "credgate/auth.proto",
}

// AuthServiceClient is the client API for credgate.AuthService.
type AuthServiceClient interface {
	Login(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	WhoAmI(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type authServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewAuthServiceClient(cc grpc.ClientConnInterface) AuthServiceClient {
	return &authServiceClient{cc}
}

func (c *authServiceClient) Login(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, AuthService_Login_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *authServiceClient) WhoAmI(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, AuthService_WhoAmI_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// NewStruct builds a Struct of string fields.
func NewStruct(fields map[string]string) *structpb.Struct {
	s := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(fields))}
	for k, v := range fields {
		s.Fields[k] = structpb.NewStringValue(v)
	}
	return s
}

// StringField returns the string stored under key. A missing key or a
// non-string value is an error.
func StringField(s *structpb.Struct, key string) (string, error) {
	v, ok := s.GetFields()[key]
	if !ok {
		return "", fmt.Errorf("missing field %q", key)
	}
	str, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("field %q is not a string", key)
	}
	return str.StringValue, nil
}
