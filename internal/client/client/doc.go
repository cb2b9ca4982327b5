// Package client talks to the credgate.AuthService gRPC endpoint.
//
// GRPCClient manages one connection, attaches the access token obtained by
// Login to later calls through an interceptor, and maps gRPC status codes
// to the sentinel errors below so callers can match them with errors.Is:
// ErrUnauthorized, ErrInvalidInput, ErrUnavailable.
package client
