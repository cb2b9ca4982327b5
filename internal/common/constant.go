// Package common contains shared constants and sentinel errors used across
// credgate components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on inbound and outbound requests.
const AccessTokenHeaderName = "access_token"

// DefaultMaxCredentialLength bounds identifiers and secrets, in bytes.
const DefaultMaxCredentialLength = 256

// GenericLoginError is the only text ever shown to an end user after an
// unsuccessful login, whatever the underlying cause.
const GenericLoginError = "Invalid username or password"
