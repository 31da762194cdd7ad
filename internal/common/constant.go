// Package common contains shared constants and sentinel errors used across
// gophshop client components.
package common

const (
	// AuthorizationHeaderName is the gRPC metadata key (and HTTP header) that
	// carries the bearer token on outbound requests.
	AuthorizationHeaderName = "authorization"

	// RequestIDHeaderName carries a per-call correlation ID.
	RequestIDHeaderName = "x-request-id"

	// BearerPrefix precedes the token in the authorization value.
	BearerPrefix = "Bearer "
)
