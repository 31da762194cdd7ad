// Package client is the remote boundary of the gophshop client.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic contract (Client, split into AuthAPI and CartAPI)
//     covering signup, OTP dispatch and verification, login, profile fetch,
//     password reset and the cart endpoints keyed by product ID.
//  2. A gRPC implementation (GRPCClient) speaking JSON-encoded messages over
//     unary calls, with an interceptor that injects the bearer token and a
//     request ID.
//  3. An HTTP/JSON implementation (HTTPClient) that attaches the bearer token
//     through an oauth2 static token source.
//
// # Error Handling
//
// Server failures are returned as *RemoteError, whose Kind matches one of
// the sentinels with errors.Is: ErrUnavailable, ErrUnauthorized,
// ErrConflict, ErrRejected, ErrNotFound. Its Error text is the server
// message.
//
// # Concurrency & Contexts
//
// Both implementations are safe for concurrent use. Every call honours
// context cancellation; cancelling aborts the request in flight.
package client
