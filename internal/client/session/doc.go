// Package session owns the client's authentication lifecycle: registration,
// OTP dispatch and verification, login, logout, password reset and
// restoring a session on cold start.
//
// State changes go through Reduce, a pure function from (State, Event) to
// State. Service performs the remote calls and the credential-store side
// effects, then feeds the outcome to Reduce. Callers read State snapshots or
// Subscribe to them; they never mutate state directly.
//
// Every operation records its outcome in a single error slot that the next
// operation overwrites. Nothing is retried automatically.
package session
