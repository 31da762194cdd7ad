package client

import "errors"

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")
	ErrRejected     = errors.New("request rejected")
	ErrNotFound     = errors.New("not found")
)

// RemoteError is a failure reported by the server. Kind is one of the
// sentinels above; Message is the server's own text and is what Error
// returns, so it can be shown to the user verbatim.
type RemoteError struct {
	Kind    error
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.Error()
}

func (e *RemoteError) Unwrap() error {
	return e.Kind
}

func remoteError(kind error, msg string) error {
	return &RemoteError{Kind: kind, Message: msg}
}
