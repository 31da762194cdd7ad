package session

import (
	"time"

	"github.com/dmitrijs2005/gophshop/internal/client/models"
)

var timeZero time.Time

// ResetStatus is the password-reset verification flag. ResetNone means no
// reset code was checked in the current cycle, ResetFailed that the last
// check was rejected.
type ResetStatus uint8

const (
	ResetNone ResetStatus = iota
	ResetVerified
	ResetFailed
)

func (r ResetStatus) String() string {
	switch r {
	case ResetVerified:
		return "verified"
	case ResetFailed:
		return "failed"
	default:
		return "none"
	}
}

// State is a snapshot of the session.
type State struct {
	User  *models.User
	Token string
	// PendingEmail is the address waiting for OTP verification.
	PendingEmail string
	// OTPExpiresAt is zero when no code is outstanding.
	OTPExpiresAt time.Time
	Reset        ResetStatus
	// Initialized turns true after the first restore attempt and stays so.
	Initialized bool
	Loading     bool
	// Err is the outcome of the last operation.
	Err error
}

// Authenticated reports whether a bearer token is held.
func (s State) Authenticated() bool {
	return s.Token != ""
}

// AwaitingOTP reports whether a verification is in progress.
func (s State) AwaitingOTP() bool {
	return s.PendingEmail != ""
}

// Clone returns a snapshot that shares no pointers with s.
func (s State) Clone() State {
	s.User = s.User.Clone()
	return s
}
