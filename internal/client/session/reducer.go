package session

import (
	"time"

	"github.com/dmitrijs2005/gophshop/internal/client/models"
)

// Event is an input to Reduce. The set is closed.
type Event interface {
	event()
}

type (
	// Started marks the beginning of a remote operation.
	Started struct{}
	// Failed records an operation failure.
	Failed struct{ Err error }
	// ErrorCleared empties the error slot.
	ErrorCleared struct{}

	SignedUp struct {
		Email     string
		ExpiresAt time.Time
	}
	OTPSent struct {
		Context OTPContext
		Email   string
		Result  *models.OTPResult
	}
	OTPVerified struct {
		Context OTPContext
		Result  *models.VerifyResult
	}
	OTPRejected struct {
		Context OTPContext
		Err     error
	}
	LoggedIn struct {
		User  *models.User
		Token string
	}
	// LoginUnverified is a successful login of an account that still needs
	// OTP verification. ExpiresAt is a still-valid code expiry recovered
	// from storage, or zero.
	LoginUnverified struct {
		Email     string
		User      *models.User
		ExpiresAt time.Time
	}
	LoggedOut struct{}
	// Restored ends a cold-start restore. User and Token are empty when no
	// token was persisted.
	Restored struct {
		User         *models.User
		Token        string
		PendingEmail string
		OTPExpiresAt time.Time
	}
	// RestoreFailed ends a restore whose persisted session was rejected.
	RestoreFailed struct{ Err error }
	ResetRequested  struct{}
	PasswordChanged struct{ Success bool }
)

func (Started) event()         {}
func (Failed) event()          {}
func (ErrorCleared) event()    {}
func (SignedUp) event()        {}
func (OTPSent) event()         {}
func (OTPVerified) event()     {}
func (OTPRejected) event()     {}
func (LoggedIn) event()        {}
func (LoginUnverified) event() {}
func (LoggedOut) event()       {}
func (Restored) event()        {}
func (RestoreFailed) event()   {}
func (ResetRequested) event()  {}
func (PasswordChanged) event() {}

// Reduce returns the state that follows s after e. It never mutates s.
func Reduce(s State, e Event) State {
	s = s.Clone()

	switch e := e.(type) {
	case Started:
		s.Loading = true
		s.Err = nil

	case Failed:
		s.Loading = false
		s.Err = e.Err

	case ErrorCleared:
		s.Err = nil

	case SignedUp:
		s.Loading = false
		s.User = nil
		s.Token = ""
		s.PendingEmail = e.Email
		s.OTPExpiresAt = e.ExpiresAt

	case OTPSent:
		s.Loading = false
		s = e.Context.sent(s, e.Email, e.Result)
		if s.Authenticated() {
			s.PendingEmail = ""
		}

	case OTPVerified:
		s.Loading = false
		s = e.Context.verified(s, e.Result)

	case OTPRejected:
		s.Loading = false
		s = e.Context.rejected(s, e.Err)

	case LoggedIn:
		s.Loading = false
		s.User = e.User.Clone()
		s.Token = e.Token
		s.PendingEmail = ""
		s.OTPExpiresAt = timeZero
		s.Reset = ResetNone

	case LoginUnverified:
		s.Loading = false
		s.User = e.User.Clone()
		s.Token = ""
		s.PendingEmail = e.Email
		s.OTPExpiresAt = e.ExpiresAt
		s.Reset = ResetNone

	case LoggedOut:
		s = State{Initialized: s.Initialized}

	case Restored:
		s.Loading = false
		s.Initialized = true
		s.User = e.User.Clone()
		s.Token = e.Token
		s.PendingEmail = e.PendingEmail
		s.OTPExpiresAt = e.OTPExpiresAt

	case RestoreFailed:
		s = State{Initialized: true, Err: e.Err}

	case ResetRequested:
		s.Loading = false
		s.Reset = ResetNone

	case PasswordChanged:
		s.Loading = false
		if e.Success {
			s.Reset = ResetVerified
		} else {
			s.Reset = ResetFailed
		}
	}

	return s
}
