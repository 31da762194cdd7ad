package session

import (
	"github.com/dmitrijs2005/gophshop/internal/client/client"
	"github.com/dmitrijs2005/gophshop/internal/client/models"
)

// OTPContext says what a one-time code is for. The set is closed: Signup,
// PasswordReset and ChangeEmail. Each context decides how a freshly sent
// code and a successful verification change the session.
type OTPContext interface {
	// Wire is the name sent to the server.
	Wire() string
	// OwnsPendingSlot reports whether codes of this context occupy the
	// persisted pending-verification slot.
	OwnsPendingSlot() bool

	sent(s State, email string, res *models.OTPResult) State
	verified(s State, res *models.VerifyResult) State
	rejected(s State, err error) State
}

type (
	Signup        struct{}
	PasswordReset struct{}
	ChangeEmail   struct{}
)

var (
	_ OTPContext = Signup{}
	_ OTPContext = PasswordReset{}
	_ OTPContext = ChangeEmail{}
)

// Contexts lists every OTP context.
func Contexts() []OTPContext {
	return []OTPContext{Signup{}, PasswordReset{}, ChangeEmail{}}
}

func (Signup) Wire() string          { return client.OTPContextSignup }
func (Signup) OwnsPendingSlot() bool { return true }

func (Signup) sent(s State, email string, res *models.OTPResult) State {
	s.PendingEmail = email
	s.OTPExpiresAt = res.ExpiresAt
	return s
}

func (Signup) verified(s State, res *models.VerifyResult) State {
	s.User = res.User.Clone()
	s.Token = res.Token
	s.PendingEmail = ""
	s.OTPExpiresAt = timeZero
	return s
}

func (Signup) rejected(s State, err error) State {
	s.Err = err
	return s
}

func (PasswordReset) Wire() string          { return client.OTPContextPasswordReset }
func (PasswordReset) OwnsPendingSlot() bool { return true }

func (PasswordReset) sent(s State, _ string, res *models.OTPResult) State {
	s.OTPExpiresAt = res.ExpiresAt
	s.Reset = ResetNone
	return s
}

func (PasswordReset) verified(s State, _ *models.VerifyResult) State {
	s.Reset = ResetVerified
	s.OTPExpiresAt = timeZero
	return s
}

func (PasswordReset) rejected(s State, err error) State {
	s.Err = err
	s.Reset = ResetFailed
	return s
}

func (ChangeEmail) Wire() string          { return client.OTPContextChangeEmail }
func (ChangeEmail) OwnsPendingSlot() bool { return false }

func (ChangeEmail) sent(s State, _ string, _ *models.OTPResult) State {
	return s
}

func (ChangeEmail) verified(s State, res *models.VerifyResult) State {
	if res.User != nil {
		s.User = res.User.Clone()
	}
	return s
}

func (ChangeEmail) rejected(s State, err error) State {
	s.Err = err
	return s
}
