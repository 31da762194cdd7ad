package session

import (
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophshop/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReduce_DoesNotMutateInput(t *testing.T) {
	u := &models.User{ID: "u1", Email: "bob@x.com"}
	before := State{User: u, Token: "t"}

	after := Reduce(before, OTPVerified{Context: ChangeEmail{}, Result: &models.VerifyResult{User: &models.User{ID: "u1", Email: "new@x.com"}}})

	assert.Equal(t, "bob@x.com", before.User.Email)
	assert.Equal(t, "new@x.com", after.User.Email)
	assert.NotSame(t, before.User, after.User)
}

func TestReduce_StartedClearsStaleError(t *testing.T) {
	s := Reduce(State{Err: errors.New("old")}, Started{})
	assert.True(t, s.Loading)
	assert.NoError(t, s.Err)
}

func TestReduce_SignupVerificationAuthenticates(t *testing.T) {
	s := State{PendingEmail: "bob@x.com", OTPExpiresAt: time.Now(), Loading: true}
	s = Reduce(s, OTPVerified{Context: Signup{}, Result: &models.VerifyResult{Token: "tok", User: &models.User{ID: "u1"}}})

	assert.Equal(t, "tok", s.Token)
	assert.Empty(t, s.PendingEmail)
	assert.True(t, s.OTPExpiresAt.IsZero())
	assert.False(t, s.Loading)
	assert.True(t, s.Authenticated())
}

func TestReduce_ResetTriState(t *testing.T) {
	var s State
	require.Equal(t, ResetNone, s.Reset)

	s = Reduce(s, OTPRejected{Context: PasswordReset{}, Err: errors.New("bad code")})
	assert.Equal(t, ResetFailed, s.Reset)
	assert.EqualError(t, s.Err, "bad code")

	s = Reduce(s, OTPVerified{Context: PasswordReset{}, Result: &models.VerifyResult{}})
	assert.Equal(t, ResetVerified, s.Reset)
	assert.Empty(t, s.Token)

	s = Reduce(s, ResetRequested{})
	assert.Equal(t, ResetNone, s.Reset, "a new reset cycle clears the flag")

	s = Reduce(s, OTPVerified{Context: PasswordReset{}, Result: &models.VerifyResult{}})
	s = Reduce(s, LoggedIn{Token: "t", User: &models.User{ID: "u"}})
	assert.Equal(t, ResetNone, s.Reset, "login clears the flag")
}

func TestReduce_SignupRejectionLeavesResetAlone(t *testing.T) {
	s := Reduce(State{}, OTPRejected{Context: Signup{}, Err: errors.New("x")})
	assert.Equal(t, ResetNone, s.Reset)
}

func TestReduce_OTPSentNeverGivesAuthenticatedSessionAPendingEmail(t *testing.T) {
	s := State{Token: "t"}
	s = Reduce(s, OTPSent{Context: Signup{}, Email: "bob@x.com", Result: &models.OTPResult{}})
	assert.Empty(t, s.PendingEmail)
}

func TestReduce_ChangeEmailSentTouchesNothing(t *testing.T) {
	exp := time.Now()
	s := State{Token: "t", OTPExpiresAt: exp}
	s = Reduce(s, OTPSent{Context: ChangeEmail{}, Email: "new@x.com", Result: &models.OTPResult{ExpiresAt: exp.Add(time.Hour)}})
	assert.Equal(t, exp, s.OTPExpiresAt)
}

func TestReduce_LoggedOutKeepsInitialized(t *testing.T) {
	s := State{Initialized: true, Token: "t", User: &models.User{}, Reset: ResetVerified, Err: errors.New("x")}
	s = Reduce(s, LoggedOut{})
	assert.Equal(t, State{Initialized: true}, s)
}

func TestReduce_RestoreFailed(t *testing.T) {
	s := Reduce(State{Token: "t", PendingEmail: "p"}, RestoreFailed{Err: ErrSessionExpired})
	assert.Equal(t, State{Initialized: true, Err: ErrSessionExpired}, s)
}

func TestReduce_PasswordChanged(t *testing.T) {
	assert.Equal(t, ResetVerified, Reduce(State{}, PasswordChanged{Success: true}).Reset)
	assert.Equal(t, ResetFailed, Reduce(State{}, PasswordChanged{Success: false}).Reset)
}

func TestOTPContext_PendingSlot(t *testing.T) {
	assert.True(t, Signup{}.OwnsPendingSlot())
	assert.True(t, PasswordReset{}.OwnsPendingSlot())
	assert.False(t, ChangeEmail{}.OwnsPendingSlot())
}
