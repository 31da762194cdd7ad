package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophshop/internal/client/session"
	"github.com/dmitrijs2005/gophshop/internal/client/validate"
	"github.com/dmitrijs2005/gophshop/internal/common"
)

// getSimpleText, getPassword and getConfirm are indirections used to
// facilitate testing. They point to interactive input helpers and can be
// swapped in tests.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	getConfirm    = GetConfirm
)

var (
	errNoResetInProgress = errors.New("no verified password reset, use 'forgot' first")
	errPasswordMismatch  = errors.New("passwords do not match")
)

// argOrPrompt returns args[0] when present, otherwise asks for it.
func (a *App) argOrPrompt(args []string, prompt string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return getSimpleText(a.reader, prompt, a.out)
}

// Register prompts for a username, an email and a password and creates the
// account. The server mails a code; the resend countdown starts at once.
func (a *App) Register(ctx context.Context, _ []string) error {
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.reader, "Enter password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.session.Register(ctx, username, email, string(password)); err != nil {
		return err
	}

	pending := a.session.State().PendingEmail
	a.startCountdown(ctx, pending, session.Signup{})
	a.println("Account created. A verification code was sent to", pending)
	a.println("Type 'verify' to enter it.")
	return nil
}

// Verify submits a code for the verification in progress. The code may be
// given inline: "verify 123456".
func (a *App) Verify(ctx context.Context, args []string) error {
	email, oc := a.verification()
	if oc == nil {
		return session.ErrNoPendingVerification
	}

	code, err := a.argOrPrompt(args, "Enter the code sent to "+email)
	if err != nil {
		return err
	}

	if err := a.session.VerifyOTP(ctx, email, code, oc); err != nil {
		return err
	}
	a.finishVerification()

	switch oc.(type) {
	case session.PasswordReset:
		a.mu.Lock()
		a.otpEmail, a.otpContext = email, oc
		a.mu.Unlock()
		a.println("Code accepted. Type 'reset' to choose a new password.")
	default:
		a.println(fmt.Sprintf("Email verified. Welcome, %s!", displayName(a.session.State())))
		a.syncCart(ctx)
	}
	return nil
}

// Resend asks for a fresh code once the countdown has run out.
func (a *App) Resend(ctx context.Context, _ []string) error {
	email, oc := a.verification()
	if oc == nil {
		return session.ErrNoPendingVerification
	}
	if n := a.cooldown(); n > 0 {
		return fmt.Errorf("please wait %d seconds before requesting a new code", n)
	}

	if err := a.session.SendOTP(ctx, email, oc); err != nil {
		return err
	}
	a.startCountdown(ctx, email, oc)
	a.println("A new code was sent to", email)
	return nil
}

// Login prompts for credentials and signs in. An unverified account is
// routed to verification instead.
func (a *App) Login(ctx context.Context, _ []string) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.reader, "Enter password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	remember, err := getConfirm(a.reader, "Remember me on this device?", a.out)
	if err != nil {
		return err
	}

	if err := a.session.Login(ctx, email, string(password), remember); err != nil {
		return err
	}

	st := a.session.State()
	if st.Authenticated() {
		a.println(fmt.Sprintf("Logged in as %s", displayName(st)))
		a.syncCart(ctx)
		return nil
	}

	a.println("Your email is not verified yet. Type 'verify' to enter the code or 'resend' for a new one.")
	a.resumeCountdown(ctx, st.PendingEmail, session.Signup{})
	return nil
}

// Logout forgets the session and the cart. The in-memory session is gone
// even when clearing storage fails.
func (a *App) Logout(ctx context.Context, _ []string) error {
	err := a.session.Logout(ctx)
	a.cart.Reset()
	a.finishVerification()
	a.println("Logged out")
	return err
}

// WhoAmI prints the signed-in user.
func (a *App) WhoAmI(_ context.Context, _ []string) error {
	if err := a.session.RequireAuth(); err != nil {
		return err
	}
	u := a.session.State().User
	if u == nil {
		return session.ErrNotAuthenticated
	}
	a.println(fmt.Sprintf("%s <%s> verified=%t", u.Username, u.Email, u.Verified))
	return nil
}

// Forgot starts a password reset for the given or prompted email.
func (a *App) Forgot(ctx context.Context, args []string) error {
	email, err := a.argOrPrompt(args, "Enter your account email")
	if err != nil {
		return err
	}
	if err := a.session.RequestPasswordReset(ctx, email); err != nil {
		return err
	}

	email = validate.NormalizeEmail(email)
	a.startCountdown(ctx, email, session.PasswordReset{})
	a.println("If the account exists, a reset code was sent to", email)
	a.println("Type 'verify' to enter it.")
	return nil
}

// Reset sets a new password after a reset code was verified.
func (a *App) Reset(ctx context.Context, _ []string) error {
	email, oc := a.verification()
	if _, ok := oc.(session.PasswordReset); !ok || a.session.State().Reset != session.ResetVerified {
		return errNoResetInProgress
	}

	password, err := getPassword(a.reader, "Enter new password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)
	confirm, err := getPassword(a.reader, "Repeat new password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	if string(password) != string(confirm) {
		return errPasswordMismatch
	}

	if err := a.session.ResetPassword(ctx, email, string(password)); err != nil {
		return err
	}

	if a.session.State().Reset != session.ResetVerified {
		a.println("The server did not accept the new password.")
		return nil
	}
	a.finishVerification()
	a.println("Password changed. You can log in now.")
	return nil
}
