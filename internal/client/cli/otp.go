package cli

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophshop/internal/client/countdown"
	"github.com/dmitrijs2005/gophshop/internal/client/session"
)

// verification returns the email and context a code would be checked
// against. A pending signup from the session counts when nothing else was
// started in this run.
func (a *App) verification() (string, session.OTPContext) {
	a.mu.Lock()
	email, oc := a.otpEmail, a.otpContext
	a.mu.Unlock()

	if oc != nil {
		return email, oc
	}
	if st := a.session.State(); st.AwaitingOTP() {
		return st.PendingEmail, session.Signup{}
	}
	return "", nil
}

// useTimer makes a fresh countdown for (email, oc) the current one and stops
// the previous loop. The previous record stays in storage.
func (a *App) useTimer(email string, oc session.OTPContext) *countdown.Timer {
	t := countdown.New(a.store, email, oc.Wire(),
		countdown.WithLogger(a.log),
		countdown.WithOnTick(func(remaining int) {
			if remaining == 0 {
				a.println("You can request a new code now (resend).")
			}
		}))

	a.mu.Lock()
	old := a.timer
	a.timer, a.otpEmail, a.otpContext = t, email, oc
	a.mu.Unlock()

	if old != nil {
		old.Stop()
	}
	return t
}

func (a *App) startCountdown(ctx context.Context, email string, oc session.OTPContext) {
	t := a.useTimer(email, oc)
	if err := t.Start(ctx, int(a.config.OTPResendCooldown/time.Second)); err != nil {
		a.log.Warn(ctx, "countdown not persisted", "error", err)
	}
}

func (a *App) resumeCountdown(ctx context.Context, email string, oc session.OTPContext) {
	t := a.useTimer(email, oc)
	if _, err := t.LoadAndResume(ctx); err != nil {
		a.log.Warn(ctx, "countdown not restored", "error", err)
	}
}

// cooldown is the number of seconds before a resend is allowed.
func (a *App) cooldown() int {
	a.mu.Lock()
	t := a.timer
	a.mu.Unlock()
	if t == nil {
		return 0
	}
	return t.Remaining()
}

// finishVerification drops the verification in progress.
func (a *App) finishVerification() {
	a.mu.Lock()
	t := a.timer
	a.timer, a.otpEmail, a.otpContext = nil, "", nil
	a.mu.Unlock()

	if t != nil {
		t.Stop()
	}
}
