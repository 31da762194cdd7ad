package session

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/gophshop/internal/client/countdown"
	"github.com/dmitrijs2005/gophshop/internal/timex"
	"github.com/golang-jwt/jwt/v5"
)

// Credential store keys. Everything the session persists lives under
// KeyPrefix.
const (
	KeyPrefix       = "auth."
	KeyToken        = KeyPrefix + "token"
	KeyPendingEmail = KeyPrefix + "pending_email"
	KeyOTPExpiresAt = KeyPrefix + "otp_expires_at"
)

func (s *Service) saveExpiry(ctx context.Context, t time.Time) error {
	if t.IsZero() {
		return s.store.Delete(ctx, KeyOTPExpiresAt)
	}
	return s.store.Save(ctx, KeyOTPExpiresAt, timex.UnixMilli(t))
}

// loadExpiry returns the persisted OTP expiry, or zero when it is absent or
// unparsable.
func (s *Service) loadExpiry(ctx context.Context) (time.Time, error) {
	v, ok, err := s.store.Get(ctx, KeyOTPExpiresAt)
	if err != nil || !ok {
		return timeZero, err
	}
	t, err := timex.ParseUnixMilli(v)
	if err != nil {
		s.log.Warn(ctx, "ignoring malformed otp expiry", "value", v)
		return timeZero, nil
	}
	return t, nil
}

func (s *Service) loadString(ctx context.Context, key string) (string, error) {
	v, _, err := s.store.Get(ctx, key)
	return v, err
}

func (s *Service) deleteKeys(ctx context.Context, keys ...string) error {
	var errs []error
	for _, k := range keys {
		if err := s.store.Delete(ctx, k); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// clearCountdowns drops the resend countdowns of email in every context.
func (s *Service) clearCountdowns(ctx context.Context, email string) error {
	if email == "" {
		return nil
	}
	var errs []error
	for _, c := range Contexts() {
		errs = append(errs, s.clearCountdown(ctx, email, c))
	}
	return errors.Join(errs...)
}

func (s *Service) clearCountdown(ctx context.Context, email string, c OTPContext) error {
	return s.deleteKeys(ctx,
		countdown.CountdownKey(email, c.Wire()),
		countdown.TimestampKey(email, c.Wire()))
}

// tokenExpired reports whether token is a JWT whose exp claim has passed.
// Opaque tokens and tokens without exp are never considered expired here;
// the server decides.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}
