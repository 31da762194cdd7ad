package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophshop/internal/client/client"
	"github.com/dmitrijs2005/gophshop/internal/client/models"
	"github.com/dmitrijs2005/gophshop/internal/client/securestore"
	"github.com/dmitrijs2005/gophshop/internal/client/validate"
	"github.com/dmitrijs2005/gophshop/internal/client/watch"
	"github.com/dmitrijs2005/gophshop/internal/logging"
)

var (
	// ErrSessionExpired means the persisted session was rejected and all
	// persisted credentials were wiped. The user has to log in again.
	ErrSessionExpired = errors.New("session expired, please log in again")
	// ErrNoPendingVerification is returned when a code is submitted or
	// resent without an email to verify.
	ErrNoPendingVerification = errors.New("no verification in progress")
	// ErrNotAuthenticated is returned by operations that need a session.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrUnexpectedResponse means the server answered without the data the
	// operation needs.
	ErrUnexpectedResponse = errors.New("unexpected server response")
)

// CredentialStore is what the session persists into.
type CredentialStore interface {
	securestore.CredentialStore
	Purge(ctx context.Context, prefix string) error
}

// Service drives the session. It is safe for concurrent use; concurrent
// operations are not serialized and the last one to finish wins.
type Service struct {
	api   client.AuthAPI
	store CredentialStore
	log   logging.Logger
	now   func() time.Time

	mu    sync.Mutex
	state State
	hub   watch.Hub[State]
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger attaches a logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Service) { s.log = logging.OrNop(l) }
}

// NewService creates an uninitialized session. Call LoadFromStorage once on
// start-up.
func NewService(api client.AuthAPI, store CredentialStore, opts ...Option) *Service {
	s := &Service{
		api:   api,
		store: store,
		log:   logging.NewNop(),
		now:   time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With("module", "session")
	return s
}

// State returns the current snapshot.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Subscribe streams snapshots after every change.
func (s *Service) Subscribe() (<-chan State, func()) {
	return s.hub.Subscribe()
}

// ClearError empties the error slot.
func (s *Service) ClearError() {
	s.dispatch(ErrorCleared{})
}

func (s *Service) dispatch(e Event) State {
	s.mu.Lock()
	s.state = Reduce(s.state, e)
	snap := s.state.Clone()
	s.mu.Unlock()

	s.hub.Publish(snap)
	return snap
}

func (s *Service) fail(err error) error {
	s.dispatch(Failed{Err: err})
	return err
}

// commitCtx detaches persistence from the caller: once the server has
// answered, its result is committed even if the caller gave up.
func commitCtx(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

// Register creates an account and starts signup verification. The session
// stays unauthenticated until VerifyOTP succeeds.
func (s *Service) Register(ctx context.Context, username, email, password string) error {
	username = validate.NormalizeUsername(username)
	email = validate.NormalizeEmail(email)
	if err := validate.Signup(username, email, password); err != nil {
		return s.fail(err)
	}

	s.dispatch(Started{})
	res, err := s.api.Signup(ctx, username, email, password)
	if err != nil {
		s.log.Warn(ctx, "signup failed", "email", email, "err", err)
		return s.fail(err)
	}

	if res.User != nil && res.User.Email != "" {
		email = res.User.Email
	}
	s.dispatch(SignedUp{Email: email, ExpiresAt: res.ExpiresAt})
	s.log.Info(ctx, "signed up, awaiting verification", "email", email)

	ctx = commitCtx(ctx)
	s.dropToken(ctx)
	if err := s.store.Save(ctx, KeyPendingEmail, email); err != nil {
		s.log.Error(ctx, "failed to persist pending email", "err", err)
	}
	if err := s.saveExpiry(ctx, res.ExpiresAt); err != nil {
		s.log.Error(ctx, "failed to persist otp expiry", "err", err)
	}
	return nil
}

// SendOTP requests a fresh code. Only contexts that own the pending slot
// persist the new expiry.
func (s *Service) SendOTP(ctx context.Context, email string, oc OTPContext) error {
	email = validate.NormalizeEmail(email)
	if email == "" {
		return s.fail(ErrNoPendingVerification)
	}
	if err := validate.Email(email); err != nil {
		return s.fail(err)
	}

	s.dispatch(Started{})
	res, err := s.api.SendOTP(ctx, email, oc.Wire())
	if err != nil {
		s.log.Warn(ctx, "otp send failed", "email", email, "otp_context", oc.Wire(), "err", err)
		return s.fail(err)
	}

	s.dispatch(OTPSent{Context: oc, Email: email, Result: res})
	s.log.Info(ctx, "otp sent", "email", email, "otp_context", oc.Wire())

	if oc.OwnsPendingSlot() {
		ctx = commitCtx(ctx)
		if err := s.saveExpiry(ctx, res.ExpiresAt); err != nil {
			s.log.Error(ctx, "failed to persist otp expiry", "err", err)
		}
	}
	return nil
}

// VerifyOTP submits a code. What success does depends on oc: Signup
// authenticates, PasswordReset unlocks ResetPassword, ChangeEmail updates
// the user.
func (s *Service) VerifyOTP(ctx context.Context, email, otp string, oc OTPContext) error {
	email = validate.NormalizeEmail(email)
	if email == "" {
		return s.fail(ErrNoPendingVerification)
	}
	if err := validate.OTP(otp); err != nil {
		return s.fail(err)
	}

	s.dispatch(Started{})
	res, err := s.api.VerifyOTP(ctx, email, otp, oc.Wire())
	if err == nil {
		err = checkVerifyResult(oc, res)
	}
	if err != nil {
		s.log.Warn(ctx, "otp verification failed", "email", email, "otp_context", oc.Wire(), "err", err)
		s.dispatch(OTPRejected{Context: oc, Err: err})
		return err
	}

	ctx = commitCtx(ctx)
	if err := s.persistVerified(ctx, oc, res); err != nil {
		s.log.Error(ctx, "failed to persist verification", "otp_context", oc.Wire(), "err", err)
	}
	if err := s.clearCountdown(ctx, email, oc); err != nil {
		s.log.Error(ctx, "failed to clear countdown", "err", err)
	}

	s.dispatch(OTPVerified{Context: oc, Result: res})
	s.log.Info(ctx, "otp verified", "email", email, "otp_context", oc.Wire())
	return nil
}

func checkVerifyResult(oc OTPContext, res *models.VerifyResult) error {
	if res == nil {
		return ErrUnexpectedResponse
	}
	switch oc.(type) {
	case Signup:
		if res.Token == "" {
			return fmt.Errorf("%w: verification returned no token", ErrUnexpectedResponse)
		}
	case ChangeEmail:
		if res.User == nil {
			return fmt.Errorf("%w: verification returned no user", ErrUnexpectedResponse)
		}
	}
	return nil
}

func (s *Service) persistVerified(ctx context.Context, oc OTPContext, res *models.VerifyResult) error {
	switch oc.(type) {
	case Signup:
		s.api.SetToken(res.Token)
		if err := s.store.Save(ctx, KeyToken, res.Token); err != nil {
			return err
		}
		return s.deleteKeys(ctx, KeyPendingEmail, KeyOTPExpiresAt)
	case PasswordReset:
		return s.deleteKeys(ctx, KeyOTPExpiresAt)
	default:
		return nil
	}
}

// Login authenticates with email and password. The token is persisted only
// when rememberMe is set; otherwise it lives for this process only. An
// unverified account leaves the session awaiting signup verification, with
// a previously issued code expiry recovered from storage if still valid.
func (s *Service) Login(ctx context.Context, email, password string, rememberMe bool) error {
	email = validate.NormalizeEmail(email)
	if err := validate.Credentials(email, password); err != nil {
		return s.fail(err)
	}

	s.dispatch(Started{})
	res, err := s.api.Login(ctx, email, password)
	if err != nil {
		s.log.Warn(ctx, "login failed", "email", email, "err", err)
		return s.fail(err)
	}

	ctx = commitCtx(ctx)

	if res.Token == "" {
		exp, err := s.loadExpiry(ctx)
		if err != nil {
			s.log.Error(ctx, "failed to read otp expiry", "err", err)
		}
		if !exp.IsZero() && !exp.After(s.now()) {
			exp = timeZero
		}
		s.dropToken(ctx)
		if err := s.store.Save(ctx, KeyPendingEmail, email); err != nil {
			s.log.Error(ctx, "failed to persist pending email", "err", err)
		}
		s.dispatch(LoginUnverified{Email: email, User: res.User, ExpiresAt: exp})
		s.log.Info(ctx, "login of unverified account", "email", email, "otp_valid", !exp.IsZero())
		return nil
	}

	s.api.SetToken(res.Token)
	if rememberMe {
		if err := s.store.Save(ctx, KeyToken, res.Token); err != nil {
			s.log.Error(ctx, "failed to persist token", "err", err)
		}
	} else if err := s.store.Delete(ctx, KeyToken); err != nil {
		s.log.Error(ctx, "failed to drop persisted token", "err", err)
	}
	if err := s.deleteKeys(ctx, KeyPendingEmail, KeyOTPExpiresAt); err != nil {
		s.log.Error(ctx, "failed to clear pending verification", "err", err)
	}

	s.dispatch(LoggedIn{User: res.User, Token: res.Token})
	s.log.Info(ctx, "logged in", "email", email, "remember", rememberMe)
	return nil
}

// dropToken detaches any previous session's bearer from the transport and
// from storage, so a later restore cannot bring it back.
func (s *Service) dropToken(ctx context.Context) {
	s.api.ClearToken()
	if err := s.store.Delete(ctx, KeyToken); err != nil {
		s.log.Error(ctx, "failed to drop persisted token", "err", err)
	}
}

// Logout forgets the session locally. It makes no remote call. Persisted
// token and OTP expiry are deleted; in-memory state is cleared even if
// deletion fails.
func (s *Service) Logout(ctx context.Context) error {
	s.api.ClearToken()
	err := s.deleteKeys(ctx, KeyToken, KeyOTPExpiresAt)
	if err != nil {
		s.log.Error(ctx, "failed to delete persisted credentials", "err", err)
	}
	s.dispatch(LoggedOut{})
	s.log.Info(ctx, "logged out")
	return err
}

// LoadFromStorage restores the session on cold start. Without a persisted
// token the session stays anonymous but a pending verification is
// resurfaced. With one, the profile is fetched; if that fails the persisted
// session is wiped and ErrSessionExpired is returned. State.Initialized is
// true afterwards whatever the outcome.
func (s *Service) LoadFromStorage(ctx context.Context) error {
	s.dispatch(Started{})

	token, err := s.loadString(ctx, KeyToken)
	if err != nil {
		return s.restoreError(ctx, fmt.Errorf("failed to read token: %w", err))
	}
	pending, err := s.loadString(ctx, KeyPendingEmail)
	if err != nil {
		return s.restoreError(ctx, fmt.Errorf("failed to read pending email: %w", err))
	}
	exp, err := s.loadExpiry(ctx)
	if err != nil {
		return s.restoreError(ctx, fmt.Errorf("failed to read otp expiry: %w", err))
	}

	if token == "" {
		s.dispatch(Restored{PendingEmail: pending, OTPExpiresAt: exp})
		s.log.Info(ctx, "no persisted session", "pending_email", pending)
		return nil
	}

	if tokenExpired(token, s.now()) {
		s.log.Info(ctx, "persisted token already expired")
		return s.expire(ctx, pending)
	}

	s.api.SetToken(token)
	user, err := s.api.CurrentUser(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			s.api.ClearToken()
			return s.restoreError(ctx, err)
		}
		s.log.Warn(ctx, "profile fetch failed, dropping persisted session", "err", err)
		return s.expire(ctx, pending)
	}

	if !user.Verified {
		// the server's flag beats locally cached intent
		pending = user.Email
	} else {
		pending = ""
		exp = timeZero
	}
	s.dispatch(Restored{User: user, Token: token, PendingEmail: pending, OTPExpiresAt: exp})
	s.log.Info(ctx, "session restored", "user_id", user.ID, "verified", user.Verified)
	return nil
}

// restoreError finishes a restore that could not read its inputs.
func (s *Service) restoreError(ctx context.Context, err error) error {
	s.log.Error(ctx, "session restore failed", "err", err)
	s.dispatch(Restored{})
	s.dispatch(Failed{Err: err})
	return err
}

// expire wipes every persisted auth key and the countdowns of the pending
// email, then reports ErrSessionExpired.
func (s *Service) expire(ctx context.Context, pending string) error {
	s.api.ClearToken()

	ctx = commitCtx(ctx)
	if err := s.store.Purge(ctx, KeyPrefix); err != nil {
		s.log.Error(ctx, "failed to purge persisted session", "err", err)
	}
	if err := s.clearCountdowns(ctx, pending); err != nil {
		s.log.Error(ctx, "failed to clear countdowns", "err", err)
	}

	s.dispatch(RestoreFailed{Err: ErrSessionExpired})
	return ErrSessionExpired
}

// RequestPasswordReset asks the server to mail a reset code. It starts a
// new reset cycle.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = validate.NormalizeEmail(email)
	if err := validate.Email(email); err != nil {
		return s.fail(err)
	}

	s.dispatch(Started{})
	if err := s.api.RequestPasswordReset(ctx, email); err != nil {
		s.log.Warn(ctx, "password reset request failed", "email", email, "err", err)
		return s.fail(err)
	}

	s.dispatch(ResetRequested{})
	s.log.Info(ctx, "password reset requested", "email", email)
	return nil
}

// ResetPassword submits the new password. It never authenticates the
// session; State.Reset reflects the server's success flag.
func (s *Service) ResetPassword(ctx context.Context, email, newPassword string) error {
	email = validate.NormalizeEmail(email)
	if err := errors.Join(validate.Email(email), validate.Password(newPassword)); err != nil {
		return s.fail(err)
	}

	s.dispatch(Started{})
	res, err := s.api.ResetPassword(ctx, email, newPassword)
	if err != nil {
		s.log.Warn(ctx, "password reset failed", "email", email, "err", err)
		return s.fail(err)
	}

	s.dispatch(PasswordChanged{Success: res.Success})
	s.log.Info(ctx, "password reset submitted", "email", email, "success", res.Success)
	return nil
}

// RequireAuth returns ErrNotAuthenticated unless a token is held.
func (s *Service) RequireAuth() error {
	if !s.State().Authenticated() {
		return ErrNotAuthenticated
	}
	return nil
}
