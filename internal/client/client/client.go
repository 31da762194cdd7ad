package client

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophshop/internal/client/models"
	"github.com/dmitrijs2005/gophshop/internal/logging"
	"google.golang.org/grpc"
)

// Wire names of the OTP verification contexts.
const (
	OTPContextSignup        = "signup"
	OTPContextPasswordReset = "password-reset"
	OTPContextChangeEmail   = "change-email"
)

// AuthAPI is the remote surface used by the session engine.
type AuthAPI interface {
	// SetToken attaches token as the bearer credential of every later call.
	SetToken(token string)
	// ClearToken detaches the bearer credential.
	ClearToken()

	Signup(ctx context.Context, username, email, password string) (*models.SignupResult, error)
	SendOTP(ctx context.Context, email, otpContext string) (*models.OTPResult, error)
	VerifyOTP(ctx context.Context, email, otp, otpContext string) (*models.VerifyResult, error)
	Login(ctx context.Context, email, password string) (*models.LoginResult, error)
	// CurrentUser fails with an error matching ErrUnauthorized when the
	// attached token is invalid or expired.
	CurrentUser(ctx context.Context) (*models.User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, newPassword string) (*models.ResetResult, error)
}

// CartAPI is the remote surface used by the cart engine. Items are keyed by
// product ID, never by line-item ID.
type CartAPI interface {
	GetCart(ctx context.Context) ([]models.LineItem, error)
	AddCartItem(ctx context.Context, productID string, quantity int) (models.LineItem, error)
	UpdateCartItem(ctx context.Context, productID string, quantity int) (models.LineItem, error)
	RemoveCartItem(ctx context.Context, productID string) error
	ClearCart(ctx context.Context) error
}

// Client is the complete remote service.
type Client interface {
	AuthAPI
	CartAPI
	Ping(ctx context.Context) error
	Close() error
}

type options struct {
	timeout     time.Duration
	log         logging.Logger
	dialOptions []grpc.DialOption
}

// Option configures a transport.
type Option func(*options)

// WithTimeout bounds every call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithLogger attaches a logger.
func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.log = logging.OrNop(l) }
}

// WithDialOptions appends gRPC dial options. Ignored by the HTTP transport.
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(o *options) { o.dialOptions = append(o.dialOptions, opts...) }
}

func buildOptions(opts []Option) options {
	o := options{log: logging.NewNop()}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

func (o options) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, o.timeout)
}
