package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophshop/internal/client/models"
	"github.com/dmitrijs2005/gophshop/internal/common"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// ShopServiceName is the fully qualified gRPC service the client calls.
const ShopServiceName = "gophshop.v1.ShopService"

// Method names on ShopServiceName.
const (
	MethodSignup               = "Signup"
	MethodSendOTP              = "SendOTP"
	MethodVerifyOTP            = "VerifyOTP"
	MethodLogin                = "Login"
	MethodCurrentUser          = "CurrentUser"
	MethodRequestPasswordReset = "RequestPasswordReset"
	MethodResetPassword        = "ResetPassword"
	MethodGetCart              = "GetCart"
	MethodAddCartItem          = "AddCartItem"
	MethodUpdateCartItem       = "UpdateCartItem"
	MethodRemoveCartItem       = "RemoveCartItem"
	MethodClearCart            = "ClearCart"
)

func fullMethod(name string) string {
	return "/" + ShopServiceName + "/" + name
}

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	health      healthpb.HealthClient
	opts        options

	mu          sync.RWMutex
	accessToken string
}

var _ Client = (*GRPCClient)(nil)

// NewGRPCClient creates a client for endpointURL. The connection is
// established lazily on the first call.
func NewGRPCClient(endpointURL string, opts ...Option) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, opts: buildOptions(opts)}
	c.opts.log = c.opts.log.With("transport", "grpc")
	if err := c.initGRPCClient(); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) initGRPCClient() error {
	dial := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
	}, s.opts.dialOptions...)

	conn, err := grpc.NewClient(s.endpointURL, dial...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.health = healthpb.NewHealthClient(conn)
	return nil
}

func (s *GRPCClient) SetToken(token string) {
	s.mu.Lock()
	s.accessToken = token
	s.mu.Unlock()
}

func (s *GRPCClient) ClearToken() {
	s.SetToken("")
}

func (s *GRPCClient) token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func withOutgoingHeaders(ctx context.Context, token, requestID string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AuthorizationHeaderName)
	if token != "" {
		md.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}
	md.Set(common.RequestIDHeaderName, requestID)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	requestID := uuid.NewString()
	ctx = withOutgoingHeaders(ctx, s.token(), requestID)

	start := time.Now()
	err := invoker(ctx, method, req, reply, cc, opts...)
	s.opts.log.Debug(ctx, "rpc finished",
		"method", method,
		"request_id", requestID,
		"duration", time.Since(start),
		"code", status.Code(err).String())
	return err
}

func (s *GRPCClient) invoke(ctx context.Context, method string, req, resp any) error {
	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	err := s.conn.Invoke(ctx, fullMethod(method), req, resp, grpc.CallContentSubtype(codecName))
	if err != nil {
		mapped := s.mapError(err)
		s.opts.log.Warn(ctx, "rpc failed", "method", method, "err", mapped)
		return mapped
	}
	return nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	resp, err := s.health.Check(ctx, &healthpb.HealthCheckRequest{Service: ShopServiceName})
	if err != nil {
		return s.mapError(err)
	}

	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return ErrUnavailable
	}

	return nil
}

func (s *GRPCClient) Signup(ctx context.Context, username, email, password string) (*models.SignupResult, error) {
	req := &signupRequest{Username: username, Email: email, Password: password}
	resp := &models.SignupResult{}
	if err := s.invoke(ctx, MethodSignup, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *GRPCClient) SendOTP(ctx context.Context, email, otpContext string) (*models.OTPResult, error) {
	req := &sendOTPRequest{Email: email, Context: otpContext}
	resp := &models.OTPResult{}
	if err := s.invoke(ctx, MethodSendOTP, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *GRPCClient) VerifyOTP(ctx context.Context, email, otp, otpContext string) (*models.VerifyResult, error) {
	req := &verifyOTPRequest{Email: email, OTP: otp, Context: otpContext}
	resp := &models.VerifyResult{}
	if err := s.invoke(ctx, MethodVerifyOTP, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *GRPCClient) Login(ctx context.Context, email, password string) (*models.LoginResult, error) {
	req := &loginRequest{Email: email, Password: password}
	resp := &models.LoginResult{}
	if err := s.invoke(ctx, MethodLogin, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *GRPCClient) CurrentUser(ctx context.Context) (*models.User, error) {
	resp := &userResponse{}
	if err := s.invoke(ctx, MethodCurrentUser, &empty{}, resp); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, remoteError(ErrNotFound, "user not found")
	}
	return resp.User, nil
}

func (s *GRPCClient) RequestPasswordReset(ctx context.Context, email string) error {
	return s.invoke(ctx, MethodRequestPasswordReset, &emailRequest{Email: email}, &empty{})
}

func (s *GRPCClient) ResetPassword(ctx context.Context, email, newPassword string) (*models.ResetResult, error) {
	req := &resetPasswordRequest{Email: email, NewPassword: newPassword}
	resp := &models.ResetResult{}
	if err := s.invoke(ctx, MethodResetPassword, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *GRPCClient) GetCart(ctx context.Context) ([]models.LineItem, error) {
	resp := &cartResponse{}
	if err := s.invoke(ctx, MethodGetCart, &empty{}, resp); err != nil {
		return nil, err
	}
	return normalizeItems(resp.Items), nil
}

func (s *GRPCClient) AddCartItem(ctx context.Context, productID string, quantity int) (models.LineItem, error) {
	return s.cartItemCall(ctx, MethodAddCartItem, productID, quantity)
}

func (s *GRPCClient) UpdateCartItem(ctx context.Context, productID string, quantity int) (models.LineItem, error) {
	return s.cartItemCall(ctx, MethodUpdateCartItem, productID, quantity)
}

func (s *GRPCClient) cartItemCall(ctx context.Context, method, productID string, quantity int) (models.LineItem, error) {
	req := &cartItemRequest{ProductID: productID, Quantity: quantity}
	resp := &cartItemResponse{}
	if err := s.invoke(ctx, method, req, resp); err != nil {
		return models.LineItem{}, err
	}
	return resp.Item.normalize(), nil
}

func (s *GRPCClient) RemoveCartItem(ctx context.Context, productID string) error {
	return s.invoke(ctx, MethodRemoveCartItem, &cartItemRequest{ProductID: productID}, &empty{})
}

func (s *GRPCClient) ClearCart(ctx context.Context) error {
	return s.invoke(ctx, MethodClearCart, &empty{}, &empty{})
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("rpc error: %w", err)
	}
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return remoteError(ErrUnauthorized, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return remoteError(ErrUnavailable, st.Message())
	case codes.AlreadyExists, codes.Aborted:
		return remoteError(ErrConflict, st.Message())
	case codes.NotFound:
		return remoteError(ErrNotFound, st.Message())
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange, codes.ResourceExhausted:
		return remoteError(ErrRejected, st.Message())
	case codes.Canceled:
		return context.Canceled
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
