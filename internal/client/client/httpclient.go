package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophshop/internal/client/models"
	"github.com/dmitrijs2005/gophshop/internal/common"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// REST paths, relative to the base URL.
const (
	PathSignup        = "/api/auth/signup"
	PathSendOTP       = "/api/auth/otp/send"
	PathVerifyOTP     = "/api/auth/otp/verify"
	PathLogin         = "/api/auth/login"
	PathMe            = "/api/auth/me"
	PathForgot        = "/api/auth/password/forgot"
	PathResetPassword = "/api/auth/password/reset"
	PathCart          = "/api/cart"
	PathCartItems     = "/api/cart/items"
	PathHealth        = "/healthz"
)

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 << 10

// HTTPClient talks to the REST flavour of the shop API.
type HTTPClient struct {
	baseURL *url.URL
	base    *http.Client
	opts    options

	mu          sync.RWMutex
	accessToken string
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a client rooted at baseURL. hc may be nil.
func NewHTTPClient(baseURL string, hc *http.Client, opts ...Option) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", baseURL)
	}
	if hc == nil {
		hc = &http.Client{}
	}
	c := &HTTPClient{baseURL: u, base: hc, opts: buildOptions(opts)}
	c.opts.log = c.opts.log.With("transport", "http")
	return c, nil
}

func (c *HTTPClient) SetToken(token string) {
	c.mu.Lock()
	c.accessToken = token
	c.mu.Unlock()
}

func (c *HTTPClient) ClearToken() {
	c.SetToken("")
}

// httpClient returns the client for one request: the bare base client
// without a token, or an oauth2 client adding the bearer header.
func (c *HTTPClient) httpClient(ctx context.Context) *http.Client {
	c.mu.RLock()
	tok := c.accessToken
	c.mu.RUnlock()

	if tok == "" {
		return c.base
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.base)
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: tok,
		TokenType:   strings.TrimSpace(common.BearerPrefix),
	}))
}

func (c *HTTPClient) Close() error {
	c.base.CloseIdleConnections()
	return nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	ctx, cancel := c.opts.withTimeout(ctx)
	defer cancel()

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return err
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(common.RequestIDHeaderName, requestID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient(ctx).Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(ctxErr, context.DeadlineExceeded) {
			return ctxErr
		}
		c.opts.log.Warn(ctx, "http request failed", "method", method, "path", path, "request_id", requestID, "err", err)
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	c.opts.log.Debug(ctx, "http request finished",
		"method", method,
		"path", path,
		"request_id", requestID,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	if resp.StatusCode >= http.StatusBadRequest {
		mapped := c.mapError(resp)
		c.opts.log.Warn(ctx, "http request rejected", "method", method, "path", path, "status", resp.StatusCode, "err", mapped)
		return mapped
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *HTTPClient) mapError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var er errorResponse
	msg := ""
	if json.Unmarshal(raw, &er) == nil {
		msg = firstNonEmpty(er.Message, er.Error)
	}
	if msg == "" {
		msg = strings.TrimSpace(string(raw))
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return remoteError(ErrUnauthorized, msg)
	case resp.StatusCode == http.StatusNotFound:
		return remoteError(ErrNotFound, msg)
	case resp.StatusCode == http.StatusConflict:
		return remoteError(ErrConflict, msg)
	case resp.StatusCode >= http.StatusInternalServerError:
		return remoteError(ErrUnavailable, msg)
	default:
		return remoteError(ErrRejected, msg)
	}
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, PathHealth, nil, nil)
}

func (c *HTTPClient) Signup(ctx context.Context, username, email, password string) (*models.SignupResult, error) {
	resp := &models.SignupResult{}
	req := &signupRequest{Username: username, Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, PathSignup, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *HTTPClient) SendOTP(ctx context.Context, email, otpContext string) (*models.OTPResult, error) {
	resp := &models.OTPResult{}
	req := &sendOTPRequest{Email: email, Context: otpContext}
	if err := c.do(ctx, http.MethodPost, PathSendOTP, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *HTTPClient) VerifyOTP(ctx context.Context, email, otp, otpContext string) (*models.VerifyResult, error) {
	resp := &models.VerifyResult{}
	req := &verifyOTPRequest{Email: email, OTP: otp, Context: otpContext}
	if err := c.do(ctx, http.MethodPost, PathVerifyOTP, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*models.LoginResult, error) {
	resp := &models.LoginResult{}
	req := &loginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, PathLogin, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *HTTPClient) CurrentUser(ctx context.Context) (*models.User, error) {
	resp := &userResponse{}
	if err := c.do(ctx, http.MethodGet, PathMe, nil, resp); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, remoteError(ErrNotFound, "user not found")
	}
	return resp.User, nil
}

func (c *HTTPClient) RequestPasswordReset(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, PathForgot, &emailRequest{Email: email}, nil)
}

func (c *HTTPClient) ResetPassword(ctx context.Context, email, newPassword string) (*models.ResetResult, error) {
	resp := &models.ResetResult{}
	req := &resetPasswordRequest{Email: email, NewPassword: newPassword}
	if err := c.do(ctx, http.MethodPost, PathResetPassword, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *HTTPClient) GetCart(ctx context.Context) ([]models.LineItem, error) {
	resp := &cartResponse{}
	if err := c.do(ctx, http.MethodGet, PathCart, nil, resp); err != nil {
		return nil, err
	}
	return normalizeItems(resp.Items), nil
}

func (c *HTTPClient) AddCartItem(ctx context.Context, productID string, quantity int) (models.LineItem, error) {
	resp := &cartItemResponse{}
	req := &cartItemRequest{ProductID: productID, Quantity: quantity}
	if err := c.do(ctx, http.MethodPost, PathCartItems, req, resp); err != nil {
		return models.LineItem{}, err
	}
	return resp.Item.normalize(), nil
}

func (c *HTTPClient) UpdateCartItem(ctx context.Context, productID string, quantity int) (models.LineItem, error) {
	resp := &cartItemResponse{}
	req := &cartItemRequest{Quantity: quantity}
	if err := c.do(ctx, http.MethodPut, itemPath(productID), req, resp); err != nil {
		return models.LineItem{}, err
	}
	return resp.Item.normalize(), nil
}

func (c *HTTPClient) RemoveCartItem(ctx context.Context, productID string) error {
	return c.do(ctx, http.MethodDelete, itemPath(productID), nil, nil)
}

func (c *HTTPClient) ClearCart(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, PathCart, nil, nil)
}

func itemPath(productID string) string {
	return PathCartItems + "/" + url.PathEscape(productID)
}
