package cli

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophshop/internal/client/client"
	"github.com/dmitrijs2005/gophshop/internal/client/config"
	"github.com/dmitrijs2005/gophshop/internal/client/models"
	"github.com/dmitrijs2005/gophshop/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophshop/internal/client/securestore"
)

const testCode = "123456"

// fakeRemote is an in-process stand-in for the shop API.
type fakeRemote struct {
	mu sync.Mutex

	token    string
	pingErr  error
	loginErr error
	meErr    error
	addErr   error
	// unverified makes Login answer without a token.
	unverified bool
	user       *models.User

	items  []models.LineItem
	nextID int
	calls  []string
}

var _ client.Client = (*fakeRemote)(nil)

func newFakeRemote() *fakeRemote {
	return &fakeRemote{user: &models.User{ID: "u1", Username: "alice", Email: "alice@example.com", Verified: true}}
}

func (f *fakeRemote) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeRemote) called(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeRemote) SetToken(token string) { f.mu.Lock(); f.token = token; f.mu.Unlock() }
func (f *fakeRemote) ClearToken()           { f.SetToken("") }
func (f *fakeRemote) Close() error          { return nil }

func (f *fakeRemote) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pingErr
}

func (f *fakeRemote) Signup(_ context.Context, username, email, _ string) (*models.SignupResult, error) {
	f.record("signup")
	return &models.SignupResult{
		User:      &models.User{ID: "u1", Username: username, Email: email},
		ExpiresAt: time.Now().Add(10 * time.Minute),
	}, nil
}

func (f *fakeRemote) SendOTP(_ context.Context, _, otpContext string) (*models.OTPResult, error) {
	f.record("send:" + otpContext)
	return &models.OTPResult{ExpiresAt: time.Now().Add(10 * time.Minute)}, nil
}

func (f *fakeRemote) VerifyOTP(_ context.Context, _, otp, otpContext string) (*models.VerifyResult, error) {
	f.record("verify:" + otpContext)
	if otp != testCode {
		return nil, &client.RemoteError{Kind: client.ErrRejected, Message: "invalid code"}
	}
	if otpContext == client.OTPContextSignup {
		return &models.VerifyResult{User: f.user.Clone(), Token: "tok"}, nil
	}
	return &models.VerifyResult{}, nil
}

func (f *fakeRemote) Login(context.Context, string, string) (*models.LoginResult, error) {
	f.record("login")
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	if f.unverified {
		u := f.user.Clone()
		u.Verified = false
		return &models.LoginResult{User: u}, nil
	}
	return &models.LoginResult{Token: "tok", User: f.user.Clone()}, nil
}

func (f *fakeRemote) CurrentUser(context.Context) (*models.User, error) {
	f.record("me")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.meErr != nil {
		return nil, f.meErr
	}
	if f.token == "" {
		return nil, client.ErrUnauthorized
	}
	return f.user.Clone(), nil
}

func (f *fakeRemote) RequestPasswordReset(context.Context, string) error {
	f.record("forgot")
	return nil
}

func (f *fakeRemote) ResetPassword(context.Context, string, string) (*models.ResetResult, error) {
	f.record("reset")
	return &models.ResetResult{Success: true}, nil
}

func (f *fakeRemote) GetCart(context.Context) ([]models.LineItem, error) {
	f.record("cart")
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.LineItem(nil), f.items...), nil
}

func (f *fakeRemote) AddCartItem(_ context.Context, productID string, quantity int) (models.LineItem, error) {
	f.record("add")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return models.LineItem{}, f.addErr
	}
	for i := range f.items {
		if f.items[i].ProductID == productID {
			f.items[i].Quantity += quantity
			return f.items[i], nil
		}
	}
	f.nextID++
	it := models.LineItem{ID: fmt.Sprintf("li%d", f.nextID), ProductID: productID, Name: strings.ToUpper(productID), Price: 250, Quantity: quantity}
	f.items = append(f.items, it)
	return it, nil
}

func (f *fakeRemote) UpdateCartItem(_ context.Context, productID string, quantity int) (models.LineItem, error) {
	f.record("update")
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ProductID == productID {
			f.items[i].Quantity = quantity
			return f.items[i], nil
		}
	}
	return models.LineItem{}, client.ErrNotFound
}

func (f *fakeRemote) RemoveCartItem(_ context.Context, productID string) error {
	f.record("remove")
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ProductID == productID {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return client.ErrNotFound
}

func (f *fakeRemote) ClearCart(context.Context) error {
	f.record("clear")
	f.mu.Lock()
	f.items = nil
	f.mu.Unlock()
	return nil
}

// newTestApp builds an App over f and an in-memory store. input feeds the
// prompts.
func newTestApp(t *testing.T, f *fakeRemote, input string) (*App, *securestore.Store) {
	t.Helper()
	store := securestore.NewPlain(metadata.NewMemoryRepository())
	return newTestAppWithStore(t, f, store, input), store
}

func newTestAppWithStore(t *testing.T, f *fakeRemote, store *securestore.Store, input string) *App {
	t.Helper()

	var cfg config.Config
	cfg.LoadDefaults()
	cfg.StorageDriver = metadata.DriverMemory

	a := newApp(&cfg, f, store, nil, strings.NewReader(input), &bytes.Buffer{})
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func output(a *App) string {
	sw := a.out.(*syncWriter)
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.w.(*bytes.Buffer).String()
}

// stubPasswords makes getPassword return the given values in order.
func stubPasswords(t *testing.T, pws ...string) {
	t.Helper()
	orig := getPassword
	i := 0
	getPassword = func(_ *bufio.Reader, _ string, _ io.Writer) ([]byte, error) {
		if i >= len(pws) {
			return nil, io.EOF
		}
		pw := []byte(pws[i])
		i++
		return pw, nil
	}
	t.Cleanup(func() { getPassword = orig })
}
