package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophshop/internal/client/cart"
	"github.com/dmitrijs2005/gophshop/internal/client/client"
	"github.com/dmitrijs2005/gophshop/internal/client/config"
	"github.com/dmitrijs2005/gophshop/internal/client/countdown"
	"github.com/dmitrijs2005/gophshop/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophshop/internal/client/securestore"
	"github.com/dmitrijs2005/gophshop/internal/client/session"
	"github.com/dmitrijs2005/gophshop/internal/filex"
	"github.com/dmitrijs2005/gophshop/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// App ties the session and cart engines to a terminal.
type App struct {
	config  *config.Config
	log     logging.Logger
	api     client.Client
	store   *securestore.Store
	session *session.Service
	cart    *cart.Service
	reader  *bufio.Reader
	out     io.Writer
	closers []func() error

	mu   sync.Mutex
	mode Mode

	// the verification currently shown to the user
	otpEmail   string
	otpContext session.OTPContext
	timer      *countdown.Timer
}

// NewApp opens local storage, dials the configured transport and builds the
// engines on top.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logging.New(c.LogFormat, c.LogLevel, os.Stderr)
	if err != nil {
		return nil, err
	}

	path := c.StoragePath
	if c.StorageDriver != metadata.DriverMemory {
		if path, err = filex.EnsureParentDir(path); err != nil {
			return nil, err
		}
	}

	repo, err := metadata.Open(ctx, c.StorageDriver, path)
	if err != nil {
		log.Error(ctx, "error opening local storage", "driver", c.StorageDriver, "error", err)
		return nil, err
	}

	store, err := securestore.New(ctx, repo, []byte(c.StorageSecret), log)
	if err != nil {
		_ = repo.Close()
		return nil, err
	}

	api, err := newRemote(c, log)
	if err != nil {
		_ = repo.Close()
		return nil, err
	}

	a := newApp(c, api, store, log, os.Stdin, os.Stdout)
	a.closers = append(a.closers, api.Close, repo.Close)
	return a, nil
}

func newRemote(c *config.Config, log logging.Logger) (client.Client, error) {
	opts := []client.Option{client.WithTimeout(c.RequestTimeout), client.WithLogger(log)}

	if c.Transport == config.TransportHTTP {
		return client.NewHTTPClient(c.ServerBaseURL, nil, opts...)
	}
	return client.NewGRPCClient(c.ServerEndpointAddr, opts...)
}

func newApp(c *config.Config, api client.Client, store *securestore.Store, log logging.Logger, in io.Reader, out io.Writer) *App {
	log = logging.OrNop(log)
	return &App{
		config:  c,
		log:     log,
		api:     api,
		store:   store,
		session: session.NewService(api, store, session.WithLogger(log)),
		cart:    cart.NewService(api, cart.WithLogger(log)),
		reader:  bufio.NewReader(in),
		out:     &syncWriter{w: out},
		mode:    ModeOffline,
	}
}

// Run restores the previous session, starts the connectivity watcher and
// blocks in the REPL until the user leaves.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	printBanner(a.out)
	if !a.store.Sealed() {
		a.println("Warning: credentials are stored unencrypted, set " + config.EnvStorageSecret + " to seal them.")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.restore(ctx)

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader))
}

// Close stops the countdown and releases the transport and storage.
func (a *App) Close() error {
	a.mu.Lock()
	t := a.timer
	a.mu.Unlock()
	if t != nil {
		t.Stop()
	}

	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// restore loads the persisted session and whatever depends on it.
func (a *App) restore(ctx context.Context) {
	err := a.session.LoadFromStorage(ctx)
	if errors.Is(err, session.ErrSessionExpired) {
		a.println(err.Error())
	} else if err != nil {
		a.log.Warn(ctx, "session restore failed", "error", err)
	}

	st := a.session.State()
	switch {
	case st.Authenticated() && !st.AwaitingOTP():
		a.println(fmt.Sprintf("Welcome back, %s", displayName(st)))
		if err := a.cart.Fetch(ctx); err != nil {
			a.log.Warn(ctx, "cart fetch failed", "error", err)
		}
	case st.AwaitingOTP():
		a.println(fmt.Sprintf("Verification pending for %s, type 'verify' to enter the code", st.PendingEmail))
		a.resumeCountdown(ctx, st.PendingEmail, session.Signup{})
	}
}

func (a *App) isLoggedIn() bool {
	return a.session.State().Authenticated()
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		a.log.Info(context.Background(), "connectivity changed", "mode", mode)
	}
}

func (a *App) currentMode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

// StartOnlineStatusWatcher pings the server every interval and flips the
// mode shown in the prompt. It returns when ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	a.checkOnline(ctx)

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := a.api.Ping(ctx); err != nil {
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)
}

func (a *App) getStatus() string {
	s := ""
	st := a.session.State()
	if st.Authenticated() {
		s = displayName(st) + " "
	}
	s += string(a.currentMode())
	if n := a.cooldown(); n > 0 {
		s += fmt.Sprintf(" resend in %ds", n)
	}
	return fmt.Sprintf("(%s)", s)
}

func displayName(st session.State) string {
	if st.User == nil {
		return "?"
	}
	if st.User.Username != "" {
		return st.User.Username
	}
	return st.User.Email
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

// syncWriter serializes output; the countdown prints from its own goroutine.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
