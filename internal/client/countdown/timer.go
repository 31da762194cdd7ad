// Package countdown implements the resend cooldown shown next to an OTP
// input. The remaining seconds are persisted in the credential store so a
// countdown survives the screen going away and the process being restarted.
package countdown

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophshop/internal/client/securestore"
	"github.com/dmitrijs2005/gophshop/internal/logging"
	"github.com/dmitrijs2005/gophshop/internal/timex"
)

// KeyPrefix namespaces every countdown record in the credential store.
const KeyPrefix = "otp."

const (
	defaultTick      = time.Second
	defaultSaveEvery = 10
)

// CountdownKey is where the remaining seconds for (email, otpContext) live.
func CountdownKey(email, otpContext string) string {
	return KeyPrefix + "countdown:" + email + ":" + otpContext
}

// TimestampKey is where the epoch millis of the last save live.
func TimestampKey(email, otpContext string) string {
	return KeyPrefix + "countdown_ts:" + email + ":" + otpContext
}

// Option configures a Timer.
type Option func(*Timer)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Timer) { t.now = now }
}

// WithTickInterval changes how long one "second" of the countdown lasts.
func WithTickInterval(d time.Duration) Option {
	return func(t *Timer) { t.tick = d }
}

// WithLogger attaches a logger.
func WithLogger(l logging.Logger) Option {
	return func(t *Timer) { t.log = logging.OrNop(l) }
}

// WithOnTick registers a callback invoked after every decrement with the new
// remaining value. It runs on the timer goroutine and must not call Start,
// Stop or Clear on the same timer.
func WithOnTick(fn func(remaining int)) Option {
	return func(t *Timer) { t.onTick = fn }
}

// Timer is the countdown for one (email, context) pair. At most one tick
// loop runs at a time; Start cancels the previous loop before launching a
// new one.
type Timer struct {
	store      securestore.CredentialStore
	email      string
	otpContext string

	now       func() time.Time
	tick      time.Duration
	saveEvery int
	log       logging.Logger
	onTick    func(int)

	mu        sync.Mutex
	remaining int
	stop      chan struct{}
	done      chan struct{}
}

// New creates an idle timer.
func New(store securestore.CredentialStore, email, otpContext string, opts ...Option) *Timer {
	t := &Timer{
		store:      store,
		email:      email,
		otpContext: otpContext,
		now:        time.Now,
		tick:       defaultTick,
		saveEvery:  defaultSaveEvery,
		log:        logging.NewNop(),
	}
	for _, o := range opts {
		o(t)
	}
	t.log = t.log.With("module", "countdown", "email", email, "otp_context", otpContext)
	return t
}

// Remaining returns the seconds left before a resend is allowed.
func (t *Timer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// Active reports whether resend is currently blocked.
func (t *Timer) Active() bool {
	return t.Remaining() > 0
}

// Start begins a countdown of seconds, replacing any running one, and
// persists it together with the current timestamp. A non-positive value
// clears the countdown. The tick loop keeps running when the initial save
// fails; the error is returned so the caller can report it.
func (t *Timer) Start(ctx context.Context, seconds int) error {
	if seconds <= 0 {
		return t.Clear(ctx)
	}

	stop := make(chan struct{})
	done := make(chan struct{})

	t.mu.Lock()
	oldStop, oldDone := t.stop, t.done
	t.stop, t.done = stop, done
	t.remaining = seconds
	t.mu.Unlock()

	halt(oldStop, oldDone)

	err := t.persist(ctx, seconds)

	go t.loop(context.WithoutCancel(ctx), stop, done)
	return err
}

// LoadAndResume restores a persisted countdown. The remaining time is the
// saved value minus the seconds elapsed since it was saved; if that is still
// positive the countdown resumes, otherwise the stale record is deleted and
// zero is returned. Without a record the countdown is inactive.
func (t *Timer) LoadAndResume(ctx context.Context) (int, error) {
	savedStr, ok, err := t.store.Get(ctx, CountdownKey(t.email, t.otpContext))
	if err != nil {
		return 0, err
	}
	tsStr, tsOK, err := t.store.Get(ctx, TimestampKey(t.email, t.otpContext))
	if err != nil {
		return 0, err
	}
	if !ok || !tsOK {
		t.Stop()
		t.setRemaining(0)
		return 0, nil
	}

	saved, err := strconv.Atoi(savedStr)
	if err != nil {
		t.log.Warn(ctx, "discarding malformed countdown", "value", savedStr)
		return 0, t.Clear(ctx)
	}
	savedAt, err := timex.ParseUnixMilli(tsStr)
	if err != nil {
		t.log.Warn(ctx, "discarding malformed countdown timestamp", "value", tsStr)
		return 0, t.Clear(ctx)
	}

	elapsed := int(t.now().Sub(savedAt) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}

	remaining := saved - elapsed
	if remaining <= 0 {
		t.log.Debug(ctx, "persisted countdown already expired", "saved", saved, "elapsed", elapsed)
		return 0, t.Clear(ctx)
	}

	t.log.Debug(ctx, "resuming countdown", "remaining", remaining)
	return remaining, t.Start(ctx, remaining)
}

// Stop halts the tick loop without touching the persisted record, which is
// what a screen going away should do. It waits for the loop to exit.
func (t *Timer) Stop() {
	t.mu.Lock()
	stop, done := t.stop, t.done
	t.stop, t.done = nil, nil
	t.mu.Unlock()

	halt(stop, done)
}

func halt(stop, done chan struct{}) {
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// Clear stops the countdown and deletes its persisted record.
func (t *Timer) Clear(ctx context.Context) error {
	t.Stop()
	t.setRemaining(0)
	return t.deleteRecord(ctx)
}

func (t *Timer) loop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(t.tick)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !t.step(ctx, stop) {
				return
			}
		}
	}
}

// step performs one decrement and its persistence side effects for the loop
// owning stop. It returns false once the countdown has finished or the loop
// has been replaced.
func (t *Timer) step(ctx context.Context, stop <-chan struct{}) bool {
	t.mu.Lock()
	if t.stop != stop || t.remaining <= 0 {
		t.mu.Unlock()
		return false
	}
	t.remaining--
	r := t.remaining
	t.mu.Unlock()

	if t.onTick != nil {
		t.onTick(r)
	}

	if r == 0 {
		if err := t.deleteRecord(ctx); err != nil {
			t.log.Error(ctx, "failed to delete finished countdown", "err", err)
		}
		return false
	}

	if r%t.saveEvery == 0 {
		if err := t.persist(ctx, r); err != nil {
			t.log.Error(ctx, "failed to persist countdown", "err", err)
		}
	}
	return true
}

func (t *Timer) persist(ctx context.Context, seconds int) error {
	if err := t.store.Save(ctx, CountdownKey(t.email, t.otpContext), strconv.Itoa(seconds)); err != nil {
		return err
	}
	return t.store.Save(ctx, TimestampKey(t.email, t.otpContext), timex.UnixMilli(t.now()))
}

func (t *Timer) deleteRecord(ctx context.Context) error {
	if err := t.store.Delete(ctx, CountdownKey(t.email, t.otpContext)); err != nil {
		return err
	}
	return t.store.Delete(ctx, TimestampKey(t.email, t.otpContext))
}

func (t *Timer) setRemaining(v int) {
	t.mu.Lock()
	t.remaining = v
	t.mu.Unlock()
}
