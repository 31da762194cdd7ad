package countdown

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophshop/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophshop/internal/client/securestore"
	"github.com/dmitrijs2005/gophshop/internal/timex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	email  = "bob@x.com"
	signup = "signup"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.UnixMilli(1_700_000_000_000)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newStore() *securestore.Store {
	return securestore.NewPlain(metadata.NewMemoryRepository())
}

// newIdleTimer uses an hour-long tick so tests drive step() by hand.
func newIdleTimer(store securestore.CredentialStore, clock *fakeClock, opts ...Option) *Timer {
	opts = append([]Option{WithClock(clock.Now), WithTickInterval(time.Hour)}, opts...)
	return New(store, email, signup, opts...)
}

// current returns the stop handle of the running loop.
func current(timer *Timer) <-chan struct{} {
	timer.mu.Lock()
	defer timer.mu.Unlock()
	return timer.stop
}

func stored(t *testing.T, store securestore.CredentialStore, key string) (string, bool) {
	t.Helper()
	v, ok, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	return v, ok
}

func TestStart_PersistsSecondsAndTimestamp(t *testing.T) {
	ctx := context.Background()
	store, clock := newStore(), newFakeClock()
	timer := newIdleTimer(store, clock)
	t.Cleanup(timer.Stop)

	require.NoError(t, timer.Start(ctx, 60))

	assert.Equal(t, 60, timer.Remaining())
	assert.True(t, timer.Active())

	v, ok := stored(t, store, CountdownKey(email, signup))
	require.True(t, ok)
	assert.Equal(t, "60", v)

	ts, ok := stored(t, store, TimestampKey(email, signup))
	require.True(t, ok)
	assert.Equal(t, timex.UnixMilli(clock.Now()), ts)
}

func TestStep_PersistsOnlyOnMultiplesOfTen(t *testing.T) {
	ctx := context.Background()
	store, clock := newStore(), newFakeClock()
	timer := newIdleTimer(store, clock)
	t.Cleanup(timer.Stop)

	require.NoError(t, timer.Start(ctx, 12))

	clock.Advance(time.Second)
	require.True(t, timer.step(ctx, current(timer)))
	v, _ := stored(t, store, CountdownKey(email, signup))
	assert.Equal(t, "12", v, "11 is not a multiple of 10, nothing re-saved")

	clock.Advance(time.Second)
	require.True(t, timer.step(ctx, current(timer)))
	v, _ = stored(t, store, CountdownKey(email, signup))
	assert.Equal(t, "10", v)
	ts, _ := stored(t, store, TimestampKey(email, signup))
	assert.Equal(t, timex.UnixMilli(clock.Now()), ts)
}

func TestStep_ReachingZeroDeletesRecord(t *testing.T) {
	ctx := context.Background()
	store, clock := newStore(), newFakeClock()

	var ticks []int
	timer := newIdleTimer(store, clock, WithOnTick(func(r int) { ticks = append(ticks, r) }))
	t.Cleanup(timer.Stop)

	require.NoError(t, timer.Start(ctx, 2))
	require.True(t, timer.step(ctx, current(timer)))
	require.False(t, timer.step(ctx, current(timer)))
	require.False(t, timer.step(ctx, current(timer)), "finished countdown stays finished")

	assert.Equal(t, []int{1, 0}, ticks)
	assert.False(t, timer.Active())
	_, ok := stored(t, store, CountdownKey(email, signup))
	assert.False(t, ok)
	_, ok = stored(t, store, TimestampKey(email, signup))
	assert.False(t, ok)
}

func TestLoadAndResume_NoRecordIsInactive(t *testing.T) {
	timer := newIdleTimer(newStore(), newFakeClock())

	r, err := timer.LoadAndResume(context.Background())
	require.NoError(t, err)
	assert.Zero(t, r)
	assert.False(t, timer.Active())
}

func TestLoadAndResume_AfterRestart(t *testing.T) {
	tests := []struct {
		name    string
		n       int
		k       time.Duration
		want    int
		deleted bool
	}{
		{name: "mid countdown", n: 60, k: 15 * time.Second, want: 45},
		{name: "sub-second elapsed rounds down", n: 60, k: 15*time.Second + 700*time.Millisecond, want: 45},
		{name: "exactly expired", n: 60, k: 60 * time.Second, want: 0, deleted: true},
		{name: "long expired", n: 60, k: time.Hour, want: 0, deleted: true},
		{name: "clock went backwards", n: 30, k: -10 * time.Second, want: 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store, clock := newStore(), newFakeClock()

			first := newIdleTimer(store, clock)
			require.NoError(t, first.Start(ctx, tt.n))
			first.Stop() // process killed

			clock.Advance(tt.k)

			second := newIdleTimer(store, clock)
			t.Cleanup(second.Stop)

			r, err := second.LoadAndResume(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, r)
			assert.Equal(t, tt.want, second.Remaining())

			_, ok := stored(t, store, CountdownKey(email, signup))
			assert.Equal(t, !tt.deleted, ok)
		})
	}
}

func TestLoadAndResume_AfterAmortizedSaves(t *testing.T) {
	ctx := context.Background()
	store, clock := newStore(), newFakeClock()

	first := newIdleTimer(store, clock)
	require.NoError(t, first.Start(ctx, 60))
	for i := 0; i < 13; i++ {
		clock.Advance(time.Second)
		require.True(t, first.step(ctx, current(first)))
	}
	first.Stop()

	clock.Advance(5 * time.Second)

	second := newIdleTimer(store, clock)
	t.Cleanup(second.Stop)
	r, err := second.LoadAndResume(ctx)
	require.NoError(t, err)

	// 60 - 13 ticks - 5s away = 42, within the one second tolerance
	assert.InDelta(t, 42, r, 1)
}

func TestLoadAndResume_MalformedRecordIsDiscarded(t *testing.T) {
	ctx := context.Background()
	store, clock := newStore(), newFakeClock()
	require.NoError(t, store.Save(ctx, CountdownKey(email, signup), "sixty"))
	require.NoError(t, store.Save(ctx, TimestampKey(email, signup), timex.UnixMilli(clock.Now())))

	timer := newIdleTimer(store, clock)
	r, err := timer.LoadAndResume(ctx)
	require.NoError(t, err)
	assert.Zero(t, r)

	_, ok := stored(t, store, CountdownKey(email, signup))
	assert.False(t, ok)
}

func TestStart_ReplacesRunningCountdown(t *testing.T) {
	ctx := context.Background()
	store := newStore()

	var mu sync.Mutex
	var seen []int
	timer := New(store, email, signup,
		WithTickInterval(2*time.Millisecond),
		WithOnTick(func(r int) {
			mu.Lock()
			seen = append(seen, r)
			mu.Unlock()
		}))
	t.Cleanup(timer.Stop)

	require.NoError(t, timer.Start(ctx, 1000))
	require.NoError(t, timer.Start(ctx, 3))

	require.Eventually(t, func() bool { return !timer.Active() }, time.Second, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, seen)
	assert.Equal(t, 0, seen[len(seen)-1])
	for i := 1; i < len(seen); i++ {
		if seen[i-1] < 100 {
			assert.Equal(t, seen[i-1]-1, seen[i], "only one decrementer may run: %v", seen)
		}
	}
}

func TestStart_ConcurrentCallsLeaveOneLoop(t *testing.T) {
	ctx := context.Background()

	var mu sync.Mutex
	ticks := 0
	timer := New(newStore(), email, signup,
		WithTickInterval(time.Millisecond),
		WithOnTick(func(int) {
			mu.Lock()
			ticks++
			mu.Unlock()
		}))

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, timer.Start(ctx, 1000))
		}()
	}
	wg.Wait()
	timer.Stop()

	mu.Lock()
	before := ticks
	mu.Unlock()
	remaining := timer.Remaining()

	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, before, ticks, "no tick loop may survive Stop")
	assert.Equal(t, remaining, timer.Remaining())
}

func TestStep_ReplacedLoopDoesNotDecrement(t *testing.T) {
	ctx := context.Background()
	timer := newIdleTimer(newStore(), newFakeClock())
	t.Cleanup(timer.Stop)

	require.NoError(t, timer.Start(ctx, 30))
	old := current(timer)
	require.NoError(t, timer.Start(ctx, 20))

	assert.False(t, timer.step(ctx, old))
	assert.Equal(t, 20, timer.Remaining())
}

func TestStart_NonPositiveClears(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	timer := newIdleTimer(store, newFakeClock())

	require.NoError(t, timer.Start(ctx, 30))
	require.NoError(t, timer.Start(ctx, 0))

	assert.False(t, timer.Active())
	_, ok := stored(t, store, CountdownKey(email, signup))
	assert.False(t, ok)
}

func TestStop_KeepsRecord(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	timer := newIdleTimer(store, newFakeClock())

	require.NoError(t, timer.Start(ctx, 30))
	timer.Stop()
	timer.Stop()

	v, ok := stored(t, store, CountdownKey(email, signup))
	require.True(t, ok)
	assert.Equal(t, strconv.Itoa(30), v)
}

func TestClear_DeletesRecord(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	timer := newIdleTimer(store, newFakeClock())

	require.NoError(t, timer.Start(ctx, 30))
	require.NoError(t, timer.Clear(ctx))

	assert.Zero(t, timer.Remaining())
	_, ok := stored(t, store, TimestampKey(email, signup))
	assert.False(t, ok)
}

func TestKeys_AreScopedByEmailAndContext(t *testing.T) {
	assert.NotEqual(t, CountdownKey(email, "signup"), CountdownKey(email, "password-reset"))
	assert.NotEqual(t, CountdownKey("a@x.com", signup), CountdownKey("b@x.com", signup))
	assert.Contains(t, CountdownKey(email, signup), KeyPrefix)
	assert.Contains(t, TimestampKey(email, signup), KeyPrefix)
}
