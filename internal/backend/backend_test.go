package backend

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeStore struct {
	name  string
	calls int32
	delay time.Duration
	panic bool

	mu   sync.Mutex
	fail error
}

func (f *fakeStore) setFail(err error) {
	f.mu.Lock()
	f.fail = err
	f.mu.Unlock()
}

func (f *fakeStore) result(ctx context.Context) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.panic {
		panic("driver exploded")
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	f.mu.Lock()
	err := f.fail
	f.mu.Unlock()
	if err != nil {
		return "", err
	}
	return f.name, nil
}

func newTestRouter(t *testing.T) (*Router[*fakeStore], *fakeStore, *fakeStore, *int32) {
	t.Helper()
	var inits int32
	sel := NewSelector(Options{
		Timeout:         50 * time.Millisecond,
		FallbackEnabled: true,
		InitFallback: func(ctx context.Context) error {
			atomic.AddInt32(&inits, 1)
			return nil
		},
	})
	primary := &fakeStore{name: "primary"}
	fallback := &fakeStore{name: "fallback"}
	return NewRouter(sel, primary, fallback), primary, fallback, &inits
}

func get(ctx context.Context, r *Router[*fakeStore]) (string, error) {
	return Do(ctx, r, "get", func(ctx context.Context, s *fakeStore) (string, error) {
		return s.result(ctx)
	})
}

func TestDoUsesPrimaryWhileHealthy(t *testing.T) {
	r, primary, fallback, inits := newTestRouter(t)

	v, err := get(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, "primary", v)
	assert.Equal(t, int32(1), atomic.LoadInt32(&primary.calls))
	assert.Equal(t, int32(0), atomic.LoadInt32(&fallback.calls))
	assert.Equal(t, int32(0), atomic.LoadInt32(inits))
	assert.True(t, r.Selector.UsePrimary())
}

func TestFailoverLatchIsOneWay(t *testing.T) {
	r, primary, fallback, inits := newTestRouter(t)
	ctx := context.Background()

	primary.setFail(errors.New("connection refused"))
	v, err := get(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, "fallback", v)
	assert.False(t, r.Selector.UsePrimary())
	assert.Contains(t, r.Selector.Reason(), "connection refused")
	assert.Equal(t, int32(1), atomic.LoadInt32(inits))

	// primary recovers, but the latch holds
	primary.setFail(nil)
	for i := 0; i < 3; i++ {
		v, err = get(ctx, r)
		require.NoError(t, err)
		assert.Equal(t, "fallback", v)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&primary.calls))
	assert.Equal(t, int32(4), atomic.LoadInt32(&fallback.calls))
	assert.Equal(t, int32(1), atomic.LoadInt32(inits))
}

func TestOutcomeDoesNotTripLatch(t *testing.T) {
	r, primary, fallback, _ := newTestRouter(t)
	notFound := errors.New("document not found")

	_, err := Do(context.Background(), r, "get", func(ctx context.Context, s *fakeStore) (string, error) {
		return "", Outcome(notFound)
	})
	assert.ErrorIs(t, err, notFound)
	assert.True(t, r.Selector.UsePrimary())

	primary.setFail(gorm.ErrRecordNotFound)
	_, err = get(context.Background(), r)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.True(t, r.Selector.UsePrimary())
	assert.Equal(t, int32(0), atomic.LoadInt32(&fallback.calls))
}

func TestTimeoutTripsLatch(t *testing.T) {
	r, primary, _, _ := newTestRouter(t)
	primary.delay = time.Second

	v, err := get(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, "fallback", v)
	assert.False(t, r.Selector.UsePrimary())
	assert.Contains(t, r.Selector.Reason(), context.DeadlineExceeded.Error())
}

func TestPanicIsRecoveredAsBackendFailure(t *testing.T) {
	r, primary, _, _ := newTestRouter(t)
	primary.panic = true

	v, err := get(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, "fallback", v)
	assert.Contains(t, r.Selector.Reason(), "panic")
}

func TestCallerCancellationDoesNotTripLatch(t *testing.T) {
	r, primary, fallback, _ := newTestRouter(t)
	primary.delay = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()
	// selector timeout is 50ms; cancel arrives first
	_, err := get(ctx, r)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, r.Selector.UsePrimary())
	assert.Equal(t, int32(0), atomic.LoadInt32(&fallback.calls))
}

func TestBothBackendsFailed(t *testing.T) {
	r, primary, fallback, _ := newTestRouter(t)
	pErr := errors.New("primary down")
	fErr := errors.New("disk full")
	primary.setFail(pErr)
	fallback.setFail(fErr)

	_, err := get(context.Background(), r)
	var both *BothBackendsFailedError
	require.ErrorAs(t, err, &both)
	assert.Equal(t, "get", both.Op)
	assert.ErrorIs(t, err, pErr)
	assert.ErrorIs(t, err, fErr)
	assert.Contains(t, err.Error(), "disk full")
}

func TestBothBackendsFailedAfterLatch(t *testing.T) {
	r, _, fallback, _ := newTestRouter(t)
	r.Selector.MarkFailed("probe", errors.New("dns"))
	fallback.setFail(errors.New("locked"))

	_, err := get(context.Background(), r)
	var both *BothBackendsFailedError
	require.ErrorAs(t, err, &both)
	assert.ErrorIs(t, both.Primary, ErrPrimaryUnavailable)
}

func TestFallbackDisabled(t *testing.T) {
	sel := NewSelector(Options{Timeout: 50 * time.Millisecond})
	primary := &fakeStore{name: "primary"}
	primary.setFail(errors.New("down"))
	r := NewRouter(sel, primary, &fakeStore{name: "fallback"})

	_, err := get(context.Background(), r)
	assert.ErrorIs(t, err, ErrFallbackDisabled)
	assert.False(t, sel.UsePrimary())
}

func TestProbe(t *testing.T) {
	sel := NewSelector(Options{FallbackEnabled: true})
	assert.True(t, sel.Probe(context.Background(), func(ctx context.Context) error { return nil }))
	assert.True(t, sel.UsePrimary())

	var tripped []string
	sel.OnFailover(func(reason string) { tripped = append(tripped, reason) })
	assert.False(t, sel.Probe(context.Background(), func(ctx context.Context) error {
		return errors.New("no route to host")
	}))
	assert.False(t, sel.UsePrimary())
	assert.Equal(t, "startup_probe: no route to host", sel.Reason())
	assert.True(t, sel.FallbackReady())
	require.Len(t, tripped, 1)

	// second failure keeps the first reason
	assert.False(t, sel.MarkFailed("later", errors.New("other")))
	assert.Equal(t, "startup_probe: no route to host", sel.Reason())
	assert.Len(t, tripped, 1)

	st := sel.Status()
	assert.Equal(t, "down", st.Primary)
	assert.True(t, st.FallbackReady)
}

func TestEnsureFallbackRetriesAfterFailure(t *testing.T) {
	var calls int32
	sel := NewSelector(Options{
		FallbackEnabled: true,
		InitFallback: func(ctx context.Context) error {
			if atomic.AddInt32(&calls, 1) == 1 {
				return errors.New("readonly filesystem")
			}
			return nil
		},
	})
	ctx := context.Background()

	assert.Error(t, sel.EnsureFallback(ctx))
	assert.False(t, sel.FallbackReady())
	assert.NoError(t, sel.EnsureFallback(ctx))
	assert.NoError(t, sel.EnsureFallback(ctx))
	assert.True(t, sel.FallbackReady())
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestConcurrentFailuresTripOnce(t *testing.T) {
	r, primary, _, inits := newTestRouter(t)
	primary.setFail(errors.New("reset by peer"))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := get(context.Background(), r)
			assert.NoError(t, err)
			assert.Equal(t, "fallback", v)
		}()
	}
	wg.Wait()
	assert.False(t, r.Selector.UsePrimary())
	assert.Equal(t, int32(1), atomic.LoadInt32(inits))
}
