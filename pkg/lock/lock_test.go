package lock

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseMutualExclusion(t *testing.T, l Locker) {
	t.Helper()
	ctx := context.Background()

	var inside int32
	var maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(ctx, "u1:42", time.Second)
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&inside, -1)
			assert.NoError(t, release(ctx))
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInside)
}

func TestLocalLockerMutualExclusion(t *testing.T) {
	l := NewLocalLocker()
	exerciseMutualExclusion(t, l)
	assert.Equal(t, 0, l.size())
}

func TestLocalLockerIndependentKeys(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	r1, err := l.Acquire(ctx, "a", 0)
	require.NoError(t, err)
	r2, err := l.Acquire(ctx, "b", 0)
	require.NoError(t, err)

	require.NoError(t, r1(ctx))
	require.NoError(t, r2(ctx))
}

func TestLocalLockerContextCancel(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	release, err := l.Acquire(ctx, "k", 0)
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(waitCtx, "k", 0)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, release(ctx))
	// double release is a no-op
	require.NoError(t, release(ctx))
	assert.Equal(t, 0, l.size())
}

func TestRedisLocker(t *testing.T) {
	addr := os.Getenv("STUDYHELPER_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("STUDYHELPER_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	require.NoError(t, client.Ping(context.Background()).Err())

	exerciseMutualExclusion(t, NewRedisLocker(client, "studyhelper:test:lock:"))
}

func TestRedisLockerReleaseAfterExpiry(t *testing.T) {
	addr := os.Getenv("STUDYHELPER_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("STUDYHELPER_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	l := NewRedisLocker(client, "studyhelper:test:lock:")
	ctx := context.Background()
	release, err := l.Acquire(ctx, "expiring", 50*time.Millisecond)
	require.NoError(t, err)

	time.Sleep(120 * time.Millisecond)
	assert.ErrorIs(t, release(ctx), ErrNotHeld)
}
