package rafflelock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/questx-lab/raffle/pkg/testutil"
	"github.com/stretchr/testify/require"
)

func Test_memoryLocker_TryLock(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLocker()

	unlock, err := l.TryLock(ctx, "r1")
	require.NoError(t, err)

	_, err = l.TryLock(ctx, "r1")
	require.True(t, errors.Is(err, ErrLocked))

	unlock2, err := l.TryLock(ctx, "r2")
	require.NoError(t, err)
	unlock2()

	unlock()
	unlock, err = l.TryLock(ctx, "r1")
	require.NoError(t, err)
	unlock()
}

func Test_memoryLocker_Concurrent(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLocker()

	var (
		wg       sync.WaitGroup
		acquired atomic.Int32
		start    = make(chan struct{})
		hold     = make(chan struct{})
	)

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			unlock, err := l.TryLock(ctx, "r1")
			if err != nil {
				return
			}

			acquired.Add(1)
			<-hold
			unlock()
		}()
	}

	close(start)
	time.Sleep(20 * time.Millisecond)
	close(hold)
	wg.Wait()
	require.Equal(t, int32(1), acquired.Load())
}

func Test_redisLocker_TryLock(t *testing.T) {
	ctx := context.Background()
	store := map[string]string{}
	var mu sync.Mutex

	client := &testutil.MockRedisClient{
		SetNXFunc: func(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
			mu.Lock()
			defer mu.Unlock()
			require.Equal(t, time.Minute, ttl)
			if _, ok := store[key]; ok {
				return false, nil
			}
			store[key] = value
			return true, nil
		},
		CompareAndDelFunc: func(_ context.Context, key, value string) (bool, error) {
			mu.Lock()
			defer mu.Unlock()
			if store[key] != value {
				return false, nil
			}
			delete(store, key)
			return true, nil
		},
	}

	l := NewRedisLocker(client, time.Minute)
	unlock, err := l.TryLock(ctx, "r1")
	require.NoError(t, err)
	require.Contains(t, store, "raffle:lock:r1")

	_, err = l.TryLock(ctx, "r1")
	require.True(t, errors.Is(err, ErrLocked))

	unlock()
	require.NotContains(t, store, "raffle:lock:r1")

	client.SetNXFunc = func(context.Context, string, string, time.Duration) (bool, error) {
		return false, errors.New("connection refused")
	}
	_, err = l.TryLock(ctx, "r1")
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrLocked))
}
