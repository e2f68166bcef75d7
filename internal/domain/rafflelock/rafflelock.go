// Package rafflelock guards a raffle against concurrent or reentrant
// operations. A busy raffle is rejected, never waited for.
package rafflelock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync"
	"github.com/questx-lab/raffle/pkg/xcontext"
	"github.com/questx-lab/raffle/pkg/xredis"
)

var ErrLocked = errors.New("raffle is locked by another operation")

type Locker interface {
	// TryLock returns ErrLocked if the raffle is already held. The returned
	// function releases the lock.
	TryLock(ctx context.Context, raffleID string) (func(), error)
}

type memoryLocker struct {
	held *xsync.MapOf[string, struct{}]
}

func NewMemoryLocker() *memoryLocker {
	return &memoryLocker{held: xsync.NewMapOf[struct{}]()}
}

func (l *memoryLocker) TryLock(_ context.Context, raffleID string) (func(), error) {
	if _, loaded := l.held.LoadOrStore(raffleID, struct{}{}); loaded {
		return nil, ErrLocked
	}

	return func() { l.held.Delete(raffleID) }, nil
}

// redisLocker shares the guard between processes. The key expires after ttl
// so a crashed holder cannot block the raffle forever.
type redisLocker struct {
	client xredis.Client
	ttl    time.Duration
}

func NewRedisLocker(client xredis.Client, ttl time.Duration) *redisLocker {
	return &redisLocker{client: client, ttl: ttl}
}

func (l *redisLocker) TryLock(ctx context.Context, raffleID string) (func(), error) {
	key := lockKey(raffleID)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, ErrLocked
	}

	return func() {
		// The caller context may already be cancelled here.
		releaseCtx := context.WithoutCancel(ctx)
		if _, err := l.client.CompareAndDel(releaseCtx, key, token); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot release raffle lock %s: %v", raffleID, err)
		}
	}, nil
}

func lockKey(raffleID string) string {
	return fmt.Sprintf("raffle:lock:%s", raffleID)
}
