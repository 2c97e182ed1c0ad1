package lock

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/media-storefront/internal/errs"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func setupLocker(t *testing.T) *Locker {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return New(client, newNoopLogger(), "test", 5*time.Second)
}

func TestLockUnlock(t *testing.T) {
	l := setupLocker(t)
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "user-1")
	require.NoError(t, err)
	unlock()

	unlock, err = l.Lock(ctx, "user-1")
	require.NoError(t, err)
	unlock()
}

func TestLockBusy(t *testing.T) {
	l := setupLocker(t)
	l.tries = 2
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "user-1")
	require.NoError(t, err)
	defer unlock()

	_, err = l.Lock(ctx, "user-1")
	assert.ErrorIs(t, err, errs.ErrConflict)

	other, err := l.Lock(ctx, "user-2")
	require.NoError(t, err)
	other()
}

func TestLockSerializesHolders(t *testing.T) {
	l := setupLocker(t)
	ctx := context.Background()

	var (
		inside  atomic.Int32
		maxSeen atomic.Int32
		wg      sync.WaitGroup
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(ctx, "shared")
			if !assert.NoError(t, err) {
				return
			}
			n := inside.Add(1)
			if n > maxSeen.Load() {
				maxSeen.Store(n)
			}
			time.Sleep(10 * time.Millisecond)
			inside.Add(-1)
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxSeen.Load())
}

func TestNop(t *testing.T) {
	unlock, err := Nop{}.Lock(context.Background(), "any")
	require.NoError(t, err)
	unlock()
}
