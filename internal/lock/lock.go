// Package lock даёт распределённую блокировку на пользователя поверх redsync,
// чтобы жизненный цикл подписки не обрабатывал один аккаунт параллельно
// из HTTP-запроса и фонового обхода.
package lock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"

	"github.com/magabrotheeeer/media-storefront/internal/errs"
	"github.com/magabrotheeeer/media-storefront/internal/lib/sl"
)

const (
	defaultTries      = 20
	defaultRetryDelay = 100 * time.Millisecond
)

// Locker выдаёт мьютексы по ключу.
type Locker struct {
	rs     *redsync.Redsync
	log    *slog.Logger
	prefix string
	expiry time.Duration
	tries  int
}

// New создаёт Locker поверх клиента Redis.
func New(client *redis.Client, log *slog.Logger, prefix string, expiry time.Duration) *Locker {
	pool := goredis.NewPool(client)
	return &Locker{
		rs:     redsync.New(pool),
		log:    log,
		prefix: prefix,
		expiry: expiry,
		tries:  defaultTries,
	}
}

// Lock захватывает ключ и возвращает функцию освобождения.
// Если ключ занят дольше, чем длятся попытки, возвращается errs.ErrConflict.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	const op = "lock.Lock"
	name := fmt.Sprintf("%s:%s", l.prefix, key)
	mutex := l.rs.NewMutex(
		name,
		redsync.WithExpiry(l.expiry),
		redsync.WithTries(l.tries),
		redsync.WithRetryDelay(defaultRetryDelay),
	)

	if err := mutex.LockContext(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s: %w", op, ctxErr)
		}
		// ключ занят другим обработчиком или Redis не ответил кворумом
		return nil, fmt.Errorf("%s: %s: %v: %w", op, name, err, errs.ErrConflict)
	}

	return func() {
		// освобождаем даже если ctx вызывающего уже отменён
		if _, err := mutex.UnlockContext(context.WithoutCancel(ctx)); err != nil {
			l.log.Warn("failed to release lock", slog.String("key", name), sl.Err(err))
		}
	}, nil
}

// Nop блокировка без Redis, для тестов и однопроцессного запуска.
type Nop struct{}

func (Nop) Lock(context.Context, string) (func(), error) {
	return func() {}, nil
}
