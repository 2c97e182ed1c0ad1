// Package ratelimit реализует счётчик попыток с фиксированным окном в Redis.
// Используется для ограничения попыток входа покупателей и администратора.
package ratelimit

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Счётчик хранится хэшем {count, reset}; reset в секундах Unix.
// Истёкшее окно сбрасывается в том же скрипте, поэтому инкремент и сброс атомарны.
var fixedWindowScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local reset = tonumber(redis.call("HGET", KEYS[1], "reset"))
if reset == nil or reset <= now then
  reset = now + window
  redis.call("HSET", KEYS[1], "count", 1, "reset", reset)
  redis.call("EXPIREAT", KEYS[1], reset)
  return {1, reset}
end
local count = redis.call("HINCRBY", KEYS[1], "count", 1)
return {count, reset}
`)

const defaultPrefix = "storefront:rate_limit"

// Result итог одной попытки.
type Result struct {
	Allowed    bool
	Count      int
	Remaining  int
	Reset      time.Time
	RetryAfter time.Duration
}

// Limiter считает попытки по ключу в окне window и пропускает не более limit.
type Limiter struct {
	client redis.UniversalClient
	prefix string
	limit  int
	window time.Duration
	now    func() time.Time
}

func New(client redis.UniversalClient, prefix string, limit int, window time.Duration) *Limiter {
	p := strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if p == "" {
		p = defaultPrefix
	}
	return &Limiter{
		client: client,
		prefix: p,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Allow регистрирует попытку для scope и subject (например, "login" и IP).
// Пустой subject или отключённый лимит всегда пропускаются.
func (l *Limiter) Allow(ctx context.Context, scope, subject string) (Result, error) {
	const op = "ratelimit.Allow"
	if l == nil || l.client == nil || l.limit <= 0 || l.window <= 0 {
		return Result{Allowed: true}, nil
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return Result{Allowed: true, Remaining: l.limit}, nil
	}

	windowSec := int64(math.Ceil(l.window.Seconds()))
	if windowSec < 1 {
		windowSec = 1
	}
	now := l.now()

	key := fmt.Sprintf("%s:%s:%s", l.prefix, scope, subject)
	raw, err := fixedWindowScript.Run(ctx, l.client, []string{key}, now.Unix(), windowSec).Result()
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}

	values, ok := raw.([]interface{})
	if !ok || len(values) != 2 {
		return Result{}, fmt.Errorf("%s: unexpected response shape %T", op, raw)
	}
	count, ok := values[0].(int64)
	if !ok {
		return Result{}, fmt.Errorf("%s: unexpected count type %T", op, values[0])
	}
	resetUnix, ok := values[1].(int64)
	if !ok {
		return Result{}, fmt.Errorf("%s: unexpected reset type %T", op, values[1])
	}

	reset := time.Unix(resetUnix, 0)
	retryAfter := reset.Sub(now).Round(time.Second)
	if retryAfter < time.Second {
		retryAfter = time.Second
	}

	remaining := l.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:    int(count) <= l.limit,
		Count:      int(count),
		Remaining:  remaining,
		Reset:      reset,
		RetryAfter: retryAfter,
	}, nil
}

// Reset обнуляет счётчик, например после успешного входа.
func (l *Limiter) Reset(ctx context.Context, scope, subject string) error {
	if l == nil || l.client == nil {
		return nil
	}
	key := fmt.Sprintf("%s:%s:%s", l.prefix, scope, strings.TrimSpace(subject))
	if err := l.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("ratelimit.Reset: %w", err)
	}
	return nil
}
