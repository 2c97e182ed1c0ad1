package middlewarectx

import (
	"context"

	"github.com/magabrotheeeer/media-storefront/internal/lib/jwt"
	"github.com/magabrotheeeer/media-storefront/internal/models"
	"github.com/magabrotheeeer/media-storefront/internal/ratelimit"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// UserID идентификатор покупателя из JWT.
	UserID Key = "user_id"
	// Email покупателя из JWT.
	Email Key = "email"
	// AdminSession сессия администратора.
	AdminSession Key = "admin_session"
)

// TokenValidator проверка JWT покупателя.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*jwt.CustomClaims, error)
}

// SessionValidator проверка сессии администратора.
type SessionValidator interface {
	Validate(ctx context.Context, token string) (*models.AdminSession, error)
}

// Limiter счётчик попыток.
type Limiter interface {
	Allow(ctx context.Context, scope, subject string) (ratelimit.Result, error)
}

// Resetter сброс счётчика попыток.
type Resetter interface {
	Reset(ctx context.Context, scope, subject string) error
}

// Metrics учёт отказов по лимиту.
type Metrics interface {
	IncRateLimited(scope string)
}

// CurrentUserID идентификатор покупателя, положенный JWTMiddleware.
func CurrentUserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(UserID).(string)
	return id, ok && id != ""
}
