package admin

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/media-storefront/internal/cache"
	"github.com/magabrotheeeer/media-storefront/internal/config"
	"github.com/magabrotheeeer/media-storefront/internal/errs"
	"github.com/magabrotheeeer/media-storefront/internal/lib/password"
	"github.com/magabrotheeeer/media-storefront/internal/models"
)

type SessionRepoMock struct {
	mock.Mock
}

func (m *SessionRepoMock) CreateAdminSession(ctx context.Context, s models.AdminSession) error {
	return m.Called(ctx, s).Error(0)
}

func (m *SessionRepoMock) GetAdminSession(ctx context.Context, token string) (*models.AdminSession, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AdminSession), args.Error(1)
}

func (m *SessionRepoMock) DeleteAdminSession(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *SessionRepoMock) DeleteExpiredAdminSessions(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

var fixedNow = time.Date(2025, time.April, 1, 10, 0, 0, 0, time.UTC)

func newService(t *testing.T) (*Service, *SessionRepoMock, *miniredis.Miniredis) {
	t.Helper()
	hash, err := password.GetHash("s3cret-pass")
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := &SessionRepoMock{}
	svc := New(newNoopLogger(), config.Admin{Username: "admin", PasswordHash: hash}, repo, &cache.Cache{Db: client})
	svc.now = func() time.Time { return fixedNow }
	return svc, repo, mr
}

func TestService_Login(t *testing.T) {
	t.Run("успешный вход открывает сессию на 24 часа", func(t *testing.T) {
		svc, repo, mr := newService(t)
		repo.On("CreateAdminSession", mock.Anything, mock.MatchedBy(func(s models.AdminSession) bool {
			return s.Username == "admin" && s.ExpiresAt.Equal(fixedNow.Add(24*time.Hour)) && s.Token != ""
		})).Return(nil).Once()

		session, err := svc.Login(context.Background(), "admin", "s3cret-pass")

		require.NoError(t, err)
		assert.True(t, mr.Exists(cacheKey(session.Token)))
		repo.AssertExpectations(t)
	})

	tests := []struct {
		name     string
		username string
		password string
	}{
		{name: "неверный пароль", username: "admin", password: "wrong"},
		{name: "неверное имя", username: "root", password: "s3cret-pass"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newService(t)

			_, err := svc.Login(context.Background(), tt.username, tt.password)

			var uErr *errs.UnauthorizedError
			require.ErrorAs(t, err, &uErr)
			repo.AssertNotCalled(t, "CreateAdminSession", mock.Anything, mock.Anything)
		})
	}
}

func TestService_Validate(t *testing.T) {
	token := "5f0c7c8e-2d7a-4c1b-9d43-0c6b1f1b2a10"

	t.Run("из кэша без обращения к базе", func(t *testing.T) {
		svc, repo, _ := newService(t)
		svc.cacheSession(context.Background(),
			models.AdminSession{Token: token, Username: "admin", ExpiresAt: fixedNow.Add(time.Hour)})

		session, err := svc.Validate(context.Background(), token)

		require.NoError(t, err)
		assert.Equal(t, "admin", session.Username)
		repo.AssertNotCalled(t, "GetAdminSession", mock.Anything, mock.Anything)
	})

	t.Run("из базы с записью в кэш", func(t *testing.T) {
		svc, repo, mr := newService(t)
		repo.On("GetAdminSession", mock.Anything, token).
			Return(&models.AdminSession{Token: token, Username: "admin", ExpiresAt: fixedNow.Add(time.Hour)}, nil).Once()

		_, err := svc.Validate(context.Background(), token)

		require.NoError(t, err)
		assert.True(t, mr.Exists(cacheKey(token)))
		repo.AssertExpectations(t)
	})

	t.Run("истёкшая сессия удаляется", func(t *testing.T) {
		svc, repo, _ := newService(t)
		repo.On("GetAdminSession", mock.Anything, token).
			Return(&models.AdminSession{Token: token, ExpiresAt: fixedNow.Add(-time.Minute)}, nil).Once()
		repo.On("DeleteAdminSession", mock.Anything, token).Return(nil).Once()

		_, err := svc.Validate(context.Background(), token)

		assert.Equal(t, 401, errs.HTTPStatus(err))
		repo.AssertExpectations(t)
	})

	t.Run("неизвестный токен", func(t *testing.T) {
		svc, repo, _ := newService(t)
		repo.On("GetAdminSession", mock.Anything, token).Return(nil, errs.ErrNotFound).Once()

		_, err := svc.Validate(context.Background(), token)

		assert.Equal(t, 401, errs.HTTPStatus(err))
	})

	t.Run("мусор вместо токена", func(t *testing.T) {
		svc, _, _ := newService(t)
		_, err := svc.Validate(context.Background(), "not-a-uuid")
		assert.Equal(t, 401, errs.HTTPStatus(err))
	})

	t.Run("ошибка базы", func(t *testing.T) {
		svc, repo, _ := newService(t)
		repo.On("GetAdminSession", mock.Anything, token).Return(nil, errors.New("db down")).Once()
		_, err := svc.Validate(context.Background(), token)
		assert.Equal(t, 500, errs.HTTPStatus(err))
	})
}

func TestService_Logout(t *testing.T) {
	token := "5f0c7c8e-2d7a-4c1b-9d43-0c6b1f1b2a10"
	session := models.AdminSession{Token: token, Username: "admin", ExpiresAt: fixedNow.Add(time.Hour)}

	t.Run("сессия удаляется из кэша и базы", func(t *testing.T) {
		svc, repo, mr := newService(t)
		svc.cacheSession(context.Background(), session)
		repo.On("DeleteAdminSession", mock.Anything, token).Return(nil).Once()

		require.NoError(t, svc.Logout(context.Background(), token))
		assert.False(t, mr.Exists(cacheKey(token)))
		repo.AssertExpectations(t)
	})

	t.Run("redis недоступен: ошибка, строка в базе остаётся", func(t *testing.T) {
		svc, repo, mr := newService(t)
		svc.cacheSession(context.Background(), session)
		mr.Close()

		err := svc.Logout(context.Background(), token)

		require.Error(t, err)
		assert.Equal(t, 500, errs.HTTPStatus(err))
		repo.AssertNotCalled(t, "DeleteAdminSession", mock.Anything, mock.Anything)
	})

	t.Run("ошибка базы после очистки кэша", func(t *testing.T) {
		svc, repo, mr := newService(t)
		svc.cacheSession(context.Background(), session)
		repo.On("DeleteAdminSession", mock.Anything, token).Return(errors.New("db down")).Once()

		err := svc.Logout(context.Background(), token)

		assert.Equal(t, 500, errs.HTTPStatus(err))
		assert.False(t, mr.Exists(cacheKey(token)))
	})
}

func TestService_PurgeExpired(t *testing.T) {
	svc, repo, _ := newService(t)
	repo.On("DeleteExpiredAdminSessions", mock.Anything, fixedNow).Return(int64(2), nil).Once()

	n, err := svc.PurgeExpired(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
