package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/media-storefront/internal/migrations"
	"github.com/magabrotheeeer/media-storefront/internal/models"
)

// TestDataFactory содержит методы для создания тестовых данных
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateUser создает пользователя, привязанного к аккаунту медиасервера
func (f *TestDataFactory) CreateUser(t *testing.T, email, mediaID string) *models.User {
	u, err := f.storage.CreateUser(context.Background(), email)
	require.NoError(t, err)
	if mediaID != "" {
		require.NoError(t, f.storage.SetExternalMediaUserID(context.Background(), u.ID, mediaID))
		u.ExternalMediaUserID = &mediaID
	}
	return u
}

// CreateActiveUser создает пользователя с активной подпиской до end
func (f *TestDataFactory) CreateActiveUser(t *testing.T, email, mediaID string, end time.Time) *models.User {
	u := f.CreateUser(t, email, mediaID)
	_, err := f.storage.DB.Exec(`UPDATE users
		SET subscription_status = 'active', subscription_end = $2, plan = 'Basic', duration = 1, device_limit = 1
		WHERE id = $1`, u.ID, end)
	require.NoError(t, err)
	return u
}

// TestVerification содержит общие функции для проверки результатов тестов
type TestVerification struct {
	storage *Storage
}

// NewTestVerification создает новый объект для проверки результатов
func NewTestVerification(storage *Storage) *TestVerification {
	return &TestVerification{storage: storage}
}

// VerifyUserSubscriptionStatus проверяет статус подписки пользователя
func (v *TestVerification) VerifyUserSubscriptionStatus(t *testing.T, userID string, expected models.SubscriptionStatus) {
	var status string
	err := v.storage.DB.QueryRow("SELECT subscription_status FROM users WHERE id = $1", userID).Scan(&status)
	require.NoError(t, err)
	require.Equal(t, string(expected), status)
}

// CountRows возвращает количество строк таблицы для пользователя
func (v *TestVerification) CountRows(t *testing.T, table, userID string) int {
	var count int
	err := v.storage.DB.QueryRow("SELECT COUNT(*) FROM "+table+" WHERE user_id = $1", userID).Scan(&count)
	require.NoError(t, err)
	return count
}

// setupTestDatabase создает тестовую БД с контейнером PostgreSQL и применяет миграции
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start container")

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(dsn)
	require.NoError(t, err, "failed to create storage")

	projectRoot, err := filepath.Abs("../..")
	require.NoError(t, err)
	_, err = migrations.Run(storage.DB, filepath.Join(projectRoot, "migrations"))
	require.NoError(t, err)

	cleanup := func() {
		_ = storage.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}
	return storage, cleanup
}
