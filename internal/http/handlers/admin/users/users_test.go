package users

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/media-storefront/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) ListUsers(ctx context.Context) ([]models.UserWithReceipts, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]models.UserWithReceipts)
	return list, args.Error(1)
}

func TestUsersHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		list           []models.UserWithReceipts
		err            error
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "список с квитанциями",
			list: []models.UserWithReceipts{{
				User:     models.User{ID: "u1", Email: "a@example.com", SubscriptionStatus: models.StatusActive},
				Receipts: []models.Receipt{{ID: "r1", Status: models.ReceiptPending}},
			}},
			expectedStatus: http.StatusOK,
			expectedBody:   `"paymentReceipts":[{"id":"r1"`,
		},
		{
			name:           "ошибка хранилища",
			err:            errors.New("db down"),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"error":"failed to list users"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("ListUsers", mock.Anything).Return(tt.list, tt.err).Once()
			rec := httptest.NewRecorder()

			New(logger, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/users", nil))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
		})
	}
}
