package view

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/media-storefront/internal/errs"
	"github.com/magabrotheeeer/media-storefront/internal/http/middlewarectx"
	"github.com/magabrotheeeer/media-storefront/internal/models"
	"github.com/magabrotheeeer/media-storefront/internal/services/account"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Account(ctx context.Context, userID string) (*account.View, error) {
	args := m.Called(ctx, userID)
	v, _ := args.Get(0).(*account.View)
	return v, args.Error(1)
}

func requestAs(userID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/account", nil)
	if userID == "" {
		return req
	}
	return req.WithContext(context.WithValue(req.Context(), middlewarectx.UserID, userID))
}

func TestViewHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("кабинет", func(t *testing.T) {
		svc := new(MockService)
		svc.On("Account", mock.Anything, "u1").Return(&account.View{
			User: &models.User{ID: "u1", Email: "a@example.com", SubscriptionStatus: models.StatusActive},
			Receipts: []models.Receipt{{
				ID: "r1", UserID: "u1", Amount: 642, PlanName: "Premium", Status: models.ReceiptPending,
				Date: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			}},
			Transactions: []models.Transaction{},
		}, nil).Once()

		rec := httptest.NewRecorder()
		New(logger, svc).ServeHTTP(rec, requestAs("u1"))

		assert.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, `"success":true`)
		assert.Contains(t, body, `"email":"a@example.com"`)
		assert.Contains(t, body, `"paymentReceipts":[{`)
		assert.Contains(t, body, `"transactions":[]`)
		svc.AssertExpectations(t)
	})

	t.Run("без пользователя в контексте", func(t *testing.T) {
		svc := new(MockService)
		rec := httptest.NewRecorder()
		New(logger, svc).ServeHTTP(rec, requestAs(""))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		svc.AssertNotCalled(t, "Account", mock.Anything, mock.Anything)
	})

	t.Run("пользователь удалён", func(t *testing.T) {
		svc := new(MockService)
		svc.On("Account", mock.Anything, "u1").Return(nil, errs.ErrUserNotFound).Once()

		rec := httptest.NewRecorder()
		New(logger, svc).ServeHTTP(rec, requestAs("u1"))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), `"error":"user not found"`)
	})
}
