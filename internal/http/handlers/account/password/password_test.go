package password

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/media-storefront/internal/errs"
	"github.com/magabrotheeeer/media-storefront/internal/http/middlewarectx"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) ChangePassword(ctx context.Context, userID, password string) error {
	return m.Called(ctx, userID, password).Error(0)
}

func TestPasswordHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "пароль изменён",
			body: `{"password":"new-password"}`,
			setupMock: func(m *MockService) {
				m.On("ChangePassword", mock.Anything, "u1", "new-password").Return(nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"success":true}`,
		},
		{
			name:           "короткий пароль",
			body:           `{"password":"short"}`,
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `field Password must be at least 8 characters`,
		},
		{
			name: "медиасервер отказал",
			body: `{"password":"new-password"}`,
			setupMock: func(m *MockService) {
				m.On("ChangePassword", mock.Anything, "u1", "new-password").
					Return(&errs.ExternalServiceError{Service: "emby", Op: "SetPassword", StatusCode: 500, Err: errors.New("boom")}).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"error":"failed to change password"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)
			req := httptest.NewRequest(http.MethodPost, "/api/account/password", strings.NewReader(tt.body))
			req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserID, "u1"))
			rec := httptest.NewRecorder()

			New(logger, svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
