package toggle

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/media-storefront/internal/errs"
	"github.com/magabrotheeeer/media-storefront/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) ToggleAccess(ctx context.Context, userID, externalMediaUserID string,
	currentStatus models.SubscriptionStatus) (models.SubscriptionStatus, error) {
	args := m.Called(ctx, userID, externalMediaUserID, currentStatus)
	return args.Get(0).(models.SubscriptionStatus), args.Error(1)
}

func TestToggleHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "active -> inactive",
			body: `{"userId":"u1","externalMediaUserId":"e1","currentStatus":"active"}`,
			setupMock: func(m *MockService) {
				m.On("ToggleAccess", mock.Anything, "u1", "e1", models.StatusActive).Return(models.StatusInactive, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"status":"inactive"`,
		},
		{
			name:           "неизвестный статус",
			body:           `{"userId":"u1","externalMediaUserId":"e1","currentStatus":"paused"}`,
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `field CurrentStatus must be one of [active inactive expired]`,
		},
		{
			name: "статус уже изменён",
			body: `{"userId":"u1","externalMediaUserId":"e1","currentStatus":"inactive"}`,
			setupMock: func(m *MockService) {
				m.On("ToggleAccess", mock.Anything, "u1", "e1", models.StatusInactive).
					Return(models.SubscriptionStatus(""), errs.Persistence("lifecycle.ToggleAccess", errs.ErrConflict)).Once()
			},
			expectedStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/admin/users/toggle-access", strings.NewReader(tt.body))

			New(logger, svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
