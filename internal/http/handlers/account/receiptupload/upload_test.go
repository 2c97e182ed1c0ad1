package receiptupload

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
	"github.com/magabrotheeeer/media-storefront/internal/http/middlewarectx"
	"github.com/magabrotheeeer/media-storefront/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) UploadReceipt(ctx context.Context, userID string, in models.DummyReceipt) (*models.Receipt, error) {
	args := m.Called(ctx, userID, in)
	r, _ := args.Get(0).(*models.Receipt)
	return r, args.Error(1)
}

func TestUploadHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	valid := models.DummyReceipt{
		URL:      "https://files.example.com/r/1.jpg",
		Date:     "2025-03-01",
		Amount:   642,
		PlanName: "Premium",
	}
	validBody := `{"url":"https://files.example.com/r/1.jpg","date":"2025-03-01","amount":642,"planName":"Premium"}`

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "квитанция сохранена",
			body: validBody,
			setupMock: func(m *MockService) {
				m.On("UploadReceipt", mock.Anything, "u1", valid).Return(&models.Receipt{
					ID: "r1", UserID: "u1", Amount: 642, PlanName: "Premium", Status: models.ReceiptPending,
				}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"status":"pending"`,
		},
		{
			name:           "неверная дата",
			body:           `{"url":"https://files.example.com/r/1.jpg","date":"01.03.2025","amount":642,"planName":"Premium"}`,
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `field Date must be a date in format 2006-01-02`,
		},
		{
			name:           "не ссылка",
			body:           `{"url":"receipt","date":"2025-03-01","amount":642,"planName":"Premium"}`,
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `field URL must be a valid url`,
		},
		{
			name: "неизвестный тариф",
			body: validBody,
			setupMock: func(m *MockService) {
				m.On("UploadReceipt", mock.Anything, "u1", valid).Return(nil, errs.ErrInvalidPlan).Once()
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"invalid plan"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)
			req := httptest.NewRequest(http.MethodPost, "/api/account/receipts", strings.NewReader(tt.body))
			req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserID, "u1"))
			rec := httptest.NewRecorder()

			New(logger, svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
