package login

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/media-storefront/internal/errs"
)

type AuthServiceMock struct {
	mock.Mock
}

func (m *AuthServiceMock) Login(ctx context.Context, email, password string) (string, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestLoginHandler_ServeHTTP(t *testing.T) {
	authMock := new(AuthServiceMock)
	handler := New(newNoopLogger(), authMock)

	tests := []struct {
		name           string
		requestBody    interface{}
		mockToken      string
		mockErr        error
		callService    bool
		wantStatusCode int
		wantToken      string
		wantError      string
	}{
		{
			name:           "valid login",
			requestBody:    Request{Email: "user@example.com", Password: "password123"},
			mockToken:      "tok",
			callService:    true,
			wantStatusCode: http.StatusOK,
			wantToken:      "tok",
		},
		{
			name:           "invalid json body",
			requestBody:    "not a json",
			wantStatusCode: http.StatusBadRequest,
			wantError:      "invalid request body",
		},
		{
			name:           "validation error - missing password",
			requestBody:    Request{Email: "user@example.com"},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "field Password is a required field",
		},
		{
			name:           "validation error - bad email",
			requestBody:    Request{Email: "user", Password: "password123"},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "field Email must be a valid email",
		},
		{
			name:           "wrong password",
			requestBody:    Request{Email: "user@example.com", Password: "password123"},
			mockErr:        &errs.UnauthorizedError{Reason: "invalid credentials"},
			callService:    true,
			wantStatusCode: http.StatusUnauthorized,
			wantError:      "unauthorized: invalid credentials",
		},
		{
			name:           "storage error",
			requestBody:    Request{Email: "user@example.com", Password: "password123"},
			mockErr:        errors.New("db down"),
			callService:    true,
			wantStatusCode: http.StatusInternalServerError,
			wantError:      "failed to login",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authMock.ExpectedCalls = nil
			authMock.Calls = nil

			if tt.callService {
				req := tt.requestBody.(Request)
				authMock.On("Login", mock.Anything, req.Email, req.Password).
					Return(tt.mockToken, tt.mockErr).Once()
			}

			var bodyBytes []byte
			var err error
			switch v := tt.requestBody.(type) {
			case string:
				bodyBytes = []byte(v)
			default:
				bodyBytes, err = json.Marshal(tt.requestBody)
				if err != nil {
					t.Fatal(err)
				}
			}

			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(bodyBytes))
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var got map[string]any
			err = json.NewDecoder(rec.Body).Decode(&got)
			assert.NoError(t, err)

			assert.Equal(t, tt.wantError == "", got["success"])
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, got["error"])
				assert.Nil(t, got["token"])
			} else {
				assert.Equal(t, tt.wantToken, got["token"])
			}

			authMock.AssertExpectations(t)
		})
	}
}
