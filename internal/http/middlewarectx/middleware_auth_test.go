package middlewarectx_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/media-storefront/internal/http/middlewarectx"
	"github.com/magabrotheeeer/media-storefront/internal/lib/jwt"
)

type TokenValidatorMock struct {
	mock.Mock
}

func (m *TokenValidatorMock) ValidateToken(ctx context.Context, token string) (*jwt.CustomClaims, error) {
	args := m.Called(ctx, token)
	claims, _ := args.Get(0).(*jwt.CustomClaims)
	return claims, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestJWTMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		setupMock  func(m *TokenValidatorMock)
		wantStatus int
		wantError  string
		wantUserID string
	}{
		{
			name:       "нет заголовка",
			wantStatus: http.StatusUnauthorized,
			wantError:  "unauthorized: missing or invalid authorization header",
		},
		{
			name:       "другая схема авторизации",
			header:     "Basic dXNlcjpwYXNz",
			wantStatus: http.StatusUnauthorized,
			wantError:  "unauthorized: missing or invalid authorization header",
		},
		{
			name:       "пустой токен",
			header:     "Bearer   ",
			wantStatus: http.StatusUnauthorized,
			wantError:  "unauthorized: missing or invalid authorization header",
		},
		{
			name:   "просроченный токен",
			header: "Bearer expired",
			setupMock: func(m *TokenValidatorMock) {
				m.On("ValidateToken", mock.Anything, "expired").Return(nil, errors.New("token is expired"))
			},
			wantStatus: http.StatusUnauthorized,
			wantError:  "unauthorized: invalid or expired token",
		},
		{
			name:   "валидный токен",
			header: "Bearer good",
			setupMock: func(m *TokenValidatorMock) {
				m.On("ValidateToken", mock.Anything, "good").
					Return(&jwt.CustomClaims{UserID: "u1", Email: "viewer@example.com"}, nil)
			},
			wantStatus: http.StatusOK,
			wantUserID: "u1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validator := new(TokenValidatorMock)
			if tt.setupMock != nil {
				tt.setupMock(validator)
			}

			var gotUserID, gotEmail string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUserID, _ = middlewarectx.CurrentUserID(r.Context())
				gotEmail, _ = r.Context().Value(middlewarectx.Email).(string)
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/account", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			middlewarectx.JWTMiddleware(validator, newNoopLogger())(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantUserID, gotUserID)
			if tt.wantUserID != "" {
				assert.Equal(t, "viewer@example.com", gotEmail)
			}
			if tt.wantError != "" {
				var body map[string]any
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, false, body["success"])
				assert.Equal(t, tt.wantError, body["error"])
			}
			validator.AssertExpectations(t)
		})
	}
}
