package middlewarectx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/media-storefront/internal/http/middlewarectx"
)

func TestCronSecretMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		secret     string
		header     string
		wantStatus int
	}{
		{"верный секрет", "s3cret", "Bearer s3cret", http.StatusNoContent},
		{"неверный секрет", "s3cret", "Bearer other", http.StatusUnauthorized},
		{"без заголовка", "s3cret", "", http.StatusUnauthorized},
		{"секрет не настроен", "", "Bearer ", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			})
			req := httptest.NewRequest(http.MethodGet, "/api/check-subscriptions", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			middlewarectx.CronSecretMiddleware(tt.secret, newNoopLogger())(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
