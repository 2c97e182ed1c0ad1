package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/media-storefront/internal/errs"
)

func serveFail(t *testing.T, err error, details bool) (int, map[string]any) {
	t.Helper()
	h := WithDetails(details)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		Fail(w, r, err, "internal error")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestFail(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"валидация", errs.Validation("plan", "is required"), 400, "plan: is required"},
		{"неизвестный тариф", fmt.Errorf("plans.Resolve: %w", errs.ErrInvalidPlan), 400, "invalid plan"},
		{"нет сессии", &errs.UnauthorizedError{Reason: "missing session"}, 401, "unauthorized: missing session"},
		{"нет пользователя", fmt.Errorf("storage.GetUser: %w", errs.ErrUserNotFound), 404, "user not found"},
		{"конфликт", errs.Persistence("op", errs.ErrConflict), 409, "record was modified concurrently, retry"},
		{"внутренняя", errors.New("dial tcp: refused"), 500, "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := serveFail(t, tt.err, false)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.wantError, body["error"])
			assert.NotContains(t, body, "details")
		})
	}

	t.Run("details вне prod", func(t *testing.T) {
		_, body := serveFail(t, errors.New("dial tcp: refused"), true)
		assert.Equal(t, "dial tcp: refused", body["details"])
	})
}

func TestOK(t *testing.T) {
	body := OK(map[string]any{"status": "active"})
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "active", body["status"])
}

func TestBind(t *testing.T) {
	type request struct {
		Email    string `json:"email" validate:"required,email"`
		Duration int    `json:"duration" validate:"required,oneof=1 3 6"`
	}
	validate := validator.New()

	t.Run("битый json", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{"))
		err := Bind(r, &request{}, validate)
		assert.EqualError(t, err, "invalid request body")
	})

	t.Run("ошибки полей", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"nope","duration":2}`))
		err := Bind(r, &request{}, validate)
		assert.EqualError(t, err, "field Email must be a valid email, field Duration must be one of [1 3 6]")
		assert.Equal(t, 400, errs.HTTPStatus(err))
	})

	t.Run("валидный запрос", func(t *testing.T) {
		var req request
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.co","duration":3}`))
		require.NoError(t, Bind(r, &req, validate))
		assert.Equal(t, 3, req.Duration)
	})
}
