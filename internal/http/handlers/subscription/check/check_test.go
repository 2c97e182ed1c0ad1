package check

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

	"github.com/magabrotheeeer/media-storefront/internal/http/response"
	"github.com/magabrotheeeer/media-storefront/internal/models"
)

type SweeperMock struct {
	mock.Mock
}

func (m *SweeperMock) Run(ctx context.Context) (models.SweepSummary, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.SweepSummary), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func serve(t *testing.T, sweeper Sweeper, details bool) (int, map[string]any) {
	t.Helper()
	h := response.WithDetails(details)(New(newNoopLogger(), sweeper))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/check-subscriptions", nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestCheckHandler(t *testing.T) {
	t.Run("итог прохода", func(t *testing.T) {
		sweeper := new(SweeperMock)
		sweeper.On("Run", mock.Anything).Return(models.SweepSummary{
			Total: 3, Succeeded: 2, Failed: 1, Errors: []string{"u2: emby SetPolicy: status 500: boom"}, ExecutionTime: "12ms",
		}, nil).Once()

		status, body := serve(t, sweeper, false)

		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, true, body["success"])
		summary := body["summary"].(map[string]any)
		assert.EqualValues(t, 3, summary["total"])
		assert.EqualValues(t, 1, summary["failed"])
		assert.Equal(t, "12ms", summary["executionTime"])
	})

	t.Run("ошибка выборки с частичным итогом", func(t *testing.T) {
		sweeper := new(SweeperMock)
		sweeper.On("Run", mock.Anything).
			Return(models.SweepSummary{Errors: []string{}, ExecutionTime: "3ms"}, errors.New("db down")).Once()

		status, body := serve(t, sweeper, true)

		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "failed to check subscriptions", body["error"])
		assert.Equal(t, "db down", body["details"])
		assert.Contains(t, body, "summary")
	})
}
