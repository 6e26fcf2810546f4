package http

import (
	"context"
	"encoding/json"
	"errors"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveHealth(t *testing.T, handler *HealthHandler, path string) (*httptest.ResponseRecorder, HealthResponse) {
	t.Helper()

	router := chi.NewRouter()
	handler.RegisterRoutes(router)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(stdhttp.MethodGet, path, nil))

	var response HealthResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	return recorder, response
}

func TestHealthHandler(t *testing.T) {
	ok := HealthCheckerFunc(func(context.Context) error { return nil })
	down := HealthCheckerFunc(func(context.Context) error { return errors.New("connection refused") })

	t.Run("liveness ignores dependencies", func(t *testing.T) {
		recorder, response := serveHealth(t, NewHealthHandler("1.0.0").AddCheck("database", down), "/health/live")

		assert.Equal(t, stdhttp.StatusOK, recorder.Code)
		assert.Equal(t, "healthy", response.Status)
	})

	t.Run("ready without dependencies", func(t *testing.T) {
		recorder, response := serveHealth(t, NewHealthHandler("1.0.0"), "/health/ready")

		assert.Equal(t, stdhttp.StatusOK, recorder.Code)
		assert.Equal(t, "healthy", response.Status)
		assert.Equal(t, "1.0.0", response.Version)
	})

	t.Run("ready with a failing dependency", func(t *testing.T) {
		handler := NewHealthHandler("1.0.0").AddCheck("database", ok).AddCheck("redis", down)

		recorder, response := serveHealth(t, handler, "/health/ready")

		assert.Equal(t, stdhttp.StatusServiceUnavailable, recorder.Code)
		assert.Equal(t, "unhealthy", response.Status)
		assert.Equal(t, "healthy", response.Checks["database"].Status)
		assert.Equal(t, "connection refused", response.Checks["redis"].Message)
	})

	t.Run("detailed health reports degraded", func(t *testing.T) {
		recorder, response := serveHealth(t, NewHealthHandler("1.0.0").AddCheck("redis", down), "/health")

		assert.Equal(t, stdhttp.StatusServiceUnavailable, recorder.Code)
		assert.Equal(t, "degraded", response.Status)
	})
}
