package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/user-directory/internal/infrastructure/metrics"
)

func TestMetrics_Handler(t *testing.T) {
	m := metrics.New()
	m.PageFetched("success")
	m.PageFetched("success")
	m.PageFetched("failure")
	m.DeletionSettled("rolled_back")
	m.ObserveHTTP("/api/v1/users", http.MethodGet, http.StatusOK, 15*time.Millisecond)
	m.SetWebSocketClients(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)

	assert.Contains(t, text, `userdir_page_fetches_total{outcome="success"} 2`)
	assert.Contains(t, text, `userdir_page_fetches_total{outcome="failure"} 1`)
	assert.Contains(t, text, `userdir_deletions_total{outcome="rolled_back"} 1`)
	assert.Contains(t, text, `userdir_http_requests_total{method="GET",route="/api/v1/users",status="200"} 1`)
	assert.Contains(t, text, `userdir_websocket_clients 3`)
}

func TestMetrics_Isolated(t *testing.T) {
	a := metrics.New()
	b := metrics.New()

	a.DeletionSettled("committed")

	assert.NotPanics(t, func() { b.DeletionSettled("committed") })
	count, err := testutil.GatherAndCount(a.Registry(), "userdir_deletions_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
