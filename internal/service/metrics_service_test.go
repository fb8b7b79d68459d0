package service

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceCountsGenerations(t *testing.T) {
	metrics := NewMetricsService()
	metrics.ObserveGeneration(0, 5*time.Millisecond)
	metrics.ObserveGeneration(2, 7*time.Millisecond)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.generations.WithLabelValues("ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.generations.WithLabelValues("conflict")))
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.placeholders))
}

func TestMetricsServiceRecordsConflictsAndCache(t *testing.T) {
	metrics := NewMetricsService()
	metrics.RecordClassConflict("room")
	metrics.RecordClassConflict("room")
	metrics.RecordCacheOperation(true, time.Millisecond)
	metrics.RecordCacheOperation(false, time.Millisecond)
	metrics.RecordCacheOperation(false, time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.classConflicts.WithLabelValues("room")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.cacheHits))
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.cacheMisses))
}

func TestMetricsServiceHandlerExposesCollectors(t *testing.T) {
	metrics := NewMetricsService()
	metrics.ObserveHTTPRequest(http.MethodGet, "/api/v1/classes", http.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
	assert.Contains(t, rec.Body.String(), "scheduler_generation_duration_seconds")
}

func TestMetricsServiceQueueDepthGauge(t *testing.T) {
	metrics := NewMetricsService()
	depth := 3
	metrics.RegisterQueueDepth("events", func() int { return depth })

	expected := `
# HELP worker_queue_pending Jobs waiting in a worker queue
# TYPE worker_queue_pending gauge
worker_queue_pending{queue="events"} 3
`
	require.NoError(t, testutil.GatherAndCompare(metrics.Registry(), strings.NewReader(expected), "worker_queue_pending"))
}

func TestNilMetricsServiceIsSafe(t *testing.T) {
	var metrics *MetricsService
	metrics.ObserveGeneration(1, time.Millisecond)
	metrics.RecordClassConflict("instructor")

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
