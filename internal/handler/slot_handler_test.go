package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-scheduler-api/internal/service"
)

func opsRouter(checks map[string]ReadinessCheck) *gin.Engine {
	gin.SetMode(gin.TestMode)
	slots := NewSlotHandler()
	ops := NewMetricsHandler(service.NewMetricsService(), checks)
	router := gin.New()
	router.GET("/slots", slots.List)
	router.GET("/slots/decode/:token", slots.Decode)
	router.GET("/slots/encode", slots.Encode)
	router.GET("/health", ops.Health)
	router.GET("/ready", ops.Ready)
	router.GET("/metrics", ops.Prometheus)
	return router
}

func TestSlotHandler(t *testing.T) {
	router := opsRouter(nil)

	rec := serve(router, http.MethodGet, "/slots", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "08:00 AM - 09:30 AM")
	assert.Contains(t, rec.Body.String(), `"lab"`)
	assert.Contains(t, rec.Body.String(), `"pairedDays":["ST","MW","RA"]`)

	rec = serve(router, http.MethodGet, "/slots/decode/stl1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"days":"ST"`)

	assert.Equal(t, http.StatusBadRequest, serve(router, http.MethodGet, "/slots/decode/X9", nil, "").Code)

	rec = serve(router, http.MethodGet, "/slots/encode?days=mw&time=1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"token":"MW1"`)

	assert.Equal(t, http.StatusBadRequest, serve(router, http.MethodGet, "/slots/encode?days=MW", nil, "").Code)
}

func TestOpsEndpoints(t *testing.T) {
	healthy := opsRouter(map[string]ReadinessCheck{"postgres": func(context.Context) error { return nil }})
	assert.Equal(t, http.StatusOK, serve(healthy, http.MethodGet, "/health", nil, "").Code)
	assert.Equal(t, http.StatusOK, serve(healthy, http.MethodGet, "/ready", nil, "").Code)

	rec := serve(healthy, http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "goroutines_total")

	failing := opsRouter(map[string]ReadinessCheck{"redis": func(context.Context) error { return errBoom }})
	rec = serve(failing, http.MethodGet, "/ready", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "boom")
}
