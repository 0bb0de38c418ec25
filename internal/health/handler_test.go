package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMediaWorkerChecker struct{ status string }

func (f *fakeMediaWorkerChecker) Check(_ context.Context, _ string) string { return f.status }

func newTestContext(h *Handler, path string, handler func(*gin.Context)) (*httptest.ResponseRecorder, *gin.Context) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, path, nil)
	handler(c)
	return rec, c
}

func TestLiveness_AlwaysReportsAlive(t *testing.T) {
	h := &Handler{}
	rec, _ := newTestContext(h, "/health/live", h.Liveness)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"alive"`)
}

func TestReadiness_HealthyWhenNoDependenciesConfigured(t *testing.T) {
	h := &Handler{}
	rec, _ := newTestContext(h, "/health/ready", h.Readiness)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadiness_ReportsUnhealthyWhenRedisUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer func() { _ = client.Close() }()

	h := &Handler{redisClient: client}
	rec, _ := newTestContext(h, "/health/ready", h.Readiness)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":"unhealthy"`)
}

func TestReadiness_HealthyWhenRedisReachable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	h := &Handler{redisClient: client}
	rec, _ := newTestContext(h, "/health/ready", h.Readiness)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadiness_MediaWorkerCheckGatesReadiness(t *testing.T) {
	h := &Handler{
		mediaEnabled:    true,
		mediaWorkerAddr: "fake:1",
		mediaChecker:    &fakeMediaWorkerChecker{status: "unhealthy"},
	}
	rec, _ := newTestContext(h, "/health/ready", h.Readiness)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	h.mediaChecker = &fakeMediaWorkerChecker{status: "healthy"}
	rec, _ = newTestContext(h, "/health/ready", h.Readiness)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewHandler_MediaDisabledWhenAddrEmpty(t *testing.T) {
	h := NewHandler(nil, "")
	assert.False(t, h.mediaEnabled)
	require.NotNil(t, h.mediaChecker)
}
