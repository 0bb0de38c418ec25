package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corsairlabs/meetcore/internal/logging"
	"github.com/corsairlabs/meetcore/internal/middleware"
)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.CorrelationID())
	r.GET("/probe", func(c *gin.Context) {
		cid, _ := c.Get(string(logging.CorrelationIDKey))
		c.JSON(http.StatusOK, gin.H{"correlation_id": cid})
	})
	return r
}

func TestCorrelationID_MintsWhenAbsent(t *testing.T) {
	r := newRouter()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	got := rec.Header().Get(middleware.HeaderXCorrelationID)
	assert.NotEmpty(t, got)
}

func TestCorrelationID_PreservesInboundHeader(t *testing.T) {
	r := newRouter()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set(middleware.HeaderXCorrelationID, "fixed-correlation-id")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, "fixed-correlation-id", rec.Header().Get(middleware.HeaderXCorrelationID))
	assert.Contains(t, rec.Body.String(), "fixed-correlation-id")
}
