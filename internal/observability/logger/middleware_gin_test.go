package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/storefront/internal/observability/context"
	"github.com/smallbiznis/storefront/pkg/telemetry/correlation"
	"github.com/stretchr/testify/assert"
)

func TestGinMiddlewarePropagatesIdentifiers(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var seenRequestID, seenCorrelationID string
	router := gin.New()
	router.Use(GinMiddleware(MiddlewareConfig{}))
	router.GET("/ping", func(c *gin.Context) {
		seenRequestID = obscontext.RequestIDFromContext(c.Request.Context())
		seenCorrelationID = correlation.ExtractCorrelationID(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-Id", "req-123")
	req.Header.Set(correlation.Header, "corr-456")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusNoContent, resp.Code)
	assert.Equal(t, "req-123", seenRequestID)
	assert.Equal(t, "corr-456", seenCorrelationID)
	assert.Equal(t, "req-123", resp.Header().Get("X-Request-Id"))
	assert.Equal(t, "corr-456", resp.Header().Get(correlation.Header))
}

func TestGinMiddlewareGeneratesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(GinMiddleware(MiddlewareConfig{}))
	router.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.NotEmpty(t, resp.Header().Get("X-Request-Id"))
	assert.NotEmpty(t, resp.Header().Get(correlation.Header))
}
