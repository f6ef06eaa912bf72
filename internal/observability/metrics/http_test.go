package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGinMiddlewareCountsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)

	registry := prometheus.NewRegistry()
	m, err := newHTTPMetrics(registry, Config{ServiceName: "storefront", Environment: "test"})
	require.NoError(t, err)

	router := gin.New()
	router.Use(GinMiddleware(m))
	router.GET("/product/:id", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	for i := 0; i < 3; i++ {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/product/1", nil))
	}

	count := testutil.ToFloat64(m.requests.WithLabelValues("/product/:id", http.MethodGet, "404"))
	assert.Equal(t, float64(3), count)
	assert.Equal(t, float64(0), testutil.ToFloat64(m.inflight))
}

func TestNewHTTPMetricsToleratesDoubleRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()
	_, err := newHTTPMetrics(registry, Config{})
	require.NoError(t, err)
	_, err = newHTTPMetrics(registry, Config{})
	require.NoError(t, err)
}
