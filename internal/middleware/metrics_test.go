package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/metastore-admin/pkg/metrics"
)

func TestMetricsMiddlewareUsesRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Metrics())
	r.GET("/items/:id/", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	before := testutil.CollectAndCount(metrics.APILatency)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items/42/", nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	require.Equal(t, before+1, testutil.CollectAndCount(metrics.APILatency))
	_, err := metrics.APILatency.GetMetricWithLabelValues(http.MethodGet, "/items/:id/", "204")
	require.NoError(t, err)
}
