package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/metastore-admin/internal/monitoring"
	"github.com/charlesng35/metastore-admin/pkg/response"
)

// Health evaluates the registered checks. Anything other than a fully up
// report is served with 503.
func Health(manager *monitoring.HealthManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		report := manager.Evaluate(requestContext(c))
		status := http.StatusOK
		if !report.Healthy() {
			status = http.StatusServiceUnavailable
		}
		response.Success(c, status, report)
	}
}
