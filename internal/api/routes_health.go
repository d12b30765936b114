package api

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/charlesng35/metastore-admin/internal/app"
	"github.com/charlesng35/metastore-admin/internal/handlers"
	"github.com/charlesng35/metastore-admin/internal/monitoring"
)

func registerHealthRoutes(r *gin.Engine, health *monitoring.HealthManager, cfg *app.Config) {
	r.GET("/health", handlers.Health(health))

	if !cfg.Monitoring.Prometheus.Enabled {
		return
	}
	endpoint := strings.TrimSpace(cfg.Monitoring.Prometheus.Endpoint)
	if endpoint == "" {
		endpoint = "/metrics"
	}
	r.GET(endpoint, gin.WrapH(promhttp.Handler()))
}
