package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/metastore-admin/internal/handlers"
	"github.com/charlesng35/metastore-admin/internal/services"
)

func registerAuditRoutes(admin *gin.RouterGroup, svc *services.AuditService) {
	h := handlers.NewAuditHandler(svc)
	admin.GET("/audit_log/", h.List)
}
