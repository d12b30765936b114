package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/metastore-admin/internal/handlers"
	"github.com/charlesng35/metastore-admin/internal/services"
)

func registerMetastoreRoutes(admin *gin.RouterGroup, svc *services.MetastoreService) {
	h := handlers.NewMetastoreHandler(svc)

	admin.GET("/query_metastore_loader/", h.Loaders)

	metastores := admin.Group("/query_metastore")
	{
		metastores.GET("/", h.List)
		metastores.POST("/", h.Create)
		metastores.GET("/:id/", h.Get)
		metastores.PUT("/:id/", h.Update)
		metastores.DELETE("/:id/", h.Delete)
		metastores.POST("/:id/recover/", h.Recover)
	}
}
