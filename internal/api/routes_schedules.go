package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/metastore-admin/internal/handlers"
	"github.com/charlesng35/metastore-admin/internal/services"
)

func registerScheduleRoutes(schedule *gin.RouterGroup, svc *services.ScheduleService) {
	h := handlers.NewScheduleHandler(svc)

	schedule.GET("/name/:name/", h.GetByName)
	schedule.POST("/", h.Create)
	schedule.PUT("/:id/", h.Update)
}
