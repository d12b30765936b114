package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/metastore-admin/internal/handlers"
	"github.com/charlesng35/metastore-admin/internal/services"
)

func registerUserRoutes(search *gin.RouterGroup, svc *services.UserService, limit int) {
	h := handlers.NewUserHandler(svc, limit)
	search.GET("/user/", h.Search)
}
