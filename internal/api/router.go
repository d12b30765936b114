package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/charlesng35/metastore-admin/internal/app"
	iauth "github.com/charlesng35/metastore-admin/internal/auth"
	"github.com/charlesng35/metastore-admin/internal/middleware"
	"github.com/charlesng35/metastore-admin/internal/monitoring"
	"github.com/charlesng35/metastore-admin/internal/services"
)

// Services bundles the domain services served over HTTP.
type Services struct {
	Metastores *services.MetastoreService
	Schedules  *services.ScheduleService
	Users      *services.UserService
	Audit      *services.AuditService
	// Health defaults to a database ping when nil.
	Health *monitoring.HealthManager
}

func (s Services) validate() error {
	switch {
	case s.Metastores == nil:
		return fmt.Errorf("metastore service must be provided")
	case s.Schedules == nil:
		return fmt.Errorf("schedule service must be provided")
	case s.Users == nil:
		return fmt.Errorf("user service must be provided")
	case s.Audit == nil:
		return fmt.Errorf("audit service must be provided")
	}
	return nil
}

// NewRouter builds the Gin engine, wires middleware and registers the routes.
// A nil jwt service leaves the admin routes unauthenticated.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, cfg *app.Config, svcs Services) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if err := svcs.validate(); err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())

	health := svcs.Health
	if health == nil {
		health = monitoring.NewHealthManager(monitoring.Database(db, 0))
	}
	registerHealthRoutes(r, health, cfg)

	requireAdmin := middleware.AdminAuth(jwt)

	admin := r.Group("/admin")
	admin.Use(requireAdmin)
	registerMetastoreRoutes(admin, svcs.Metastores)
	registerAuditRoutes(admin, svcs.Audit)

	schedule := r.Group("/schedule")
	schedule.Use(requireAdmin)
	registerScheduleRoutes(schedule, svcs.Schedules)

	registerUserRoutes(r.Group("/search"), svcs.Users, cfg.Search.UserLimit)

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
