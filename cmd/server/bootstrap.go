package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/metastore-admin/internal/api"
	"github.com/charlesng35/metastore-admin/internal/app"
	"github.com/charlesng35/metastore-admin/internal/app/maintenance"
	iauth "github.com/charlesng35/metastore-admin/internal/auth"
	"github.com/charlesng35/metastore-admin/internal/database"
	"github.com/charlesng35/metastore-admin/internal/loaders"
	"github.com/charlesng35/metastore-admin/internal/metastore"
	"github.com/charlesng35/metastore-admin/internal/models"
	"github.com/charlesng35/metastore-admin/internal/monitoring"
	"github.com/charlesng35/metastore-admin/internal/services"
	"github.com/charlesng35/metastore-admin/internal/tasks"
	"github.com/charlesng35/metastore-admin/pkg/logger"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB       *gorm.DB
	JWT      *iauth.JWTService
	Services api.Services
	Runner   *tasks.Runner
	Cleaner  *maintenance.Cleaner
	Router   *gin.Engine
}

// bootstrapRuntime initialises the database, services, background jobs and the HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	// enable gin debug mod
	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	registry, err := loaders.NewDefaultRegistry()
	if err != nil {
		return nil, fmt.Errorf("initialise loaders: %w", err)
	}
	if len(cfg.Loaders.Files) > 0 {
		if err := registry.RegisterFiles(cfg.Loaders.Files...); err != nil {
			log.Warn("some loader definitions were skipped", zap.Error(err))
		}
	}

	if secret := strings.TrimSpace(cfg.Auth.AdminSecret); secret != "" {
		stack.JWT, err = iauth.NewJWTService(iauth.JWTConfig{Secret: secret, Issuer: cfg.Auth.Issuer})
		if err != nil {
			return nil, fmt.Errorf("initialise jwt service: %w", err)
		}
	} else {
		log.Warn("auth.admin_secret is empty; admin routes are unauthenticated")
	}

	audit, err := services.NewAuditService(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise audit service: %w", err)
	}
	metastores, err := services.NewMetastoreService(stack.DB, registry, services.WithAudit(audit))
	if err != nil {
		return nil, fmt.Errorf("initialise metastore service: %w", err)
	}
	schedules, err := services.NewScheduleService(stack.DB, services.WithAudit(audit))
	if err != nil {
		return nil, fmt.Errorf("initialise schedule service: %w", err)
	}
	users, err := services.NewUserService(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise user service: %w", err)
	}
	stack.Services = api.Services{Metastores: metastores, Schedules: schedules, Users: users, Audit: audit}

	if cfg.Scheduler.Enabled {
		stack.Runner, err = tasks.NewRunner(schedules)
		if err != nil {
			return nil, fmt.Errorf("initialise task runner: %w", err)
		}
		stack.Runner.Register(metastore.UpdateTaskName, tasks.UpdateMetastore(metastores))
		if err := stack.Runner.Reload(ctx); err != nil {
			log.Warn("task runner loaded with errors", zap.Error(err))
		}
		runner := stack.Runner
		schedules.OnChange(func(ctx context.Context) {
			if err := runner.Reload(ctx); err != nil {
				log.Warn("task runner reload", zap.Error(err))
			}
		})
		stack.Runner.Start()
	}

	stack.Cleaner = maintenance.NewCleaner(audit,
		maintenance.WithAuditRetentionDays(cfg.Audit.RetentionDays),
		maintenance.WithAuditSchedule(cfg.Audit.CleanupSpec),
	)
	if cfg.Audit.RetentionDays > 0 {
		if err := stack.Cleaner.Start(); err != nil {
			return nil, fmt.Errorf("start maintenance jobs: %w", err)
		}
	}

	var jobs monitoring.FailureReporter
	if stack.Runner != nil {
		jobs = stack.Runner
	}
	stack.Services.Health = monitoring.NewHealthManager(
		monitoring.Database(stack.DB, 0),
		monitoring.Scheduler(jobs),
	)

	stack.Router, err = api.NewRouter(stack.DB, stack.JWT, cfg, stack.Services)
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// Shutdown gracefully stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Runner != nil {
		<-s.Runner.Stop().Done()
	}

	if s.Cleaner != nil {
		stopCtx := s.Cleaner.Stop()
		if stopCtx != nil {
			<-stopCtx.Done()
		}
	}

	if s.DB != nil {
		closeDatabase(s.DB, log)
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := convertDatabaseConfig(cfg)
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrateAndSeed(db, database.Seed{Users: seedUsers(cfg)}); err != nil {
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", dbCfg.Driver))

	return db, nil
}

func seedUsers(cfg *app.Config) []models.User {
	users := make([]models.User, 0, len(cfg.Seed.Users))
	for _, u := range cfg.Seed.Users {
		users = append(users, models.User{
			Username: u.Username,
			Fullname: u.Fullname,
			Email:    u.Email,
			IsAdmin:  u.IsAdmin,
		})
	}
	return users
}

func convertDatabaseConfig(cfg *app.Config) database.Config {
	dbCfg := database.Config{
		Driver: strings.ToLower(strings.TrimSpace(cfg.Database.Driver)),
		Path:   strings.TrimSpace(cfg.Database.Path),
		DSN:    strings.TrimSpace(cfg.Database.DSN),
	}

	switch dbCfg.Driver {
	case "", "sqlite", "sqlite3":
		dbCfg.Driver = "sqlite"
	case "postgres", "postgresql":
		dbCfg.Driver = "postgres"
		dbCfg.Host = strings.TrimSpace(cfg.Database.Postgres.Host)
		dbCfg.Port = cfg.Database.Postgres.Port
		dbCfg.Name = strings.TrimSpace(cfg.Database.Postgres.Database)
		dbCfg.User = strings.TrimSpace(cfg.Database.Postgres.Username)
		dbCfg.Password = cfg.Database.Postgres.Password
	case "mysql":
		dbCfg.Host = strings.TrimSpace(cfg.Database.MySQL.Host)
		dbCfg.Port = cfg.Database.MySQL.Port
		dbCfg.Name = strings.TrimSpace(cfg.Database.MySQL.Database)
		dbCfg.User = strings.TrimSpace(cfg.Database.MySQL.Username)
		dbCfg.Password = cfg.Database.MySQL.Password
	}

	return dbCfg
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("failed to obtain underlying sql DB for closing", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
