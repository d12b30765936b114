package database

import (
	"strings"

	"gorm.io/gorm"

	"github.com/charlesng35/metastore-admin/internal/models"
)

// Seed lists records created on start-up when missing.
type Seed struct {
	Users []models.User
}

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.QueryMetastore{},
		&models.TaskSchedule{},
		&models.AuditLog{},
	)
}

// SeedData inserts the seed users, matching existing rows by username.
func SeedData(db *gorm.DB, seed Seed) error {
	for _, user := range seed.Users {
		user.Username = strings.TrimSpace(user.Username)
		if user.Username == "" {
			continue
		}
		user.IsActive = true
		if err := db.Where(models.User{Username: user.Username}).Attrs(user).FirstOrCreate(&models.User{}).Error; err != nil {
			return err
		}
	}
	return nil
}
