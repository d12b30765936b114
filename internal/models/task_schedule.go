package models

import (
	"time"

	"gorm.io/datatypes"
)

// TaskSchedule is a cron driven recurring task.
type TaskSchedule struct {
	BaseModel

	Name      string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Cron      string         `gorm:"type:varchar(64);not null" json:"cron"`
	Task      string         `gorm:"type:varchar(255);not null;index" json:"task"`
	TaskType  string         `gorm:"type:varchar(32);not null;default:prod" json:"task_type"`
	Enabled   bool           `gorm:"not null" json:"enabled"`
	Args      datatypes.JSON `json:"args"`
	LastRunAt *time.Time     `json:"last_run_at"`
}
