package models

import (
	"gorm.io/gorm"
)

// User is an account that can be picked through user search.
type User struct {
	BaseModel

	Username string `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"`
	Fullname string `gorm:"type:varchar(255)" json:"fullname"`
	Email    string `gorm:"type:varchar(255);index" json:"email"`
	IsAdmin  bool   `gorm:"default:false" json:"is_admin"`
	IsActive bool   `gorm:"default:true" json:"is_active"`

	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
