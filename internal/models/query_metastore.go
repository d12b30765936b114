package models

import (
	"time"

	"gorm.io/datatypes"
)

// QueryMetastore is a persisted metastore configuration. Deletion is soft:
// DeletedAt is set and cleared by recover, and deleted rows stay listable.
type QueryMetastore struct {
	BaseModel

	Name            string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Loader          string         `gorm:"type:varchar(128);not null" json:"loader"`
	MetastoreParams datatypes.JSON `json:"metastore_params"`
	ACLControl      datatypes.JSON `json:"acl_control"`
	DeletedAt       *time.Time     `gorm:"index" json:"deleted_at"`
	LastSyncedAt    *time.Time     `json:"last_synced_at"`
}

// TableName pins the table name.
func (QueryMetastore) TableName() string { return "query_metastores" }

// IsDeleted reports whether the metastore is soft deleted.
func (m *QueryMetastore) IsDeleted() bool { return m != nil && m.DeletedAt != nil }
