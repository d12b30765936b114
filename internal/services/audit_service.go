package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"gorm.io/gorm"

	"github.com/charlesng35/metastore-admin/internal/models"
)

// Audit actions recorded for admin mutations.
const (
	AuditActionCreate  = "create"
	AuditActionUpdate  = "update"
	AuditActionDelete  = "delete"
	AuditActionRecover = "recover"
)

// AuditEntry captures a single audit event to persist.
type AuditEntry struct {
	ItemType string
	ItemID   int64
	Action   string
	Username string
	Result   string
	Metadata map[string]any
}

// AuditFilters narrows audit queries. Zero values do not filter.
type AuditFilters struct {
	ItemType string
	ItemID   int64
	Action   string
	Limit    int
}

// AuditService persists and retrieves audit log entries.
type AuditService struct {
	db    *gorm.DB
	clock clock.Clock
}

// NewAuditService constructs an AuditService using the provided database handle.
func NewAuditService(db *gorm.DB, opts ...Option) (*AuditService, error) {
	if db == nil {
		return nil, errors.New("audit service: db is required")
	}
	cfg := applyOptions(opts)
	return &AuditService{db: db, clock: cfg.clock}, nil
}

// Log stores an audit entry, marshalling metadata into JSON form.
func (s *AuditService) Log(ctx context.Context, entry AuditEntry) error {
	ctx = ensureContext(ctx)

	if strings.TrimSpace(entry.ItemType) == "" {
		return errors.New("audit service: item type is required")
	}
	if strings.TrimSpace(entry.Action) == "" {
		return errors.New("audit service: action is required")
	}
	result := strings.TrimSpace(entry.Result)
	if result == "" {
		result = "success"
	}

	var metadata map[string]any
	if entry.Metadata != nil {
		metadata = entry.Metadata
	}
	payload, err := toJSON(metadata)
	if err != nil {
		return fmt.Errorf("audit service: %w", err)
	}

	log := models.AuditLog{
		ItemType:  strings.TrimSpace(entry.ItemType),
		ItemID:    entry.ItemID,
		Action:    strings.TrimSpace(entry.Action),
		Username:  strings.TrimSpace(entry.Username),
		Result:    result,
		Metadata:  payload,
		CreatedAt: s.clock.Now(),
	}
	return s.db.WithContext(ctx).Create(&log).Error
}

// List returns audit logs ordered by creation time descending.
func (s *AuditService) List(ctx context.Context, filters AuditFilters) ([]models.AuditLog, error) {
	ctx = ensureContext(ctx)

	limit := filters.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := s.db.WithContext(ctx).Model(&models.AuditLog{})
	if filters.ItemType != "" {
		query = query.Where("item_type = ?", filters.ItemType)
	}
	if filters.ItemID != 0 {
		query = query.Where("item_id = ?", filters.ItemID)
	}
	if filters.Action != "" {
		query = query.Where("action = ?", filters.Action)
	}

	var logs []models.AuditLog
	if err := query.Order("created_at DESC").Limit(limit).Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("audit service: list logs: %w", err)
	}
	return logs, nil
}

// CleanupOlderThan removes audit logs older than the supplied retention window (in days).
func (s *AuditService) CleanupOlderThan(ctx context.Context, retentionDays int) (int64, error) {
	ctx = ensureContext(ctx)

	if retentionDays <= 0 {
		return 0, errors.New("audit service: retentionDays must be positive")
	}

	cutoff := s.clock.Now().Add(-time.Duration(retentionDays) * 24 * time.Hour)

	result := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.AuditLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("audit service: cleanup logs: %w", result.Error)
	}

	return result.RowsAffected, nil
}

// recordAudit logs the supplied entry while tolerating audit failures.
func recordAudit(audit *AuditService, ctx context.Context, entry AuditEntry) {
	if audit == nil {
		return
	}
	_ = audit.Log(ctx, entry)
}
