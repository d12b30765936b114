package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/metastore-admin/internal/loaders"
	"github.com/charlesng35/metastore-admin/internal/metastore"
	"github.com/charlesng35/metastore-admin/internal/models"
	"github.com/charlesng35/metastore-admin/pkg/logger"
	"github.com/charlesng35/metastore-admin/pkg/metrics"
)

var (
	// ErrMetastoreNotFound indicates the requested metastore does not exist.
	ErrMetastoreNotFound = errors.New("metastore service: metastore not found")
	// ErrMetastoreExists indicates another metastore already uses the name.
	ErrMetastoreExists = errors.New("metastore service: metastore name already exists")
	// ErrMetastoreDeleted indicates the operation needs an active metastore.
	ErrMetastoreDeleted = errors.New("metastore service: metastore is deleted")
	// ErrMetastoreNotDeleted indicates recover was called on an active metastore.
	ErrMetastoreNotDeleted = errors.New("metastore service: metastore is not deleted")
)

// CreateMetastoreInput captures the user editable fields of a new metastore.
type CreateMetastoreInput struct {
	Name            string
	Loader          string
	MetastoreParams map[string]any
	ACLControl      metastore.ACLControl
}

// MetastoreService manages metastore configurations. Deletion is soft.
type MetastoreService struct {
	db      *gorm.DB
	loaders *loaders.Registry
	audit   *AuditService
	clock   clock.Clock
	log     *zap.Logger
}

// NewMetastoreService constructs the service once a database handle and a loader registry are supplied.
func NewMetastoreService(db *gorm.DB, registry *loaders.Registry, opts ...Option) (*MetastoreService, error) {
	if db == nil {
		return nil, errors.New("metastore service: db is required")
	}
	if registry == nil {
		return nil, errors.New("metastore service: loader registry is required")
	}
	cfg := applyOptions(opts)
	return &MetastoreService{
		db:      db,
		loaders: registry,
		audit:   cfg.audit,
		clock:   cfg.clock,
		log:     logger.WithModule("metastore"),
	}, nil
}

// Loaders returns the available loaders.
func (s *MetastoreService) Loaders() []metastore.Loader {
	return s.loaders.List()
}

// List returns every metastore, deleted ones included, by id.
func (s *MetastoreService) List(ctx context.Context) ([]metastore.Metastore, error) {
	ctx = ensureContext(ctx)

	var rows []models.QueryMetastore
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("metastore service: list: %w", err)
	}

	out := make([]metastore.Metastore, 0, len(rows))
	for i := range rows {
		m, err := toMetastore(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// Get returns one metastore, deleted or not.
func (s *MetastoreService) Get(ctx context.Context, id int64) (metastore.Metastore, error) {
	row, err := s.find(ensureContext(ctx), s.db, id)
	if err != nil {
		return metastore.Metastore{}, err
	}
	return toMetastore(row)
}

// Create validates and persists a metastore.
func (s *MetastoreService) Create(ctx context.Context, input CreateMetastoreInput, actor string) (m metastore.Metastore, err error) {
	ctx = ensureContext(ctx)
	defer func() { s.observe(ctx, metastore.ItemType, m.IDValue(), AuditActionCreate, actor, err) }()

	candidate := metastore.Metastore{
		Name:            strings.TrimSpace(input.Name),
		Loader:          strings.TrimSpace(input.Loader),
		MetastoreParams: input.MetastoreParams,
		ACLControl:      input.ACLControl,
	}
	if candidate.MetastoreParams == nil {
		candidate.MetastoreParams = map[string]any{}
	}
	if err := newValidationError(s.loaders.Validator().Validate(candidate)); err != nil {
		return metastore.Metastore{}, err
	}

	params, err := toJSON(candidate.MetastoreParams)
	if err != nil {
		return metastore.Metastore{}, fmt.Errorf("metastore service: %w", err)
	}
	acl, err := toJSON(candidate.ACLControl)
	if err != nil {
		return metastore.Metastore{}, fmt.Errorf("metastore service: %w", err)
	}

	now := s.clock.Now()
	row := models.QueryMetastore{
		BaseModel:       models.BaseModel{CreatedAt: now, UpdatedAt: now},
		Name:            candidate.Name,
		Loader:          candidate.Loader,
		MetastoreParams: params,
		ACLControl:      acl,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueConstraintError(err) {
			return metastore.Metastore{}, ErrMetastoreExists
		}
		return metastore.Metastore{}, fmt.Errorf("metastore service: create: %w", err)
	}

	s.log.Info("metastore created", zap.Int64("id", row.ID), zap.String("name", row.Name), zap.String("loader", row.Loader))
	return toMetastore(&row)
}

// Update applies a partial update. Only name, loader, metastore_params and
// acl_control are editable; other keys are ignored. The merged metastore is
// validated as a whole.
func (s *MetastoreService) Update(ctx context.Context, id int64, fields map[string]any, actor string) (m metastore.Metastore, err error) {
	ctx = ensureContext(ctx)
	defer func() { s.observe(ctx, metastore.ItemType, id, AuditActionUpdate, actor, err, changedKeys(fields)) }()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.find(ctx, tx, id)
		if err != nil {
			return err
		}
		if row.IsDeleted() {
			return ErrMetastoreDeleted
		}

		current, err := toMetastore(row)
		if err != nil {
			return err
		}
		merged, err := applyMetastoreFields(current, fields)
		if err != nil {
			return err
		}
		if err := newValidationError(s.loaders.Validator().Validate(merged)); err != nil {
			return err
		}

		params, err := toJSON(merged.MetastoreParams)
		if err != nil {
			return fmt.Errorf("metastore service: %w", err)
		}
		acl, err := toJSON(merged.ACLControl)
		if err != nil {
			return fmt.Errorf("metastore service: %w", err)
		}

		updates := map[string]any{
			"name":             merged.Name,
			"loader":           merged.Loader,
			"metastore_params": params,
			"acl_control":      acl,
			"updated_at":       s.clock.Now(),
		}
		if err := tx.Model(row).Updates(updates).Error; err != nil {
			if isUniqueConstraintError(err) {
				return ErrMetastoreExists
			}
			return fmt.Errorf("metastore service: update: %w", err)
		}

		reloaded, err := s.find(ctx, tx, id)
		if err != nil {
			return err
		}
		m, err = toMetastore(reloaded)
		return err
	})
	if err != nil {
		return metastore.Metastore{}, err
	}
	return m, nil
}

// Delete soft deletes a metastore by stamping deleted_at.
func (s *MetastoreService) Delete(ctx context.Context, id int64, actor string) (err error) {
	ctx = ensureContext(ctx)
	defer func() { s.observe(ctx, metastore.ItemType, id, AuditActionDelete, actor, err) }()

	row, err := s.find(ctx, s.db, id)
	if err != nil {
		return err
	}
	if row.IsDeleted() {
		return ErrMetastoreDeleted
	}

	now := s.clock.Now()
	if err := s.db.WithContext(ctx).Model(row).Updates(map[string]any{"deleted_at": now, "updated_at": now}).Error; err != nil {
		return fmt.Errorf("metastore service: delete: %w", err)
	}
	s.log.Info("metastore deleted", zap.Int64("id", id))
	return nil
}

// Recover clears deleted_at of a soft deleted metastore.
func (s *MetastoreService) Recover(ctx context.Context, id int64, actor string) (m metastore.Metastore, err error) {
	ctx = ensureContext(ctx)
	defer func() { s.observe(ctx, metastore.ItemType, id, AuditActionRecover, actor, err) }()

	row, err := s.find(ctx, s.db, id)
	if err != nil {
		return metastore.Metastore{}, err
	}
	if !row.IsDeleted() {
		return metastore.Metastore{}, ErrMetastoreNotDeleted
	}

	if err := s.db.WithContext(ctx).Model(row).Updates(map[string]any{"deleted_at": nil, "updated_at": s.clock.Now()}).Error; err != nil {
		return metastore.Metastore{}, fmt.Errorf("metastore service: recover: %w", err)
	}
	s.log.Info("metastore recovered", zap.Int64("id", id))
	return s.Get(ctx, id)
}

// MarkSynced records a completed refresh of an active metastore.
func (s *MetastoreService) MarkSynced(ctx context.Context, id int64) error {
	ctx = ensureContext(ctx)

	row, err := s.find(ctx, s.db, id)
	if err != nil {
		return err
	}
	if row.IsDeleted() {
		return ErrMetastoreDeleted
	}
	if err := s.db.WithContext(ctx).Model(row).UpdateColumn("last_synced_at", s.clock.Now()).Error; err != nil {
		return fmt.Errorf("metastore service: mark synced: %w", err)
	}
	return nil
}

// LastSyncedAt returns the unix time of the last refresh, nil when never synced.
func (s *MetastoreService) LastSyncedAt(ctx context.Context, id int64) (*int64, error) {
	row, err := s.find(ensureContext(ctx), s.db, id)
	if err != nil {
		return nil, err
	}
	return unixPtr(row.LastSyncedAt), nil
}

func (s *MetastoreService) find(ctx context.Context, db *gorm.DB, id int64) (*models.QueryMetastore, error) {
	var row models.QueryMetastore
	if err := db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMetastoreNotFound
		}
		return nil, fmt.Errorf("metastore service: load: %w", err)
	}
	return &row, nil
}

func (s *MetastoreService) observe(ctx context.Context, itemType string, id int64, action, actor string, err error, changed ...[]string) {
	metrics.MetastoreMutations.WithLabelValues(action, metrics.Result(err)).Inc()
	if err != nil {
		var verr *ValidationError
		if !errors.As(err, &verr) {
			s.log.Warn("metastore mutation failed", zap.String("action", action), zap.Int64("id", id), zap.Error(err))
		}
		return
	}
	var metadata map[string]any
	if len(changed) > 0 && len(changed[0]) > 0 {
		metadata = map[string]any{"fields": changed[0]}
	}
	recordAudit(s.audit, ctx, AuditEntry{
		ItemType: itemType,
		ItemID:   id,
		Action:   action,
		Username: actor,
		Result:   "success",
		Metadata: metadata,
	})
}

func toMetastore(row *models.QueryMetastore) (metastore.Metastore, error) {
	id := row.ID
	m := metastore.Metastore{
		ID:              &id,
		CreatedAt:       row.CreatedAt.Unix(),
		UpdatedAt:       row.UpdatedAt.Unix(),
		DeletedAt:       unixPtr(row.DeletedAt),
		Name:            row.Name,
		Loader:          row.Loader,
		MetastoreParams: map[string]any{},
	}
	if err := fromJSON(row.MetastoreParams, &m.MetastoreParams); err != nil {
		return metastore.Metastore{}, fmt.Errorf("metastore service: params of %d: %w", row.ID, err)
	}
	if err := fromJSON(row.ACLControl, &m.ACLControl); err != nil {
		return metastore.Metastore{}, fmt.Errorf("metastore service: acl of %d: %w", row.ID, err)
	}
	return m, nil
}

var editableMetastoreFields = []string{"name", "loader", "metastore_params", "acl_control"}

func applyMetastoreFields(m metastore.Metastore, fields map[string]any) (metastore.Metastore, error) {
	out := m.Clone()
	invalid := map[string]string{}

	if v, ok := fields["name"]; ok {
		if name, isString := v.(string); isString {
			out.Name = strings.TrimSpace(name)
		} else {
			invalid[metastore.FieldName] = "Name must be a string"
		}
	}
	if v, ok := fields["loader"]; ok {
		if loader, isString := v.(string); isString {
			out.Loader = strings.TrimSpace(loader)
		} else {
			invalid[metastore.FieldLoader] = "Invalid loader"
		}
	}
	if v, ok := fields["metastore_params"]; ok {
		switch params := v.(type) {
		case map[string]any:
			out.MetastoreParams = params
		case nil:
			out.MetastoreParams = map[string]any{}
		default:
			invalid[metastore.FieldParams] = "Loader params must be an object"
		}
	}
	if v, ok := fields["acl_control"]; ok {
		raw, err := json.Marshal(v)
		if err != nil {
			return metastore.Metastore{}, fmt.Errorf("metastore service: encode acl: %w", err)
		}
		var acl metastore.ACLControl
		if err := json.Unmarshal(raw, &acl); err != nil {
			invalid[metastore.FieldACLControl] = "Invalid acl control"
		} else {
			out.ACLControl = acl
		}
	}

	if err := newValidationError(invalid); err != nil {
		return metastore.Metastore{}, err
	}
	return out, nil
}

func changedKeys(fields map[string]any) []string {
	var keys []string
	for _, key := range editableMetastoreFields {
		if _, ok := fields[key]; ok {
			keys = append(keys, key)
		}
	}
	return keys
}
