package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/metastore-admin/internal/metastore"
	"github.com/charlesng35/metastore-admin/internal/models"
	"github.com/charlesng35/metastore-admin/pkg/logger"
	"github.com/charlesng35/metastore-admin/pkg/validator"
)

// ScheduleItemType is the audit item type of task schedules.
const ScheduleItemType = "task_schedule"

var (
	// ErrScheduleNotFound indicates the requested schedule does not exist.
	ErrScheduleNotFound = errors.New("schedule service: schedule not found")
	// ErrScheduleExists indicates another schedule already uses the name.
	ErrScheduleExists = errors.New("schedule service: schedule name already exists")
)

// ScheduleInput is the payload of a schedule create.
type ScheduleInput struct {
	Name     string `json:"name" validate:"required,max=255"`
	Cron     string `json:"cron" validate:"required,cron"`
	Task     string `json:"task" validate:"required,max=255"`
	TaskType string `json:"task_type" validate:"omitempty,max=32"`
	Enabled  bool   `json:"enabled"`
	Args     []any  `json:"args"`
}

// ScheduleUpdate carries the fields of a partial schedule update. Nil fields
// are left unchanged.
type ScheduleUpdate struct {
	Cron     *string `json:"cron" validate:"omitempty,cron"`
	Task     *string `json:"task" validate:"omitempty,max=255"`
	TaskType *string `json:"task_type" validate:"omitempty,max=32"`
	Enabled  *bool   `json:"enabled"`
	Args     *[]any  `json:"args"`
}

// ScheduleChangeFunc is notified after a schedule is created or updated.
type ScheduleChangeFunc func(ctx context.Context)

// ScheduleService persists cron task schedules.
type ScheduleService struct {
	db       *gorm.DB
	audit    *AuditService
	clock    clock.Clock
	log      *zap.Logger
	onChange []ScheduleChangeFunc
}

// NewScheduleService constructs a ScheduleService.
func NewScheduleService(db *gorm.DB, opts ...Option) (*ScheduleService, error) {
	if db == nil {
		return nil, errors.New("schedule service: db is required")
	}
	cfg := applyOptions(opts)
	return &ScheduleService{
		db:    db,
		audit: cfg.audit,
		clock: cfg.clock,
		log:   logger.WithModule("schedule"),
	}, nil
}

// OnChange registers fn to run after every successful write.
func (s *ScheduleService) OnChange(fn ScheduleChangeFunc) {
	if fn != nil {
		s.onChange = append(s.onChange, fn)
	}
}

// GetByName returns the named schedule, or nil when it does not exist.
func (s *ScheduleService) GetByName(ctx context.Context, name string) (*metastore.Schedule, error) {
	ctx = ensureContext(ctx)

	var row models.TaskSchedule
	err := s.db.WithContext(ctx).First(&row, "name = ?", strings.TrimSpace(name)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("schedule service: get by name: %w", err)
	}

	schedule, err := toSchedule(&row)
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

// Get returns a schedule by id.
func (s *ScheduleService) Get(ctx context.Context, id int64) (metastore.Schedule, error) {
	row, err := s.find(ensureContext(ctx), id)
	if err != nil {
		return metastore.Schedule{}, err
	}
	return toSchedule(row)
}

// Create validates and stores a new schedule.
func (s *ScheduleService) Create(ctx context.Context, input ScheduleInput, actor string) (metastore.Schedule, error) {
	ctx = ensureContext(ctx)

	input.Name = strings.TrimSpace(input.Name)
	input.Cron = strings.TrimSpace(input.Cron)
	input.Task = strings.TrimSpace(input.Task)
	if err := validateSchedule(input); err != nil {
		return metastore.Schedule{}, err
	}
	if input.TaskType == "" {
		input.TaskType = metastore.DefaultTaskType
	}
	if input.Args == nil {
		input.Args = []any{}
	}

	args, err := toJSON(input.Args)
	if err != nil {
		return metastore.Schedule{}, fmt.Errorf("schedule service: %w", err)
	}

	now := s.clock.Now()
	row := models.TaskSchedule{
		BaseModel: models.BaseModel{CreatedAt: now, UpdatedAt: now},
		Name:      input.Name,
		Cron:      input.Cron,
		Task:      input.Task,
		TaskType:  input.TaskType,
		Enabled:   input.Enabled,
		Args:      args,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueConstraintError(err) {
			return metastore.Schedule{}, ErrScheduleExists
		}
		return metastore.Schedule{}, fmt.Errorf("schedule service: create: %w", err)
	}

	s.log.Info("schedule created", zap.String("name", row.Name), zap.String("cron", row.Cron))
	recordAudit(s.audit, ctx, AuditEntry{ItemType: ScheduleItemType, ItemID: row.ID, Action: AuditActionCreate, Username: actor})
	s.notify(ctx)
	return toSchedule(&row)
}

// Update applies a partial update to the schedule with the given id.
func (s *ScheduleService) Update(ctx context.Context, id int64, input ScheduleUpdate, actor string) (metastore.Schedule, error) {
	ctx = ensureContext(ctx)

	if input.Cron != nil {
		trimmed := strings.TrimSpace(*input.Cron)
		input.Cron = &trimmed
	}
	if err := validateSchedule(input); err != nil {
		return metastore.Schedule{}, err
	}

	row, err := s.find(ctx, id)
	if err != nil {
		return metastore.Schedule{}, err
	}

	updates := map[string]any{"updated_at": s.clock.Now()}
	if input.Cron != nil {
		updates["cron"] = *input.Cron
	}
	if input.Task != nil && strings.TrimSpace(*input.Task) != "" {
		updates["task"] = strings.TrimSpace(*input.Task)
	}
	if input.TaskType != nil && strings.TrimSpace(*input.TaskType) != "" {
		updates["task_type"] = strings.TrimSpace(*input.TaskType)
	}
	if input.Enabled != nil {
		updates["enabled"] = *input.Enabled
	}
	if input.Args != nil {
		args, err := toJSON(*input.Args)
		if err != nil {
			return metastore.Schedule{}, fmt.Errorf("schedule service: %w", err)
		}
		updates["args"] = args
	}

	if err := s.db.WithContext(ctx).Model(row).Updates(updates).Error; err != nil {
		return metastore.Schedule{}, fmt.Errorf("schedule service: update: %w", err)
	}

	recordAudit(s.audit, ctx, AuditEntry{ItemType: ScheduleItemType, ItemID: id, Action: AuditActionUpdate, Username: actor})
	s.notify(ctx)
	return s.Get(ctx, id)
}

// ListEnabled returns every enabled schedule ordered by id.
func (s *ScheduleService) ListEnabled(ctx context.Context) ([]metastore.Schedule, error) {
	ctx = ensureContext(ctx)

	var rows []models.TaskSchedule
	if err := s.db.WithContext(ctx).Where("enabled = ?", true).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("schedule service: list enabled: %w", err)
	}

	out := make([]metastore.Schedule, 0, len(rows))
	for i := range rows {
		schedule, err := toSchedule(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, schedule)
	}
	return out, nil
}

// MarkRun stamps the last run time of a schedule.
func (s *ScheduleService) MarkRun(ctx context.Context, id int64) error {
	ctx = ensureContext(ctx)
	result := s.db.WithContext(ctx).Model(&models.TaskSchedule{}).Where("id = ?", id).UpdateColumn("last_run_at", s.clock.Now())
	if result.Error != nil {
		return fmt.Errorf("schedule service: mark run: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrScheduleNotFound
	}
	return nil
}

func (s *ScheduleService) find(ctx context.Context, id int64) (*models.TaskSchedule, error) {
	var row models.TaskSchedule
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotFound
		}
		return nil, fmt.Errorf("schedule service: load: %w", err)
	}
	return &row, nil
}

func (s *ScheduleService) notify(ctx context.Context) {
	for _, fn := range s.onChange {
		fn(ctx)
	}
}

func validateSchedule(input any) error {
	err := validator.ValidateStruct(input)
	if err == nil {
		return nil
	}
	var failures validator.ValidationErrors
	if errors.As(err, &failures) {
		return newValidationError(failures.Fields())
	}
	return fmt.Errorf("schedule service: validate: %w", err)
}

func toSchedule(row *models.TaskSchedule) (metastore.Schedule, error) {
	id := row.ID
	schedule := metastore.Schedule{
		ID:       &id,
		Cron:     row.Cron,
		Name:     row.Name,
		Task:     row.Task,
		TaskType: row.TaskType,
		Enabled:  row.Enabled,
		Args:     []any{},
	}
	if err := fromJSON(row.Args, &schedule.Args); err != nil {
		return metastore.Schedule{}, fmt.Errorf("schedule service: args of %d: %w", row.ID, err)
	}
	return schedule, nil
}
