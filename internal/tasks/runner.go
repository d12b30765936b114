package tasks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/charlesng35/metastore-admin/internal/metastore"
	"github.com/charlesng35/metastore-admin/pkg/logger"
	"github.com/charlesng35/metastore-admin/pkg/metrics"
	"github.com/charlesng35/metastore-admin/pkg/validator"
)

// ErrUnknownTask is returned when a schedule names a task nobody registered.
var ErrUnknownTask = errors.New("tasks: unknown task")

// Handler executes one run of a task with the schedule's args.
type Handler func(ctx context.Context, args []any) error

// ScheduleSource provides the schedules to run and records their runs.
type ScheduleSource interface {
	ListEnabled(ctx context.Context) ([]metastore.Schedule, error)
	MarkRun(ctx context.Context, id int64) error
}

// Runner keeps a cron scheduler in step with the enabled schedules.
type Runner struct {
	source ScheduleSource
	cron   *cron.Cron
	log    *zap.Logger

	mu       sync.Mutex
	handlers map[string]Handler
	entries  map[string]cron.EntryID
	failures map[string]int
}

// Option customises the Runner.
type Option func(*Runner)

// WithCron injects a preconfigured cron instance.
func WithCron(c *cron.Cron) Option {
	return func(r *Runner) {
		if c != nil {
			r.cron = c
		}
	}
}

// NewRunner constructs a Runner reading schedules from source.
func NewRunner(source ScheduleSource, opts ...Option) (*Runner, error) {
	if source == nil {
		return nil, errors.New("tasks: schedule source is required")
	}
	r := &Runner{
		source:   source,
		log:      logger.WithModule("tasks"),
		handlers: map[string]Handler{},
		entries:  map[string]cron.EntryID{},
		failures: map[string]int{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.cron == nil {
		r.cron = cron.New(cron.WithParser(validator.CronParser), cron.WithLogger(cron.DiscardLogger))
	}
	return r, nil
}

// Register binds a task name to its handler.
func (r *Runner) Register(task string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[task] = handler
}

// Reload replaces every cron entry with the current enabled schedules.
// Schedules that cannot be registered are skipped and reported together.
func (r *Runner) Reload(ctx context.Context) error {
	schedules, err := r.source.ListEnabled(ctx)
	if err != nil {
		return fmt.Errorf("tasks: list schedules: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for name, id := range r.entries {
		r.cron.Remove(id)
		delete(r.entries, name)
	}

	var errs error
	for _, schedule := range schedules {
		if _, ok := r.handlers[schedule.Task]; !ok {
			errs = multierr.Append(errs, fmt.Errorf("%w: %s (schedule %s)", ErrUnknownTask, schedule.Task, schedule.Name))
			continue
		}
		schedule := schedule
		id, err := r.cron.AddFunc(schedule.Cron, func() {
			_ = r.Run(context.Background(), schedule)
		})
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("tasks: schedule %s: %w", schedule.Name, err))
			continue
		}
		r.entries[schedule.Name] = id
	}

	for name := range r.failures {
		if _, ok := r.entries[name]; !ok {
			delete(r.failures, name)
		}
	}

	metrics.ScheduledJobs.Set(float64(len(r.entries)))
	if errs != nil {
		r.log.Warn("some schedules were not registered", zap.Error(errs))
	}
	return errs
}

// Run executes one schedule immediately and records the run.
func (r *Runner) Run(ctx context.Context, schedule metastore.Schedule) error {
	r.mu.Lock()
	handler, ok := r.handlers[schedule.Task]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, schedule.Task)
	}

	err := handler(ctx, schedule.Args)
	metrics.ScheduleRuns.WithLabelValues(schedule.Task, metrics.Result(err)).Inc()

	r.mu.Lock()
	if err != nil {
		r.failures[schedule.Name]++
	} else {
		delete(r.failures, schedule.Name)
	}
	r.mu.Unlock()

	if err != nil {
		r.log.Warn("scheduled task failed", zap.String("schedule", schedule.Name), zap.Error(err))
	} else {
		r.log.Debug("scheduled task finished", zap.String("schedule", schedule.Name))
	}

	if schedule.ID != nil {
		if markErr := r.source.MarkRun(ctx, *schedule.ID); markErr != nil {
			err = multierr.Append(err, markErr)
		}
	}
	return err
}

// Scheduled returns the names of the schedules currently registered.
func (r *Runner) Scheduled() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	return names
}

// Failing returns the schedules whose most recent run failed, sorted by name.
func (r *Runner) Failing() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.failures))
	for name := range r.failures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Start launches the scheduler.
func (r *Runner) Start() {
	r.cron.Start()
}

// Stop halts the scheduler, waiting for any running jobs to complete.
func (r *Runner) Stop() context.Context {
	return r.cron.Stop()
}
