package metastore

import (
	"context"
	"fmt"
	"sync"

	"github.com/charlesng35/metastore-admin/internal/fetch"
)

// Defaults used when offering a new update schedule.
const (
	UpdateTaskName      = "tasks.update_metastore.update_metastore"
	DefaultScheduleCron = "0 0 * * *"
	DefaultTaskType     = "prod"
)

// Schedule is a cron based recurring task configuration.
type Schedule struct {
	ID       *int64 `json:"id,omitempty"`
	Cron     string `json:"cron"`
	Name     string `json:"name"`
	Task     string `json:"task"`
	TaskType string `json:"task_type"`
	Enabled  bool   `json:"enabled"`
	Args     []any  `json:"args"`
}

// ScheduleName derives the schedule name of a metastore's refresh job.
func ScheduleName(metastoreID int64) string {
	return fmt.Sprintf("update_metastore_%d", metastoreID)
}

// DefaultSchedule is the schedule offered when none exists yet.
func DefaultSchedule(metastoreID int64) Schedule {
	return Schedule{
		Cron:     DefaultScheduleCron,
		Name:     ScheduleName(metastoreID),
		Task:     UpdateTaskName,
		TaskType: DefaultTaskType,
		Enabled:  true,
		Args:     []any{metastoreID},
	}
}

// ScheduleSection manages the lazily created refresh schedule of one
// metastore. Its editor reveal is a one-way latch: once revealed, by the user
// or by observing a persisted schedule, it stays revealed.
type ScheduleSection struct {
	metastoreID int64
	data        *fetch.DataFetch[*Schedule]

	mu       sync.Mutex
	revealed bool
}

// NewScheduleSection builds the section; get fetches a schedule by name and
// returns nil when none exists.
func NewScheduleSection(metastoreID int64, get func(ctx context.Context, name string) (*Schedule, error)) *ScheduleSection {
	name := ScheduleName(metastoreID)
	return &ScheduleSection{
		metastoreID: metastoreID,
		data: fetch.New(func(ctx context.Context) (*Schedule, error) {
			return get(ctx, name)
		}),
	}
}

// Load fetches the schedule once and latches the editor open if it exists.
func (s *ScheduleSection) Load(ctx context.Context) error {
	schedule, err := s.data.Fetch(ctx)
	if err != nil {
		return err
	}
	s.observe(schedule)
	return nil
}

// Reload refetches the schedule, used after the editor created one.
func (s *ScheduleSection) Reload(ctx context.Context) error {
	schedule, err := s.data.ForceFetch(ctx)
	if err != nil {
		return err
	}
	s.observe(schedule)
	return nil
}

func (s *ScheduleSection) observe(schedule *Schedule) {
	if schedule != nil && schedule.ID != nil {
		s.Reveal()
	}
}

// Reveal opens the editor. There is no way back.
func (s *ScheduleSection) Reveal() {
	s.mu.Lock()
	s.revealed = true
	s.mu.Unlock()
}

// Revealed reports whether the editor is shown instead of the create button.
func (s *ScheduleSection) Revealed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revealed
}

// Task returns the persisted schedule, or the default one to be created.
func (s *ScheduleSection) Task() Schedule {
	if schedule, ok := s.data.Data(); ok && schedule != nil {
		return *schedule
	}
	return DefaultSchedule(s.metastoreID)
}
