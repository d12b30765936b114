package monitoring

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
)

const defaultDatabaseTimeout = 2 * time.Second

// Database returns a check that pings the database handle.
func Database(db *gorm.DB, timeout time.Duration) Check {
	if timeout <= 0 {
		timeout = defaultDatabaseTimeout
	}
	return Check{Name: "database", Probe: func(ctx context.Context) (ProbeStatus, string) {
		if db == nil {
			return StatusDown, "database not configured"
		}
		sqlDB, err := db.DB()
		if err != nil {
			return StatusFromError(err)
		}
		probeCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return StatusFromError(sqlDB.PingContext(probeCtx))
	}}
}

// FailureReporter lists the jobs whose most recent run failed.
type FailureReporter interface {
	Failing() []string
}

// Scheduler returns a check that degrades while any scheduled job is failing.
// A nil reporter means scheduling is disabled.
func Scheduler(reporter FailureReporter) Check {
	return Check{Name: "scheduler", Probe: func(context.Context) (ProbeStatus, string) {
		if reporter == nil {
			return StatusUp, "scheduler disabled"
		}
		failing := reporter.Failing()
		if len(failing) == 0 {
			return StatusUp, ""
		}
		return StatusDegraded, "failing: " + strings.Join(failing, ", ")
	}}
}
