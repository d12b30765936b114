package monitoring

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ProbeStatus encodes the outcome of a health probe.
type ProbeStatus string

const (
	StatusUp       ProbeStatus = "up"
	StatusDown     ProbeStatus = "down"
	StatusDegraded ProbeStatus = "degraded"
)

// ProbeResult captures a single dependency check outcome.
type ProbeResult struct {
	Component  string      `json:"component"`
	Status     ProbeStatus `json:"status"`
	Details    string      `json:"details,omitempty"`
	DurationMS int64       `json:"duration_ms"`
}

// HealthReport aggregates the probe results of one evaluation.
type HealthReport struct {
	Status ProbeStatus   `json:"status"`
	Checks []ProbeResult `json:"checks"`
}

// Healthy reports whether every probe was up.
func (r HealthReport) Healthy() bool {
	return r.Status == StatusUp
}

// Probe performs one dependency check.
type Probe func(ctx context.Context) (ProbeStatus, string)

// Check is a named probe.
type Check struct {
	Name  string
	Probe Probe
}

// HealthManager runs the registered checks on demand.
type HealthManager struct {
	mu     sync.RWMutex
	checks []Check
}

// NewHealthManager constructs a manager holding checks.
func NewHealthManager(checks ...Check) *HealthManager {
	m := &HealthManager{}
	for _, c := range checks {
		m.Register(c)
	}
	return m
}

// Register appends a check. Checks without a name or probe are ignored.
func (m *HealthManager) Register(check Check) {
	if check.Name == "" || check.Probe == nil {
		return
	}
	m.mu.Lock()
	m.checks = append(m.checks, check)
	m.mu.Unlock()
}

// Evaluate runs every check in registration order. The report carries the
// worst status observed.
func (m *HealthManager) Evaluate(ctx context.Context) HealthReport {
	m.mu.RLock()
	checks := append([]Check(nil), m.checks...)
	m.mu.RUnlock()

	report := HealthReport{Status: StatusUp, Checks: make([]ProbeResult, 0, len(checks))}
	for _, check := range checks {
		result := runCheck(ctx, check)
		report.Checks = append(report.Checks, result)
		report.Status = worstStatus(report.Status, result.Status)
	}
	return report
}

func runCheck(ctx context.Context, check Check) (result ProbeResult) {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	result.Component = check.Name

	defer func() {
		if rec := recover(); rec != nil {
			result.Status = StatusDown
			result.Details = fmt.Sprint(rec)
		}
		result.DurationMS = time.Since(start).Milliseconds()
	}()

	result.Status, result.Details = check.Probe(ctx)
	if result.Status == "" {
		result.Status = StatusDown
	}
	return result
}

// StatusFromError maps a probe error to a status. Timeouts and cancellations
// degrade rather than fail.
func StatusFromError(err error) (ProbeStatus, string) {
	if err == nil {
		return StatusUp, ""
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return StatusDegraded, err.Error()
	}
	return StatusDown, err.Error()
}

func worstStatus(current, candidate ProbeStatus) ProbeStatus {
	if current == StatusDown || candidate == StatusDown {
		return StatusDown
	}
	if current == StatusDegraded || candidate == StatusDegraded {
		return StatusDegraded
	}
	return StatusUp
}
