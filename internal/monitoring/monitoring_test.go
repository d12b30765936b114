package monitoring_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	testutil "github.com/charlesng35/metastore-admin/internal/database/testutil"
	"github.com/charlesng35/metastore-admin/internal/monitoring"
)

type failing []string

func (f failing) Failing() []string { return f }

func TestEvaluateReportsWorstStatus(t *testing.T) {
	mgr := monitoring.NewHealthManager(
		monitoring.Check{Name: "up", Probe: func(context.Context) (monitoring.ProbeStatus, string) {
			return monitoring.StatusUp, ""
		}},
		monitoring.Scheduler(failing{"update_metastore_1"}),
	)

	report := mgr.Evaluate(context.Background())
	require.Equal(t, monitoring.StatusDegraded, report.Status)
	require.False(t, report.Healthy())
	require.Len(t, report.Checks, 2)
	require.Equal(t, "scheduler", report.Checks[1].Component)
	require.Contains(t, report.Checks[1].Details, "update_metastore_1")

	mgr.Register(monitoring.Check{Name: "boom", Probe: func(context.Context) (monitoring.ProbeStatus, string) {
		panic("exploded")
	}})
	report = mgr.Evaluate(context.Background())
	require.Equal(t, monitoring.StatusDown, report.Status)
	require.Equal(t, "exploded", report.Checks[2].Details)
}

func TestRegisterIgnoresIncompleteChecks(t *testing.T) {
	mgr := monitoring.NewHealthManager(monitoring.Check{Name: "no-probe"}, monitoring.Check{})
	report := mgr.Evaluate(context.Background())
	require.True(t, report.Healthy())
	require.Empty(t, report.Checks)
}

func TestDatabaseCheck(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	mgr := monitoring.NewHealthManager(monitoring.Database(db, 0), monitoring.Scheduler(nil))
	report := mgr.Evaluate(context.Background())
	require.True(t, report.Healthy(), "%+v", report)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	report = mgr.Evaluate(context.Background())
	require.Equal(t, monitoring.StatusDown, report.Status)
	require.Equal(t, "database", report.Checks[0].Component)

	report = monitoring.NewHealthManager(monitoring.Database(nil, 0)).Evaluate(context.Background())
	require.Equal(t, monitoring.StatusDown, report.Status)
}

func TestStatusFromError(t *testing.T) {
	status, details := monitoring.StatusFromError(nil)
	require.Equal(t, monitoring.StatusUp, status)
	require.Empty(t, details)

	status, _ = monitoring.StatusFromError(context.DeadlineExceeded)
	require.Equal(t, monitoring.StatusDegraded, status)
}
