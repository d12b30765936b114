package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("testdata"))
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "console", cfg.Log.Format)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "db.example.com", cfg.Database.Postgres.Host)
	require.Equal(t, 5432, cfg.Database.Postgres.Port)
	require.Equal(t, "querybook", cfg.Database.Postgres.Database)

	require.Equal(t, "admin-secret", cfg.Auth.AdminSecret)
	require.Equal(t, "metastore-admin", cfg.Auth.Issuer)
	require.False(t, cfg.Scheduler.Enabled)
	require.Equal(t, 30, cfg.Audit.RetentionDays)
	require.Equal(t, "@daily", cfg.Audit.CleanupSpec)
	require.Equal(t, []string{"/etc/metastore-admin/loaders.json"}, cfg.Loaders.Files)

	require.Len(t, cfg.Seed.Users, 2)
	require.Equal(t, "alice", cfg.Seed.Users[0].Username)
	require.True(t, cfg.Seed.Users[0].IsAdmin)
	require.Equal(t, "bob", cfg.Seed.Users[1].Username)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Empty(t, cfg.Auth.AdminSecret)
	require.True(t, cfg.Scheduler.Enabled)
	require.Equal(t, 90, cfg.Audit.RetentionDays)
	require.Equal(t, 10, cfg.Search.UserLimit)
	require.Equal(t, 30*time.Second, cfg.Client.Timeout)
	require.True(t, cfg.Monitoring.Prometheus.Enabled)
	require.Equal(t, "/metrics", cfg.Monitoring.Prometheus.Endpoint)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("METASTORE_ADMIN_SERVER_PORT", "9191")
	t.Setenv("METASTORE_ADMIN_AUTH_ADMIN_SECRET", "from-env")
	t.Setenv("METASTORE_ADMIN_LOADERS_FILES", "a.json,b.json")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, 9191, cfg.Server.Port)
	require.Equal(t, "from-env", cfg.Auth.AdminSecret)
	require.Equal(t, []string{"a.json", "b.json"}, cfg.Loaders.Files)
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{Server: ServerConfig{Port: 8000}, Database: DatabaseConfig{Driver: "sqlite"}}
	require.NoError(t, cfg.Validate())

	cfg.Database.Driver = "oracle"
	require.Error(t, cfg.Validate())

	cfg.Database.Driver = "mysql"
	cfg.Server.Port = 0
	require.Error(t, cfg.Validate())

	cfg.Server.Port = 8000
	cfg.Audit.RetentionDays = -1
	require.Error(t, cfg.Validate())
}
