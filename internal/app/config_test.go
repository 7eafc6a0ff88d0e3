package app

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "info", cfg.Server.LogLevel)
	require.Equal(t, "sqlite", cfg.Database.Driver)

	require.Equal(t, 30, cfg.Notifications.RetentionDays)
	require.True(t, cfg.Notifications.CleanupEnabled)
	require.Equal(t, 5, cfg.Notifications.BatchWindowMinutes)
	require.Equal(t, "0 3 * * *", cfg.Notifications.CleanupSchedule)
	require.Equal(t, "*/5 * * * *", cfg.Notifications.SweepSchedule)

	require.True(t, cfg.Monitoring.Prometheus.Enabled)
	require.Equal(t, "/metrics", cfg.Monitoring.Prometheus.Endpoint)
}

func TestLoadConfigHonoursLegacyRetentionEnv(t *testing.T) {
	t.Setenv("NOTIFICATION_RETENTION_DAYS", "90")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, 90, cfg.Notifications.RetentionDays)
}

func TestLoadConfigIgnoresInvalidLegacyRetention(t *testing.T) {
	t.Setenv("NOTIFICATION_RETENTION_DAYS", "not-a-number")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, 30, cfg.Notifications.RetentionDays)

	t.Setenv("NOTIFICATION_RETENTION_DAYS", "-5")

	cfg, err = LoadConfig(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, 30, cfg.Notifications.RetentionDays)
}

func TestLoadConfigCleanupDisabledOnlyByLiteralFalse(t *testing.T) {
	t.Setenv("NOTIFICATION_CLEANUP_ENABLED", "false")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	require.False(t, cfg.Notifications.CleanupEnabled)

	// Any other value keeps the job enabled.
	t.Setenv("NOTIFICATION_CLEANUP_ENABLED", "0")

	cfg, err = LoadConfig(t.TempDir())
	require.NoError(t, err)
	require.True(t, cfg.Notifications.CleanupEnabled)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("ASSETDESK_SERVER_PORT", "9090")
	t.Setenv("ASSETDESK_NOTIFICATIONS_BATCH_WINDOW_MINUTES", "10")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, 10, cfg.Notifications.BatchWindowMinutes)
}
