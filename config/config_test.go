package config

import (
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/mmk-sweeper/internal/domain/model"
)

func parseEnv(t *testing.T, vars map[string]string) AppConfig {
	t.Helper()
	var cfg AppConfig
	require.NoError(t, env.ParseWithOptions(&cfg, env.Options{Environment: vars}))
	cfg.Sanitize()
	return cfg
}

func TestAppConfig_Defaults(t *testing.T) {
	cfg := parseEnv(t, map[string]string{})

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, StoreBackendRedis, cfg.Store.Backend)
	assert.Equal(t, "hangfire:", cfg.Store.KeyPrefix)
	assert.Equal(t, "localhost:6379", cfg.Redis.URI)
	assert.Equal(t, 5432, cfg.Postgres.Port)

	assert.Equal(t, 250, cfg.Sweeper.BatchSize)
	assert.True(t, cfg.Sweeper.NotifyOnUnhandledFailedJobs)
	assert.Zero(t, cfg.Sweeper.FailedMaxAge)
	assert.Equal(t, 10*time.Minute, cfg.Sweeper.RunTimeout)

	ops, err := cfg.Sweeper.EnabledOperations()
	require.NoError(t, err)
	assert.Equal(t, []model.Operation{
		model.OperationDeleteFailed,
		model.OperationDeleteSucceeded,
		model.OperationPurgeGarbage,
	}, ops)

	assert.False(t, cfg.Observability.Metrics.IsEnabled())
	assert.False(t, cfg.Observability.Notifications.AnySinkEnabled())
	require.NoError(t, cfg.Validate())
}

func TestAppConfig_ParseSweeperEnv(t *testing.T) {
	cfg := parseEnv(t, map[string]string{
		"STORE_BACKEND":      " Postgres ",
		"LOG_FORMAT":         "TEXT",
		"SWEEPER_BATCH_SIZE": "50",
		"SWEEPER_NOTIFY_ON_UNHANDLED_FAILED_JOBS": "false",
		"SWEEPER_FAILED_MAX_AGE":                  "168h",
		"SWEEPER_SUCCEEDED_MAX_AGE":               "24h",
		"SWEEPER_OPERATIONS":                      "purge-garbage, delete-recurring",
		"SWEEPER_SCHEDULE_PURGE_GARBAGE":          " @hourly ",
		"SWEEPER_RUN_ON_START":                    "true",
	})

	assert.Equal(t, StoreBackendPostgres, cfg.Store.Backend)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 50, cfg.Sweeper.BatchSize)
	assert.True(t, cfg.Sweeper.RunOnStart)
	assert.Equal(t, "@hourly", cfg.Sweeper.Schedule(model.OperationPurgeGarbage))
	assert.Equal(t, "0 3 * * *", cfg.Sweeper.Schedule(model.OperationDeleteRecurring))

	rc := cfg.Sweeper.RetentionConfig()
	assert.Equal(t, 50, rc.BatchSize)
	assert.Equal(t, 168*time.Hour, rc.FailedMaxAge)
	assert.Equal(t, 24*time.Hour, rc.SucceededMaxAge)
	assert.False(t, rc.NotifyOnUnhandledFailedJobs)

	ops, err := cfg.Sweeper.EnabledOperations()
	require.NoError(t, err)
	assert.Equal(t, []model.Operation{model.OperationPurgeGarbage, model.OperationDeleteRecurring}, ops)
}

func TestSweeperConfig_Sanitize(t *testing.T) {
	tests := []struct {
		name  string
		in    SweeperConfig
		check func(t *testing.T, c SweeperConfig)
	}{
		{
			name: "zero batch size uses default",
			in:   SweeperConfig{BatchSize: 0},
			check: func(t *testing.T, c SweeperConfig) {
				assert.Equal(t, 250, c.BatchSize)
			},
		},
		{
			name: "batch size is capped",
			in:   SweeperConfig{BatchSize: 1_000_000},
			check: func(t *testing.T, c SweeperConfig) {
				assert.Equal(t, 10000, c.BatchSize)
			},
		},
		{
			name: "negative durations are cleared",
			in:   SweeperConfig{BatchSize: 10, FailedMaxAge: -time.Hour, SucceededMaxAge: -1, RunTimeout: -time.Second},
			check: func(t *testing.T, c SweeperConfig) {
				assert.Zero(t, c.FailedMaxAge)
				assert.Zero(t, c.SucceededMaxAge)
				assert.Zero(t, c.RunTimeout)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.in
			c.Sanitize()
			tt.check(t, c)
		})
	}
}

func TestAppConfig_Validate(t *testing.T) {
	t.Run("unknown backend", func(t *testing.T) {
		cfg := parseEnv(t, map[string]string{"STORE_BACKEND": "mongo"})
		require.ErrorContains(t, cfg.Validate(), "invalid store backend")
	})

	t.Run("unknown operation", func(t *testing.T) {
		cfg := parseEnv(t, map[string]string{"SWEEPER_OPERATIONS": "delete-everything"})
		require.ErrorContains(t, cfg.Validate(), "invalid operation name")
	})

	t.Run("empty operations", func(t *testing.T) {
		cfg := parseEnv(t, map[string]string{"SWEEPER_OPERATIONS": " , "})
		require.Error(t, cfg.Validate())
	})

	t.Run("blank schedule", func(t *testing.T) {
		cfg := parseEnv(t, map[string]string{"SWEEPER_SCHEDULE_DELETE_SUCCEEDED": "   "})
		require.ErrorContains(t, cfg.Validate(), "delete-succeeded")
	})
}

func TestStoreBackend_Valid(t *testing.T) {
	for _, b := range []StoreBackend{StoreBackendRedis, StoreBackendPostgres, StoreBackendMemory} {
		assert.True(t, b.Valid(), b)
	}
	assert.False(t, StoreBackend("sqlite").Valid())

	var c StoreConfig
	c.Sanitize()
	assert.Equal(t, StoreBackendRedis, c.Backend)
}

func TestObservabilityMetricsConfig_Sanitize(t *testing.T) {
	cfg := parseEnv(t, map[string]string{
		"OBSERVABILITY_METRICS_ENABLED":        "true",
		"OBSERVABILITY_METRICS_STATSD_ADDRESS": " 10.0.0.1:8125 ",
		"OBSERVABILITY_METRICS_STATSD_NETWORK": "",
		"OBSERVABILITY_METRICS_TAGS":           "env:prod,team:jobs",
	})
	m := cfg.Observability.Metrics
	assert.True(t, m.IsEnabled())
	assert.Equal(t, "10.0.0.1:8125", m.StatsdAddress)
	assert.Equal(t, "udp", m.StatsdNetwork)
	assert.Equal(t, map[string]string{"env": "prod", "team": "jobs"}, m.Tags)

	blank := ObservabilityMetricsConfig{Enabled: true, StatsdAddress: "  "}
	blank.Sanitize()
	assert.False(t, blank.IsEnabled())
}

func TestObservabilityNotificationsConfig_Sanitize(t *testing.T) {
	t.Run("disabled master switch disables sinks", func(t *testing.T) {
		c := ObservabilityNotificationsConfig{
			Slack:     SlackNotificationConfig{Enabled: true, WebhookURL: "https://hooks.example"},
			PagerDuty: PagerDutyNotificationConfig{Enabled: true, RoutingKey: "rk"},
		}
		c.Sanitize()
		assert.False(t, c.Slack.Enabled)
		assert.False(t, c.PagerDuty.Enabled)
		assert.False(t, c.AnySinkEnabled())
	})

	t.Run("sinks without credentials are disabled", func(t *testing.T) {
		c := ObservabilityNotificationsConfig{
			Enabled:    true,
			RetryLimit: -1,
			Slack:      SlackNotificationConfig{Enabled: true, WebhookURL: "  "},
			PagerDuty:  PagerDutyNotificationConfig{Enabled: true, RoutingKey: "rk", Source: " "},
		}
		c.Sanitize()
		assert.False(t, c.Slack.Enabled)
		assert.True(t, c.PagerDuty.Enabled)
		assert.Equal(t, "mmk-sweeper", c.PagerDuty.Source)
		assert.Equal(t, "job-store", c.PagerDuty.Component)
		assert.Equal(t, "mmk-sweeper", c.Slack.Username)
		assert.Equal(t, 5*time.Second, c.Timeout)
		assert.Zero(t, c.RetryLimit)
		assert.True(t, c.AnySinkEnabled())
	})

	t.Run("env binding", func(t *testing.T) {
		cfg := parseEnv(t, map[string]string{
			"OBSERVABILITY_NOTIFICATIONS_ENABLED":           "true",
			"OBSERVABILITY_NOTIFICATIONS_SLACK_ENABLED":     "true",
			"OBSERVABILITY_NOTIFICATIONS_SLACK_WEBHOOK_URL": "https://hooks.example/x",
			"OBSERVABILITY_NOTIFICATIONS_SLACK_CHANNEL":     "#jobs",
		})
		n := cfg.Observability.Notifications
		assert.True(t, n.Slack.Enabled)
		assert.Equal(t, "#jobs", n.Slack.Channel)
		assert.True(t, n.SkipCanceled)
	})
}
