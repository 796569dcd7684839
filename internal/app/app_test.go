package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MentionMonitor/internal/config"
)

func offlineConfig(t *testing.T) config.Config {
	t.Helper()
	t.Setenv("MENTION_MONITOR_CONFIG", "")

	cfg := config.Load()
	cfg.Database = config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"}
	cfg.Providers.Enabled = nil
	cfg.Fetcher.Enabled = false
	cfg.LLM.APIKey = ""
	cfg.Notifications = config.NotificationConfig{}
	cfg.Entities = []config.EntityConfig{
		{ID: "dir-1", FullName: "John Doe", ContextTerms: []string{"ABC Corp"}},
		{ID: "broken", FullName: " "},
	}
	return cfg
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunOnceOffline(t *testing.T) {
	cfg := offlineConfig(t)

	application, err := New(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	defer application.Close()

	assert.NoError(t, application.Run(context.Background(), true))
}

func TestNewRejectsBadCron(t *testing.T) {
	cfg := offlineConfig(t)
	cfg.Scheduler.CronExpression = "whenever"

	_, err := New(context.Background(), cfg, quietLogger())
	assert.ErrorContains(t, err, "cron expression")
}

func TestNewRejectsBrokenRulesFile(t *testing.T) {
	cfg := offlineConfig(t)
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("severity:\n  - name: x\n    severity: CATASTROPHIC\n"), 0o600))
	cfg.Classifier.RulesPath = path

	_, err := New(context.Background(), cfg, quietLogger())
	assert.Error(t, err)
}

func TestWatchedRulesAreClosedWithApplication(t *testing.T) {
	cfg := offlineConfig(t)
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("trustFloor: 40\n"), 0o600))
	cfg.Classifier.RulesPath = path
	cfg.Classifier.Watch = true

	a := &Application{cfg: cfg, logger: quietLogger()}
	rules, err := a.ruleSource()
	require.NoError(t, err)
	require.NotNil(t, rules.Current())
	require.NotNil(t, a.watcher)
	require.Len(t, a.closers, 1)

	done := make(chan struct{})
	go func() {
		a.watcher.Run(context.Background())
		close(done)
	}()
	require.NoError(t, a.Close())
	assert.Eventually(t, func() bool {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestNewWithWatchedRulesRejectsBadCron(t *testing.T) {
	cfg := offlineConfig(t)
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("trustFloor: 40\n"), 0o600))
	cfg.Classifier.RulesPath = path
	cfg.Classifier.Watch = true
	cfg.Scheduler.CronExpression = "every six hours"

	_, err := New(context.Background(), cfg, quietLogger())
	assert.ErrorContains(t, err, "cron expression")
}
