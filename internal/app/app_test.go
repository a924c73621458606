package app_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/streetcode-ingestor/internal/app"
	"github.com/jonesrussell/streetcode-ingestor/internal/metrics"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestNew_DebugOverridesLogLevel(t *testing.T) {
	path := writeConfig(t, "logging:\n  level: warn\n")

	a, err := app.New(app.Options{ConfigPath: path, Version: "1.2.3", Debug: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.Equal(t, "debug", a.Config().Logging.Level)
	assert.True(t, a.Config().Service.Debug)
}

func TestNew_InvalidConfig(t *testing.T) {
	path := writeConfig(t, "subscriber:\n  retry_attempts: -1\n")

	_, err := app.New(app.Options{ConfigPath: path})

	require.Error(t, err)
}

func TestTracker_UsesConfiguredRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Setenv("REDIS_ADDRESS", mr.Addr())

	a, err := app.New(app.Options{ConfigPath: writeConfig(t, "")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	tracker, err := a.Tracker(context.Background())
	require.NoError(t, err)

	require.NoError(t, tracker.Record(context.Background(), metrics.Received, metrics.Ingested))
	stats, err := tracker.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.IngestedTotal)

	again, err := a.Redis(context.Background())
	require.NoError(t, err)
	first, err := a.Redis(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, again)
}

func TestRedis_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	t.Setenv("REDIS_ADDRESS", addr)

	a, err := app.New(app.Options{ConfigPath: writeConfig(t, "")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	_, err = a.Redis(context.Background())
	require.Error(t, err)
}
