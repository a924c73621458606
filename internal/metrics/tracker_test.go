package metrics_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/streetcode-ingestor/internal/logger"
	"github.com/jonesrussell/streetcode-ingestor/internal/metrics"
)

func newTestTracker(t *testing.T) (*metrics.Tracker, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return metrics.NewTracker(client, logger.NewNop()), mr
}

func TestTracker_StatsEmpty(t *testing.T) {
	tracker, _ := newTestTracker(t)

	stats, err := tracker.Stats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, metrics.Stats{}, stats)
}

func TestTracker_RecordAndStats(t *testing.T) {
	tracker, mr := newTestTracker(t)
	ctx := context.Background()

	for range 3 {
		require.NoError(t, tracker.Record(ctx, metrics.Received, metrics.Ingested))
	}
	require.NoError(t, tracker.Record(ctx, metrics.Received, metrics.SkippedNonCore))
	require.NoError(t, tracker.Record(ctx, metrics.Received, metrics.Duplicate))
	require.NoError(t, tracker.Record(ctx, metrics.Received, metrics.Invalid))
	require.NoError(t, tracker.Record(ctx, metrics.Received, metrics.Failed))

	stats, err := tracker.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(7), stats.ReceivedTotal)
	assert.Equal(t, int64(1), stats.SkippedNonCoreTotal)
	assert.Equal(t, int64(3), stats.IngestedTotal)
	assert.Equal(t, int64(1), stats.DuplicateTotal)
	assert.Equal(t, int64(1), stats.InvalidTotal)
	assert.Equal(t, int64(1), stats.FailedTotal)
	assert.InDelta(t, 0.4286, stats.CoreRatio, 1e-9)

	got, err := mr.Get("streetcode_ingestion_received_total")
	require.NoError(t, err)
	assert.Equal(t, "7", got)
}

func TestTracker_RecordNothing(t *testing.T) {
	tracker, mr := newTestTracker(t)

	require.NoError(t, tracker.Record(context.Background()))
	assert.Empty(t, mr.Keys())
}

func TestTracker_RedisDown(t *testing.T) {
	tracker, mr := newTestTracker(t)
	mr.Close()

	require.Error(t, tracker.Record(context.Background(), metrics.Received))

	_, err := tracker.Stats(context.Background())
	require.Error(t, err)
}

func TestTracker_CorruptCounter(t *testing.T) {
	tracker, mr := newTestTracker(t)
	require.NoError(t, mr.Set(metrics.Ingested.Key(), "many"))

	_, err := tracker.Stats(context.Background())

	require.Error(t, err)
}

func TestCoreRatio(t *testing.T) {
	tests := []struct {
		ingested, received int64
		want               float64
	}{
		{0, 0, 0},
		{5, 0, 0},
		{0, 10, 0},
		{1, 3, 0.3333},
		{2, 3, 0.6667},
		{10, 10, 1},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, metrics.CoreRatio(tt.ingested, tt.received), 1e-9,
			"CoreRatio(%d, %d)", tt.ingested, tt.received)
	}
}

func TestCounterKey(t *testing.T) {
	assert.Equal(t, "streetcode_ingestion_skipped_non_core_total", metrics.SkippedNonCore.Key())
}
