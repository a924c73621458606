package metrics

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/streetcode-ingestor/internal/logger"
)

// ratioPrecision is the number of decimals CoreRatio is rounded to.
const ratioPrecision = 4

// Stats is a snapshot of the ingestion counters.
type Stats struct {
	ReceivedTotal       int64   `json:"received_total"`
	SkippedNonCoreTotal int64   `json:"skipped_non_core_total"`
	IngestedTotal       int64   `json:"ingested_total"`
	DuplicateTotal      int64   `json:"duplicate_total"`
	InvalidTotal        int64   `json:"invalid_total"`
	FailedTotal         int64   `json:"failed_total"`
	CoreRatio           float64 `json:"core_ratio"`
}

// Tracker keeps lifetime ingestion counters in Redis so they survive restarts
// and are shared by every replica.
type Tracker struct {
	client redis.UniversalClient
	logger logger.Logger
}

// NewTracker creates a new Redis-backed tracker.
func NewTracker(client redis.UniversalClient, log logger.Logger) *Tracker {
	return &Tracker{client: client, logger: log}
}

// Record increments every counter in one pipelined round trip.
func (t *Tracker) Record(ctx context.Context, counters ...Counter) error {
	if len(counters) == 0 {
		return nil
	}

	_, err := t.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, c := range counters {
			pipe.Incr(ctx, c.Key())
		}
		return nil
	})
	if err != nil {
		t.logger.Warn("Failed to increment ingestion counters",
			logger.Int("counters", len(counters)),
			logger.Error(err),
		)
		return fmt.Errorf("increment ingestion counters: %w", err)
	}

	return nil
}

// Stats reads every counter. Missing keys count as zero.
func (t *Tracker) Stats(ctx context.Context) (Stats, error) {
	keys := make([]string, len(AllCounters))
	for i, c := range AllCounters {
		keys[i] = c.Key()
	}

	values, err := t.client.MGet(ctx, keys...).Result()
	if err != nil {
		return Stats{}, fmt.Errorf("read ingestion counters: %w", err)
	}

	counts := make(map[Counter]int64, len(AllCounters))
	for i, v := range values {
		n, parseErr := parseCount(v)
		if parseErr != nil {
			return Stats{}, fmt.Errorf("parse %s: %w", keys[i], parseErr)
		}
		counts[AllCounters[i]] = n
	}

	s := Stats{
		ReceivedTotal:       counts[Received],
		SkippedNonCoreTotal: counts[SkippedNonCore],
		IngestedTotal:       counts[Ingested],
		DuplicateTotal:      counts[Duplicate],
		InvalidTotal:        counts[Invalid],
		FailedTotal:         counts[Failed],
	}
	s.CoreRatio = CoreRatio(s.IngestedTotal, s.ReceivedTotal)

	return s, nil
}

// CoreRatio returns ingested/received rounded to four decimals, or 0 when
// nothing was received.
func CoreRatio(ingested, received int64) float64 {
	if received <= 0 {
		return 0
	}
	scale := math.Pow10(ratioPrecision)
	return math.Round(float64(ingested)/float64(received)*scale) / scale
}

func parseCount(v any) (int64, error) {
	switch s := v.(type) {
	case nil:
		return 0, nil
	case string:
		return strconv.ParseInt(s, 10, 64)
	default:
		return 0, errors.New("unexpected counter value type")
	}
}
