package ingest

import (
	"context"
	"time"

	"github.com/jonesrussell/streetcode-ingestor/internal/domain"
	"github.com/jonesrussell/streetcode-ingestor/internal/logger"
	"github.com/jonesrussell/streetcode-ingestor/internal/metrics"
)

// Recorder persists ingestion counters.
type Recorder interface {
	Record(ctx context.Context, counters ...metrics.Counter) error
}

// Instrumented counts every message it forwards: Received plus the counter
// of the outcome. Counter failures are logged and never fail the message.
type Instrumented struct {
	next       Processor
	recorder   Recorder
	collectors *metrics.Collectors
	log        logger.Logger
}

// NewInstrumented wraps next. collectors may be nil.
func NewInstrumented(next Processor, recorder Recorder, collectors *metrics.Collectors, log logger.Logger) *Instrumented {
	return &Instrumented{next: next, recorder: recorder, collectors: collectors, log: log}
}

// Process forwards m and records its outcome.
func (i *Instrumented) Process(ctx context.Context, m *domain.IncomingMessage) (Outcome, error) {
	start := time.Now()

	if i.collectors != nil {
		i.collectors.InFlight.Inc()
		defer i.collectors.InFlight.Dec()
	}

	outcome, err := i.next.Process(ctx, m)
	counters := []metrics.Counter{metrics.Received, outcome.Counter()}

	// Counters are written even when the caller's context is already done.
	if recErr := i.recorder.Record(context.WithoutCancel(ctx), counters...); recErr != nil {
		i.log.Warn("Failed to record ingestion metrics",
			logger.String("outcome", string(outcome)),
			logger.Error(recErr),
		)
	}
	if i.collectors != nil {
		i.collectors.Observe(time.Since(start), counters...)
	}

	return outcome, err
}
