package ingest

import (
	"context"
	"time"

	"github.com/jonesrussell/streetcode-ingestor/internal/domain"
	"github.com/jonesrussell/streetcode-ingestor/internal/logger"
)

// RetryPolicy bounds retries of failed messages.
type RetryPolicy struct {
	// Attempts is the total number of tries, including the first.
	Attempts int
	// InitialDelay is doubled after every failed try.
	InitialDelay time.Duration
}

// Retrying re-runs a message whose processing failed with a persistence
// error. Pub/sub has no redelivery, so a message that exhausts its attempts
// is dropped by the caller.
type Retrying struct {
	next    Processor
	policy  RetryPolicy
	log     logger.Logger
	onRetry func()
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewRetrying wraps next. onRetry, when non-nil, is called before each retry.
func NewRetrying(next Processor, policy RetryPolicy, log logger.Logger, onRetry func()) *Retrying {
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}
	return &Retrying{
		next:    next,
		policy:  policy,
		log:     log,
		onRetry: onRetry,
		sleep:   sleepContext,
	}
}

// Process forwards m, retrying OutcomeFailed with exponential backoff.
func (r *Retrying) Process(ctx context.Context, m *domain.IncomingMessage) (Outcome, error) {
	delay := r.policy.InitialDelay

	var (
		outcome Outcome
		err     error
	)
	for attempt := 1; attempt <= r.policy.Attempts; attempt++ {
		outcome, err = r.next.Process(ctx, m)
		if err == nil || attempt == r.policy.Attempts {
			return outcome, err
		}

		r.log.Warn("Retrying failed message",
			logger.String("external_id", m.ID),
			logger.Int("attempt", attempt),
			logger.Duration("backoff", delay),
			logger.Error(err),
		)
		if r.onRetry != nil {
			r.onRetry()
		}

		if sleepErr := r.sleep(ctx, delay); sleepErr != nil {
			return outcome, err
		}
		delay *= 2
	}

	return outcome, err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
