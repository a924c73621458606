package ingest

import (
	"context"

	"github.com/jonesrussell/streetcode-ingestor/internal/domain"
	"github.com/jonesrussell/streetcode-ingestor/internal/metrics"
)

// Outcome is the terminal state of one message.
type Outcome string

// Outcomes.
const (
	OutcomeInvalid        Outcome = "invalid"
	OutcomeSkippedNonCore Outcome = "skipped_non_core"
	OutcomeDuplicate      Outcome = "duplicate"
	OutcomeIngested       Outcome = "ingested"
	OutcomeFailed         Outcome = "failed"
)

// Counter maps o to the ingestion counter it increments.
func (o Outcome) Counter() metrics.Counter {
	switch o {
	case OutcomeInvalid:
		return metrics.Invalid
	case OutcomeSkippedNonCore:
		return metrics.SkippedNonCore
	case OutcomeDuplicate:
		return metrics.Duplicate
	case OutcomeIngested:
		return metrics.Ingested
	default:
		return metrics.Failed
	}
}

// Processor handles one message.
type Processor interface {
	Process(ctx context.Context, m *domain.IncomingMessage) (Outcome, error)
}
