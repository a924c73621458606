// Package maintenance holds the batch jobs that repair stored articles:
// reclassification, location backfill, soft deletion and tag recounts.
package maintenance

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jonesrussell/streetcode-ingestor/internal/database"
	"github.com/jonesrussell/streetcode-ingestor/internal/domain"
	"github.com/jonesrussell/streetcode-ingestor/internal/logger"
	"github.com/jonesrussell/streetcode-ingestor/internal/metrics"
)

// DefaultBatchSize is used when a job is run without a batch size.
const DefaultBatchSize = 500

// Job names, used for spans and the maintenance_rows_total collector.
const (
	JobReclassify        = "reclassify"
	JobBackfillLocations = "backfill_locations"
	JobSoftDeleteNonCore = "soft_delete_non_crime"
	JobSoftDeletePattern = "soft_delete_patterns"
	JobRecountTags       = "recount_tags"
)

// ArticleStore is the bulk article access the jobs need.
type ArticleStore interface {
	ListBatch(ctx context.Context, f database.ArticleBatchFilter) ([]domain.Article, error)
	UpdateMetadata(ctx context.Context, id int64, md domain.ArticleMetadata) error
	LinkCity(ctx context.Context, articleID, cityID int64) (bool, error)
	Count(ctx context.Context, where sq.Sqlizer) (int64, error)
	Sample(ctx context.Context, where sq.Sqlizer, limit uint64) ([]database.ArticleSummary, error)
	SoftDelete(ctx context.Context, where sq.Sqlizer) (int64, error)
}

// LocationResolver resolves a location triple to a city.
type LocationResolver interface {
	FindOrCreate(ctx context.Context, citySlug, regionCode, countryName string) (*domain.City, error)
}

// TagCounter recomputes tag article counts.
type TagCounter interface {
	RecountArticleCounts(ctx context.Context) (int64, error)
}

// Deps bundles the collaborators of a Runner. Collectors may be nil.
type Deps struct {
	Articles   ArticleStore
	Locations  LocationResolver
	Tags       TagCounter
	Collectors *metrics.Collectors
}

// Runner executes maintenance jobs.
type Runner struct {
	deps   Deps
	log    logger.Logger
	tracer trace.Tracer
}

// NewRunner creates a Runner.
func NewRunner(deps Deps, log logger.Logger) *Runner {
	return &Runner{
		deps:   deps,
		log:    log,
		tracer: otel.Tracer("streetcode-ingestor/maintenance"),
	}
}

func (r *Runner) startSpan(ctx context.Context, job string, dryRun bool) (context.Context, trace.Span) {
	return r.tracer.Start(ctx, "maintenance."+job, trace.WithAttributes(
		attribute.String("job", job),
		attribute.Bool("dry_run", dryRun),
	))
}

func endSpan(span trace.Span, rows int64, err error) {
	span.SetAttributes(attribute.Int64("rows", rows))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (r *Runner) countRows(job string, n int64) {
	if r.deps.Collectors != nil && n > 0 {
		r.deps.Collectors.MaintenanceRows.WithLabelValues(job).Add(float64(n))
	}
}

func batchSize(n int) uint64 {
	if n <= 0 {
		return DefaultBatchSize
	}
	return uint64(n)
}
