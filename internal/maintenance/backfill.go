package maintenance

import (
	"context"
	"fmt"

	"github.com/jonesrussell/streetcode-ingestor/internal/database"
	"github.com/jonesrussell/streetcode-ingestor/internal/logger"
)

// BackfillOptions controls a location backfill.
type BackfillOptions struct {
	DryRun    bool
	BatchSize int
}

// BackfillReport summarizes a location backfill.
type BackfillReport struct {
	Candidates int
	Linked     int
	Skipped    int
}

// BackfillLocations links articles without a city to the city named by
// their stored location metadata. Articles whose location cannot be
// resolved are logged and skipped.
func (r *Runner) BackfillLocations(ctx context.Context, opts BackfillOptions) (report *BackfillReport, err error) {
	ctx, span := r.startSpan(ctx, JobBackfillLocations, opts.DryRun)
	report = &BackfillReport{}
	defer func() { endSpan(span, int64(report.Linked), err) }()

	filter := database.ArticleBatchFilter{Limit: batchSize(opts.BatchSize), MissingCity: true}

	for {
		batch, listErr := r.deps.Articles.ListBatch(ctx, filter)
		if listErr != nil {
			return report, fmt.Errorf("backfill locations: %w", listErr)
		}

		for i := range batch {
			a := &batch[i]
			md := a.Metadata
			if !md.HasLocation() {
				continue
			}
			report.Candidates++

			if opts.DryRun {
				r.log.Info("Would link article to city",
					logger.Int64("article_id", a.ID),
					logger.String("title", a.Title),
					logger.String("location_city", *md.LocationCity),
					logger.String("location_province", *md.LocationProvince),
					logger.String("location_country", *md.LocationCountry),
				)
				continue
			}

			city, findErr := r.deps.Locations.FindOrCreate(ctx, *md.LocationCity, *md.LocationProvince, *md.LocationCountry)
			if findErr != nil {
				report.Skipped++
				r.log.Error("Failed to backfill article location",
					logger.Int64("article_id", a.ID),
					logger.Error(findErr),
				)
				continue
			}

			linked, linkErr := r.deps.Articles.LinkCity(ctx, a.ID, city.ID)
			if linkErr != nil {
				return report, fmt.Errorf("link article %d to city %d: %w", a.ID, city.ID, linkErr)
			}
			if linked {
				report.Linked++
			}
		}

		if uint64(len(batch)) < filter.Limit {
			break
		}
		filter.AfterID = batch[len(batch)-1].ID
	}

	r.countRows(JobBackfillLocations, int64(report.Linked))
	r.log.Info("Backfilled article locations",
		logger.Int("candidates", report.Candidates),
		logger.Int("linked", report.Linked),
		logger.Int("skipped", report.Skipped),
		logger.Bool("dry_run", opts.DryRun),
	)
	return report, nil
}
