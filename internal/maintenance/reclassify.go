package maintenance

import (
	"context"
	"fmt"

	"github.com/jonesrussell/streetcode-ingestor/internal/classifier"
	"github.com/jonesrussell/streetcode-ingestor/internal/database"
	"github.com/jonesrussell/streetcode-ingestor/internal/domain"
	"github.com/jonesrussell/streetcode-ingestor/internal/logger"
)

// ReclassifyOptions selects the articles to reclassify.
type ReclassifyOptions struct {
	DryRun    bool
	BatchSize int
	// All reclassifies every live article instead of only those without a
	// stored crime_relevance.
	All bool
}

// Classification is one reclassified article.
type Classification struct {
	ArticleID int64
	Title     string
	Result    classifier.Result
}

// ReclassifyReport summarizes a reclassify run.
type ReclassifyReport struct {
	Scanned     int
	Updated     int
	ByRelevance map[string][]Classification
}

// Reclassify runs the title classifier over stored articles and writes the
// verdict into their metadata. A dry run only reports.
func (r *Runner) Reclassify(ctx context.Context, opts ReclassifyOptions) (report *ReclassifyReport, err error) {
	ctx, span := r.startSpan(ctx, JobReclassify, opts.DryRun)
	report = &ReclassifyReport{ByRelevance: map[string][]Classification{
		domain.RelevanceCoreStreetCrime: nil,
		domain.RelevancePeripheralCrime: nil,
		domain.RelevanceNotCrime:        nil,
	}}
	defer func() { endSpan(span, int64(report.Updated), err) }()

	filter := database.ArticleBatchFilter{Limit: batchSize(opts.BatchSize), MissingRelevance: !opts.All}

	for {
		batch, listErr := r.deps.Articles.ListBatch(ctx, filter)
		if listErr != nil {
			return report, fmt.Errorf("reclassify: %w", listErr)
		}

		for i := range batch {
			a := &batch[i]
			result := classifier.Classify(a.Title)
			report.Scanned++
			report.ByRelevance[result.Relevance] = append(report.ByRelevance[result.Relevance],
				Classification{ArticleID: a.ID, Title: a.Title, Result: result})

			if opts.DryRun {
				continue
			}
			if updateErr := r.deps.Articles.UpdateMetadata(ctx, a.ID, withVerdict(a.Metadata, result)); updateErr != nil {
				return report, fmt.Errorf("reclassify article %d: %w", a.ID, updateErr)
			}
			report.Updated++
		}

		if uint64(len(batch)) < filter.Limit {
			break
		}
		filter.AfterID = batch[len(batch)-1].ID
	}

	r.countRows(JobReclassify, int64(report.Updated))
	r.log.Info("Reclassified articles",
		logger.Int("scanned", report.Scanned),
		logger.Int("updated", report.Updated),
		logger.Int(domain.RelevanceCoreStreetCrime, len(report.ByRelevance[domain.RelevanceCoreStreetCrime])),
		logger.Int(domain.RelevancePeripheralCrime, len(report.ByRelevance[domain.RelevancePeripheralCrime])),
		logger.Int(domain.RelevanceNotCrime, len(report.ByRelevance[domain.RelevanceNotCrime])),
		logger.Bool("dry_run", opts.DryRun),
	)
	return report, nil
}

// withVerdict returns md carrying result. Existing crime types are kept
// when the classifier found none.
func withVerdict(md domain.ArticleMetadata, result classifier.Result) domain.ArticleMetadata {
	relevance := result.Relevance
	source := domain.RelevanceSourceReclassify
	confidence := result.Confidence

	md.CrimeRelevance = &relevance
	md.CrimeRelevanceSource = &source
	md.CrimeRelevanceConfidence = &confidence
	if len(result.CrimeTypes) > 0 {
		md.CrimeTypes = result.CrimeTypes
	}
	return md
}
