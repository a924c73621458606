package maintenance

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/jonesrussell/streetcode-ingestor/internal/database"
	"github.com/jonesrussell/streetcode-ingestor/internal/logger"
)

const (
	drySampleSize     = 10
	patternSampleSize = 3
)

// PatternMatch is the dry-run breakdown for one title pattern.
type PatternMatch struct {
	Pattern string
	Count   int64
	Samples []database.ArticleSummary
}

// SoftDeleteReport summarizes a soft-delete run. Deleted is zero on a dry run.
type SoftDeleteReport struct {
	DryRun    bool
	Matched   int64
	Deleted   int64
	Samples   []database.ArticleSummary
	ByPattern []PatternMatch
}

// SoftDeleteNonCrime soft-deletes live articles whose stored relevance is
// absent or not core_street_crime.
func (r *Runner) SoftDeleteNonCrime(ctx context.Context, dryRun bool) (*SoftDeleteReport, error) {
	return r.softDelete(ctx, JobSoftDeleteNonCore, database.NonCoreFilter(), nil, dryRun)
}

// SoftDeletePatterns soft-deletes live articles whose title contains any of
// DefaultTitlePatterns or extra.
func (r *Runner) SoftDeletePatterns(ctx context.Context, extra []string, dryRun bool) (*SoftDeleteReport, error) {
	patterns := mergePatterns(DefaultTitlePatterns, extra)
	return r.softDelete(ctx, JobSoftDeletePattern, database.TitlePatternFilter(patterns), patterns, dryRun)
}

func (r *Runner) softDelete(
	ctx context.Context, job string, where sq.Sqlizer, patterns []string, dryRun bool,
) (report *SoftDeleteReport, err error) {
	ctx, span := r.startSpan(ctx, job, dryRun)
	report = &SoftDeleteReport{DryRun: dryRun}
	defer func() { endSpan(span, report.Deleted, err) }()

	report.Matched, err = r.deps.Articles.Count(ctx, where)
	if err != nil {
		return report, fmt.Errorf("%s: count: %w", job, err)
	}
	if report.Matched == 0 {
		r.log.Info("No articles to soft-delete", logger.String("job", job))
		return report, nil
	}

	if dryRun {
		report.Samples, err = r.deps.Articles.Sample(ctx, where, drySampleSize)
		if err != nil {
			return report, fmt.Errorf("%s: sample: %w", job, err)
		}
		report.ByPattern, err = r.matchesByPattern(ctx, patterns)
		if err != nil {
			return report, fmt.Errorf("%s: %w", job, err)
		}
		r.log.Info("Would soft-delete articles",
			logger.String("job", job),
			logger.Int64("matched", report.Matched),
		)
		return report, nil
	}

	report.Deleted, err = r.deps.Articles.SoftDelete(ctx, where)
	if err != nil {
		return report, fmt.Errorf("%s: soft delete: %w", job, err)
	}

	r.countRows(job, report.Deleted)
	r.log.Info("Soft-deleted articles",
		logger.String("job", job),
		logger.Int64("deleted", report.Deleted),
	)
	return report, nil
}

// matchesByPattern samples each pattern and counts only those that match.
func (r *Runner) matchesByPattern(ctx context.Context, patterns []string) ([]PatternMatch, error) {
	var matches []PatternMatch

	for _, p := range patterns {
		where := database.TitlePatternFilter([]string{p})

		samples, err := r.deps.Articles.Sample(ctx, where, patternSampleSize)
		if err != nil {
			return nil, fmt.Errorf("sample pattern %q: %w", p, err)
		}
		if len(samples) == 0 {
			continue
		}

		count, err := r.deps.Articles.Count(ctx, where)
		if err != nil {
			return nil, fmt.Errorf("count pattern %q: %w", p, err)
		}
		matches = append(matches, PatternMatch{Pattern: p, Count: count, Samples: samples})
	}

	return matches, nil
}

// mergePatterns appends the non-blank extra patterns not already present,
// compared case-insensitively.
func mergePatterns(base, extra []string) []string {
	merged := make([]string, 0, len(base)+len(extra))
	seen := make(map[string]struct{}, len(base)+len(extra))

	for _, p := range append(append([]string(nil), base...), extra...) {
		key := strings.ToLower(strings.TrimSpace(p))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, p)
	}
	return merged
}
