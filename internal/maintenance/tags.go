package maintenance

import (
	"context"
	"fmt"

	"github.com/jonesrussell/streetcode-ingestor/internal/logger"
)

// RecountTags recomputes every tag's article_count from associations with
// live articles and returns the number of tags updated.
func (r *Runner) RecountTags(ctx context.Context) (updated int64, err error) {
	ctx, span := r.startSpan(ctx, JobRecountTags, false)
	defer func() { endSpan(span, updated, err) }()

	updated, err = r.deps.Tags.RecountArticleCounts(ctx)
	if err != nil {
		return 0, fmt.Errorf("recount tags: %w", err)
	}

	r.countRows(JobRecountTags, updated)
	r.log.Info("Recounted tag article counts", logger.Int64("tags", updated))
	return updated, nil
}
