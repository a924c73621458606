// Package tags reconciles an article's crime-category tags with its topics.
package tags

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/streetcode-ingestor/internal/classifier"
	"github.com/jonesrussell/streetcode-ingestor/internal/domain"
	"github.com/jonesrussell/streetcode-ingestor/internal/logger"
	"github.com/jonesrussell/streetcode-ingestor/internal/textutil"
)

// Store persists tags and associations within a caller's transaction.
type Store interface {
	UpsertTag(ctx context.Context, q sqlx.ExtContext, tag *domain.Tag) (int64, error)
	ReplaceArticleTags(ctx context.Context, q sqlx.ExtContext, articleID int64, tagIDs []int64, confidence *float64) error
}

// Reconciler replaces article tag sets.
type Reconciler struct {
	store Store
	log   logger.Logger
}

// NewReconciler creates a Reconciler.
func NewReconciler(store Store, log logger.Logger) *Reconciler {
	return &Reconciler{store: store, log: log}
}

// Select returns the allowed crime types among topics in first-seen order,
// with criminal_justice appended when the set is non-empty and title
// mentions a justice-process term.
func Select(topics []string, title string) []string {
	selected := make([]string, 0, len(topics)+1)
	seen := make(map[string]struct{}, len(topics)+1)

	for _, t := range topics {
		if !domain.IsAllowedCrimeType(t) {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		selected = append(selected, t)
	}

	if len(selected) > 0 && classifier.MatchesJustice(title) {
		if _, has := seen[domain.CrimeTypeCriminalJustice]; !has {
			selected = append(selected, domain.CrimeTypeCriminalJustice)
		}
	}

	return selected
}

// TagFor returns the tag record for an allowed crime type.
func TagFor(crimeType string) *domain.Tag {
	slug := textutil.Slugify(crimeType)
	return &domain.Tag{
		Name: textutil.Humanize(slug),
		Slug: slug,
		Type: domain.TagTypeCrimeCategory,
	}
}

// Reconcile makes the article's tag set exactly the allowed subset of
// topics, within q. An empty subset clears every association. confidence
// is written on new associations when non-nil.
func (r *Reconciler) Reconcile(
	ctx context.Context, q sqlx.ExtContext, articleID int64, topics []string, confidence *float64,
) error {
	ids := make([]int64, 0, len(topics))
	slugs := make([]string, 0, len(topics))

	for _, crimeType := range topics {
		if !domain.IsAllowedCrimeType(crimeType) {
			continue
		}
		tag := TagFor(crimeType)

		id, err := r.store.UpsertTag(ctx, q, tag)
		if err != nil {
			return fmt.Errorf("reconcile tags of article %d: %w", articleID, err)
		}
		if !containsID(ids, id) {
			ids = append(ids, id)
			slugs = append(slugs, tag.Slug)
		}
	}

	if err := r.store.ReplaceArticleTags(ctx, q, articleID, ids, confidence); err != nil {
		return fmt.Errorf("reconcile tags of article %d: %w", articleID, err)
	}

	r.log.Debug("Reconciled article tags",
		logger.Int64("article_id", articleID),
		logger.Strings("tags", slugs),
	)
	return nil
}

func containsID(ids []int64, id int64) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}
