package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jonesrussell/streetcode-ingestor/internal/domain"
)

// TagRepository persists tags and article-tag associations.
type TagRepository struct {
	db *sqlx.DB
}

// NewTagRepository creates a new tag repository.
func NewTagRepository(db *sqlx.DB) *TagRepository {
	return &TagRepository{db: db}
}

// UpsertTag inserts tag keyed by slug within q, or returns the existing id.
func (r *TagRepository) UpsertTag(ctx context.Context, q sqlx.ExtContext, tag *domain.Tag) (int64, error) {
	query := `
		INSERT INTO tags (name, slug, type)
		VALUES ($1, $2, $3)
		ON CONFLICT (slug) DO UPDATE SET slug = EXCLUDED.slug
		RETURNING id
	`

	var id int64
	if err := q.QueryRowxContext(ctx, query, tag.Name, tag.Slug, tag.Type).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to upsert tag %q: %w", tag.Slug, err)
	}

	tag.ID = id
	return id, nil
}

// ReplaceArticleTags makes tagIDs the exact tag set of articleID within q.
// Associations already present keep their stored confidence.
func (r *TagRepository) ReplaceArticleTags(
	ctx context.Context, q sqlx.ExtContext, articleID int64, tagIDs []int64, confidence *float64,
) error {
	if len(tagIDs) == 0 {
		if _, err := q.ExecContext(ctx, `DELETE FROM article_tag WHERE article_id = $1`, articleID); err != nil {
			return fmt.Errorf("failed to clear tags of article %d: %w", articleID, err)
		}
		return nil
	}

	ids := pq.Int64Array(tagIDs)

	deleteQuery := `DELETE FROM article_tag WHERE article_id = $1 AND NOT (tag_id = ANY($2))`
	if _, err := q.ExecContext(ctx, deleteQuery, articleID, ids); err != nil {
		return fmt.Errorf("failed to prune tags of article %d: %w", articleID, err)
	}

	insertQuery := `
		INSERT INTO article_tag (article_id, tag_id, confidence)
		SELECT $1, tag_id, $3 FROM unnest($2::bigint[]) AS tag_id
		ON CONFLICT (article_id, tag_id) DO NOTHING
	`
	if _, err := q.ExecContext(ctx, insertQuery, articleID, ids, confidence); err != nil {
		return fmt.Errorf("failed to attach tags to article %d: %w", articleID, err)
	}

	return nil
}

// RecountArticleCounts recomputes every tag's article_count from its
// associations with non-deleted articles and returns the rows changed.
func (r *TagRepository) RecountArticleCounts(ctx context.Context) (int64, error) {
	query := `
		UPDATE tags t
		SET article_count = c.n, updated_at = NOW()
		FROM (
			SELECT tg.id, COUNT(a.id) AS n
			FROM tags tg
			LEFT JOIN article_tag at ON at.tag_id = tg.id
			LEFT JOIN articles a ON a.id = at.article_id AND a.deleted_at IS NULL
			GROUP BY tg.id
		) c
		WHERE t.id = c.id AND t.article_count <> c.n
	`

	res, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to recount tag article counts: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read recount result: %w", err)
	}
	return n, nil
}
