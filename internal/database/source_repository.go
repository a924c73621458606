package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/streetcode-ingestor/internal/domain"
)

// SourceRepository persists news sources.
type SourceRepository struct {
	db *sqlx.DB
}

// NewSourceRepository creates a new source repository.
func NewSourceRepository(db *sqlx.DB) *SourceRepository {
	return &SourceRepository{db: db}
}

// UpsertSource inserts src keyed by slug, or returns the existing row's id.
// A non-nil CredibilityScore refreshes the stored score on an existing row;
// a nil one leaves it untouched.
func (r *SourceRepository) UpsertSource(ctx context.Context, src *domain.NewsSource) (int64, error) {
	query := `
		INSERT INTO news_sources (name, slug, url, credibility_score, is_active)
		VALUES ($1, $2, $3, $4, TRUE)
		ON CONFLICT (slug) DO UPDATE
		SET credibility_score = COALESCE(EXCLUDED.credibility_score, news_sources.credibility_score),
		    updated_at = CASE
		        WHEN EXCLUDED.credibility_score IS NULL THEN news_sources.updated_at
		        ELSE NOW()
		    END
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowxContext(ctx, query, src.Name, src.Slug, src.URL, src.CredibilityScore).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert news source %q: %w", src.Slug, err)
	}

	src.ID = id
	return id, nil
}
