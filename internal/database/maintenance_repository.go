package database

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/streetcode-ingestor/internal/domain"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// notDeleted restricts a query to live articles.
var notDeleted = sq.Eq{"deleted_at": nil}

// ArticleSummary is the projection listed by maintenance dry runs.
type ArticleSummary struct {
	ID         int64   `db:"id"`
	ExternalID *string `db:"external_id"`
	Title      string  `db:"title"`
}

// ArticleBatchFilter selects a keyset page of live articles for batch jobs.
type ArticleBatchFilter struct {
	AfterID int64
	Limit   uint64
	// MissingRelevance keeps only articles without metadata.crime_relevance.
	MissingRelevance bool
	// MissingCity keeps only unlinked articles whose metadata carries a location city.
	MissingCity bool
}

// MaintenanceRepository runs the bulk queries behind the maintenance commands.
type MaintenanceRepository struct {
	db *sqlx.DB
}

// NewMaintenanceRepository creates a new maintenance repository.
func NewMaintenanceRepository(db *sqlx.DB) *MaintenanceRepository {
	return &MaintenanceRepository{db: db}
}

// NonCoreFilter matches live articles whose stored relevance is absent or not core_street_crime.
func NonCoreFilter() sq.Sqlizer {
	return sq.And{
		notDeleted,
		sq.Or{
			sq.Expr("metadata->>'crime_relevance' IS NULL"),
			sq.NotEq{"metadata->>'crime_relevance'": domain.RelevanceCoreStreetCrime},
		},
	}
}

// TitlePatternFilter matches live articles whose title contains any of
// patterns, case-insensitively. Patterns are literal substrings.
func TitlePatternFilter(patterns []string) sq.Sqlizer {
	matches := make(sq.Or, 0, len(patterns))
	for _, p := range patterns {
		if p = strings.TrimSpace(p); p != "" {
			matches = append(matches, sq.ILike{"title": "%" + escapeLike(p) + "%"})
		}
	}
	if len(matches) == 0 {
		return sq.Expr("FALSE")
	}
	return sq.And{notDeleted, matches}
}

// ListBatch returns the next page of articles matching f, ordered by id.
func (r *MaintenanceRepository) ListBatch(ctx context.Context, f ArticleBatchFilter) ([]domain.Article, error) {
	where := sq.And{notDeleted, sq.Gt{"id": f.AfterID}}
	if f.MissingRelevance {
		where = append(where, sq.Expr("metadata->>'crime_relevance' IS NULL"))
	}
	if f.MissingCity {
		where = append(where,
			sq.Eq{"city_id": nil},
			sq.Expr("metadata->>'location_city' IS NOT NULL"),
		)
	}

	query, args, err := psql.Select(strings.TrimSpace(articleColumns)).
		From("articles").
		Where(where).
		OrderBy("id").
		Limit(f.Limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build batch query: %w", err)
	}

	var articles []domain.Article
	if selectErr := r.db.SelectContext(ctx, &articles, query, args...); selectErr != nil {
		return nil, fmt.Errorf("failed to list article batch: %w", selectErr)
	}
	return articles, nil
}

// UpdateMetadata overwrites the metadata of article id.
func (r *MaintenanceRepository) UpdateMetadata(ctx context.Context, id int64, md domain.ArticleMetadata) error {
	query, args, err := psql.Update("articles").
		Set("metadata", md).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build metadata update: %w", err)
	}

	if _, execErr := r.db.ExecContext(ctx, query, args...); execErr != nil {
		return fmt.Errorf("failed to update metadata of article %d: %w", id, execErr)
	}
	return nil
}

// LinkCity sets the city of an unlinked article and increments the city's
// article count in one transaction. It reports false when the article was
// already linked.
func (r *MaintenanceRepository) LinkCity(ctx context.Context, articleID, cityID int64) (bool, error) {
	linked := false

	err := InTx(ctx, r.db, func(q sqlx.ExtContext) error {
		res, err := q.ExecContext(ctx,
			`UPDATE articles SET city_id = $1, updated_at = NOW() WHERE id = $2 AND city_id IS NULL`,
			cityID, articleID)
		if err != nil {
			return fmt.Errorf("failed to link article %d to city %d: %w", articleID, cityID, err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read link result: %w", err)
		}
		if n == 0 {
			return nil
		}

		if _, err = q.ExecContext(ctx,
			`UPDATE cities SET article_count = article_count + 1, updated_at = NOW() WHERE id = $1`,
			cityID); err != nil {
			return fmt.Errorf("failed to increment city %d article count: %w", cityID, err)
		}

		linked = true
		return nil
	})

	return linked, err
}

// Count returns the number of articles matching where.
func (r *MaintenanceRepository) Count(ctx context.Context, where sq.Sqlizer) (int64, error) {
	query, args, err := psql.Select("COUNT(*)").From("articles").Where(where).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var n int64
	if getErr := r.db.GetContext(ctx, &n, query, args...); getErr != nil {
		return 0, fmt.Errorf("failed to count articles: %w", getErr)
	}
	return n, nil
}

// Sample returns up to limit articles matching where, newest first.
func (r *MaintenanceRepository) Sample(ctx context.Context, where sq.Sqlizer, limit uint64) ([]ArticleSummary, error) {
	query, args, err := psql.Select("id", "external_id", "title").
		From("articles").
		Where(where).
		OrderBy("id DESC").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build sample query: %w", err)
	}

	var rows []ArticleSummary
	if selectErr := r.db.SelectContext(ctx, &rows, query, args...); selectErr != nil {
		return nil, fmt.Errorf("failed to sample articles: %w", selectErr)
	}
	return rows, nil
}

// SoftDelete stamps deleted_at on every article matching where and returns
// the number of rows affected.
func (r *MaintenanceRepository) SoftDelete(ctx context.Context, where sq.Sqlizer) (int64, error) {
	query, args, err := psql.Update("articles").
		Set("deleted_at", sq.Expr("NOW()")).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.And{notDeleted, where}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build soft delete: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to soft delete articles: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read soft delete result: %w", err)
	}
	return n, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
