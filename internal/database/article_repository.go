package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jonesrussell/streetcode-ingestor/internal/domain"
	"github.com/jonesrussell/streetcode-ingestor/internal/textutil"
)

const (
	// articleSlugConstraint names the unique constraint on articles.slug.
	articleSlugConstraint = "articles_slug_key"
	// fallbackArticleSlug is used when a title has no sluggable characters.
	fallbackArticleSlug = "article"
	// maxSlugAttempts bounds retries when concurrent writers race for a slug.
	maxSlugAttempts = 5
	// slugSuffixReserve is the room kept for a "-N" suffix of up to seven digits.
	slugSuffixReserve = 8
)

// ErrSlugExhausted is returned when no free slug was found within maxSlugAttempts.
var ErrSlugExhausted = errors.New("article slug attempts exhausted")

const articleColumns = `
	id, news_source_id, city_id, external_id, title, slug, excerpt, content, url,
	image_url, author, status, published_at, crawled_at, metadata, view_count,
	is_featured, deleted_at, created_at, updated_at
`

// ArticleRepository persists articles.
type ArticleRepository struct {
	db *sqlx.DB
}

// NewArticleRepository creates a new article repository.
func NewArticleRepository(db *sqlx.DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

// WithTx runs fn inside a transaction on the repository's database.
func (r *ArticleRepository) WithTx(ctx context.Context, fn func(q sqlx.ExtContext) error) error {
	return InTx(ctx, r.db, fn)
}

// ExternalIDExists reports whether an article with externalID is stored,
// soft-deleted rows included.
func (r *ArticleRepository) ExternalIDExists(ctx context.Context, externalID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM articles WHERE external_id = $1)`

	if err := r.db.GetContext(ctx, &exists, query, externalID); err != nil {
		return false, fmt.Errorf("failed to check article %q: %w", externalID, err)
	}
	return exists, nil
}

// InsertArticle writes a within the transaction q, assigning its slug, id and
// timestamps. It returns domain.ErrAlreadyExists when the external_id or url
// is already stored. Slug collisions are retried with the next free suffix.
func (r *ArticleRepository) InsertArticle(ctx context.Context, q sqlx.ExtContext, a *domain.Article) error {
	base := articleSlugBase(a.Title)

	for range maxSlugAttempts {
		slug, err := nextSlug(ctx, q, base)
		if err != nil {
			return err
		}
		a.Slug = slug

		retry, insertErr := insertArticle(ctx, q, a)
		if !retry {
			return insertErr
		}
	}

	return fmt.Errorf("%w: %q", ErrSlugExhausted, base)
}

// insertArticle runs one attempt under a savepoint so that a unique violation
// leaves the enclosing transaction usable. retry is true only for a slug race.
func insertArticle(ctx context.Context, q sqlx.ExtContext, a *domain.Article) (retry bool, err error) {
	if _, err = q.ExecContext(ctx, `SAVEPOINT article_insert`); err != nil {
		return false, fmt.Errorf("failed to create savepoint: %w", err)
	}

	query := `
		INSERT INTO articles (
			news_source_id, city_id, external_id, title, slug, excerpt, content,
			url, image_url, author, status, published_at, crawled_at, metadata
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (external_id) DO NOTHING
		RETURNING id, created_at, updated_at
	`

	err = q.QueryRowxContext(ctx, query,
		a.NewsSourceID, a.CityID, a.ExternalID, a.Title, a.Slug, a.Excerpt, a.Content,
		a.URL, a.ImageURL, a.Author, a.Status, a.PublishedAt, a.CrawledAt, a.Metadata,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)

	switch {
	case err == nil:
		if _, relErr := q.ExecContext(ctx, `RELEASE SAVEPOINT article_insert`); relErr != nil {
			return false, fmt.Errorf("failed to release savepoint: %w", relErr)
		}
		return false, nil
	case errors.Is(err, sql.ErrNoRows):
		return false, fmt.Errorf("article %s: %w", deref(a.ExternalID), domain.ErrAlreadyExists)
	case isUniqueViolation(err):
		if _, rbErr := q.ExecContext(ctx, `ROLLBACK TO SAVEPOINT article_insert`); rbErr != nil {
			return false, fmt.Errorf("failed to roll back savepoint: %w", rbErr)
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Constraint == articleSlugConstraint {
			return true, nil
		}
		return false, fmt.Errorf("article %s: %w", deref(a.ExternalID), domain.ErrAlreadyExists)
	default:
		return false, fmt.Errorf("failed to insert article: %w", err)
	}
}

// nextSlug returns base, or base-N for the smallest free N. Long bases are
// truncated to fit the suffix, so candidates are looked up by the shortest
// stem any suffix can leave.
func nextSlug(ctx context.Context, q sqlx.ExtContext, base string) (string, error) {
	pattern := base + "-%"
	if stem := textutil.TruncateSlug(base, textutil.MaxSlugLength-slugSuffixReserve); stem != base {
		pattern = stem + "%"
	}

	var taken []string
	query := `SELECT slug FROM articles WHERE slug = $1 OR slug LIKE $2`

	if err := sqlx.SelectContext(ctx, q, &taken, query, base, pattern); err != nil {
		return "", fmt.Errorf("failed to list slugs for %q: %w", base, err)
	}

	return pickSlug(base, taken), nil
}

// pickSlug returns the first of base, base-1, base-2, ... absent from taken.
// At most len(taken)+1 suffixes can be needed.
func pickSlug(base string, taken []string) string {
	used := make(map[string]struct{}, len(taken))
	for _, s := range taken {
		used[s] = struct{}{}
	}
	if _, ok := used[base]; !ok {
		return base
	}

	var slug string
	for n := 1; n <= len(taken)+1; n++ {
		slug = suffixedSlug(base, n)
		if _, ok := used[slug]; !ok {
			break
		}
	}
	return slug
}

func suffixedSlug(base string, n int) string {
	suffix := "-" + strconv.Itoa(n)
	return textutil.TruncateSlug(base, textutil.MaxSlugLength-len(suffix)) + suffix
}

func articleSlugBase(title string) string {
	slug := textutil.TruncateSlug(textutil.Slugify(title), textutil.MaxSlugLength)
	if slug == "" {
		return fallbackArticleSlug
	}
	return slug
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
