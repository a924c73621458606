package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/streetcode-ingestor/internal/domain"
)

const cityColumns = `
	id, city_slug, city_name, region_code, region_name, country_code, country_name,
	article_count, created_at, updated_at
`

// CityRepository persists cities.
type CityRepository struct {
	db *sqlx.DB
}

// NewCityRepository creates a new city repository.
func NewCityRepository(db *sqlx.DB) *CityRepository {
	return &CityRepository{db: db}
}

// UpsertCity inserts city keyed by (country_code, region_code, city_slug) or
// returns the existing row. Display names of an existing row are kept.
func (r *CityRepository) UpsertCity(ctx context.Context, city *domain.City) (*domain.City, error) {
	query := `
		INSERT INTO cities (city_slug, city_name, region_code, region_name, country_code, country_name)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (country_code, region_code, city_slug) DO UPDATE
		SET city_slug = EXCLUDED.city_slug
		RETURNING ` + cityColumns

	var stored domain.City
	err := r.db.QueryRowxContext(ctx, query,
		city.CitySlug, city.CityName, city.RegionCode, city.RegionName, city.CountryCode, city.CountryName,
	).StructScan(&stored)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert city %s/%s/%s: %w",
			city.CountryCode, city.RegionCode, city.CitySlug, err)
	}

	return &stored, nil
}

// IncrementArticleCount adds one to the article count of cityID within q.
func (r *CityRepository) IncrementArticleCount(ctx context.Context, q sqlx.ExtContext, cityID int64) error {
	query := `UPDATE cities SET article_count = article_count + 1, updated_at = NOW() WHERE id = $1`

	if _, err := q.ExecContext(ctx, query, cityID); err != nil {
		return fmt.Errorf("failed to increment city %d article count: %w", cityID, err)
	}
	return nil
}
