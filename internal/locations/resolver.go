// Package locations resolves upstream location triples to City records.
package locations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jonesrussell/streetcode-ingestor/internal/domain"
	"github.com/jonesrussell/streetcode-ingestor/internal/logger"
	"github.com/jonesrussell/streetcode-ingestor/internal/textutil"
)

// ErrIncompleteLocation is returned when a location triple cannot key a city.
var ErrIncompleteLocation = errors.New("incomplete location")

// Store persists cities.
type Store interface {
	UpsertCity(ctx context.Context, city *domain.City) (*domain.City, error)
}

// Resolver finds or creates cities.
type Resolver struct {
	store Store
	log   logger.Logger
}

// NewResolver creates a Resolver.
func NewResolver(store Store, log logger.Logger) *Resolver {
	return &Resolver{store: store, log: log}
}

// FindOrCreate returns the city keyed by the normalized triple, creating it
// with display names on first sight. It never changes article_count.
func (r *Resolver) FindOrCreate(ctx context.Context, citySlug, regionCode, countryName string) (*domain.City, error) {
	city, err := Normalize(citySlug, regionCode, countryName)
	if err != nil {
		return nil, err
	}

	stored, err := r.store.UpsertCity(ctx, city)
	if err != nil {
		return nil, fmt.Errorf("find or create city: %w", err)
	}

	r.log.Debug("Resolved city",
		logger.Int64("city_id", stored.ID),
		logger.String("country_code", stored.CountryCode),
		logger.String("region_code", stored.RegionCode),
		logger.String("city_slug", stored.CitySlug),
	)
	return stored, nil
}

// Normalize builds the city record for a location triple without touching
// storage.
func Normalize(citySlug, regionCode, countryName string) (*domain.City, error) {
	slug := textutil.Slugify(citySlug)
	region := strings.ToUpper(strings.TrimSpace(regionCode))
	country := strings.TrimSpace(countryName)

	if slug == "" || region == "" || country == "" ||
		strings.EqualFold(country, domain.LocationCountryUnknown) {
		return nil, fmt.Errorf("%w: city=%q region=%q country=%q",
			ErrIncompleteLocation, citySlug, regionCode, countryName)
	}

	code := CountryCode(country)

	return &domain.City{
		CitySlug:    slug,
		CityName:    textutil.Humanize(slug),
		RegionCode:  region,
		RegionName:  RegionName(code, region),
		CountryCode: code,
		CountryName: CountryName(code, country),
	}, nil
}

// CountryCode maps a country name to its two-letter code, falling back to
// the first two characters of the name, lower-cased.
func CountryCode(countryName string) string {
	key := strings.ToLower(strings.TrimSpace(countryName))
	if code, ok := countryCodes[key]; ok {
		return code
	}

	runes := []rune(key)
	if len(runes) > 2 {
		runes = runes[:2]
	}
	return string(runes)
}

// RegionName returns the tabled display name of a region, else the code.
func RegionName(countryCode, regionCode string) string {
	if name, ok := regionNames[countryCode][regionCode]; ok {
		return name
	}
	return regionCode
}

// CountryName returns the tabled display name of a country code, else the
// title-cased input name.
func CountryName(countryCode, input string) string {
	if name, ok := countryNames[countryCode]; ok {
		return name
	}
	return textutil.Humanize(input)
}
