package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Article is a persisted crime news article.
type Article struct {
	ID           int64           `db:"id"             json:"id"`
	NewsSourceID *int64          `db:"news_source_id" json:"news_source_id,omitempty"`
	CityID       *int64          `db:"city_id"        json:"city_id,omitempty"`
	ExternalID   *string         `db:"external_id"    json:"external_id,omitempty"`
	Title        string          `db:"title"          json:"title"`
	Slug         string          `db:"slug"           json:"slug"`
	Excerpt      *string         `db:"excerpt"        json:"excerpt,omitempty"`
	Content      *string         `db:"content"        json:"content,omitempty"`
	URL          string          `db:"url"            json:"url"`
	ImageURL     *string         `db:"image_url"      json:"image_url,omitempty"`
	Author       *string         `db:"author"         json:"author,omitempty"`
	Status       string          `db:"status"         json:"status"`
	PublishedAt  time.Time       `db:"published_at"   json:"published_at"`
	CrawledAt    time.Time       `db:"crawled_at"     json:"crawled_at"`
	Metadata     ArticleMetadata `db:"metadata"       json:"metadata"`
	ViewCount    int64           `db:"view_count"     json:"view_count"`
	IsFeatured   bool            `db:"is_featured"    json:"is_featured"`
	DeletedAt    *time.Time      `db:"deleted_at"     json:"deleted_at,omitempty"`
	CreatedAt    time.Time       `db:"created_at"     json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"     json:"updated_at"`
}

// ArticleMetadata is the typed metadata bag. Nil fields were absent from the
// source message and are omitted from the stored JSON.
type ArticleMetadata struct {
	Publisher        *PublisherInfo `json:"publisher,omitempty"`
	QualityScore     *float64       `json:"quality_score,omitempty"`
	SourceReputation *float64       `json:"source_reputation,omitempty"`
	Confidence       *float64       `json:"confidence,omitempty"`
	IsCrimeRelated   *bool          `json:"is_crime_related,omitempty"`
	CrimeRelevance   *string        `json:"crime_relevance,omitempty"`
	ContentType      *string        `json:"content_type,omitempty"`
	WordCount        *float64       `json:"word_count,omitempty"`
	Category         *string        `json:"category,omitempty"`
	Section          *string        `json:"section,omitempty"`
	Keywords         []string       `json:"keywords,omitempty"`
	OGTitle          *string        `json:"og_title,omitempty"`
	OGDescription    *string        `json:"og_description,omitempty"`
	OGURL            *string        `json:"og_url,omitempty"`

	LocationCity       *string  `json:"location_city,omitempty"`
	LocationProvince   *string  `json:"location_province,omitempty"`
	LocationCountry    *string  `json:"location_country,omitempty"`
	LocationConfidence *float64 `json:"location_confidence,omitempty"`

	// Written by the reclassify job.
	CrimeRelevanceSource     *string  `json:"crime_relevance_source,omitempty"`
	CrimeRelevanceConfidence *float64 `json:"crime_relevance_confidence,omitempty"`
	CrimeTypes               []string `json:"crime_types,omitempty"`
}

// MetadataFromMessage copies the allow-listed optional fields of m.
func MetadataFromMessage(m *IncomingMessage) ArticleMetadata {
	md := ArticleMetadata{
		QualityScore:       m.QualityScore,
		SourceReputation:   m.SourceReputation,
		Confidence:         m.Confidence,
		IsCrimeRelated:     m.IsCrimeRelated,
		CrimeRelevance:     m.CrimeRelevance,
		ContentType:        m.ContentType,
		WordCount:          m.WordCount,
		Category:           m.Category,
		Section:            m.Section,
		Keywords:           m.Keywords,
		OGTitle:            m.OGTitle,
		OGDescription:      m.OGDescription,
		OGURL:              m.OGURL,
		LocationCity:       m.LocationCity,
		LocationProvince:   m.LocationProvince,
		LocationCountry:    m.LocationCountry,
		LocationConfidence: m.LocationConfidence,
	}

	if m.Publisher != nil {
		p := *m.Publisher
		md.Publisher = &p
	}

	return md
}

// HasLocation reports whether the stored location triple is complete and known.
func (md *ArticleMetadata) HasLocation() bool {
	return deref(md.LocationCity) != "" &&
		deref(md.LocationProvince) != "" &&
		deref(md.LocationCountry) != "" &&
		deref(md.LocationCountry) != LocationCountryUnknown
}

// Value implements driver.Valuer for JSONB storage.
func (md ArticleMetadata) Value() (driver.Value, error) {
	b, err := json.Marshal(md)
	if err != nil {
		return nil, fmt.Errorf("marshal article metadata: %w", err)
	}
	return b, nil
}

// Scan implements sql.Scanner for JSONB storage.
func (md *ArticleMetadata) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*md = ArticleMetadata{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("article metadata: unsupported scan type")
	}

	if len(data) == 0 {
		*md = ArticleMetadata{}
		return nil
	}
	return json.Unmarshal(data, md)
}

// NewsSource is a publication articles are attributed to.
type NewsSource struct {
	ID               int64     `db:"id"                json:"id"`
	Name             string    `db:"name"              json:"name"`
	Slug             string    `db:"slug"              json:"slug"`
	URL              string    `db:"url"               json:"url"`
	CredibilityScore *int      `db:"credibility_score" json:"credibility_score,omitempty"`
	IsActive         bool      `db:"is_active"         json:"is_active"`
	CreatedAt        time.Time `db:"created_at"        json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"        json:"updated_at"`
}

// City is a geographic location articles are linked to.
type City struct {
	ID           int64     `db:"id"            json:"id"`
	CitySlug     string    `db:"city_slug"     json:"city_slug"`
	CityName     string    `db:"city_name"     json:"city_name"`
	RegionCode   string    `db:"region_code"   json:"region_code"`
	RegionName   string    `db:"region_name"   json:"region_name"`
	CountryCode  string    `db:"country_code"  json:"country_code"`
	CountryName  string    `db:"country_name"  json:"country_name"`
	ArticleCount int64     `db:"article_count" json:"article_count"`
	CreatedAt    time.Time `db:"created_at"    json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"    json:"updated_at"`
}

// Tag labels articles.
type Tag struct {
	ID           int64     `db:"id"            json:"id"`
	Name         string    `db:"name"          json:"name"`
	Slug         string    `db:"slug"          json:"slug"`
	Type         string    `db:"type"          json:"type"`
	ArticleCount int64     `db:"article_count" json:"article_count"`
	CreatedAt    time.Time `db:"created_at"    json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"    json:"updated_at"`
}
