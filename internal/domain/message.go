package domain

import (
	"fmt"
	"strings"
	"time"
)

// UntitledArticle is stored when a message carries neither title nor og_title.
const UntitledArticle = "Untitled Article"

// defaultChannel names the placeholder host when a message carries no channel.
const defaultChannel = "articles"

// minPublishedYear rejects zero-value dates such as 0001-01-01.
const minPublishedYear = 1970

// PublisherInfo is the routing envelope the publisher attaches to a message.
type PublisherInfo struct {
	RouteID     any     `json:"route_id"`
	PublishedAt *string `json:"published_at"`
	Channel     *string `json:"channel"`
}

// IncomingMessage is an article as delivered on a pub/sub channel. Optional
// fields are pointers so that absence is distinguishable from zero values.
type IncomingMessage struct {
	ID            string   `json:"id"`
	Title         *string  `json:"title"`
	OGTitle       *string  `json:"og_title"`
	CanonicalURL  *string  `json:"canonical_url"`
	OGURL         *string  `json:"og_url"`
	Source        *string  `json:"source"`
	PublishedDate *string  `json:"published_date"`
	Body          *string  `json:"body"`
	RawText       *string  `json:"raw_text"`
	Intro         *string  `json:"intro"`
	Description   *string  `json:"description"`
	OGDescription *string  `json:"og_description"`
	OGImage       *string  `json:"og_image"`
	Author        *string  `json:"author"`
	Topics        []string `json:"topics"`

	LocationCity       *string  `json:"location_city"`
	LocationProvince   *string  `json:"location_province"`
	LocationCountry    *string  `json:"location_country"`
	LocationConfidence *float64 `json:"location_confidence"`

	CrimeRelevance   *string  `json:"crime_relevance"`
	QualityScore     *float64 `json:"quality_score"`
	SourceReputation *float64 `json:"source_reputation"`
	Confidence       *float64 `json:"confidence"`
	IsCrimeRelated   *bool    `json:"is_crime_related"`
	ContentType      *string  `json:"content_type"`
	WordCount        *float64 `json:"word_count"`
	Category         *string  `json:"category"`
	Section          *string  `json:"section"`
	Keywords         []string `json:"keywords"`

	Publisher *PublisherInfo `json:"publisher"`
}

// Validate checks the fields every message must carry.
func (m *IncomingMessage) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidMessage)
	}
	if m.Title == nil && m.OGTitle == nil {
		return fmt.Errorf("%w: missing title and og_title", ErrInvalidMessage)
	}
	return nil
}

// ResolvedTitle returns title, else og_title, else the placeholder.
func (m *IncomingMessage) ResolvedTitle() string {
	return firstNonEmpty(UntitledArticle, m.Title, m.OGTitle)
}

// Excerpt returns intro, else description, else og_description.
func (m *IncomingMessage) Excerpt() *string {
	return firstPresent(m.Intro, m.Description, m.OGDescription)
}

// RawContent returns body, else raw_text.
func (m *IncomingMessage) RawContent() string {
	return firstNonEmpty("", m.Body, m.RawText)
}

// Channel returns publisher.channel or "".
func (m *IncomingMessage) Channel() string {
	if m.Publisher == nil {
		return ""
	}
	return deref(m.Publisher.Channel)
}

// SourceURL returns source, else og_url, else canonical_url.
func (m *IncomingMessage) SourceURL() string {
	return firstNonEmpty("", m.Source, m.OGURL, m.CanonicalURL)
}

// ArticleURL returns canonical_url, else og_url, else source, else a
// placeholder built from the channel and external id.
func (m *IncomingMessage) ArticleURL() string {
	if u := firstNonEmpty("", m.CanonicalURL, m.OGURL, m.Source); u != "" {
		return u
	}

	channel := m.Channel()
	if channel == "" {
		channel = defaultChannel
	}

	return fmt.Sprintf("https://%s.example.com/%s", strings.ReplaceAll(channel, ":", "-"), m.ID)
}

// PublishedAt returns published_date when it parses with a year after 1970,
// else publisher.published_at when it parses, else now.
func (m *IncomingMessage) PublishedAt(now time.Time) time.Time {
	if t, ok := ParseTimestamp(deref(m.PublishedDate)); ok && t.Year() > minPublishedYear {
		return t
	}
	if m.Publisher != nil {
		if t, ok := ParseTimestamp(deref(m.Publisher.PublishedAt)); ok {
			return t
		}
	}
	return now
}

// HasLocation reports whether the location triple is complete and known.
func (m *IncomingMessage) HasLocation() bool {
	return deref(m.LocationCity) != "" &&
		deref(m.LocationProvince) != "" &&
		deref(m.LocationCountry) != "" &&
		deref(m.LocationCountry) != LocationCountryUnknown
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02",
}

// ParseTimestamp parses s against the layouts upstream is known to emit.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func firstNonEmpty(fallback string, candidates ...*string) string {
	for _, c := range candidates {
		if c != nil && *c != "" {
			return *c
		}
	}
	return fallback
}

func firstPresent(candidates ...*string) *string {
	for _, c := range candidates {
		if c != nil && *c != "" {
			return c
		}
	}
	return nil
}
