// Package sources maps inbound articles to deduplicated news sources.
package sources

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/jonesrussell/streetcode-ingestor/internal/domain"
	"github.com/jonesrussell/streetcode-ingestor/internal/logger"
	"github.com/jonesrussell/streetcode-ingestor/internal/textutil"
)

const (
	// UnknownSlug keys the shared source used when nothing identifies the publisher.
	UnknownSlug = "unknown"
	// UnknownName is the display name of the shared unknown source.
	UnknownName = "Unknown Source"
	// UnknownURL is the placeholder URL of the shared unknown source.
	UnknownURL = "https://unknown.example.com"
)

// Store persists news sources.
type Store interface {
	UpsertSource(ctx context.Context, src *domain.NewsSource) (int64, error)
}

// Input carries the message fields a source is derived from.
type Input struct {
	// SourceURL is the first non-empty of source, og_url and canonical_url.
	SourceURL string
	// Channel is publisher.channel, e.g. "crime:homepage".
	Channel string
	// Reputation is source_reputation when present.
	Reputation *float64
}

// InputFromMessage builds the resolver input for m.
func InputFromMessage(m *domain.IncomingMessage) Input {
	return Input{
		SourceURL:  m.SourceURL(),
		Channel:    m.Channel(),
		Reputation: m.SourceReputation,
	}
}

// Resolver finds or creates the source an article is attributed to.
type Resolver struct {
	store Store
	log   logger.Logger
}

// NewResolver creates a Resolver.
func NewResolver(store Store, log logger.Logger) *Resolver {
	return &Resolver{store: store, log: log}
}

// Resolve returns the id of the source identified by in, creating it on
// first sight. Derivation falls back from the URL host to the channel topic
// and finally to the shared unknown source.
func (r *Resolver) Resolve(ctx context.Context, in Input) (int64, error) {
	src := Derive(in)

	id, err := r.store.UpsertSource(ctx, src)
	if err != nil {
		return 0, fmt.Errorf("resolve source %q: %w", src.Slug, err)
	}

	r.log.Debug("Resolved news source",
		logger.String("slug", src.Slug),
		logger.Int64("source_id", id),
	)
	return id, nil
}

// Derive computes the source record for in without touching storage.
func Derive(in Input) *domain.NewsSource {
	src := fromURL(in.SourceURL)
	if src == nil {
		src = fromChannel(in.Channel)
	}
	if src == nil {
		src = &domain.NewsSource{Name: UnknownName, Slug: UnknownSlug, URL: UnknownURL}
	}

	src.IsActive = true
	src.CredibilityScore = credibility(in.Reputation)
	return src
}

func fromURL(raw string) *domain.NewsSource {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	label, _, _ := strings.Cut(host, ".")

	slug := textutil.Slugify(label)
	if slug == "" {
		return nil
	}

	return &domain.NewsSource{
		Name: textutil.Title(label),
		Slug: slug,
		URL:  raw,
	}
}

func fromChannel(channel string) *domain.NewsSource {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return nil
	}

	topic := channel
	if _, after, found := strings.Cut(channel, ":"); found {
		topic = after
	}

	slug := textutil.Slugify(topic)
	if slug == "" {
		return nil
	}

	return &domain.NewsSource{
		Name: textutil.Humanize(slug),
		Slug: slug,
		URL:  "https://" + slug + ".example.com",
	}
}

// credibility rounds a source_reputation score to the stored integer scale.
func credibility(reputation *float64) *int {
	if reputation == nil || math.IsNaN(*reputation) || math.IsInf(*reputation, 0) {
		return nil
	}
	score := int(math.Round(*reputation))
	return &score
}
