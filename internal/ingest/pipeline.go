// Package ingest turns one inbound message into at most one persisted article.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jonesrussell/streetcode-ingestor/internal/classifier"
	"github.com/jonesrussell/streetcode-ingestor/internal/domain"
	"github.com/jonesrussell/streetcode-ingestor/internal/logger"
	"github.com/jonesrussell/streetcode-ingestor/internal/sources"
	"github.com/jonesrussell/streetcode-ingestor/internal/tags"
)

const tracerName = "streetcode-ingestor/ingest"

// ArticleStore persists articles inside transactions.
type ArticleStore interface {
	ExternalIDExists(ctx context.Context, externalID string) (bool, error)
	WithTx(ctx context.Context, fn func(q sqlx.ExtContext) error) error
	InsertArticle(ctx context.Context, q sqlx.ExtContext, a *domain.Article) error
}

// CityCounter maintains city article counts inside the article transaction.
type CityCounter interface {
	IncrementArticleCount(ctx context.Context, q sqlx.ExtContext, cityID int64) error
}

// SourceResolver resolves the news source of a message.
type SourceResolver interface {
	Resolve(ctx context.Context, in sources.Input) (int64, error)
}

// LocationResolver resolves a location triple to a city.
type LocationResolver interface {
	FindOrCreate(ctx context.Context, citySlug, regionCode, countryName string) (*domain.City, error)
}

// TagReconciler replaces the tag set of an article.
type TagReconciler interface {
	Reconcile(ctx context.Context, q sqlx.ExtContext, articleID int64, topics []string, confidence *float64) error
}

// Sanitizer cleans article markup.
type Sanitizer interface {
	Sanitize(raw string) (string, error)
}

// Deps bundles the collaborators of a Pipeline.
type Deps struct {
	Articles  ArticleStore
	Cities    CityCounter
	Sources   SourceResolver
	Locations LocationResolver
	Tags      TagReconciler
	Sanitizer Sanitizer
}

// Options tunes the classification gate.
type Options struct {
	// ClassifyMissingRelevance computes a verdict from the title when a
	// message carries no crime_relevance.
	ClassifyMissingRelevance bool
}

// Pipeline validates, gates and persists messages. It is safe for
// concurrent use; each call to Process is independent.
type Pipeline struct {
	deps   Deps
	opts   Options
	log    logger.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// NewPipeline creates a Pipeline.
func NewPipeline(deps Deps, opts Options, log logger.Logger) *Pipeline {
	return &Pipeline{
		deps:   deps,
		opts:   opts,
		log:    log,
		tracer: otel.Tracer(tracerName),
		now:    time.Now,
	}
}

// verdict is the outcome of the classification gate.
type verdict struct {
	relevance string
	// computed is set when the verdict came from the title classifier.
	computed *classifier.Result
}

// Process runs m through the pipeline. The error is non-nil only for
// OutcomeFailed; every other outcome is a deliberate drop or a success.
func (p *Pipeline) Process(ctx context.Context, m *domain.IncomingMessage) (Outcome, error) {
	externalID := ""
	if m != nil {
		externalID = m.ID
	}

	ctx, span := p.tracer.Start(ctx, "ingest.process",
		trace.WithAttributes(attribute.String("external_id", externalID)))
	defer span.End()

	outcome, err := p.process(ctx, m)

	span.SetAttributes(attribute.String("outcome", string(outcome)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return outcome, err
}

func (p *Pipeline) process(ctx context.Context, m *domain.IncomingMessage) (Outcome, error) {
	if m == nil {
		p.log.Warn("Rejected invalid message", logger.String("reason", "nil message"))
		return OutcomeInvalid, nil
	}
	if err := m.Validate(); err != nil {
		p.log.Warn("Rejected invalid message",
			logger.String("external_id", m.ID),
			logger.Error(err),
		)
		return OutcomeInvalid, nil
	}

	log := p.log.With(logger.String("external_id", m.ID))
	title := m.ResolvedTitle()

	v := p.gate(m, title)
	if v.relevance != domain.RelevanceCoreStreetCrime {
		log.Info("Skipped non-core article",
			logger.String("crime_relevance", v.relevance),
			logger.String("title", title),
		)
		return OutcomeSkippedNonCore, nil
	}

	exists, err := p.deps.Articles.ExternalIDExists(ctx, m.ID)
	if err != nil {
		return p.fail(log, "check duplicate", err)
	}
	if exists {
		log.Debug("Skipped duplicate article")
		return OutcomeDuplicate, nil
	}

	sourceID, err := p.deps.Sources.Resolve(ctx, sources.InputFromMessage(m))
	if err != nil {
		return p.fail(log, "resolve source", err)
	}

	article := p.buildArticle(log, m, title, v)
	article.NewsSourceID = &sourceID
	article.CityID = p.linkCity(ctx, log, m)
	topics := tags.Select(m.Topics, title)

	err = p.deps.Articles.WithTx(ctx, func(q sqlx.ExtContext) error {
		if insertErr := p.deps.Articles.InsertArticle(ctx, q, article); insertErr != nil {
			return insertErr
		}
		if article.CityID != nil {
			if countErr := p.deps.Cities.IncrementArticleCount(ctx, q, *article.CityID); countErr != nil {
				return countErr
			}
		}
		return p.deps.Tags.Reconcile(ctx, q, article.ID, topics, m.Confidence)
	})
	if errors.Is(err, domain.ErrAlreadyExists) {
		log.Debug("Skipped duplicate article", logger.String("reason", "unique constraint"))
		return OutcomeDuplicate, nil
	}
	if err != nil {
		return p.fail(log, "persist article", err)
	}

	fields := []logger.Field{
		logger.Int64("article_id", article.ID),
		logger.String("slug", article.Slug),
		logger.Int64("source_id", sourceID),
		logger.Strings("tags", topics),
	}
	if article.CityID != nil {
		fields = append(fields, logger.Int64("city_id", *article.CityID))
	}
	log.Info("Ingested article", fields...)

	return OutcomeIngested, nil
}

// gate decides the relevance of m. A missing crime_relevance is computed
// from the title when enabled, and otherwise fails the gate.
func (p *Pipeline) gate(m *domain.IncomingMessage, title string) verdict {
	if m.CrimeRelevance != nil {
		return verdict{relevance: *m.CrimeRelevance}
	}
	if !p.opts.ClassifyMissingRelevance {
		return verdict{}
	}

	result := classifier.Classify(title)
	return verdict{relevance: result.Relevance, computed: &result}
}

func (p *Pipeline) buildArticle(log logger.Logger, m *domain.IncomingMessage, title string, v verdict) *domain.Article {
	now := p.now()
	externalID := m.ID

	md := domain.MetadataFromMessage(m)
	if v.computed != nil {
		relevance := v.computed.Relevance
		source := domain.RelevanceSourceIngest
		confidence := v.computed.Confidence
		md.CrimeRelevance = &relevance
		md.CrimeRelevanceSource = &source
		md.CrimeRelevanceConfidence = &confidence
		if len(v.computed.CrimeTypes) > 0 {
			md.CrimeTypes = v.computed.CrimeTypes
		}
	}

	return &domain.Article{
		ExternalID:  &externalID,
		Title:       title,
		Excerpt:     m.Excerpt(),
		Content:     p.sanitize(log, m.RawContent()),
		URL:         m.ArticleURL(),
		ImageURL:    nonEmpty(m.OGImage),
		Author:      nonEmpty(m.Author),
		Status:      domain.ArticleStatusPublished,
		PublishedAt: m.PublishedAt(now),
		CrawledAt:   now,
		Metadata:    md,
	}
}

// sanitize returns the cleaned content, or nil when it is empty or the
// markup cannot be processed.
func (p *Pipeline) sanitize(log logger.Logger, raw string) *string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	cleaned, err := p.deps.Sanitizer.Sanitize(raw)
	if err != nil {
		log.Warn("Dropped unsanitizable content", logger.Error(err))
		return nil
	}
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

// linkCity resolves the message location. Failures are logged and the
// article is stored without a city.
func (p *Pipeline) linkCity(ctx context.Context, log logger.Logger, m *domain.IncomingMessage) *int64 {
	if !m.HasLocation() {
		return nil
	}

	city, err := p.deps.Locations.FindOrCreate(ctx, *m.LocationCity, *m.LocationProvince, *m.LocationCountry)
	if err != nil {
		log.Error("Failed to resolve article location",
			logger.String("location_city", *m.LocationCity),
			logger.String("location_province", *m.LocationProvince),
			logger.String("location_country", *m.LocationCountry),
			logger.Error(err),
		)
		return nil
	}

	id := city.ID
	return &id
}

func (p *Pipeline) fail(log logger.Logger, step string, err error) (Outcome, error) {
	log.Error("Failed to ingest article",
		logger.String("step", step),
		logger.Error(err),
	)
	return OutcomeFailed, fmt.Errorf("%s: %w", step, err)
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
