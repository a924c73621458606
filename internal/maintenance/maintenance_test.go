package maintenance_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/streetcode-ingestor/internal/database"
	"github.com/jonesrussell/streetcode-ingestor/internal/domain"
	"github.com/jonesrussell/streetcode-ingestor/internal/logger"
	"github.com/jonesrussell/streetcode-ingestor/internal/maintenance"
	"github.com/jonesrussell/streetcode-ingestor/internal/metrics"
)

func ptr[T any](v T) *T { return &v }

// fakeArticles evaluates the two filter shapes the jobs build: title
// patterns (ILIKE arguments) and the non-core relevance filter.
type fakeArticles struct {
	articles   []*domain.Article
	cityCount  map[int64]int
	updateErr  error
	softDelErr error
}

func newFakeArticles(articles ...*domain.Article) *fakeArticles {
	sort.Slice(articles, func(i, j int) bool { return articles[i].ID < articles[j].ID })
	return &fakeArticles{articles: articles, cityCount: map[int64]int{}}
}

func (f *fakeArticles) ListBatch(_ context.Context, filter database.ArticleBatchFilter) ([]domain.Article, error) {
	var out []domain.Article
	for _, a := range f.articles {
		if a.DeletedAt != nil || a.ID <= filter.AfterID {
			continue
		}
		if filter.MissingRelevance && a.Metadata.CrimeRelevance != nil {
			continue
		}
		if filter.MissingCity && (a.CityID != nil || a.Metadata.LocationCity == nil) {
			continue
		}
		out = append(out, *a)
		if uint64(len(out)) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (f *fakeArticles) UpdateMetadata(_ context.Context, id int64, md domain.ArticleMetadata) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.byID(id).Metadata = md
	return nil
}

func (f *fakeArticles) LinkCity(_ context.Context, articleID, cityID int64) (bool, error) {
	a := f.byID(articleID)
	if a.CityID != nil {
		return false, nil
	}
	a.CityID = &cityID
	f.cityCount[cityID]++
	return true, nil
}

func (f *fakeArticles) Count(_ context.Context, where sq.Sqlizer) (int64, error) {
	return int64(len(f.matching(where))), nil
}

func (f *fakeArticles) Sample(_ context.Context, where sq.Sqlizer, limit uint64) ([]database.ArticleSummary, error) {
	var out []database.ArticleSummary
	for _, a := range f.matching(where) {
		if uint64(len(out)) == limit {
			break
		}
		out = append(out, database.ArticleSummary{ID: a.ID, ExternalID: a.ExternalID, Title: a.Title})
	}
	return out, nil
}

func (f *fakeArticles) SoftDelete(_ context.Context, where sq.Sqlizer) (int64, error) {
	if f.softDelErr != nil {
		return 0, f.softDelErr
	}
	matched := f.matching(where)
	for _, a := range matched {
		a.DeletedAt = ptr(a.CreatedAt)
	}
	return int64(len(matched)), nil
}

func (f *fakeArticles) matching(where sq.Sqlizer) []*domain.Article {
	query, args, err := where.ToSql()
	if err != nil {
		panic(err)
	}

	var out []*domain.Article
	for _, a := range f.articles {
		if a.DeletedAt != nil {
			continue
		}
		if strings.Contains(query, "ILIKE") {
			if titleMatches(a.Title, args) {
				out = append(out, a)
			}
			continue
		}
		if strings.Contains(query, "crime_relevance") {
			if a.Metadata.CrimeRelevance == nil || *a.Metadata.CrimeRelevance != domain.RelevanceCoreStreetCrime {
				out = append(out, a)
			}
		}
	}
	return out
}

func titleMatches(title string, args []any) bool {
	for _, arg := range args {
		s, ok := arg.(string)
		if !ok {
			continue
		}
		needle := strings.ToLower(strings.Trim(s, "%"))
		if strings.Contains(strings.ToLower(title), needle) {
			return true
		}
	}
	return false
}

func (f *fakeArticles) byID(id int64) *domain.Article {
	for _, a := range f.articles {
		if a.ID == id {
			return a
		}
	}
	panic("unknown article")
}

type fakeLocations struct {
	cities map[string]int64
	fail   map[string]bool
}

func (l *fakeLocations) FindOrCreate(_ context.Context, citySlug, _, _ string) (*domain.City, error) {
	if l.fail[citySlug] {
		return nil, errors.New("unknown region")
	}
	return &domain.City{ID: l.cities[citySlug], CitySlug: citySlug}, nil
}

type fakeTags struct {
	n   int64
	err error
}

func (t *fakeTags) RecountArticleCounts(context.Context) (int64, error) { return t.n, t.err }

func article(id int64, title string) *domain.Article {
	return &domain.Article{ID: id, Title: title, ExternalID: ptr("ext-" + title)}
}

func newRunner(store *fakeArticles, c *metrics.Collectors) *maintenance.Runner {
	return maintenance.NewRunner(maintenance.Deps{
		Articles: store,
		Locations: &fakeLocations{
			cities: map[string]int64{"sudbury": 10, "toronto": 11},
			fail:   map[string]bool{"atlantis": true},
		},
		Tags:       &fakeTags{n: 6},
		Collectors: c,
	}, logger.NewNop())
}

func TestReclassify_MissingOnly(t *testing.T) {
	classified := article(2, "Weekend weather outlook")
	classified.Metadata.CrimeRelevance = ptr(domain.RelevanceNotCrime)

	store := newFakeArticles(
		article(1, "Man charged with murder in Sudbury"),
		classified,
		article(3, "Local council approves budget"),
		article(4, "U.S. police investigate shooting"),
	)
	c := metrics.NewCollectors(prometheus.NewRegistry())

	report, err := newRunner(store, c).Reclassify(context.Background(), maintenance.ReclassifyOptions{BatchSize: 2})

	require.NoError(t, err)
	assert.Equal(t, 3, report.Scanned)
	assert.Equal(t, 3, report.Updated)
	assert.Len(t, report.ByRelevance[domain.RelevanceCoreStreetCrime], 1)
	assert.Len(t, report.ByRelevance[domain.RelevancePeripheralCrime], 1)
	assert.Len(t, report.ByRelevance[domain.RelevanceNotCrime], 1)

	md := store.byID(1).Metadata
	assert.Equal(t, domain.RelevanceCoreStreetCrime, *md.CrimeRelevance)
	assert.Equal(t, domain.RelevanceSourceReclassify, *md.CrimeRelevanceSource)
	assert.InDelta(t, 0.95, *md.CrimeRelevanceConfidence, 1e-9)
	assert.Equal(t, []string{domain.CrimeTypeViolent, domain.CrimeTypeCriminalJustice}, md.CrimeTypes)

	assert.Equal(t, domain.RelevanceNotCrime, *store.byID(2).Metadata.CrimeRelevance)
	assert.Nil(t, store.byID(2).Metadata.CrimeRelevanceSource)

	assert.InDelta(t, 3, testutil.ToFloat64(c.MaintenanceRows.WithLabelValues(maintenance.JobReclassify)), 0)
}

func TestReclassify_DryRunWritesNothing(t *testing.T) {
	store := newFakeArticles(article(1, "Police probe stabbing downtown"))

	report, err := newRunner(store, nil).Reclassify(context.Background(), maintenance.ReclassifyOptions{DryRun: true})

	require.NoError(t, err)
	assert.Equal(t, 1, report.Scanned)
	assert.Zero(t, report.Updated)
	assert.Nil(t, store.byID(1).Metadata.CrimeRelevance)
}

func TestReclassify_All(t *testing.T) {
	stale := article(1, "Man stabbed at bus stop")
	stale.Metadata.CrimeRelevance = ptr(domain.RelevanceNotCrime)
	stale.Metadata.CrimeTypes = []string{domain.CrimeTypeDrug}
	store := newFakeArticles(stale)

	report, err := newRunner(store, nil).Reclassify(context.Background(), maintenance.ReclassifyOptions{All: true})

	require.NoError(t, err)
	assert.Equal(t, 1, report.Updated)
	md := store.byID(1).Metadata
	assert.Equal(t, domain.RelevanceCoreStreetCrime, *md.CrimeRelevance)
	assert.Equal(t, []string{domain.CrimeTypeViolent}, md.CrimeTypes)
}

func TestReclassify_KeepsCrimeTypesWhenNoneFound(t *testing.T) {
	a := article(1, "Community garden opens")
	a.Metadata.CrimeTypes = []string{domain.CrimeTypeProperty}
	store := newFakeArticles(a)

	_, err := newRunner(store, nil).Reclassify(context.Background(), maintenance.ReclassifyOptions{})

	require.NoError(t, err)
	assert.Equal(t, []string{domain.CrimeTypeProperty}, store.byID(1).Metadata.CrimeTypes)
}

func TestReclassify_UpdateError(t *testing.T) {
	store := newFakeArticles(article(1, "Shooting in Hamilton"))
	store.updateErr = errors.New("connection reset")

	_, err := newRunner(store, nil).Reclassify(context.Background(), maintenance.ReclassifyOptions{})

	require.ErrorContains(t, err, "reclassify article 1")
}

func withLocation(a *domain.Article, city, province, country string) *domain.Article {
	a.Metadata.LocationCity = ptr(city)
	a.Metadata.LocationProvince = ptr(province)
	a.Metadata.LocationCountry = ptr(country)
	return a
}

func TestBackfillLocations(t *testing.T) {
	linked := withLocation(article(4, "Already linked"), "toronto", "ON", "canada")
	linked.CityID = ptr(int64(11))

	store := newFakeArticles(
		withLocation(article(1, "Sudbury stabbing"), "sudbury", "ON", "canada"),
		withLocation(article(2, "Unknown country"), "sudbury", "ON", domain.LocationCountryUnknown),
		withLocation(article(3, "Lost city"), "atlantis", "ON", "canada"),
		linked,
		withLocation(article(5, "Toronto shooting"), "toronto", "ON", "canada"),
		article(6, "No location"),
	)

	report, err := newRunner(store, nil).BackfillLocations(context.Background(), maintenance.BackfillOptions{BatchSize: 2})

	require.NoError(t, err)
	assert.Equal(t, 3, report.Candidates)
	assert.Equal(t, 2, report.Linked)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, int64(10), *store.byID(1).CityID)
	assert.Equal(t, int64(11), *store.byID(5).CityID)
	assert.Nil(t, store.byID(2).CityID)
	assert.Nil(t, store.byID(3).CityID)
	assert.Equal(t, map[int64]int{10: 1, 11: 1}, store.cityCount)
}

func TestBackfillLocations_DryRun(t *testing.T) {
	store := newFakeArticles(withLocation(article(1, "Sudbury stabbing"), "sudbury", "ON", "canada"))

	report, err := newRunner(store, nil).BackfillLocations(context.Background(), maintenance.BackfillOptions{DryRun: true})

	require.NoError(t, err)
	assert.Equal(t, 1, report.Candidates)
	assert.Zero(t, report.Linked)
	assert.Nil(t, store.byID(1).CityID)
}

func TestSoftDeleteNonCrime(t *testing.T) {
	core := article(1, "Homicide in Thunder Bay")
	core.Metadata.CrimeRelevance = ptr(domain.RelevanceCoreStreetCrime)
	peripheral := article(2, "Crime awareness week")
	peripheral.Metadata.CrimeRelevance = ptr(domain.RelevancePeripheralCrime)
	store := newFakeArticles(core, peripheral, article(3, "No verdict"))
	c := metrics.NewCollectors(prometheus.NewRegistry())
	runner := newRunner(store, c)

	dry, err := runner.SoftDeleteNonCrime(context.Background(), true)
	require.NoError(t, err)
	assert.True(t, dry.DryRun)
	assert.Equal(t, int64(2), dry.Matched)
	assert.Zero(t, dry.Deleted)
	assert.Len(t, dry.Samples, 2)
	assert.Nil(t, store.byID(2).DeletedAt)

	report, err := runner.SoftDeleteNonCrime(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, int64(2), report.Deleted)
	assert.Nil(t, store.byID(1).DeletedAt)
	assert.NotNil(t, store.byID(2).DeletedAt)
	assert.NotNil(t, store.byID(3).DeletedAt)
	assert.InDelta(t, 2, testutil.ToFloat64(c.MaintenanceRows.WithLabelValues(maintenance.JobSoftDeleteNonCore)), 0)
}

func TestSoftDeletePatterns(t *testing.T) {
	store := newFakeArticles(
		article(1, "Privacy Policy"),
		article(2, "Sudbury hockey game recap"),
		article(3, "Man charged in stabbing"),
		article(4, "Bingo night results"),
	)
	runner := newRunner(store, nil)

	dry, err := runner.SoftDeletePatterns(context.Background(), []string{"bingo night", "privacy policy"}, true)
	require.NoError(t, err)
	assert.Equal(t, int64(3), dry.Matched)

	var patterns []string
	for _, m := range dry.ByPattern {
		patterns = append(patterns, m.Pattern)
		assert.Equal(t, int64(1), m.Count)
	}
	assert.Equal(t, []string{"Privacy Policy", "hockey game", "game recap", "bingo night"}, patterns)

	report, err := runner.SoftDeletePatterns(context.Background(), []string{"bingo night"}, false)
	require.NoError(t, err)
	assert.Equal(t, int64(3), report.Deleted)
	assert.Nil(t, store.byID(3).DeletedAt)
}

func TestSoftDelete_NothingToDo(t *testing.T) {
	store := newFakeArticles(article(1, "Man charged in stabbing"))
	store.softDelErr = errors.New("must not be called")

	report, err := newRunner(store, nil).SoftDeletePatterns(context.Background(), nil, false)

	require.NoError(t, err)
	assert.Zero(t, report.Matched)
}

func TestRecountTags(t *testing.T) {
	c := metrics.NewCollectors(prometheus.NewRegistry())

	n, err := newRunner(newFakeArticles(), c).RecountTags(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(6), n)
	assert.InDelta(t, 6, testutil.ToFloat64(c.MaintenanceRows.WithLabelValues(maintenance.JobRecountTags)), 0)
}

func TestRecountTags_Error(t *testing.T) {
	runner := maintenance.NewRunner(maintenance.Deps{Tags: &fakeTags{err: errors.New("boom")}}, logger.NewNop())

	_, err := runner.RecountTags(context.Background())

	require.ErrorContains(t, err, "recount tags")
}
