package tags_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/streetcode-ingestor/internal/domain"
	"github.com/jonesrussell/streetcode-ingestor/internal/logger"
	"github.com/jonesrussell/streetcode-ingestor/internal/tags"
)

type fakeStore struct {
	tags      map[string]*domain.Tag
	nextID    int64
	links     map[int64][]int64
	confByTag map[int64]*float64
	replaceErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tags:      map[string]*domain.Tag{},
		links:     map[int64][]int64{},
		confByTag: map[int64]*float64{},
	}
}

func (f *fakeStore) UpsertTag(_ context.Context, _ sqlx.ExtContext, tag *domain.Tag) (int64, error) {
	if existing, ok := f.tags[tag.Slug]; ok {
		return existing.ID, nil
	}
	f.nextID++
	stored := *tag
	stored.ID = f.nextID
	f.tags[tag.Slug] = &stored
	return stored.ID, nil
}

func (f *fakeStore) ReplaceArticleTags(_ context.Context, _ sqlx.ExtContext, articleID int64, ids []int64, conf *float64) error {
	if f.replaceErr != nil {
		return f.replaceErr
	}
	for _, id := range ids {
		if !slices.Contains(f.links[articleID], id) {
			f.confByTag[id] = conf
		}
	}
	f.links[articleID] = slices.Clone(ids)
	return nil
}

func (f *fakeStore) slugsOf(articleID int64) []string {
	var out []string
	for slug, tag := range f.tags {
		if slices.Contains(f.links[articleID], tag.ID) {
			out = append(out, slug)
		}
	}
	slices.Sort(out)
	return out
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name   string
		topics []string
		title  string
		want   []string
	}{
		{
			name:   "filters to vocabulary",
			topics: []string{"violent_crime", "sports", "drug_crime", "violent_crime"},
			title:  "Stabbing in Sudbury",
			want:   []string{"violent_crime", "drug_crime"},
		},
		{
			name:   "justice appended on justice title",
			topics: []string{"violent_crime"},
			title:  "Man charged after stabbing",
			want:   []string{"violent_crime", "criminal_justice"},
		},
		{
			name:   "justice not duplicated",
			topics: []string{"criminal_justice", "violent_crime"},
			title:  "Man sentenced for assault",
			want:   []string{"criminal_justice", "violent_crime"},
		},
		{
			name:   "justice never added to an empty set",
			topics: []string{"weather"},
			title:  "Man charged with speeding",
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tags.Select(tt.topics, tt.title))
		})
	}
}

func TestTagFor(t *testing.T) {
	tag := tags.TagFor(domain.CrimeTypeViolent)

	assert.Equal(t, "violent-crime", tag.Slug)
	assert.Equal(t, "Violent Crime", tag.Name)
	assert.Equal(t, domain.TagTypeCrimeCategory, tag.Type)
}

func TestReconcile_ReplacesSet(t *testing.T) {
	store := newFakeStore()
	r := tags.NewReconciler(store, logger.NewNop())
	ctx := context.Background()
	conf := 0.9

	require.NoError(t, r.Reconcile(ctx, nil, 1, []string{"violent_crime", "sports", "drug_crime"}, &conf))
	assert.Equal(t, []string{"drug-crime", "violent-crime"}, store.slugsOf(1))

	require.NoError(t, r.Reconcile(ctx, nil, 1, []string{"property_crime"}, nil))
	assert.Equal(t, []string{"property-crime"}, store.slugsOf(1))

	require.NoError(t, r.Reconcile(ctx, nil, 1, []string{"not_a_type"}, nil))
	assert.Empty(t, store.slugsOf(1))
}

func TestReconcile_Idempotent(t *testing.T) {
	store := newFakeStore()
	r := tags.NewReconciler(store, logger.NewNop())
	ctx := context.Background()
	topics := []string{"violent_crime", "violent_crime", "gang_violence"}

	require.NoError(t, r.Reconcile(ctx, nil, 2, topics, nil))
	first := store.slugsOf(2)
	require.NoError(t, r.Reconcile(ctx, nil, 2, topics, nil))

	assert.Equal(t, first, store.slugsOf(2))
	assert.Len(t, store.tags, 2)
	assert.Len(t, store.links[2], 2)
}

func TestReconcile_Confidence(t *testing.T) {
	store := newFakeStore()
	r := tags.NewReconciler(store, logger.NewNop())
	conf := 0.72

	require.NoError(t, r.Reconcile(context.Background(), nil, 3, []string{"drug_crime"}, &conf))

	id := store.tags["drug-crime"].ID
	require.NotNil(t, store.confByTag[id])
	assert.InDelta(t, 0.72, *store.confByTag[id], 1e-9)
}

func TestReconcile_StoreError(t *testing.T) {
	store := newFakeStore()
	store.replaceErr = errors.New("db down")
	r := tags.NewReconciler(store, logger.NewNop())

	err := r.Reconcile(context.Background(), nil, 4, []string{"drug_crime"}, nil)

	require.ErrorIs(t, err, store.replaceErr)
}
