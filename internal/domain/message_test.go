package domain_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jonesrussell/streetcode-ingestor/internal/domain"
)

func strPtr(s string) *string { return &s }

func decode(t *testing.T, payload string) *domain.IncomingMessage {
	t.Helper()

	var msg domain.IncomingMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return &msg
}

func TestIncomingMessage_Validate(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{"id and title", `{"id":"a1","title":"Man charged"}`, false},
		{"id and og_title only", `{"id":"a1","og_title":"Man charged"}`, false},
		{"missing id", `{"title":"Man charged"}`, true},
		{"blank id", `{"id":"  ","title":"Man charged"}`, true},
		{"missing both titles", `{"id":"a1","body":"text"}`, true},
		{"null title", `{"id":"a1","title":null}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := decode(t, tt.payload).Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrInvalidMessage) {
				t.Errorf("expected ErrInvalidMessage, got %v", err)
			}
		})
	}
}

func TestIncomingMessage_ResolvedTitle(t *testing.T) {
	tests := []struct {
		name string
		msg  domain.IncomingMessage
		want string
	}{
		{"title wins", domain.IncomingMessage{Title: strPtr("A"), OGTitle: strPtr("B")}, "A"},
		{"og_title fallback", domain.IncomingMessage{OGTitle: strPtr("B")}, "B"},
		{"empty title falls through", domain.IncomingMessage{Title: strPtr(""), OGTitle: strPtr("B")}, "B"},
		{"placeholder", domain.IncomingMessage{}, domain.UntitledArticle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.msg.ResolvedTitle(); got != tt.want {
				t.Errorf("ResolvedTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIncomingMessage_Excerpt(t *testing.T) {
	msg := domain.IncomingMessage{Description: strPtr("desc"), OGDescription: strPtr("og")}
	if got := msg.Excerpt(); got == nil || *got != "desc" {
		t.Errorf("Excerpt() = %v, want desc", got)
	}

	msg.Intro = strPtr("intro")
	if got := msg.Excerpt(); got == nil || *got != "intro" {
		t.Errorf("Excerpt() = %v, want intro", got)
	}

	if got := (&domain.IncomingMessage{}).Excerpt(); got != nil {
		t.Errorf("Excerpt() = %q, want nil", *got)
	}
}

func TestIncomingMessage_URLs(t *testing.T) {
	tests := []struct {
		name        string
		payload     string
		wantArticle string
		wantSource  string
	}{
		{
			name:        "canonical first for article, source first for source",
			payload:     `{"id":"x","canonical_url":"https://a.com/1","og_url":"https://b.com/1","source":"https://c.com"}`,
			wantArticle: "https://a.com/1",
			wantSource:  "https://c.com",
		},
		{
			name:        "og_url second",
			payload:     `{"id":"x","og_url":"https://b.com/1"}`,
			wantArticle: "https://b.com/1",
			wantSource:  "https://b.com/1",
		},
		{
			name:        "placeholder from channel",
			payload:     `{"id":"abc","publisher":{"channel":"crime:province:on"}}`,
			wantArticle: "https://crime-province-on.example.com/abc",
			wantSource:  "",
		},
		{
			name:        "placeholder without channel",
			payload:     `{"id":"abc","canonical_url":""}`,
			wantArticle: "https://articles.example.com/abc",
			wantSource:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := decode(t, tt.payload)
			if got := msg.ArticleURL(); got != tt.wantArticle {
				t.Errorf("ArticleURL() = %q, want %q", got, tt.wantArticle)
			}
			if got := msg.SourceURL(); got != tt.wantSource {
				t.Errorf("SourceURL() = %q, want %q", got, tt.wantSource)
			}
		})
	}
}

func TestIncomingMessage_PublishedAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		payload string
		want    time.Time
	}{
		{
			name:    "published_date",
			payload: `{"published_date":"2026-02-10T08:30:00Z"}`,
			want:    time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC),
		},
		{
			name:    "zero date falls back to publisher",
			payload: `{"published_date":"0001-01-01T00:00:00Z","publisher":{"published_at":"2026-02-11T09:00:00Z"}}`,
			want:    time.Date(2026, 2, 11, 9, 0, 0, 0, time.UTC),
		},
		{
			name:    "garbage falls back to now",
			payload: `{"published_date":"yesterday","publisher":{"published_at":"soon"}}`,
			want:    now,
		},
		{
			name:    "absent uses now",
			payload: `{}`,
			want:    now,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := decode(t, tt.payload).PublishedAt(now); !got.Equal(tt.want) {
				t.Errorf("PublishedAt() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIncomingMessage_HasLocation(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    bool
	}{
		{"complete", `{"location_city":"sudbury","location_province":"ON","location_country":"canada"}`, true},
		{"unknown country", `{"location_city":"sudbury","location_province":"ON","location_country":"unknown"}`, false},
		{"missing province", `{"location_city":"sudbury","location_country":"canada"}`, false},
		{"empty city", `{"location_city":"","location_province":"ON","location_country":"canada"}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := decode(t, tt.payload).HasLocation(); got != tt.want {
				t.Errorf("HasLocation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMetadataFromMessage_OmitsAbsentFields(t *testing.T) {
	msg := decode(t, `{"id":"x","title":"t","quality_score":72,"keywords":["a"],"og_url":"https://x.com",
		"publisher":{"route_id":"r1","channel":"articles:crime"}}`)

	md := domain.MetadataFromMessage(msg)
	raw, err := json.Marshal(md)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	for _, key := range []string{"quality_score", "keywords", "og_url", "publisher"} {
		if _, ok := got[key]; !ok {
			t.Errorf("expected key %q in metadata", key)
		}
	}
	for _, key := range []string{"confidence", "section", "location_city", "crime_relevance"} {
		if _, ok := got[key]; ok {
			t.Errorf("unexpected key %q in metadata", key)
		}
	}
}

func TestArticleMetadata_ScanValueRoundTrip(t *testing.T) {
	relevance := domain.RelevanceCoreStreetCrime
	in := domain.ArticleMetadata{CrimeRelevance: &relevance, CrimeTypes: []string{"violent_crime"}}

	v, err := in.Value()
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}

	var out domain.ArticleMetadata
	if err := out.Scan(v); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if out.CrimeRelevance == nil || *out.CrimeRelevance != relevance {
		t.Errorf("CrimeRelevance = %v", out.CrimeRelevance)
	}

	if err := out.Scan(nil); err != nil || out.CrimeRelevance != nil {
		t.Errorf("Scan(nil) should reset metadata, err = %v", err)
	}
	if err := out.Scan(42); err == nil {
		t.Error("Scan(int) should fail")
	}
}
