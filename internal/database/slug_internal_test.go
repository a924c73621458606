package database

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

func TestPickSlug(t *testing.T) {
	tests := []struct {
		name  string
		base  string
		taken []string
		want  string
	}{
		{name: "free", base: "crash", taken: nil, want: "crash"},
		{name: "only suffixed taken", base: "crash", taken: []string{"crash-3"}, want: "crash"},
		{name: "base taken", base: "crash", taken: []string{"crash"}, want: "crash-1"},
		{name: "lowest free suffix", base: "crash", taken: []string{"crash", "crash-1", "crash-4"}, want: "crash-2"},
		{name: "non-numeric suffix ignored", base: "crash", taken: []string{"crash", "crash-site"}, want: "crash-1"},
		{name: "numeric title is not a suffix", base: "fire", taken: []string{"fire", "fire-2024"}, want: "fire-1"},
		{name: "suffix run", base: "fire", taken: []string{"fire", "fire-1", "fire-2", "fire-3"}, want: "fire-4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pickSlug(tt.base, tt.taken); got != tt.want {
				t.Errorf("pickSlug() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPickSlug_RespectsMaxLength(t *testing.T) {
	base := strings.Repeat("a", 255)

	got := pickSlug(base, []string{base})
	if len(got) > 255 {
		t.Fatalf("len = %d, want <= 255", len(got))
	}
	if !strings.HasSuffix(got, "-1") {
		t.Errorf("pickSlug() = %q, want -1 suffix", got)
	}
}

func TestPickSlug_LongBaseThirdCollision(t *testing.T) {
	for _, size := range []int{254, 255} {
		base := strings.Repeat("b", size)
		first := strings.Repeat("b", 253) + "-1"

		got := pickSlug(base, []string{base, first})

		if got == first {
			t.Fatalf("size %d: pickSlug() reused %q", size, got)
		}
		if len(got) > 255 {
			t.Fatalf("size %d: len = %d, want <= 255", size, len(got))
		}
		if want := strings.Repeat("b", 253) + "-2"; got != want {
			t.Errorf("size %d: pickSlug() = %q, want %q", size, got, want)
		}
	}
}

func TestNextSlug_LongBaseQueriesTruncatedStem(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	base := strings.Repeat("c", 255)
	stem := strings.Repeat("c", 255-slugSuffixReserve)
	first := strings.Repeat("c", 253) + "-1"

	mock.ExpectQuery("SELECT slug FROM articles").
		WithArgs(base, stem+"%").
		WillReturnRows(sqlmock.NewRows([]string{"slug"}).AddRow(base).AddRow(first))

	got, err := nextSlug(context.Background(), sqlx.NewDb(db, "postgres"), base)
	if err != nil {
		t.Fatalf("nextSlug() error = %v", err)
	}
	if want := strings.Repeat("c", 253) + "-2"; got != want {
		t.Errorf("nextSlug() = %q, want %q", got, want)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestArticleSlugBase(t *testing.T) {
	if got := articleSlugBase("!!!"); got != fallbackArticleSlug {
		t.Errorf("articleSlugBase() = %q, want %q", got, fallbackArticleSlug)
	}
	if got := articleSlugBase("Shots fired in Timmins"); got != "shots-fired-in-timmins" {
		t.Errorf("articleSlugBase() = %q", got)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !isUniqueViolation(&pq.Error{Code: "23505"}) {
		t.Error("expected 23505 to be a unique violation")
	}
	if isUniqueViolation(&pq.Error{Code: "23503"}) {
		t.Error("foreign key violation reported as unique violation")
	}
	if isUniqueViolation(errors.New("plain")) {
		t.Error("plain error reported as unique violation")
	}
}
