// Package classifier assigns a street-crime relevance verdict to article
// titles using ordered regular-expression rule banks.
package classifier

import (
	"regexp"
	"slices"

	"github.com/jonesrussell/streetcode-ingestor/internal/domain"
)

// Result is the verdict for one title.
type Result struct {
	Relevance  string   `json:"relevance"`
	Confidence float64  `json:"confidence"`
	CrimeTypes []string `json:"crime_types"`
}

// IsCore reports whether the verdict admits the article for ingestion.
func (r Result) IsCore() bool {
	return r.Relevance == domain.RelevanceCoreStreetCrime
}

// Classify runs the rule banks over title. It is pure and safe for
// concurrent use.
func Classify(title string) Result {
	if matchesAny(exclusionPatterns, title) {
		return Result{
			Relevance:  domain.RelevanceNotCrime,
			Confidence: confidenceExclusion,
			CrimeTypes: []string{},
		}
	}

	result := Result{
		Relevance:  domain.RelevanceNotCrime,
		Confidence: confidenceDefault,
		CrimeTypes: []string{},
	}

	for _, b := range crimeBanks {
		for _, r := range b {
			if !r.pattern.MatchString(title) {
				continue
			}
			result.Relevance = domain.RelevanceCoreStreetCrime
			result.Confidence = max(result.Confidence, r.confidence)
			result.CrimeTypes = appendUnique(result.CrimeTypes, r.crimeType)
		}
	}

	// Downgrades only apply to a core verdict from the banks, and the
	// international and context rules stack.
	if result.IsCore() {
		international := matchesAny(internationalPatterns, title)
		editorial := matchesAny(contextDowngradePatterns, title)

		if international {
			result = downgrade(result)
		}
		if editorial {
			result = downgrade(result)
		}
	}

	if len(result.CrimeTypes) > 0 && MatchesJustice(title) {
		result.CrimeTypes = appendUnique(result.CrimeTypes, domain.CrimeTypeCriminalJustice)
	}

	return result
}

func downgrade(r Result) Result {
	r.Relevance = domain.RelevancePeripheralCrime
	r.Confidence *= downgradeRatio
	return r
}

// MatchesJustice reports whether title mentions a justice-process term
// (charged, arrest, sentenced, trial, convicted, pleads guilty).
func MatchesJustice(title string) bool {
	return justicePattern.MatchString(title)
}

// IsExcluded reports whether title is a navigational or job-listing title.
func IsExcluded(title string) bool {
	return matchesAny(exclusionPatterns, title)
}

func matchesAny(patterns []*regexp.Regexp, s string) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

func appendUnique(list []string, item string) []string {
	if slices.Contains(list, item) {
		return list
	}
	return append(list, item)
}
