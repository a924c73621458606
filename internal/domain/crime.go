// Package domain holds the entities and vocabulary shared by the ingestor.
package domain

// Crime relevance verdicts.
const (
	RelevanceCoreStreetCrime = "core_street_crime"
	RelevancePeripheralCrime = "peripheral_crime"
	RelevanceNotCrime        = "not_crime"
)

// Crime types.
const (
	CrimeTypeViolent         = "violent_crime"
	CrimeTypeProperty        = "property_crime"
	CrimeTypeDrug            = "drug_crime"
	CrimeTypeOrganized       = "organized_crime"
	CrimeTypeCriminalJustice = "criminal_justice"
	CrimeTypeGangViolence    = "gang_violence"
)

// AllowedCrimeTypes is the tag vocabulary, in canonical order.
var AllowedCrimeTypes = []string{
	CrimeTypeViolent,
	CrimeTypeProperty,
	CrimeTypeDrug,
	CrimeTypeOrganized,
	CrimeTypeCriminalJustice,
	CrimeTypeGangViolence,
}

// IsAllowedCrimeType reports whether t belongs to the tag vocabulary.
func IsAllowedCrimeType(t string) bool {
	for _, allowed := range AllowedCrimeTypes {
		if t == allowed {
			return true
		}
	}
	return false
}

// TagTypeCrimeCategory discriminates crime-category tags from other tags.
const TagTypeCrimeCategory = "crime_category"

// LocationCountryUnknown is the sentinel country upstream sends when location
// detection failed.
const LocationCountryUnknown = "unknown"

// ArticleStatusPublished is the status assigned to ingested articles.
const ArticleStatusPublished = "published"

// RelevanceSourceReclassify marks metadata written by the reclassify job.
const RelevanceSourceReclassify = "reclassify_rules"

// RelevanceSourceIngest marks metadata whose verdict was computed at ingest
// because the message carried none.
const RelevanceSourceIngest = "ingest_rules"
