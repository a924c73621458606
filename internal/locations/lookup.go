package locations

// countryCodes maps lower-cased country names to ISO 3166-1 alpha-2 codes.
var countryCodes = map[string]string{
	"canada":        "ca",
	"united-states": "us",
	"united states": "us",
	"usa":           "us",
}

// countryNames maps country codes to display names.
var countryNames = map[string]string{
	"ca": "Canada",
	"us": "United States",
}

// regionNames maps country code → region code → display name.
var regionNames = map[string]map[string]string{
	"ca": {
		"AB": "Alberta",
		"BC": "British Columbia",
		"MB": "Manitoba",
		"NB": "New Brunswick",
		"NL": "Newfoundland and Labrador",
		"NS": "Nova Scotia",
		"NT": "Northwest Territories",
		"NU": "Nunavut",
		"ON": "Ontario",
		"PE": "Prince Edward Island",
		"QC": "Quebec",
		"SK": "Saskatchewan",
		"YT": "Yukon",
	},
}
