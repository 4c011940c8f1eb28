package filters

import "strings"

// Country is a selectable country.
type Country struct {
	Code string
	Name string
}

// Countries lists the countries the backend aggregates, in display order.
var Countries = []Country{
	{"DE", "Germany"},
	{"GB", "United Kingdom"},
	{"IE", "Ireland"},
	{"NL", "Netherlands"},
	{"FR", "France"},
	{"ES", "Spain"},
	{"PT", "Portugal"},
	{"IT", "Italy"},
	{"GR", "Greece"},
	{"CY", "Cyprus"},
	{"TR", "Turkey"},
	{"RO", "Romania"},
	{"BG", "Bulgaria"},
	{"HU", "Hungary"},
	{"HR", "Croatia"},
	{"BA", "Bosnia and Herzegovina"},
	{"RS", "Serbia"},
	{"PL", "Poland"},
	{"US", "United States"},
}

// Sizes lists the size buckets in display order.
var Sizes = []string{"small", "medium", "large", "xlarge"}

// Ages lists the age buckets in display order.
var Ages = []string{"puppy", "young", "adult", "senior"}

var countryAliases = map[string]string{
	"uk":                       "GB",
	"england":                  "GB",
	"scotland":                 "GB",
	"wales":                    "GB",
	"great britain":            "GB",
	"usa":                      "US",
	"united states of america": "US",
	"bosnia":                   "BA",
	"türkiye":                  "TR",
	"turkiye":                  "TR",
	"deutschland":              "DE",
	"españa":                   "ES",
}

// CountryName returns the display name for code, or code itself.
func CountryName(code string) string {
	for _, c := range Countries {
		if c.Code == code {
			return c.Name
		}
	}
	return code
}

// IsKnownCountry reports whether code is in the catalog.
func IsKnownCountry(code string) bool {
	for _, c := range Countries {
		if c.Code == code {
			return true
		}
	}
	return false
}

// CountryCode maps a stored country value to an ISO code. It accepts codes
// in any case, catalog names and a few common aliases. ok is false when the
// value cannot be mapped.
func CountryCode(value string) (code string, ok bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", false
	}
	upper := strings.ToUpper(trimmed)
	if IsKnownCountry(upper) {
		return upper, true
	}
	lower := strings.ToLower(trimmed)
	for _, c := range Countries {
		if strings.ToLower(c.Name) == lower {
			return c.Code, true
		}
	}
	if code, ok := countryAliases[lower]; ok {
		return code, true
	}
	return "", false
}
