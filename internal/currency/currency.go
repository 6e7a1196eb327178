package currency

import "strings"

// DefaultCountry is used when a currency has no country mapping.
const DefaultCountry = "US"

// supported is the set of ISO-4217 codes the comparison pipeline accepts.
// Requests outside this set are rejected before any adapter is invoked.
var supported = map[string]struct{}{
	"AED": {}, "AUD": {}, "BGN": {}, "BRL": {}, "CAD": {}, "CHF": {},
	"CNY": {}, "CZK": {}, "DKK": {}, "EUR": {}, "GBP": {}, "HKD": {},
	"HUF": {}, "IDR": {}, "ILS": {}, "INR": {}, "JPY": {}, "KES": {},
	"KRW": {}, "MXN": {}, "MYR": {}, "NGN": {}, "NOK": {}, "NZD": {},
	"PHP": {}, "PKR": {}, "PLN": {}, "RON": {}, "SEK": {}, "SGD": {},
	"THB": {}, "TRY": {}, "USD": {}, "VND": {}, "ZAR": {},
}

// countryByCurrency guesses a sender/receiver country from a currency.
// Multi-country currencies map to the dominant remittance corridor country.
var countryByCurrency = map[string]string{
	"AED": "AE", "AUD": "AU", "BGN": "BG", "BRL": "BR", "CAD": "CA",
	"CHF": "CH", "CNY": "CN", "CZK": "CZ", "DKK": "DK", "EUR": "DE",
	"GBP": "GB", "HKD": "HK", "HUF": "HU", "IDR": "ID", "ILS": "IL",
	"INR": "IN", "JPY": "JP", "KES": "KE", "KRW": "KR", "MXN": "MX",
	"MYR": "MY", "NGN": "NG", "NOK": "NO", "NZD": "NZ", "PHP": "PH",
	"PKR": "PK", "PLN": "PL", "RON": "RO", "SEK": "SE", "SGD": "SG",
	"THB": "TH", "TRY": "TR", "USD": "US", "VND": "VN", "ZAR": "ZA",
}

// Supported reports whether code is a known 3-letter uppercase ISO code.
func Supported(code string) bool {
	_, ok := supported[code]
	return ok
}

// Lookup resolves currency codes to country codes. Adapters whose country
// semantics diverge from the shared table layer overrides on top of it.
type Lookup struct {
	overrides map[string]string
}

func NewLookup(overrides map[string]string) *Lookup {
	norm := make(map[string]string, len(overrides))
	for k, v := range overrides {
		norm[strings.ToUpper(k)] = strings.ToUpper(v)
	}
	return &Lookup{overrides: norm}
}

// CountryFor returns the guessed country for a currency code,
// falling back to DefaultCountry when unmapped.
func (l *Lookup) CountryFor(code string) string {
	code = strings.ToUpper(code)
	if l != nil {
		if c, ok := l.overrides[code]; ok {
			return c
		}
	}
	if c, ok := countryByCurrency[code]; ok {
		return c
	}
	return DefaultCountry
}
