package enums

import "fmt"

// Currency is the set of display currencies the app can price in. USD is the
// pivot currency for all conversions.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyTRY Currency = "TRY"
)

var validCurrencies = []Currency{
	CurrencyUSD,
	CurrencyEUR,
	CurrencyTRY,
}

// IsValid reports whether the value matches the canonical currency enum.
func (c Currency) IsValid() bool {
	for _, candidate := range validCurrencies {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCurrency converts the raw string to Currency.
func ParseCurrency(value string) (Currency, error) {
	for _, candidate := range validCurrencies {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid currency %q", value)
}

// Symbol returns the display symbol prefixed to formatted prices.
func (c Currency) Symbol() string {
	switch c {
	case CurrencyUSD:
		return "$"
	case CurrencyEUR:
		return "€"
	case CurrencyTRY:
		return "₺"
	}
	return ""
}

// DisplayName returns the human-readable currency name.
func (c Currency) DisplayName() string {
	switch c {
	case CurrencyUSD:
		return "US Dollar"
	case CurrencyEUR:
		return "Euro"
	case CurrencyTRY:
		return "Turkish Lira"
	}
	return string(c)
}

// Currencies returns the canonical currency list.
func Currencies() []Currency {
	out := make([]Currency, len(validCurrencies))
	copy(out, validCurrencies)
	return out
}
