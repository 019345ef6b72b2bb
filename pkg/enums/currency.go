package enums

import (
	"fmt"
	"slices"
	"strings"
)

// Currency is the ISO 4217 code a listing price is quoted in.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyTRY Currency = "TRY"
	CurrencySYP Currency = "SYP"
)

var currencies = []Currency{CurrencyUSD, CurrencyEUR, CurrencyTRY, CurrencySYP}

func (c Currency) String() string { return string(c) }

func (c Currency) IsValid() bool { return slices.Contains(currencies, c) }

// ParseCurrency accepts codes in any case, e.g. "try" or " Usd".
func ParseCurrency(value string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(value)))
	if !c.IsValid() {
		return "", fmt.Errorf("invalid currency %q", value)
	}
	return c, nil
}
