package enums

import "fmt"

// Locale is one of the languages the site is published in.
type Locale string

const (
	LocaleArabic  Locale = "ar"
	LocaleEnglish Locale = "en"
	LocaleTurkish Locale = "tr"
)

var validLocales = []Locale{
	LocaleArabic,
	LocaleEnglish,
	LocaleTurkish,
}

// DefaultLocale is served when negotiation finds no match.
const DefaultLocale = LocaleArabic

// String implements fmt.Stringer.
func (l Locale) String() string {
	return string(l)
}

// IsValid reports whether the locale is supported.
func (l Locale) IsValid() bool {
	for _, candidate := range validLocales {
		if candidate == l {
			return true
		}
	}
	return false
}

// Locales returns a copy of the supported locales in preference order.
func Locales() []Locale {
	out := make([]Locale, len(validLocales))
	copy(out, validLocales)
	return out
}

// ParseLocale converts a raw string into a Locale.
func ParseLocale(value string) (Locale, error) {
	for _, candidate := range validLocales {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid locale %q", value)
}
