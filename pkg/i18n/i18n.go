// Package i18n negotiates the response locale and localizes public error
// messages for the three languages the site is published in.
package i18n

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/emlakhub/emlakhub-backend/pkg/enums"
	pkgerrors "github.com/emlakhub/emlakhub-backend/pkg/errors"
)

type ctxKey struct{}

// The first tag is the fallback when nothing in Accept-Language matches.
var supported = []language.Tag{
	language.Arabic,
	language.English,
	language.Turkish,
}

var matcher = language.NewMatcher(supported)

var localeByTag = map[language.Tag]enums.Locale{
	language.Arabic:  enums.LocaleArabic,
	language.English: enums.LocaleEnglish,
	language.Turkish: enums.LocaleTurkish,
}

var tagByLocale = map[enums.Locale]language.Tag{
	enums.LocaleArabic:  language.Arabic,
	enums.LocaleEnglish: language.English,
	enums.LocaleTurkish: language.Turkish,
}

var messages = buildCatalog()

// Negotiate picks the best supported locale for an Accept-Language header. An
// explicit override (query parameter or cookie) wins when it names a supported
// locale.
func Negotiate(override, acceptLanguage string) enums.Locale {
	if locale, err := enums.ParseLocale(strings.ToLower(strings.TrimSpace(override))); err == nil {
		return locale
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return enums.DefaultLocale
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return enums.DefaultLocale
	}
	return localeByTag[supported[index]]
}

// WithLocale stores the negotiated locale on the context.
func WithLocale(ctx context.Context, locale enums.Locale) context.Context {
	return context.WithValue(ctx, ctxKey{}, locale)
}

// LocaleFromContext returns the negotiated locale or the default.
func LocaleFromContext(ctx context.Context) enums.Locale {
	if locale, ok := ctx.Value(ctxKey{}).(enums.Locale); ok && locale.IsValid() {
		return locale
	}
	return enums.DefaultLocale
}

// Direction reports the text direction clients should render for locale.
func Direction(locale enums.Locale) string {
	if locale == enums.LocaleArabic {
		return "rtl"
	}
	return "ltr"
}

// ErrorMessage returns the localized public message for code.
func ErrorMessage(locale enums.Locale, code pkgerrors.Code) string {
	tag, ok := tagByLocale[locale]
	if !ok {
		tag = tagByLocale[enums.DefaultLocale]
	}
	return message.NewPrinter(tag, message.Catalog(messages)).Sprintf(string(code))
}

// Lower folds s using the casing rules of locale, so Turkish dotted and
// dotless i compare the way Turkish readers expect.
func Lower(locale enums.Locale, s string) string {
	tag, ok := tagByLocale[locale]
	if !ok {
		tag = language.Und
	}
	return cases.Lower(tag).String(s)
}

func buildCatalog() *catalog.Builder {
	builder := catalog.NewBuilder(catalog.Fallback(language.English))
	for code, translations := range errorTranslations {
		for locale, text := range translations {
			_ = builder.SetString(tagByLocale[locale], string(code), text)
		}
	}
	return builder
}
