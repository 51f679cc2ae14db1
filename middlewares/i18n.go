package middlewares

import (
	"github.com/evolutio/automated-orders/internal"
	"github.com/evolutio/automated-orders/pkg/i18n"
)

// LanguageCookie overrides Accept-Language when set to a supported language.
const LanguageCookie = "lang"

// I18n resolves the request language from the lang cookie, then
// Accept-Language, then the catalogue default, and stores a translator on
// the request.
func I18n(catalog *i18n.I18n) internal.Middleware {
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			lang := ""
			if ck, err := c.Request().Cookie(LanguageCookie); err == nil && catalog.Supports(ck.Value) {
				lang = ck.Value
			}
			if lang == "" {
				lang = catalog.Match(c.Header("Accept-Language"))
			}

			tr := i18n.NewTranslator(catalog, lang)
			c.Set(internal.TranslatorKey{}, tr)
			c.Set(internal.LanguageKey{}, tr.Language())
			return next(c)
		}
	}
}
