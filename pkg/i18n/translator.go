package i18n

// Translator binds an I18n to one language.
type Translator struct {
	i18n *I18n
	lang string
}

// NewTranslator falls back to the default language when lang is empty.
func NewTranslator(i *I18n, lang string) *Translator {
	if lang == "" {
		lang = i.DefaultLanguage()
	}
	return &Translator{i18n: i, lang: normalize(lang)}
}

func (t *Translator) T(key string, values ...M) string {
	return t.i18n.T(t.lang, key, values...)
}

// TranslateMessage has the shape expected by error types that render
// their own messages.
func (t *Translator) TranslateMessage(key string, values map[string]any) string {
	return t.i18n.T(t.lang, key, values)
}

// Language returns the normalized language tag.
func (t *Translator) Language() string { return t.lang }
