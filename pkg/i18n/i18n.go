package i18n

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

var (
	ErrNoLanguages = errors.New("i18n: no languages loaded")
	ErrInvalidFile = errors.New("i18n: invalid translation file")
)

// M is a set of placeholder values.
type M map[string]any

// I18n holds the translations of every loaded language.
type I18n struct {
	messages map[string]map[string]string
	matcher  language.Matcher
	def      string
	langs    []string
}

// Option configures New.
type Option func(*I18n) error

// New builds the catalogue. The default language is always offered first
// during negotiation.
func New(opts ...Option) (*I18n, error) {
	i := &I18n{messages: make(map[string]map[string]string)}
	for _, opt := range opts {
		if err := opt(i); err != nil {
			return nil, err
		}
	}
	if len(i.messages) == 0 {
		return nil, ErrNoLanguages
	}

	for lang := range i.messages {
		i.langs = append(i.langs, lang)
	}
	slices.Sort(i.langs)
	if i.def == "" || i.messages[i.def] == nil {
		i.def = i.langs[0]
	}
	i.langs = slices.DeleteFunc(i.langs, func(l string) bool { return l == i.def })
	i.langs = append([]string{i.def}, i.langs...)

	tags := make([]language.Tag, len(i.langs))
	for n, l := range i.langs {
		tags[n] = language.Make(l)
	}
	i.matcher = language.NewMatcher(tags)
	return i, nil
}

// WithDefaultLanguage sets the language used when nothing else matches.
func WithDefaultLanguage(lang string) Option {
	return func(i *I18n) error {
		i.def = normalize(lang)
		return nil
	}
}

// WithMessages adds flat key/value translations for lang.
func WithMessages(lang string, messages map[string]string) Option {
	return func(i *I18n) error {
		i.add(normalize(lang), messages)
		return nil
	}
}

// WithYAMLDir loads every <lang>/<namespace>.yaml file in fsys.
func WithYAMLDir(fsys fs.FS) Option {
	return func(i *I18n) error {
		return fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			ext := path.Ext(p)
			if ext != ".yaml" && ext != ".yml" {
				return nil
			}
			dir := path.Dir(p)
			if dir == "." {
				return fmt.Errorf("%w: %s is not inside a language directory", ErrInvalidFile, p)
			}

			data, err := fs.ReadFile(fsys, p)
			if err != nil {
				return err
			}
			var tree map[string]any
			if err := yaml.Unmarshal(data, &tree); err != nil {
				return fmt.Errorf("%w: %s: %v", ErrInvalidFile, p, err)
			}

			namespace := strings.TrimSuffix(path.Base(p), ext)
			flat := make(map[string]string)
			flatten(flat, namespace, tree)
			i.add(normalize(path.Base(dir)), flat)
			return nil
		})
	}
}

func (i *I18n) add(lang string, messages map[string]string) {
	dst, ok := i.messages[lang]
	if !ok {
		dst = make(map[string]string, len(messages))
		i.messages[lang] = dst
	}
	for k, v := range messages {
		dst[k] = v
	}
}

func flatten(dst map[string]string, prefix string, tree map[string]any) {
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(dst, key, val)
		case string:
			dst[key] = val
		default:
			dst[key] = fmt.Sprint(val)
		}
	}
}

// T translates key for lang, substituting placeholders.
func (i *I18n) T(lang, key string, values ...M) string {
	msg, ok := i.lookup(normalize(lang), key)
	if !ok {
		return key
	}
	for _, v := range values {
		msg = Replace(msg, v)
	}
	return msg
}

func (i *I18n) lookup(lang, key string) (string, bool) {
	for _, l := range []string{lang, base(lang), i.def} {
		if msg, ok := i.messages[l][key]; ok {
			return msg, true
		}
	}
	return "", false
}

// Match picks the best loaded language for an Accept-Language header.
func (i *I18n) Match(acceptLanguage string) string {
	prefs, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(prefs) == 0 {
		return i.def
	}
	_, idx, conf := i.matcher.Match(prefs...)
	if conf == language.No {
		return i.def
	}
	return i.langs[idx]
}

// Supports reports whether lang, or its base language, was loaded.
func (i *I18n) Supports(lang string) bool {
	lang = normalize(lang)
	_, ok := i.messages[lang]
	if !ok {
		_, ok = i.messages[base(lang)]
	}
	return ok
}

// DefaultLanguage returns the fallback language.
func (i *I18n) DefaultLanguage() string { return i.def }

// Languages lists loaded languages, default first.
func (i *I18n) Languages() []string { return slices.Clone(i.langs) }

// Replace substitutes {{name}} placeholders in msg.
func Replace(msg string, values M) string {
	for k, v := range values {
		msg = strings.ReplaceAll(msg, "{{"+k+"}}", fmt.Sprint(v))
	}
	return msg
}

func normalize(lang string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(lang), "_", "-"))
}

func base(lang string) string {
	if b, _, ok := strings.Cut(lang, "-"); ok {
		return b
	}
	return lang
}
