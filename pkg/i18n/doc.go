// Package i18n loads YAML translation files and resolves message keys for a
// language with {{name}} placeholder substitution.
//
// Files are laid out as <language>/<namespace>.yaml. Nested YAML keys are
// flattened with dots and prefixed with the namespace, so "invalid_email"
// in fr/recipients.yaml becomes the key "recipients.invalid_email".
//
// Lookup falls back from the requested language to its base language, then
// to the default language, and finally returns the key itself.
package i18n
