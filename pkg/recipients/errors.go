package recipients

import (
	"errors"
	"fmt"
	"strings"
)

// Parse errors. Use errors.Is against these; the concrete value is an *Error.
var (
	ErrMissingHeaderRow      = errors.New("recipients: missing header row")
	ErrCSVDialect            = errors.New("recipients: csv dialect detection failed")
	ErrMissingRequiredColumn = errors.New("recipients: missing required column")
	ErrUnknownColumn         = errors.New("recipients: unknown column")
	ErrInvalidEmail          = errors.New("recipients: invalid email address")
	ErrInvalidRowValue       = errors.New("recipients: invalid row value")
)

// Translation keys, one per sentinel.
const (
	KeyMissingHeaderRow      = "recipients.missing_header_row"
	KeyCSVDialect            = "recipients.csv_parsing_failed"
	KeyMissingRequiredColumn = "recipients.missing_required_column"
	KeyUnknownColumn         = "recipients.unknown_column"
	KeyInvalidEmail          = "recipients.invalid_email"
	KeyInvalidRowValue       = "recipients.invalid_row_value"
)

var defaultMessages = map[string]string{
	KeyMissingHeaderRow:      "CSV input needs to contain a header row in the first line.",
	KeyCSVDialect:            "CSV parsing failed: {{error}}.",
	KeyMissingRequiredColumn: `CSV input needs to contain a field with the header "{{header}}".`,
	KeyUnknownColumn:         `CSV input contains an unknown field with the header "{{header}}".`,
	KeyInvalidEmail:          "{{value}} is not a valid email address.",
	KeyInvalidRowValue:       "Invalid value in row {{number}}.",
}

// TranslateFunc resolves a translation key with placeholder values.
// It matches i18n.Translator.TranslateMessage.
type TranslateFunc func(key string, values map[string]any) string

// Error describes why a recipient list was rejected.
type Error struct {
	Err    error
	Values map[string]any
	Key    string
	Cause  error
}

func newError(sentinel error, key string, values map[string]any) *Error {
	return &Error{Err: sentinel, Key: key, Values: values}
}

// Error renders the default English message.
func (e *Error) Error() string {
	return render(defaultMessages[e.Key], e.Values)
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

// Message renders the error through fn, falling back to English when fn is
// nil or returns the bare key.
func (e *Error) Message(fn TranslateFunc) string {
	if fn != nil {
		if msg := fn(e.Key, e.Values); msg != "" && msg != e.Key {
			return msg
		}
	}
	return e.Error()
}

func render(tmpl string, values map[string]any) string {
	for k, v := range values {
		tmpl = strings.ReplaceAll(tmpl, "{{"+k+"}}", fmt.Sprint(v))
	}
	return tmpl
}
