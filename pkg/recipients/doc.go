// Package recipients parses the free-form recipient list an organizer pastes
// into the bulk order form.
//
// Two input shapes are accepted. Text without a comma or semicolon is read as
// one e-mail address per line:
//
//	john@example.org
//	jane@example.net
//
// Anything else is read as CSV with a mandatory header row. The delimiter and
// quoting are detected from the first 1024 characters. Only the columns
// "email", "name", "tag" and "number" are allowed and "email" is required:
//
//	email,name,number
//	john@example.org,John,2
//
// Parsing is all-or-nothing: the first invalid entry rejects the whole list
// and no recipients are returned. Every failure is an [*Error] that unwraps to
// one of the sentinel errors below and carries a translation key, so the form
// can render it in the submitter's language.
//
//   - [ErrMissingHeaderRow] - CSV input whose first line is an e-mail address
//   - [ErrCSVDialect] - delimiter could not be detected
//   - [ErrMissingRequiredColumn] - no "email" column
//   - [ErrUnknownColumn] - a column outside the allowed set
//   - [ErrInvalidEmail] - an address failed syntax validation
//   - [ErrInvalidRowValue] - "number" is not an integer
//
// The parser has no state; parsing the same text twice yields the same slice.
package recipients
