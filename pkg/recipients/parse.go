package recipients

import (
	"encoding/csv"
	"errors"
	"io"
	"slices"
	"strconv"
	"strings"
)

// Column names accepted in the CSV header.
const (
	ColumnEmail  = "email"
	ColumnName   = "name"
	ColumnTag    = "tag"
	ColumnNumber = "number"
)

var allowedColumns = []string{ColumnEmail, ColumnName, ColumnTag, ColumnNumber}

// Parse turns raw form text into an ordered recipient list.
// Text containing a comma or semicolon is read as CSV with a header row;
// anything else is read as one e-mail address per line.
// The first problem found is returned as an *Error and no recipients are
// returned with it.
func Parse(raw string) ([]Recipient, error) {
	raw = strings.TrimPrefix(raw, "\ufeff")
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	if strings.ContainsAny(raw, ",;") {
		return parseCSV(raw)
	}
	return parseLines(raw)
}

func parseLines(raw string) ([]Recipient, error) {
	var out []Recipient
	for line := range strings.Lines(raw) {
		email := strings.TrimSpace(line)
		if email == "" {
			continue
		}
		if !ValidEmail(email) {
			return nil, newError(ErrInvalidEmail, KeyInvalidEmail, map[string]any{"value": email})
		}
		out = append(out, Recipient{Email: email, Number: 1})
	}
	return out, nil
}

func parseCSV(raw string) ([]Recipient, error) {
	firstLine, _, _ := strings.Cut(raw, "\n")
	if strings.Contains(firstLine, "@") {
		return nil, newError(ErrMissingHeaderRow, KeyMissingHeaderRow, nil)
	}

	d, err := sniff(raw)
	if err != nil {
		e := newError(ErrCSVDialect, KeyCSVDialect, map[string]any{"error": err.Error()})
		e.Cause = err
		return nil, e
	}

	r := csv.NewReader(strings.NewReader(raw))
	r.Comma = d.delimiter
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = d.skipInitialSpace

	header, err := r.Read()
	if err != nil {
		return nil, csvError(err)
	}
	columns, err := indexHeader(header)
	if err != nil {
		return nil, err
	}

	var out []Recipient
	for row := 1; ; row++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvError(err)
		}
		rec, err := parseRecord(record, columns, row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func indexHeader(header []string) (map[string]int, error) {
	if !slices.Contains(header, ColumnEmail) {
		return nil, newError(ErrMissingRequiredColumn, KeyMissingRequiredColumn, map[string]any{"header": ColumnEmail})
	}
	columns := make(map[string]int, len(header))
	for i, h := range header {
		if !slices.Contains(allowedColumns, h) {
			return nil, newError(ErrUnknownColumn, KeyUnknownColumn, map[string]any{"header": h})
		}
		if _, dup := columns[h]; !dup {
			columns[h] = i
		}
	}
	return columns, nil
}

func parseRecord(record []string, columns map[string]int, row int) (Recipient, error) {
	field := func(name string) (string, bool) {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return "", false
		}
		return record[i], true
	}

	email, _ := field(ColumnEmail)
	if !ValidEmail(email) {
		return Recipient{}, newError(ErrInvalidEmail, KeyInvalidEmail, map[string]any{"value": email})
	}

	rec := Recipient{Email: strings.TrimSpace(email), Number: 1}
	if v, ok := field(ColumnNumber); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 1 {
			e := newError(ErrInvalidRowValue, KeyInvalidRowValue, map[string]any{"number": row})
			e.Cause = err
			return Recipient{}, e
		}
		rec.Number = n
	}
	if v, ok := field(ColumnName); ok {
		rec.Name = v
	}
	if _, ok := columns[ColumnTag]; ok {
		v, _ := field(ColumnTag)
		rec.Tag = &v
	}
	return rec, nil
}

func csvError(err error) error {
	e := newError(ErrCSVDialect, KeyCSVDialect, map[string]any{"error": err.Error()})
	e.Cause = err
	return e
}
