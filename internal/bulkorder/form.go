package bulkorder

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/evolutio/automated-orders/pkg/recipients"
)

// Form field names.
const (
	FieldProduct    = "product"
	FieldRecipients = "send_recipients"
)

// Form errors raised on top of the parser's.
var (
	ErrRequired               = errors.New("bulkorder: field is required")
	ErrInvalidChoice          = errors.New("bulkorder: invalid choice")
	ErrEmptyRecipients        = errors.New("bulkorder: recipients required when sending")
	ErrRecipientCountMismatch = errors.New("bulkorder: recipient count does not match generated codes")
)

const (
	KeyRequired               = "form.required"
	KeyInvalidChoice          = "form.invalid_choice"
	KeyEmptyRecipients        = "automated_orders.empty_recipients"
	KeyRecipientCountMismatch = "automated_orders.recipient_count_mismatch"
)

var formMessages = map[string]string{
	KeyRequired:               "This field is required.",
	KeyInvalidChoice:          "Select a valid choice. That choice is not one of the available choices.",
	KeyEmptyRecipients:        "If orders should be sent by email, recipients need to be specified.",
	KeyRecipientCountMismatch: "You generated {{codes}} orders, but entered recipients for {{recp}} orders.",
}

// InitialRecipients prefills the recipients textarea.
const InitialRecipients = "email,name\n"

// Product is a product the form may offer.
type Product struct {
	Name  string
	Price decimal.Decimal
	ID    int64
}

// Form is the raw submission. Codes and Send are filled by a collaborating
// feature that pre-generates order codes and may be empty.
type Form struct {
	Product    string
	Recipients string
	Codes      []string
	Send       bool
}

// Submission is a validated Form.
type Submission struct {
	Recipients []recipients.Recipient
	Codes      []string
	Product    Product
	Send       bool
}

// Problem is one validation failure. Field is empty for form-wide problems.
type Problem struct {
	Err      error
	Values   map[string]any
	Field    string
	Key      string
	fallback string
}

// Message translates the problem, falling back to English.
func (p *Problem) Message(fn recipients.TranslateFunc) string {
	if fn != nil {
		if msg := fn(p.Key, p.Values); msg != "" && msg != p.Key {
			return msg
		}
	}
	return p.fallback
}

func newProblem(field string, sentinel error, key string, values map[string]any) *Problem {
	msg := formMessages[key]
	for k, v := range values {
		msg = strings.ReplaceAll(msg, "{{"+k+"}}", fmt.Sprint(v))
	}
	return &Problem{Field: field, Err: sentinel, Key: key, Values: values, fallback: msg}
}

// FormError collects every problem found in a Form.
type FormError struct {
	Problems []*Problem
}

func (e *FormError) Error() string {
	msgs := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		if p.Field != "" {
			msgs = append(msgs, p.Field+": "+p.fallback)
			continue
		}
		msgs = append(msgs, p.fallback)
	}
	return "bulkorder: invalid form: " + strings.Join(msgs, "; ")
}

func (e *FormError) Unwrap() []error {
	out := make([]error, 0, len(e.Problems))
	for _, p := range e.Problems {
		out = append(out, p.Err)
	}
	return out
}

// Field returns the problems attached to name; "" selects form-wide ones.
func (e *FormError) Field(name string) []*Problem {
	var out []*Problem
	for _, p := range e.Problems {
		if p.Field == name {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks f against the products the event offers. It returns a
// *FormError when anything is wrong.
func (f Form) Validate(products []Product) (*Submission, error) {
	var (
		problems []*Problem
		sub      = &Submission{Codes: f.Codes, Send: f.Send}
	)

	product, p := pickProduct(f.Product, products)
	if p != nil {
		problems = append(problems, p)
	}
	sub.Product = product

	recipientsValid := false
	switch raw := strings.TrimSpace(f.Recipients); {
	case raw == "":
		problems = append(problems, newProblem(FieldRecipients, ErrRequired, KeyRequired, nil))
	default:
		list, err := recipients.Parse(raw)
		if err != nil {
			problems = append(problems, recipientProblem(err))
			break
		}
		sub.Recipients = list
		recipientsValid = true
	}

	if recipientsValid {
		if f.Send && len(sub.Recipients) == 0 {
			problems = append(problems, newProblem("", ErrEmptyRecipients, KeyEmptyRecipients, nil))
		}
		if f.Send && len(f.Codes) > 0 {
			if codes, recp := len(f.Codes), recipients.Total(sub.Recipients); codes != recp {
				problems = append(problems, newProblem("", ErrRecipientCountMismatch, KeyRecipientCountMismatch,
					map[string]any{"codes": codes, "recp": recp}))
			}
		}
	}

	if len(problems) > 0 {
		return nil, &FormError{Problems: problems}
	}
	return sub, nil
}

func pickProduct(raw string, products []Product) (Product, *Problem) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Product{}, newProblem(FieldProduct, ErrRequired, KeyRequired, nil)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err == nil {
		for _, p := range products {
			if p.ID == id {
				return p, nil
			}
		}
	}
	return Product{}, newProblem(FieldProduct, ErrInvalidChoice, KeyInvalidChoice, nil)
}

func recipientProblem(err error) *Problem {
	var perr *recipients.Error
	if errors.As(err, &perr) {
		return &Problem{
			Field:    FieldRecipients,
			Err:      perr,
			Key:      perr.Key,
			Values:   perr.Values,
			fallback: perr.Error(),
		}
	}
	return &Problem{Field: FieldRecipients, Err: err, fallback: err.Error()}
}
