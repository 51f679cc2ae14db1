package views

import "github.com/a-h/templ"

// Option is one entry of a select field.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

// FormPage is the bulk order form. Labels are already translated.
type FormPage struct {
	Lang   string
	Title  string
	Event  string
	Action string

	ProductLabel string
	Products     []Option
	ProductError []string

	RecipientsLabel       string
	RecipientsHelp        string
	RecipientsPlaceholder string
	Recipients            string
	RecipientsError       []string

	// Errors are form-wide messages.
	Errors []string
	Flash  string
	Submit string
}

func BulkOrderForm(p FormPage) templ.Component {
	return page("bulkorder_form.html", p)
}
