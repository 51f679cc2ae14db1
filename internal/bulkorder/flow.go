package bulkorder

// Flow selects the e-mail templates and audit key for an order.
type Flow struct {
	Name             string
	Template         string
	AttendeeTemplate string
	LogKey           string
	Attendees        bool
	Free             bool
}

// Audit actions written by the processor.
const (
	ActionPlaced = "order.placed"
	ActionPaid   = "order.paid"

	LogEmailRequireApproval = "order.email.order_placed_require_approval"
	LogEmailFree            = "order.email.order_free"
	LogEmailPlaced          = "order.email.order_placed"
	LogEmailPaid            = "order.email.order_paid"
	LogEmailPaidAttendee    = "order.email.order_paid_attendee"
)

// Template names under the mail template directory.
const (
	TemplateRequireApproval = "order_placed_require_approval"
	TemplateFree            = "order_free"
	TemplateFreeAttendee    = "order_free_attendee"
	TemplatePlaced          = "order_placed"
	TemplatePlacedAttendee  = "order_placed_attendee"
	TemplatePaid            = "order_paid"
	TemplatePaidAttendee    = "order_paid_attendee"
)

// IsFree reports whether the order settled at zero cost through a no-cost
// provider without needing approval.
func IsFree(o *Order) bool {
	payment := o.LastPayment()
	return payment != nil &&
		o.Total.IsZero() &&
		o.Status == StatusPaid &&
		!o.RequireApproval &&
		(payment.Provider == ProviderFree || payment.Provider == ProviderBoxOffice)
}

// SelectFlow picks the buyer e-mail for a freshly placed order.
func SelectFlow(ev *Event, o *Order) Flow {
	switch {
	case o.RequireApproval:
		return Flow{
			Name:     "require_approval",
			Template: TemplateRequireApproval,
			LogKey:   LogEmailRequireApproval,
		}
	case IsFree(o):
		return Flow{
			Name:             "free",
			Template:         TemplateFree,
			AttendeeTemplate: TemplateFreeAttendee,
			LogKey:           LogEmailFree,
			Attendees:        ev.Settings.MailFreeAttendees,
			Free:             true,
		}
	default:
		return Flow{
			Name:             "placed",
			Template:         TemplatePlaced,
			AttendeeTemplate: TemplatePlacedAttendee,
			LogKey:           LogEmailPlaced,
			Attendees:        ev.Settings.MailPlacedAttendees,
		}
	}
}
