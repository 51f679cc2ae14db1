package bulkorder

import (
	"errors"
	"fmt"

	"github.com/evolutio/automated-orders/pkg/recipients"
	"github.com/evolutio/automated-orders/pkg/sanitizer"
)

// Defaults are the fixed values every created order carries.
type Defaults struct {
	Locale          string `env:"ORDER_LOCALE" envDefault:"fr-be"`
	SalesChannel    string `env:"ORDER_SALES_CHANNEL" envDefault:"web"`
	PaymentProvider string `env:"ORDER_PAYMENT_PROVIDER" envDefault:"free"`
	AttendeeName    string `env:"ORDER_PLACEHOLDER_NAME" envDefault:"Aluno"`
}

// DefaultDefaults mirrors the envDefault tags.
func DefaultDefaults() Defaults {
	return Defaults{
		Locale:          "fr-be",
		SalesChannel:    "web",
		PaymentProvider: ProviderFree,
		AttendeeName:    "Aluno",
	}
}

// Payload is the input of the order creation contract.
type Payload struct {
	Email           string            `json:"email"`
	Locale          string            `json:"locale"`
	SalesChannel    string            `json:"sales_channel"`
	PaymentProvider string            `json:"payment_provider"`
	Positions       []PositionPayload `json:"positions"`
	SendEmail       bool              `json:"send_email"`
}

type PositionPayload struct {
	AttendeeName  string `json:"attendee_name"`
	AttendeeEmail string `json:"attendee_email"`
	ItemID        int64  `json:"item"`
}

// BuildPayload builds a single-position order for r.
func BuildPayload(d Defaults, productID int64, r recipients.Recipient) *Payload {
	name := sanitizer.Text(r.Name)
	if name == "" {
		name = d.AttendeeName
	}
	return &Payload{
		Email:           r.Email,
		Locale:          d.Locale,
		SalesChannel:    d.SalesChannel,
		PaymentProvider: d.PaymentProvider,
		SendEmail:       true,
		Positions: []PositionPayload{{
			ItemID:        productID,
			AttendeeName:  name,
			AttendeeEmail: r.Email,
		}},
	}
}

// Validate checks the payload before it reaches a transaction.
func (p *Payload) Validate() error {
	var errs []error
	if !recipients.ValidEmail(p.Email) {
		errs = append(errs, fmt.Errorf("email %q is not valid", p.Email))
	}
	if p.Locale == "" {
		errs = append(errs, errors.New("locale is required"))
	}
	if p.SalesChannel == "" {
		errs = append(errs, errors.New("sales channel is required"))
	}
	if p.PaymentProvider == "" {
		errs = append(errs, errors.New("payment provider is required"))
	}
	if len(p.Positions) == 0 {
		errs = append(errs, errors.New("at least one position is required"))
	}
	for i, pos := range p.Positions {
		if pos.ItemID <= 0 {
			errs = append(errs, fmt.Errorf("position %d: item is required", i))
		}
		if pos.AttendeeEmail != "" && !recipients.ValidEmail(pos.AttendeeEmail) {
			errs = append(errs, fmt.Errorf("position %d: attendee email %q is not valid", i, pos.AttendeeEmail))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(append([]error{ErrInvalidPayload}, errs...)...)
}
