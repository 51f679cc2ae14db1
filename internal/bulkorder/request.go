package bulkorder

import (
	"errors"
	"slices"

	"github.com/evolutio/automated-orders/pkg/recipients"
)

// Request is the serializable command consumed by the background job. It
// carries ids only so it can be executed in another process.
type Request struct {
	Recipients  []recipients.Recipient `json:"recipients"`
	ProductID   int64                  `json:"product_id"`
	EventID     int64                  `json:"event_id"`
	UserID      int64                  `json:"user_id"`
	OrganizerID int64                  `json:"organizer_id"`
}

// NewRequest snapshots a validated submission for the given scope.
func NewRequest(s *Submission, eventID, userID, organizerID int64) Request {
	return Request{
		ProductID:   s.Product.ID,
		EventID:     eventID,
		UserID:      userID,
		OrganizerID: organizerID,
		Recipients:  slices.Clone(s.Recipients),
	}
}

func (r Request) Validate() error {
	var errs []error
	if r.ProductID <= 0 {
		errs = append(errs, errors.New("product_id is required"))
	}
	if r.EventID <= 0 {
		errs = append(errs, errors.New("event_id is required"))
	}
	if r.OrganizerID <= 0 {
		errs = append(errs, errors.New("organizer_id is required"))
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(append([]error{ErrInvalidRequest}, errs...)...)
}
