package recipients

import (
	"encoding/json"
	"fmt"
)

// Recipient is one normalized entry of the recipient list.
type Recipient struct {
	// Tag is nil when the CSV has no "tag" column.
	Tag    *string
	Email  string
	Name   string
	Number int
}

// Total sums Number across rs.
func Total(rs []Recipient) int {
	n := 0
	for _, r := range rs {
		n += r.Number
	}
	return n
}

// MarshalJSON encodes the recipient as [email, number, name, tag], the tuple
// shape the background job contract uses.
func (r Recipient) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{r.Email, r.Number, r.Name, r.Tag})
}

// UnmarshalJSON decodes the [email, number, name, tag] tuple.
func (r *Recipient) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return fmt.Errorf("recipients: decode tuple: %w", err)
	}
	if len(tuple) != 4 {
		return fmt.Errorf("recipients: expected 4 tuple elements, got %d", len(tuple))
	}

	var out Recipient
	if err := json.Unmarshal(tuple[0], &out.Email); err != nil {
		return fmt.Errorf("recipients: decode email: %w", err)
	}
	if err := json.Unmarshal(tuple[1], &out.Number); err != nil {
		return fmt.Errorf("recipients: decode number: %w", err)
	}
	if err := json.Unmarshal(tuple[2], &out.Name); err != nil {
		return fmt.Errorf("recipients: decode name: %w", err)
	}
	if err := json.Unmarshal(tuple[3], &out.Tag); err != nil {
		return fmt.Errorf("recipients: decode tag: %w", err)
	}

	*r = out
	return nil
}
