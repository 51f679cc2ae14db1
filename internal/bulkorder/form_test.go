package bulkorder_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evolutio/automated-orders/internal/bulkorder"
	"github.com/evolutio/automated-orders/pkg/recipients"
)

var products = []bulkorder.Product{
	{ID: 11, Name: "Student pass", Price: decimal.Zero},
	{ID: 12, Name: "Speaker pass", Price: decimal.Zero},
}

func asFormError(t *testing.T, err error) *bulkorder.FormError {
	t.Helper()

	var fe *bulkorder.FormError
	require.ErrorAs(t, err, &fe)
	return fe
}

func TestForm_Validate(t *testing.T) {
	t.Parallel()

	sub, err := bulkorder.Form{Product: "12", Recipients: "email,name\na@x.com,Ann\nb@y.com,\n"}.Validate(products)
	require.NoError(t, err)
	assert.Equal(t, products[1], sub.Product)
	require.Len(t, sub.Recipients, 2)
	assert.Equal(t, "Ann", sub.Recipients[0].Name)

	req := bulkorder.NewRequest(sub, 7, 42, 3)
	assert.Equal(t, bulkorder.Request{ProductID: 12, EventID: 7, UserID: 42, OrganizerID: 3, Recipients: sub.Recipients}, req)
}

func TestForm_RequiredFields(t *testing.T) {
	t.Parallel()

	_, err := bulkorder.Form{Recipients: "  \n "}.Validate(products)
	fe := asFormError(t, err)

	require.Len(t, fe.Field(bulkorder.FieldProduct), 1)
	require.Len(t, fe.Field(bulkorder.FieldRecipients), 1)
	assert.ErrorIs(t, err, bulkorder.ErrRequired)
	assert.Equal(t, "This field is required.", fe.Field(bulkorder.FieldProduct)[0].Message(nil))
}

func TestForm_ProductNotOffered(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"99", "abc"} {
		_, err := bulkorder.Form{Product: raw, Recipients: "a@x.com"}.Validate(products)
		assert.ErrorIs(t, err, bulkorder.ErrInvalidChoice, raw)
	}
}

func TestForm_ParserErrorsAreFieldErrors(t *testing.T) {
	t.Parallel()

	_, err := bulkorder.Form{Product: "11", Recipients: "a@x.com\nnope"}.Validate(products)
	fe := asFormError(t, err)

	problems := fe.Field(bulkorder.FieldRecipients)
	require.Len(t, problems, 1)
	assert.ErrorIs(t, err, recipients.ErrInvalidEmail)
	assert.Equal(t, "nope is not a valid email address.", problems[0].Message(nil))
	assert.Equal(t, recipients.KeyInvalidEmail, problems[0].Key)
}

func TestForm_SendRequiresRecipients(t *testing.T) {
	t.Parallel()

	_, err := bulkorder.Form{Product: "11", Recipients: bulkorder.InitialRecipients, Send: true}.Validate(products)
	fe := asFormError(t, err)

	require.Len(t, fe.Field(""), 1)
	assert.ErrorIs(t, err, bulkorder.ErrEmptyRecipients)

	sub, err := bulkorder.Form{Product: "11", Recipients: bulkorder.InitialRecipients}.Validate(products)
	require.NoError(t, err)
	assert.Empty(t, sub.Recipients)
}

func TestForm_CodeCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		codes   []string
		send    bool
		wantErr bool
	}{
		{name: "mismatch", raw: "a@x.com\nb@y.com", codes: []string{"A", "B", "C"}, send: true, wantErr: true},
		{name: "numbers summed", raw: "email,number\na@x.com,2\nb@y.com,1", codes: []string{"A", "B", "C"}, send: true},
		{name: "not sending", raw: "a@x.com", codes: []string{"A", "B"}},
		{name: "no codes", raw: "a@x.com", send: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := bulkorder.Form{Product: "11", Recipients: tt.raw, Codes: tt.codes, Send: tt.send}.Validate(products)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			fe := asFormError(t, err)
			require.ErrorIs(t, err, bulkorder.ErrRecipientCountMismatch)
			assert.Equal(t, "You generated 3 orders, but entered recipients for 2 orders.", fe.Field("")[0].Message(nil))
		})
	}
}

func TestProblem_MessageTranslates(t *testing.T) {
	t.Parallel()

	_, err := bulkorder.Form{Product: "11", Recipients: "a@x.com", Codes: []string{"A", "B"}, Send: true}.Validate(products)
	fe := asFormError(t, err)

	translate := func(key string, values map[string]any) string {
		if key == bulkorder.KeyRecipientCountMismatch {
			return "codes mismatch"
		}
		return key
	}
	assert.Equal(t, "codes mismatch", fe.Problems[0].Message(translate))
	assert.Contains(t, err.Error(), "You generated 2 orders, but entered recipients for 1 orders.")
}
