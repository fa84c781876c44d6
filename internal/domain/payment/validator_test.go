package payment

import (
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(year int, month time.Month) func() time.Time {
	return func() time.Time {
		return time.Date(year, month, 15, 12, 0, 0, 0, time.UTC)
	}
}

func TestValidCardNumber(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "valid visa", input: "4532015112830366", want: true},
		{name: "checksum off by one", input: "4532015112830367", want: false},
		{name: "spaces stripped", input: "4111 1111 1111 1111", want: true},
		{name: "hyphens stripped", input: "4111-1111-1111-1111", want: true},
		{name: "13 digits", input: "4222222222222", want: true},
		{name: "12 digits", input: "411111111111", want: false},
		{name: "17 digits", input: "41111111111111111", want: false},
		{name: "letters", input: "4111a11111111111", want: false},
		{name: "empty", input: "", want: false},
		{name: "only separators", input: " - - ", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidCardNumber(tt.input))
		})
	}
}

func TestValidCVV(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"12", false},
		{"123", true},
		{"1234", true},
		{"12345", false},
		{"12a", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidCVV(tt.input))
		})
	}
}

func TestValidExpiry(t *testing.T) {
	now := fixedClock(2025, time.June)()

	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "past year", input: "01/24", want: false},
		{name: "earlier month same year", input: "05/25", want: false},
		{name: "current month", input: "06/25", want: true},
		{name: "later month", input: "07/25", want: true},
		{name: "next year early month", input: "01/26", want: true},
		{name: "month 13", input: "13/25", want: false},
		{name: "month 00", input: "00/26", want: false},
		{name: "wrong separator", input: "06-25", want: false},
		{name: "four digit year", input: "06/2025", want: false},
		{name: "single digit month", input: "6/25", want: false},
		{name: "non numeric", input: "ab/cd", want: false},
		{name: "empty", input: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidExpiry(tt.input, now))
		})
	}
}

func TestValidEmail(t *testing.T) {
	assert.True(t, ValidEmail("jane.doe+shop@example.com"))
	assert.False(t, ValidEmail("jane@"))
	assert.False(t, ValidEmail("@example.com"))
	assert.False(t, ValidEmail("jane doe@example.com"))
	assert.False(t, ValidEmail(""))
}

func TestValidator_CheckField(t *testing.T) {
	v := NewValidator(fixedClock(2025, time.June))

	tests := []struct {
		name    string
		field   Field
		value   string
		wantMsg string
	}{
		{name: "valid card", field: FieldCardNumber, value: "4532015112830366"},
		{name: "invalid card", field: FieldCardNumber, value: "4532015112830367", wantMsg: MsgInvalidCardNumber},
		{name: "valid cvv", field: FieldCVV, value: "123"},
		{name: "invalid cvv", field: FieldCVV, value: "12", wantMsg: MsgInvalidCVV},
		{name: "valid expiry", field: FieldExpiryDate, value: "06/25"},
		{name: "expired", field: FieldExpiryDate, value: "01/24", wantMsg: MsgInvalidExpiryDate},
		{name: "invalid email", field: FieldEmail, value: "nope", wantMsg: MsgInvalidEmail},
		{name: "unknown field has no rule", field: Field("nickname"), value: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.CheckField(tt.field, tt.value)
			if tt.wantMsg == "" {
				require.NoError(t, err)
				return
			}

			var fe *FieldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.field, fe.Field)
			assert.Equal(t, tt.wantMsg, fe.Message)
		})
	}
}

func TestValidator_Report(t *testing.T) {
	v := NewValidator(fixedClock(2025, time.June))

	t.Run("all valid", func(t *testing.T) {
		r := v.Report("4532015112830366", "123", "12/27")
		assert.Empty(t, r)
		assert.NoError(t, r.Err())
	})

	t.Run("every failure reported in field order", func(t *testing.T) {
		r := v.Report("1234", "1", "13/25")
		require.Len(t, r, 3)
		assert.Equal(t, FieldCardNumber, r[0].Field)
		assert.Equal(t, FieldCVV, r[1].Field)
		assert.Equal(t, FieldExpiryDate, r[2].Field)

		err := r.Err()
		require.ErrorIs(t, err, ErrConstructionRefused)

		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, MsgInvalidCardNumber+"\n"+MsgInvalidCVV+"\n"+MsgInvalidExpiryDate, ve.Error())
		assert.Equal(t, MsgInvalidCVV, ve.Message(FieldCVV))
		assert.Empty(t, ve.Message(FieldEmail))
	})

	t.Run("single failure", func(t *testing.T) {
		err := v.Report("4532015112830366", "12345", "06/25").Err()
		require.Error(t, err)
		assert.Equal(t, MsgInvalidCVV, err.Error())
	})
}

func TestValidator_ZeroValueUsesWallClock(t *testing.T) {
	var v Validator
	next := time.Now().AddDate(1, 0, 0).Format("01/06")

	assert.NoError(t, v.CheckField(FieldExpiryDate, next))
	assert.Error(t, v.CheckField(FieldExpiryDate, "01/00"))
}

func TestValidationError_IsOnlyConstructionRefused(t *testing.T) {
	err := &ValidationError{Fields: []FieldError{{Field: FieldCVV, Message: MsgInvalidCVV}}}
	assert.True(t, errors.Is(err, ErrConstructionRefused))
	assert.False(t, errors.Is(err, ErrInvalidAmount))
}
