// Package payment validates card input and authorizes charges against a
// payment instrument.
package payment

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

// Field names a validated checkout input.
type Field string

const (
	FieldCardNumber Field = "cardNumber"
	FieldCVV        Field = "cvv"
	FieldExpiryDate Field = "expiryDate"
	FieldEmail      Field = "email"
)

// Messages reported for invalid fields.
const (
	MsgInvalidCardNumber = "Invalid card number. Please enter 13-16 digits with a valid checksum."
	MsgInvalidCVV        = "Invalid CVV. Please enter 3 or 4 digits."
	MsgInvalidExpiryDate = "Invalid expiry date. Please use MM/YY format and ensure date is not in the past."
	MsgInvalidEmail      = "Invalid email address."
)

// ErrConstructionRefused is matched by every *ValidationError.
var ErrConstructionRefused = errors.New("payment instrument refused")

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@(.+)$`)

// FieldError reports a single invalid field.
type FieldError struct {
	Field   Field
	Message string
}

func (e *FieldError) Error() string {
	return e.Message
}

// ValidationError lists every failing field of a payment form.
type ValidationError struct {
	Fields []FieldError
}

// Error joins one message per failing field with newlines.
func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return strings.Join(msgs, "\n")
}

// Is reports whether target is ErrConstructionRefused.
func (e *ValidationError) Is(target error) bool {
	return target == ErrConstructionRefused
}

// Message returns the message for field, or "" if the field passed.
func (e *ValidationError) Message(field Field) string {
	for _, f := range e.Fields {
		if f.Field == field {
			return f.Message
		}
	}
	return ""
}

// Report is the ordered list of failing fields. An empty Report means valid.
type Report []FieldError

// Err returns a *ValidationError for a non-empty report, or nil.
func (r Report) Err() error {
	if len(r) == 0 {
		return nil
	}
	return &ValidationError{Fields: append([]FieldError(nil), r...)}
}

// Validator checks raw payment input. The zero value uses time.Now.
type Validator struct {
	now func() time.Time
}

// NewValidator returns a Validator reading the clock from now.
// A nil now falls back to time.Now.
func NewValidator(now func() time.Time) *Validator {
	return &Validator{now: now}
}

// CheckField validates a single field. It returns a *FieldError on failure
// and nil on success. Fields without a rule always pass.
func (v *Validator) CheckField(field Field, value string) error {
	var ok bool
	var msg string
	switch field {
	case FieldCardNumber:
		ok, msg = ValidCardNumber(value), MsgInvalidCardNumber
	case FieldCVV:
		ok, msg = ValidCVV(value), MsgInvalidCVV
	case FieldExpiryDate:
		ok, msg = ValidExpiry(value, v.clock()), MsgInvalidExpiryDate
	case FieldEmail:
		ok, msg = ValidEmail(value), MsgInvalidEmail
	default:
		return nil
	}
	if ok {
		return nil
	}
	return &FieldError{Field: field, Message: msg}
}

// Report checks card number, CVV and expiry and returns every failure in
// that order.
func (v *Validator) Report(cardNumber, cvv, expiry string) Report {
	var r Report
	for _, in := range []struct {
		field Field
		value string
	}{
		{FieldCardNumber, cardNumber},
		{FieldCVV, cvv},
		{FieldExpiryDate, expiry},
	} {
		var fe *FieldError
		if errors.As(v.CheckField(in.field, in.value), &fe) {
			r = append(r, *fe)
		}
	}
	return r
}

func (v *Validator) clock() time.Time {
	if v == nil || v.now == nil {
		return time.Now()
	}
	return v.now()
}

// CleanCardNumber strips spaces and hyphens.
func CleanCardNumber(s string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(s)
}

// ValidCardNumber reports whether s, after cleaning, is 13 to 16 digits
// with a valid Luhn checksum.
func ValidCardNumber(s string) bool {
	s = CleanCardNumber(s)
	if len(s) < 13 || len(s) > 16 || !allDigits(s) {
		return false
	}
	return luhn(s)
}

func luhn(digits string) bool {
	sum := 0
	for i := range len(digits) {
		d := int(digits[len(digits)-1-i] - '0')
		if i%2 == 1 {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
	}
	return sum%10 == 0
}

// ValidCVV reports whether s is 3 or 4 digits.
func ValidCVV(s string) bool {
	return (len(s) == 3 || len(s) == 4) && allDigits(s)
}

// ValidExpiry reports whether s is a well-formed MM/YY date whose month is
// not before the month of now.
func ValidExpiry(s string, now time.Time) bool {
	if len(s) != 5 || s[2] != '/' || !allDigits(s[:2]) || !allDigits(s[3:]) {
		return false
	}
	month, _ := strconv.Atoi(s[:2])
	yy, _ := strconv.Atoi(s[3:])
	if month < 1 || month > 12 {
		return false
	}
	year := 2000 + yy

	cy, cm, _ := now.Date()
	if year != cy {
		return year > cy
	}
	return time.Month(month) >= cm
}

// ValidEmail reports whether s looks like local@domain.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := range len(s) {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
